package cimbar

import (
	"errors"

	"github.com/svanichkin/cimbar/deskew"
	"github.com/svanichkin/cimbar/fountain"
)

// The core's error taxonomy (spec.md §7). AnchorNotFound and
// HomographyDegenerate are re-exported from deskew since that's where
// they're raised; FountainIncomplete likewise from fountain.
// StreamTruncated is defined locally. PaletteMismatch is not re-exported
// here; it exists only as palette.ErrPaletteMismatch.
var (
	ErrAnchorNotFound       = deskew.ErrAnchorNotFound
	ErrHomographyDegenerate = deskew.ErrHomographyDegenerate
	ErrFountainIncomplete   = fountain.ErrIncomplete
	ErrStreamTruncated      = errors.New("cimbar: stream truncated")
)
