package palette

import "errors"

// ErrPaletteMismatch is the non-fatal PaletteMismatch condition from
// spec.md §7: a color classification (or, here, an atlas asset) didn't
// line up with the expected palette; callers fall back to the nearest
// entry and keep going.
var ErrPaletteMismatch = errors.New("palette: mismatch")
