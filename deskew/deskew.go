package deskew

import (
	"image"
	stddraw "image/draw"

	"image/color"

	"golang.org/x/image/draw"

	"github.com/svanichkin/cimbar/geometry"
)

// Level selects how much geometric correction Deskew performs,
// matching spec.md §4.6's three levels: 0 disables deskew entirely
// (the input is assumed already canonical), 1 applies homography
// only, 2 adds the dewarp pass (see dewarp for what it does and does
// not correct).
type Level int

const (
	LevelNone       Level = 0
	LevelHomography Level = 1
	LevelDewarp     Level = 2
)

// canonicalCorners are the four anchor centers' nominal pixel position
// in the TOTAL_SIZE x TOTAL_SIZE canonical page, TL/TR/BL/BR order.
func canonicalCorners() [4]Point {
	half := float64(geometry.TotalSize) - anchorCenter
	return [4]Point{
		{anchorCenter, anchorCenter},
		{half, anchorCenter},
		{anchorCenter, half},
		{half, half},
	}
}

// anchorCenter is the pixel offset from a page edge to its corner
// anchor's center.
const anchorCenter = anchorFootprint / 2

// Result is the outcome of Deskew: the canonical-sized image plus the
// effective dimensions the source was warped from (spec.md §4.6 step
// 4, used to decide whether the sharpening preprocess is required).
type Result struct {
	Image       *image.RGBA
	SourceWidth int
	SourceHeight int
}

// Deskew implements spec.md §4.6 end to end. dark selects which
// background luminance anchor detection expects.
func Deskew(src image.Image, level Level, dark bool) (Result, error) {
	b := src.Bounds()
	if level == LevelNone {
		return Result{Image: toRGBA(src), SourceWidth: b.Dx(), SourceHeight: b.Dy()}, nil
	}

	anchors, err := Detect(src, dark)
	if err != nil {
		return Result{}, err
	}
	dst := canonicalCorners()
	h, err := SolveHomography([4]Point{anchors[0], anchors[1], anchors[2], anchors[3]}, dst)
	if err != nil {
		return Result{}, err
	}

	bg := color.Black
	var fill color.Color = bg
	if !dark {
		fill = color.White
	}
	warped, err := Warp(src, h, geometry.TotalSize, geometry.TotalSize, fill)
	if err != nil {
		return Result{}, err
	}

	if level >= LevelDewarp {
		warped = dewarp(warped)
	}

	return Result{Image: warped, SourceWidth: b.Dx(), SourceHeight: b.Dy()}, nil
}

// dewarp rescales img to exactly TOTAL_SIZE x TOTAL_SIZE with
// golang.org/x/image/draw's BiLinear scaler when its size differs, and
// returns a TOTAL_SIZE x TOTAL_SIZE image unchanged. It does not read
// the guide bars and does not correct non-projective (lens or paper)
// distortion; since Warp already produces a TOTAL_SIZE x TOTAL_SIZE
// image, level 2 gives the same result as level 1.
func dewarp(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == geometry.TotalSize && b.Dy() == geometry.TotalSize {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, geometry.TotalSize, geometry.TotalSize))
	draw.BiLinear.Scale(out, out.Bounds(), img, b, draw.Over, nil)
	return out
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	out := image.NewRGBA(b)
	stddraw.Draw(out, b, src, b.Min, stddraw.Src)
	return out
}
