package deskew

import (
	"image"
	"image/color"
)

// Warp resamples src through the inverse of h into a new outW x outH
// RGBA image, using backward mapping (for each destination pixel,
// locate its source coordinate) with bilinear interpolation. Pixels
// that map outside src are filled with fill.
func Warp(src image.Image, h Homography, outW, outH int, fill color.Color) (*image.RGBA, error) {
	inv, err := h.Invert()
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			srcPt := inv.Apply(Point{float64(x), float64(y)})
			dst.Set(x, y, bilinear(src, srcPt.X, srcPt.Y, fill))
		}
	}
	return dst, nil
}

// bilinear samples src at fractional coordinates (x, y), falling back
// to fill outside src's bounds.
func bilinear(src image.Image, x, y float64, fill color.Color) color.Color {
	b := src.Bounds()
	x0 := int(floor(x))
	y0 := int(floor(y))
	if x0 < b.Min.X-1 || x0 > b.Max.X || y0 < b.Min.Y-1 || y0 > b.Max.Y {
		return fill
	}
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := sampleClamped(src, x0, y0)
	c10 := sampleClamped(src, x0+1, y0)
	c01 := sampleClamped(src, x0, y0+1)
	c11 := sampleClamped(src, x0+1, y0+1)

	return color.RGBA64{
		R: lerp2(c00.R, c10.R, c01.R, c11.R, fx, fy),
		G: lerp2(c00.G, c10.G, c01.G, c11.G, fx, fy),
		B: lerp2(c00.B, c10.B, c01.B, c11.B, fx, fy),
		A: lerp2(c00.A, c10.A, c01.A, c11.A, fx, fy),
	}
}

func sampleClamped(src image.Image, x, y int) color.RGBA64 {
	b := src.Bounds()
	if x < b.Min.X {
		x = b.Min.X
	}
	if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y < b.Min.Y {
		y = b.Min.Y
	}
	if y >= b.Max.Y {
		y = b.Max.Y - 1
	}
	r, g, bl, a := src.At(x, y).RGBA()
	return color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(bl), A: uint16(a)}
}

func lerp2(v00, v10, v01, v11 uint16, fx, fy float64) uint16 {
	top := float64(v00)*(1-fx) + float64(v10)*fx
	bottom := float64(v01)*(1-fx) + float64(v11)*fx
	return uint16(top*(1-fy) + bottom*fy)
}

func floor(v float64) float64 {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return float64(i)
}
