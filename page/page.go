// Package page builds the canonical TOTAL_SIZE x TOTAL_SIZE code
// image template: the background, the four anchor fiducials, and the
// guide bars, mirroring _get_image_template in the original Python
// implementation this spec was distilled from.
package page

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/svanichkin/cimbar/geometry"
	"github.com/svanichkin/cimbar/palette"
)

// anchorSpanPx is the pixel footprint of a corner anchor fiducial.
const anchorSpanPx = 12 * geometry.CellSpacing

// guideSpanPx is the pixel footprint of one guide bar segment.
const guideSpanPx = 16 * geometry.CellSpacing

// NewTemplate builds a blank canonical page: solid background plus
// the four anchors and the guide bars, ready for cells to be pasted
// onto its data area.
func NewTemplate(p palette.Palette) *image.RGBA {
	size := geometry.TotalSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	bg := image.NewUniform(p.Background)
	draw.Draw(img, img.Bounds(), bg, image.Point{}, draw.Src)

	fg := p.ColorAt(0)
	anchor := solidSquare(anchorSpanPx, fg)
	anchorBR := ringSquare(anchorSpanPx, fg, p.Background)

	paste(img, anchor, 0, 0)
	paste(img, anchor, 0, size-anchorSpanPx)
	paste(img, anchor, size-anchorSpanPx, 0)
	paste(img, anchorBR, size-anchorSpanPx, size-anchorSpanPx)

	hGuide := solidBar(guideSpanPx, geometry.CellSpacing*2, fg)
	vGuide := solidBar(geometry.CellSpacing*2, guideSpanPx, fg)

	mid := size / 2
	paste(img, hGuide, mid-guideSpanPx/2, 2)
	paste(img, hGuide, mid-guideSpanPx/2, size-4)
	paste(img, hGuide, mid-guideSpanPx-guideSpanPx/2, size-4)
	paste(img, hGuide, mid+guideSpanPx-guideSpanPx/2, size-4)

	paste(img, vGuide, 2, mid-guideSpanPx/2)
	paste(img, vGuide, size-4, mid-guideSpanPx/2)

	return img
}

func paste(dst draw.Image, src image.Image, x, y int) {
	b := src.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(dst, r, src, b.Min, draw.Src)
}

// solidSquare renders a side x side solid square of fg.
func solidSquare(side int, fg color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), image.NewUniform(fg), image.Point{}, draw.Src)
	return img
}

// ringSquare renders a side x side square with a solid fg border and a
// bg-colored interior, giving the bottom-right anchor a silhouette
// distinct from the three plain corner anchors. deskew.Detect takes one
// centroid per image quadrant and does not use this difference, so a
// rotated or mirrored page is not re-oriented on decode.
func ringSquare(side int, fg, bg color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	border := side / 4
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			if x < border || x >= side-border || y < border || y >= side-border {
				img.Set(x, y, fg)
			} else {
				img.Set(x, y, bg)
			}
		}
	}
	return img
}

// solidBar renders a w x h solid bar of fg, used for the guide
// segments.
func solidBar(w, h int, fg color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(fg), image.Point{}, draw.Src)
	return img
}
