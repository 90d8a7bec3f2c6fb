package deskew

import (
	"image"
	"image/color"
)

// sharpenKernel is the 3x3 high-pass kernel from spec.md §4.6, used
// only ahead of symbol classification; color classification always
// sees the unsharpened image.
var sharpenKernel = [3][3]float64{
	{-1, -1, -1},
	{-1, 8.5, -1},
	{-1, -1, -1},
}

// Sharpen applies sharpenKernel to src and converts the result to
// grayscale, returning a *image.Gray the symbol classifier can crop
// binarized patches from.
func Sharpen(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := toGray(src)
	out := image.NewGray(b)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var acc float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sx, sy := clamp(x+kx, b.Min.X, b.Max.X-1), clamp(y+ky, b.Min.Y, b.Max.Y-1)
					acc += sharpenKernel[ky+1][kx+1] * float64(gray.GrayAt(sx, sy).Y)
				}
			}
			out.SetGray(x, y, color.Gray{Y: clampByte(acc)})
		}
	}
	return out
}

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, src.At(x, y))
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Binarize thresholds a grayscale image around its own mean, the
// simplest policy that needs no palette-specific tuning: foreground
// pixels (brighter than the mean for a dark page, darker for a light
// page) become 1.
func Binarize(g *image.Gray, dark bool) *image.Gray {
	b := g.Bounds()
	var sum, n int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += int(g.GrayAt(x, y).Y)
			n++
		}
	}
	if n == 0 {
		return g
	}
	mean := uint8(sum / n)

	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := g.GrayAt(x, y).Y
			fg := v > mean
			if !dark {
				fg = !fg
			}
			if fg {
				out.SetGray(x, y, color.Gray{Y: 1})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}
