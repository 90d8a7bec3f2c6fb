package deskew

import (
	"errors"
	"image"
	"image/color"

	"github.com/svanichkin/cimbar/geometry"
)

// ErrAnchorNotFound is the fatal condition from spec.md §7: one or
// more of the four fiducials could not be located.
var ErrAnchorNotFound = errors.New("deskew: anchor fiducial not found")

// anchorFootprint is the pixel side length of the square region a
// corner anchor occupies, matching geometry's anchorSpan in cell
// units (12 cells x CellSpacing px).
const anchorFootprint = 12 * (geometry.CellSize + 1)

// searchMargin widens the quadrant search window beyond the nominal
// footprint so a mildly rotated/translated photograph still contains
// the whole anchor inside its search quadrant.
const searchMargin = 2.5

// Anchors holds the four detected fiducial centers, in TL, TR, BL, BR
// order, in source-image pixel coordinates.
type Anchors [4]Point

// Detect locates the four anchor fiducials in img by finding, within
// each image quadrant, the centroid of pixels whose luminance departs
// from the page background by more than a threshold. This assumes the
// photograph is roughly upright and uncropped, which holds for the
// homography-only (level 1) and dewarp (level 2) use cases described
// in spec.md §4.6; a production detector would instead correlate
// against the anchor bitmap's exact shape.
func Detect(img image.Image, dark bool) (Anchors, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Anchors{}, ErrAnchorNotFound
	}

	bg := backgroundLuminance(dark)
	quadrants := [4]image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+w/2, b.Min.Y+h/2),                   // TL
		image.Rect(b.Min.X+w/2, b.Min.Y, b.Max.X, b.Min.Y+h/2),                   // TR
		image.Rect(b.Min.X, b.Min.Y+h/2, b.Min.X+w/2, b.Max.Y),                   // BL
		image.Rect(b.Min.X+w/2, b.Min.Y+h/2, b.Max.X, b.Max.Y),                   // BR
	}

	windowSize := int(float64(anchorFootprint) * searchMargin)

	var out Anchors
	for i, q := range quadrants {
		window := cornerWindow(q, i, windowSize)
		c, ok := centroidFarFrom(img, window, bg)
		if !ok {
			return Anchors{}, ErrAnchorNotFound
		}
		out[i] = c
	}
	return out, nil
}

// cornerWindow restricts rect to a windowSize x windowSize square at
// its page-facing corner (TL quadrant -> rect's own top-left corner,
// TR -> top-right, BL -> bottom-left, BR -> bottom-right), clipped to
// rect. corner uses the same TL/TR/BL/BR index order as Anchors.
func cornerWindow(rect image.Rectangle, corner, windowSize int) image.Rectangle {
	x0, y0, x1, y1 := rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y
	switch corner {
	case 0: // TL
		x1, y1 = min(x0+windowSize, x1), min(y0+windowSize, y1)
	case 1: // TR
		x0, y1 = max(x1-windowSize, x0), min(y0+windowSize, y1)
	case 2: // BL
		x1, y0 = min(x0+windowSize, x1), max(y1-windowSize, y0)
	case 3: // BR
		x0, y0 = max(x1-windowSize, x0), max(y1-windowSize, y0)
	}
	return image.Rect(x0, y0, x1, y1)
}

func backgroundLuminance(dark bool) uint8 {
	if dark {
		return 0
	}
	return 0xFF
}

// centroidFarFrom computes the unweighted centroid of pixels in rect
// whose luminance differs from bg by at least a fixed threshold (every
// such pixel counts equally). Callers pass a corner-restricted window (see cornerWindow)
// so guide bars near the midline aren't mistaken for anchors.
func centroidFarFrom(img image.Image, rect image.Rectangle, bg uint8) (Point, bool) {
	const threshold = 40

	var sumX, sumY, weight float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			lum := luminance(img.At(x, y))
			d := int(lum) - int(bg)
			if d < 0 {
				d = -d
			}
			if d < threshold {
				continue
			}
			sumX += float64(x)
			sumY += float64(y)
			weight++
		}
	}
	if weight == 0 {
		return Point{}, false
	}
	return Point{sumX / weight, sumY / weight}, true
}

func luminance(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	// Rec. 601 luma, truncated back to 8 bits; inputs are already
	// 16-bit-scaled by color.Color.RGBA().
	y := (299*r + 587*g + 114*b) / 1000
	return uint8(y >> 8)
}
