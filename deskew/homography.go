// Package deskew implements spec.md §4.6: locating the page inside a
// photographed image and warping it back to the canonical
// TOTAL_SIZE x TOTAL_SIZE square, plus the symbol-classification
// preprocess (sharpen + grayscale).
//
// No homography or perspective-warp library appears anywhere in the
// retrieved example pack (golang.org/x/image/draw only composites
// affine transforms), so the projective math here is hand-rolled: a
// direct 8x8 linear solve for the homography coefficients, Gaussian
// elimination with partial pivoting, plus a basic backward-mapped
// bilinear resampler for the warp itself.
package deskew

import (
	"errors"
	"fmt"
)

// Point is a 2D pixel coordinate.
type Point struct{ X, Y float64 }

// Homography is a 3x3 projective transform stored row-major; H[2][2]
// is conventionally normalized to 1 after Solve.
type Homography [3][3]float64

// ErrHomographyDegenerate is the fatal condition from spec.md §7: the
// four detected anchor centers do not determine a valid perspective
// transform (e.g. three are collinear).
var ErrHomographyDegenerate = errors.New("deskew: homography is degenerate")

// Apply maps a source-image point through h to its destination-image
// coordinate, applying the perspective (homogeneous) divide.
func (h Homography) Apply(p Point) Point {
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	if w == 0 {
		return Point{}
	}
	x := (h[0][0]*p.X + h[0][1]*p.Y + h[0][2]) / w
	y := (h[1][0]*p.X + h[1][1]*p.Y + h[1][2]) / w
	return Point{x, y}
}

// Invert returns the inverse homography, used to backward-map
// destination pixels to source coordinates when warping.
func (h Homography) Invert() (Homography, error) {
	var m [3][3]float64 = h
	// Cofactor-expansion 3x3 inverse.
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if det == 0 {
		return Homography{}, ErrHomographyDegenerate
	}
	invDet := 1 / det
	var out Homography
	out[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) * invDet
	out[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) * invDet
	out[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) * invDet
	out[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) * invDet
	out[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) * invDet
	out[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) * invDet
	out[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) * invDet
	out[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) * invDet
	out[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) * invDet
	return out, nil
}

// SolveHomography computes the projective transform mapping each
// src[i] to dst[i] for four point correspondences (spec.md §4.6 step
// 2: "compute the perspective transform mapping detected anchor
// centers to the canonical corners"). The four points MUST be in
// consistent order (e.g. TL, TR, BL, BR) on both sides.
func SolveHomography(src, dst [4]Point) (Homography, error) {
	// Standard DLT setup: each correspondence gives two rows of the
	// 8x8 system A*h = b, solving for h with H[2][2]=1 fixed.
	var a [8][8]float64
	var b [8]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y

		a[2*i] = [8]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx}
		b[2*i] = dx

		a[2*i+1] = [8]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy}
		b[2*i+1] = dy
	}

	h, err := solveLinear8(a, b)
	if err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrHomographyDegenerate, err)
	}
	return Homography{
		{h[0], h[1], h[2]},
		{h[3], h[4], h[5]},
		{h[6], h[7], 1},
	}, nil
}

// solveLinear8 solves the 8x8 linear system a*x = b by Gaussian
// elimination with partial pivoting.
func solveLinear8(a [8][8]float64, b [8]float64) ([8]float64, error) {
	const n = 8
	var m [n][n + 1]float64
	for i := 0; i < n; i++ {
		copy(m[i][:n], a[i][:])
		m[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		best := abs(m[col][col])
		for r := col + 1; r < n; r++ {
			if v := abs(m[r][col]); v > best {
				pivot, best = r, v
			}
		}
		if best < 1e-9 {
			return [8]float64{}, errors.New("singular system")
		}
		m[col], m[pivot] = m[pivot], m[col]

		pv := m[col][col]
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := m[r][col] / pv
			if factor == 0 {
				continue
			}
			for c := col; c <= n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	var x [8]float64
	for i := 0; i < n; i++ {
		x[i] = m[i][n] / m[i][i]
	}
	return x, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
