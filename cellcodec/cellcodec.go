// Package cellcodec implements spec.md §4.2's per-cell encode/decode:
// pasting a tinted icon tile onto a canvas, and recovering
// (symbol_id, color_id, drift, distance) from a photographed cell by
// searching the drift hint's candidate offsets against the palette's
// icon set.
package cellcodec

import (
	"image"
	"image/draw"

	"github.com/svanichkin/cimbar/geometry"
	"github.com/svanichkin/cimbar/palette"
)

// EncodeCell pastes the tile for (symbolID, colorID) onto dst at pixel
// origin (x, y), per spec.md §4.2's encode step.
func EncodeCell(dst draw.Image, p palette.Palette, x, y, symbolID, colorID int) {
	tile := palette.EncodeTile(p, symbolID, colorID)
	draw.Draw(dst, image.Rect(x, y, x+palette.TileSize, y+palette.TileSize), tile, image.Point{}, draw.Src)
}

// Result is one cell's decoded payload plus the diagnostics needed to
// update the flood traversal's drift state.
type Result struct {
	Bits     int // (color_id << BITS_PER_SYMBOL) | symbol_id
	DX, DY   int
	Distance int
}

// DecodeCell implements spec.md §4.2's decode algorithm: search the
// drift hint's candidate offsets against the grayscale (preprocessed)
// image for the best-matching icon, then classify color from the
// unsharpened image at the winning offset.
func DecodeCell(gray, rgb GrayColorSource, x, y int, hint geometry.Drift, p palette.Palette) Result {
	bestDist := palette.TileSize*palette.TileSize + 1
	bestSymbol := 0
	bestDX, bestDY := 0, 0

	for _, off := range hint.Pairs() {
		px := x + hint.X + off.DX
		py := y + hint.Y + off.DY
		patch := gray.BinaryPatch(px, py, palette.TileSize)
		symbol, dist := palette.DecodeSymbol(patch)
		if dist < bestDist {
			bestDist, bestSymbol, bestDX, bestDY = dist, symbol, off.DX, off.DY
		}
		if bestDist < 8 {
			break // spec.md §4.2: early-exit once distance < 8
		}
	}

	winX := x + hint.X + bestDX
	winY := y + hint.Y + bestDY
	r, g, b := rgb.MeanInset(winX, winY, palette.TileSize, 1)
	// The inset mean blends icon pixels with background pixels; undo the
	// blend using the winning icon's foreground share of the inset.
	tile, fg := palette.Tile(bestSymbol), 0
	for ty := 1; ty < palette.TileSize-1; ty++ {
		for tx := 1; tx < palette.TileSize-1; tx++ {
			fg += int(tile[ty][tx])
		}
	}
	if fg > 0 {
		area, bg := (palette.TileSize-2)*(palette.TileSize-2), int(p.Background.Y)
		unmix := func(v uint8) uint8 { return uint8(min(max(bg+(int(v)-bg)*area/fg, 0), 255)) }
		r, g, b = unmix(r), unmix(g), unmix(b)
	}
	colorID := palette.DecodeColor(p, r, g, b)

	return Result{
		Bits:     (colorID << geometry.BitsPerSymbol) | bestSymbol,
		DX:       bestDX,
		DY:       bestDY,
		Distance: bestDist,
	}
}

// GrayColorSource is the pair of views DecodeCell needs: a binarized
// grayscale view for symbol search, and the original color view for
// color classification. Implemented by deskew's preprocessed page.
type GrayColorSource interface {
	// BinaryPatch returns the size x size binarized (0/1) patch whose
	// top-left pixel is (x, y).
	BinaryPatch(x, y, size int) [8][8]uint8
	// MeanInset returns the mean RGB of the size x size patch at
	// (x, y), inset by inset pixels on every side.
	MeanInset(x, y, size, inset int) (r, g, b uint8)
}
