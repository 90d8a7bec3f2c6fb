package palette

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/xfmoulet/qoi"
)

// EncodeTile renders symbolID tinted to color_id colorID under p into
// an 8x8 RGBA tile, matching the encoder half of spec.md §4.2: look up
// the icon bitmap, tint to the palette color, ready to paste at (x,y).
func EncodeTile(p Palette, symbolID, colorID int) *image.RGBA {
	tile := Tile(symbolID)
	fg := p.ColorAt(colorID)
	bg := color.RGBA{R: p.Background.Y, G: p.Background.Y, B: p.Background.Y, A: 0xFF}

	img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			if tile[y][x] != 0 {
				img.SetRGBA(x, y, fg)
			} else {
				img.SetRGBA(x, y, bg)
			}
		}
	}
	return img
}

// SaveIconAtlas renders every (symbol, dark-palette-color) combination
// into one Symbols x Colors grid of TileSize x TileSize tiles and
// writes it to w as a lossless QOI image (spec.md §6's "icon bitmap
// library" asset, made concrete and round-trippable).
func SaveIconAtlas(w io.Writer) error {
	p := Dark()
	atlas := image.NewRGBA(image.Rect(0, 0, Symbols*TileSize, Colors*TileSize))
	for s := 0; s < Symbols; s++ {
		for c := 0; c < Colors; c++ {
			tile := EncodeTile(p, s, c)
			for y := 0; y < TileSize; y++ {
				for x := 0; x < TileSize; x++ {
					atlas.SetRGBA(s*TileSize+x, c*TileSize+y, tile.RGBAAt(x, y))
				}
			}
		}
	}
	return qoi.Encode(w, atlas)
}

// LoadIconAtlas reads back an atlas written by SaveIconAtlas and
// verifies its dimensions match the current Symbols/Colors/TileSize
// constants, returning ErrPaletteMismatch if they don't (the atlas was
// produced by a different build of this package).
func LoadIconAtlas(r io.Reader) (image.Image, error) {
	img, err := qoi.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("palette: decoding icon atlas: %w", err)
	}
	b := img.Bounds()
	wantW, wantH := Symbols*TileSize, Colors*TileSize
	if b.Dx() != wantW || b.Dy() != wantH {
		return nil, fmt.Errorf("%w: atlas is %dx%d, want %dx%d", ErrPaletteMismatch, b.Dx(), b.Dy(), wantW, wantH)
	}
	return img, nil
}
