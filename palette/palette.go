// Package palette owns the two assets the cell codec treats as
// read-only collaborators (spec.md §6): the icon bitmap set and the
// four-color palette. Both are fixed at construction and safely shared
// across pages and goroutines.
package palette

import (
	"image/color"

	"github.com/svanichkin/cimbar/geometry"
)

// Symbols is the number of distinct icons, 2^BITS_PER_SYMBOL.
const Symbols = 1 << geometry.BitsPerSymbol

// Colors is the number of palette entries, 2^BITS_PER_COLOR.
const Colors = 1 << geometry.BitsPerColor

// Palette is the fixed four-color set used by one page. Dark pages
// paint icons in bright colors over a black background; light pages
// paint darker tints over white. The zero value is not valid; use
// Dark() or Light().
type Palette struct {
	Background color.Gray
	Entries    [Colors]color.RGBA
}

// Dark returns the dark-background palette: black background, bright
// foreground colors.
func Dark() Palette {
	return Palette{
		Background: color.Gray{Y: 0},
		Entries: [Colors]color.RGBA{
			{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, // white
			{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF}, // yellow
			{R: 0x00, G: 0xB0, B: 0xFF, A: 0xFF}, // cyan-blue
			{R: 0xFF, G: 0x20, B: 0x20, A: 0xFF}, // red
		},
	}
}

// Light returns the light-background palette: white background,
// darker tints so the icons stay legible against paper or a screen.
func Light() Palette {
	return Palette{
		Background: color.Gray{Y: 0xFF},
		Entries: [Colors]color.RGBA{
			{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}, // black
			{R: 0xB8, G: 0x86, B: 0x00, A: 0xFF}, // ochre
			{R: 0x00, G: 0x55, B: 0xA4, A: 0xFF}, // blue
			{R: 0xA4, G: 0x00, B: 0x00, A: 0xFF}, // dark red
		},
	}
}

// ColorAt looks up the RGBA for a 2-bit color_id, clamping to the
// valid range so a corrupt decode never indexes out of bounds.
func (p Palette) ColorAt(colorID int) color.RGBA {
	if colorID < 0 {
		colorID = 0
	}
	if colorID >= Colors {
		colorID = Colors - 1
	}
	return p.Entries[colorID]
}

// IsDark reports whether p is the dark-background variant.
func (p Palette) IsDark() bool { return p.Background.Y == 0 }

// Nearest classifies an observed RGB sample against the palette by
// squared Euclidean distance in RGB space (spec.md §6's "classification
// is nearest-neighbor in RGB").
func (p Palette) Nearest(r, g, b uint8) (colorID int, sqDist int) {
	best := -1
	bestDist := 0
	for i, e := range p.Entries {
		dr := int(r) - int(e.R)
		dg := int(g) - int(e.G)
		db := int(b) - int(e.B)
		d := dr*dr + dg*dg + db*db
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
