package palette

import (
	"bytes"
	"testing"
)

func TestNearestPicksExactMatch(t *testing.T) {
	p := Dark()
	for i, e := range p.Entries {
		got, dist := p.Nearest(e.R, e.G, e.B)
		if got != i {
			t.Fatalf("entry %d: Nearest returned %d", i, got)
		}
		if dist != 0 {
			t.Fatalf("entry %d: exact match distance = %d, want 0", i, dist)
		}
	}
}

func TestColorAtClampsOutOfRange(t *testing.T) {
	p := Light()
	if p.ColorAt(-1) != p.Entries[0] {
		t.Fatalf("ColorAt(-1) did not clamp to entry 0")
	}
	if p.ColorAt(Colors+5) != p.Entries[Colors-1] {
		t.Fatalf("ColorAt(overflow) did not clamp to last entry")
	}
}

func TestTilesAreDistinct(t *testing.T) {
	seen := make(map[[TileSize][TileSize]uint8]int)
	for s := 0; s < Symbols; s++ {
		tile := Tile(s)
		if prev, ok := seen[tile]; ok {
			t.Fatalf("symbol %d is identical to symbol %d", s, prev)
		}
		seen[tile] = s
	}
}

func TestDecodeSymbolRoundTrip(t *testing.T) {
	for s := 0; s < Symbols; s++ {
		got, dist := DecodeSymbol(Tile(s))
		if got != s {
			t.Fatalf("DecodeSymbol(Tile(%d)) = %d", s, got)
		}
		if dist != 0 {
			t.Fatalf("DecodeSymbol(Tile(%d)) distance = %d, want 0", s, dist)
		}
	}
}

func TestDecodeSymbolToleratesNoise(t *testing.T) {
	tile := Tile(5)
	noisy := tile
	noisy[0][0] ^= 1
	noisy[3][3] ^= 1
	// The true symbol is at most 2 bit-flips away, so the nearest
	// reference can never be farther than that, regardless of whether
	// some other symbol happens to tie or beat it.
	_, dist := DecodeSymbol(noisy)
	if dist > 2 {
		t.Fatalf("distance = %d, want <= 2", dist)
	}
}

func TestDecodeColorRoundTrip(t *testing.T) {
	p := Dark()
	for i, e := range p.Entries {
		if got := DecodeColor(p, e.R, e.G, e.B); got != i {
			t.Fatalf("DecodeColor(entry %d) = %d", i, got)
		}
	}
}

func TestIconAtlasRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := SaveIconAtlas(&buf); err != nil {
		t.Fatalf("SaveIconAtlas: %v", err)
	}
	img, err := LoadIconAtlas(&buf)
	if err != nil {
		t.Fatalf("LoadIconAtlas: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != Symbols*TileSize || b.Dy() != Colors*TileSize {
		t.Fatalf("atlas dims = %dx%d", b.Dx(), b.Dy())
	}
}
