package deskew

import (
	"image"
	"image/color"
	"testing"

	"github.com/svanichkin/cimbar/geometry"
	"github.com/svanichkin/cimbar/page"
	"github.com/svanichkin/cimbar/palette"
)

func TestDeskewLevelNoneIsNoop(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, geometry.TotalSize, geometry.TotalSize))
	for y := 0; y < geometry.TotalSize; y++ {
		for x := 0; x < geometry.TotalSize; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 0xFF})
		}
	}
	res, err := Deskew(src, LevelNone, true)
	if err != nil {
		t.Fatalf("Deskew(level 0): %v", err)
	}
	if res.Image.Bounds() != src.Bounds() {
		t.Fatalf("level 0 changed bounds: got %v want %v", res.Image.Bounds(), src.Bounds())
	}
	for _, p := range []image.Point{{0, 0}, {500, 500}, {1023, 1023}} {
		if res.Image.RGBAAt(p.X, p.Y) != src.RGBAAt(p.X, p.Y) {
			t.Fatalf("level 0 modified pixel at %v", p)
		}
	}
}

func TestSharpenPreservesBounds(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 16, 16))
	out := Sharpen(src)
	if out.Bounds() != src.Bounds() {
		t.Fatalf("Sharpen changed bounds")
	}
}

func TestDetectFindsPageAnchors(t *testing.T) {
	img := page.NewTemplate(palette.Dark())
	anchors, err := Detect(img, true)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	want := canonicalCorners()
	for i, w := range want {
		if !approxEqual(anchors[i].X, w.X, 3) || !approxEqual(anchors[i].Y, w.Y, 3) {
			t.Fatalf("anchor %d detected at %v, want near %v", i, anchors[i], w)
		}
	}
}

func TestSourceMeanInsetUniformColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	s := &Source{color: img}
	r, g, b := s.MeanInset(0, 0, 8, 1)
	if r != 200 || g != 100 || b != 50 {
		t.Fatalf("MeanInset = (%d,%d,%d), want (200,100,50)", r, g, b)
	}
}
