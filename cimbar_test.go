package cimbar

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/svanichkin/cimbar/deskew"
	"github.com/svanichkin/cimbar/geometry"
	"github.com/svanichkin/cimbar/palette"
)

func TestEncodeProducesCanonicalDimensions(t *testing.T) {
	img, err := Encode([]byte("hello, world"), Options{Palette: palette.Dark(), ECC: 30})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != geometry.TotalSize || b.Dy() != geometry.TotalSize {
		t.Fatalf("encoded image is %dx%d, want %dx%d", b.Dx(), b.Dy(), geometry.TotalSize, geometry.TotalSize)
	}
}

func TestEncodeZeroLengthPayload(t *testing.T) {
	img, err := Encode(nil, Options{Palette: palette.Dark(), ECC: 0})
	if err != nil {
		t.Fatalf("Encode(nil): %v", err)
	}
	if img == nil {
		t.Fatalf("Encode(nil) returned a nil image")
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	huge := make([]byte, 10*1024*1024)
	if _, err := Encode(huge, Options{Palette: palette.Dark(), ECC: 30}); err == nil {
		t.Fatalf("expected an error for a payload far exceeding page capacity")
	}
}

func TestFrameDeframeRoundTrip(t *testing.T) {
	payload := []byte("round trip me")
	framed, err := frame(payload, 4096)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	got, err := deframe(framed)
	if err != nil {
		t.Fatalf("deframe: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestFrameRejectsOversizedPayload(t *testing.T) {
	if _, err := frame(make([]byte, 100), 10); err == nil {
		t.Fatalf("expected an error when payload+header exceeds capacity")
	}
}

func TestRoundTripNoECCNoFountain(t *testing.T) {
	payload := make([]byte, 16)
	for i := range payload {
		payload[i] = byte(i)
	}
	opts := Options{Palette: palette.Dark(), ECC: 0, Fountain: false}
	img, err := Encode(payload, opts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(img, DecodeOptions{Options: opts, DeskewLevel: deskew.LevelNone})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch:\n got  %v\n want %v", got, payload)
	}
}

func TestRoundTripWithECC(t *testing.T) {
	payload := randomPayload(1024, 42)
	opts := Options{Palette: palette.Dark(), ECC: 30, Fountain: false}
	img, err := Encode(payload, opts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(img, DecodeOptions{Options: opts, DeskewLevel: deskew.LevelNone})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch with ecc=30")
	}
}

func TestRoundTripLightPalette(t *testing.T) {
	payload := randomPayload(64, 7)
	opts := Options{Palette: palette.Light(), ECC: 30, Fountain: false}
	img, err := Encode(payload, opts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(img, DecodeOptions{Options: opts, DeskewLevel: deskew.LevelNone})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch on light palette")
	}
}

func TestRoundTripZeroLengthPayload(t *testing.T) {
	opts := Options{Palette: palette.Dark(), ECC: 30, Fountain: false}
	img, err := Encode(nil, opts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(img, DecodeOptions{Options: opts, DeskewLevel: deskew.LevelNone})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d bytes, want 0", len(got))
	}
}

func TestRoundTripPayloadFillsCapacity(t *testing.T) {
	opts := Options{Palette: palette.Dark(), ECC: 30, Fountain: false}

	cells := geometry.CellPositions(geometry.CellSpacing, geometry.CellDimensions, geometry.CellsOffset)
	order := geometry.Interleave(cells, geometry.InterleaveBlocks, geometry.InterleavePartitions)
	dataLen := 155 - opts.ECC
	capacityBlocks := len(order) / groupsPerBlock
	capacity := capacityBlocks*dataLen - lengthHeaderSize

	payload := randomPayload(capacity, 99)
	img, err := Encode(payload, opts)
	if err != nil {
		t.Fatalf("Encode at exact capacity: %v", err)
	}
	got, err := Decode(img, DecodeOptions{Options: opts, DeskewLevel: deskew.LevelNone})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch at exact capacity")
	}
}

func TestRoundTripFountainSinglePage(t *testing.T) {
	payload := randomPayload(256, 11)
	opts := Options{Palette: palette.Dark(), ECC: 30, Fountain: true}
	img, err := Encode(payload, opts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(img, DecodeOptions{Options: opts, DeskewLevel: deskew.LevelNone})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("fountain round trip mismatch")
	}
}

// TestFountainSessionCombinesPages mirrors spec.md §8 scenario 3: the
// same payload drawn onto two distinct pages (disjoint chunk-number
// ranges via Options.Page), where page 2 alone may or may not carry
// enough independent chunks to reconstruct on its own, but the two
// together always do.
func TestFountainSessionCombinesPages(t *testing.T) {
	payload := randomPayload(512, 23)
	const ecc = 30

	page0, err := Encode(payload, Options{Palette: palette.Dark(), ECC: ecc, Fountain: true, Page: 0})
	if err != nil {
		t.Fatalf("Encode page 0: %v", err)
	}
	page1, err := Encode(payload, Options{Palette: palette.Dark(), ECC: ecc, Fountain: true, Page: 1})
	if err != nil {
		t.Fatalf("Encode page 1: %v", err)
	}

	// Page 2 (index 1) alone: either it already has enough independent
	// chunks, or it reports the non-fatal FountainIncomplete condition
	// (spec.md §7) so a caller knows to supply more pages.
	alone := NewFountainSession(ecc)
	if err := alone.AddPage(page1, DecodeOptions{Options: Options{Palette: palette.Dark(), ECC: ecc, Page: 1}, DeskewLevel: deskew.LevelNone}); err != nil {
		t.Fatalf("AddPage: %v", err)
	}
	if got, err := alone.Payload(); err != nil {
		if !errors.Is(err, ErrFountainIncomplete) {
			t.Fatalf("unexpected error decoding page 2 alone: %v", err)
		}
	} else if !bytes.Equal(got, payload) {
		t.Fatalf("page 2 alone decoded the wrong payload")
	}

	// Both pages together MUST complete, regardless of how page 2
	// fared alone.
	both := NewFountainSession(ecc)
	if err := both.AddPage(page0, DecodeOptions{Options: Options{Palette: palette.Dark(), ECC: ecc, Page: 0}, DeskewLevel: deskew.LevelNone}); err != nil {
		t.Fatalf("AddPage page 0: %v", err)
	}
	if err := both.AddPage(page1, DecodeOptions{Options: Options{Palette: palette.Dark(), ECC: ecc, Page: 1}, DeskewLevel: deskew.LevelNone}); err != nil {
		t.Fatalf("AddPage page 1: %v", err)
	}
	got, err := both.Payload()
	if err != nil {
		t.Fatalf("Payload with both pages: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("combined round trip mismatch")
	}
}

func randomPayload(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	data := make([]byte, n)
	r.Read(data)
	return data
}

func TestRSEncodeAndGroupProducesExpectedGroupCount(t *testing.T) {
	const ecc = 30
	dataLen := 155 - ecc
	stream := bytes.Repeat([]byte{0xAB}, dataLen*2)
	symbols, err := rsEncodeAndGroup(stream, ecc, 2)
	if err != nil {
		t.Fatalf("rsEncodeAndGroup: %v", err)
	}
	if len(symbols) != 2*groupsPerBlock {
		t.Fatalf("got %d symbols, want %d", len(symbols), 2*groupsPerBlock)
	}
	for _, s := range symbols {
		if s < 0 || s >= 1<<geometry.BitsPerOp {
			t.Fatalf("symbol %d out of BITS_PER_OP range", s)
		}
	}
}
