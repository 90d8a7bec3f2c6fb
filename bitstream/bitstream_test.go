package bitstream

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 6)
	values := []int{0, 1, 63, 42, 17, 9, 33}
	for _, v := range values {
		if err := w.WriteGroup(v); err != nil {
			t.Fatalf("WriteGroup(%d): %v", v, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()), 6)
	for i, want := range values {
		got, ok := r.Read()
		if !ok {
			t.Fatalf("group %d: expected a value, stream ended early", i)
		}
		if got != want {
			t.Fatalf("group %d: got %d want %d", i, got, want)
		}
	}
}

func TestReaderZeroPadsFinalGroup(t *testing.T) {
	// One byte (8 bits) read in 6-bit groups: 1 full group + 2 leftover
	// bits, zero-padded on the low end to form the final group.
	data := []byte{0b11111100}
	r := NewReader(bytes.NewReader(data), 6)

	first, ok := r.Read()
	if !ok || first != 0b111111 {
		t.Fatalf("first group = %06b, ok=%v", first, ok)
	}
	second, ok := r.Read()
	if !ok {
		t.Fatalf("expected a zero-padded final group")
	}
	if second != 0b000000 {
		t.Fatalf("second group = %06b, want 000000", second)
	}
	if _, ok := r.Read(); ok {
		t.Fatalf("expected stream exhausted after final padded group")
	}
}

func TestInterleavedWriterFlushesInOrder(t *testing.T) {
	var buf bytes.Buffer
	// 4 bits per cell, 1 byte (2 cells) per block.
	iw := NewInterleavedWriter(&buf, 4, 1)

	// Write block 1 first, then block 0 — writer must hold block 1
	// back until block 0 is complete.
	if err := iw.Write(0b1111, 1); err != nil {
		t.Fatal(err)
	}
	if err := iw.Write(0b1111, 1); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("block 1 flushed before block 0 arrived")
	}
	if err := iw.Write(0b0001, 0); err != nil {
		t.Fatal(err)
	}
	if err := iw.Write(0b0000, 0); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 2 {
		t.Fatalf("expected both blocks flushed once block 0 completed, got %d bytes", buf.Len())
	}
	want := []byte{0b00010000, 0b11111111}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %08b %08b, want %08b %08b", buf.Bytes()[0], buf.Bytes()[1], want[0], want[1])
	}
	if len(iw.Incomplete()) != 0 {
		t.Fatalf("expected no incomplete blocks, got %v", iw.Incomplete())
	}
}

func TestInterleavedWriterReportsIncomplete(t *testing.T) {
	var buf bytes.Buffer
	iw := NewInterleavedWriter(&buf, 4, 1)
	if err := iw.Write(0b1111, 0); err != nil {
		t.Fatal(err)
	}
	// Only 4 of 8 bits for block 0 arrived; block never flushes.
	if buf.Len() != 0 {
		t.Fatalf("expected no output yet")
	}
	incomplete := iw.Incomplete()
	if len(incomplete) != 1 || incomplete[0] != 0 {
		t.Fatalf("expected block 0 reported incomplete, got %v", incomplete)
	}
}
