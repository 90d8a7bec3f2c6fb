package fountain

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrIncomplete is the FountainIncomplete condition from spec.md §7:
// not enough independent chunks have arrived yet to invert the
// generator. It is non-fatal — more pages may complete it.
var ErrIncomplete = errors.New("fountain: incomplete, not enough independent chunks yet")

const lengthHeaderSize = 4

// ChunkSize returns the per-chunk payload size for a 155-ecc-byte RS
// data region, matching spec.md's
// chunk_size = floor((155-ecc) * BITS_PER_OP * 10 / FOUNTAIN_BLOCKS).
func ChunkSize(ecc, bitsPerOp int) int {
	return ((155 - ecc) * bitsPerOp * 10) / SourceBlocks
}

// EncoderStream produces an unbounded, numbered sequence of chunks for
// one payload. The payload is length-prefixed and zero-padded to
// SourceBlocks*chunkSize bytes before splitting, so the decoder can
// recover the exact original length once enough chunks arrive.
type EncoderStream struct {
	blocks    [][]byte
	chunkSize int
	next      uint32
}

// NewEncoderStream prepares payload for fountain encoding at the given
// chunkSize. It fails only if the payload (plus its 4-byte length
// header) cannot fit in SourceBlocks*chunkSize bytes.
func NewEncoderStream(payload []byte, chunkSize int) (*EncoderStream, error) {
	capacity := SourceBlocks * chunkSize
	framed := make([]byte, lengthHeaderSize+len(payload))
	binary.BigEndian.PutUint32(framed, uint32(len(payload)))
	copy(framed[lengthHeaderSize:], payload)

	if len(framed) > capacity {
		return nil, fmt.Errorf("fountain: payload (%d bytes framed) exceeds single-page capacity (%d bytes); split across multiple pages", len(framed), capacity)
	}
	padded := make([]byte, capacity)
	copy(padded, framed)

	blocks := make([][]byte, SourceBlocks)
	for i := range blocks {
		blocks[i] = padded[i*chunkSize : (i+1)*chunkSize]
	}
	return &EncoderStream{blocks: blocks, chunkSize: chunkSize}, nil
}

// SeekChunk sets the next chunk number to be produced, used to give
// successive pages of the same payload disjoint chunk-number ranges.
func (e *EncoderStream) SeekChunk(n uint32) { e.next = n }

// Next produces the next numbered chunk.
func (e *EncoderStream) Next() Chunk {
	c := EncodeChunk(e.next, e.blocks)
	e.next++
	return c
}

// DecoderStream accumulates chunks (from one or many pages) and
// reconstructs the original payload once enough of them are
// independent. Adding the same chunk number twice is a no-op, so
// feeding a duplicated page is harmless.
type DecoderStream struct {
	decoder   *decoder
	chunkSize int
}

// NewDecoderStream prepares a decoder for chunks of the given size.
func NewDecoderStream(chunkSize int) *DecoderStream {
	return &DecoderStream{decoder: newDecoder(SourceBlocks, chunkSize), chunkSize: chunkSize}
}

// Add folds one chunk into the decoder's state.
func (d *DecoderStream) Add(c Chunk) { d.decoder.addChunk(c) }

// Payload returns the reconstructed original payload, or ErrIncomplete
// if not enough chunks have arrived yet.
func (d *DecoderStream) Payload() ([]byte, error) {
	if !d.decoder.complete() {
		return nil, ErrIncomplete
	}
	framed := d.decoder.assemble()
	if len(framed) < lengthHeaderSize {
		return nil, fmt.Errorf("fountain: reassembled payload shorter than its own length header")
	}
	n := binary.BigEndian.Uint32(framed)
	if int(n) > len(framed)-lengthHeaderSize {
		return nil, fmt.Errorf("fountain: length header (%d) exceeds reassembled capacity (%d)", n, len(framed)-lengthHeaderSize)
	}
	return framed[lengthHeaderSize : lengthHeaderSize+int(n)], nil
}
