package cimbar

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/svanichkin/cimbar/bitstream"
	"github.com/svanichkin/cimbar/cellcodec"
	"github.com/svanichkin/cimbar/fountain"
	"github.com/svanichkin/cimbar/geometry"
	"github.com/svanichkin/cimbar/page"
	"github.com/svanichkin/cimbar/palette"
	"github.com/svanichkin/cimbar/rscode"
)

// groupsPerBlock is how many BITS_PER_OP-wide groups one 155-byte RS
// block packs into: ceil(BlockSize*8/BITS_PER_OP). The bit boundary
// doesn't land evenly on the byte boundary (1240 bits / 6 = 206.67),
// so each RS block's last group is zero-padded on its own rather than
// borrowing bits from the next block — this keeps RS block boundaries
// and interleave "block" boundaries aligned at a cell granularity.
const groupsPerBlock = (rscode.BlockSize*8 + geometry.BitsPerOp - 1) / geometry.BitsPerOp

// lengthHeaderSize is the size of the length prefix Encode adds ahead
// of the payload when fountain is disabled, so Decode can recover the
// exact payload length from a capacity-padded page (fountain already
// does this internally when enabled).
const lengthHeaderSize = 4

// Options configures one Encode/Decode call.
type Options struct {
	Palette  palette.Palette
	ECC      int  // RS parity bytes per 155-byte block; 0 disables RS
	Fountain bool // wrap the payload in the rateless erasure layer
	// Page selects which disjoint range of the fountain chunk stream
	// this page draws from (spec.md §4.5: "allows a single payload to
	// span/repeat across multiple physical codes"). Ignored unless
	// Fountain is set; encoding the same payload with Page 0, 1, 2, ...
	// produces distinct pages a decoder can combine. Irrelevant when
	// Fountain is false, since a non-fountain page carries the whole
	// framed payload on its own.
	Page int
}

// Encode renders payload onto a canonical TOTAL_SIZE x TOTAL_SIZE page
// image, following spec.md §2's encode chain: payload -> [fountain] ->
// [Reed-Solomon] -> bit-packed, interleaved cells -> rendered tiles.
func Encode(payload []byte, opts Options) (*image.RGBA, error) {
	cells := geometry.CellPositions(geometry.CellSpacing, geometry.CellDimensions, geometry.CellsOffset)
	order := geometry.Interleave(cells, geometry.InterleaveBlocks, geometry.InterleavePartitions)

	dataLen := rscode.BlockSize - opts.ECC
	if opts.ECC == 0 {
		dataLen = rscode.BlockSize
	}
	capacityGroups := len(order)
	capacityBlocks := capacityGroups / groupsPerBlock
	capacityDataBytes := capacityBlocks * dataLen

	var stream []byte
	var err error
	if opts.Fountain {
		stream, err = buildFountainStream(payload, opts.ECC, capacityDataBytes, opts.Page)
	} else {
		stream, err = frame(payload, capacityDataBytes)
	}
	if err != nil {
		return nil, err
	}

	symbols, err := rsEncodeAndGroup(stream, opts.ECC, capacityBlocks)
	if err != nil {
		return nil, err
	}

	canvas := page.NewTemplate(opts.Palette)
	for i, pos := range order {
		var sym int
		if i < len(symbols) {
			sym = symbols[i]
		}
		symbolID := sym & (palette.Symbols - 1)
		colorID := (sym >> geometry.BitsPerSymbol) & (palette.Colors - 1)
		cellcodec.EncodeCell(canvas, opts.Palette, pos.X, pos.Y, symbolID, colorID)
	}
	return canvas, nil
}

// frame prepends a 4-byte big-endian length header to payload and
// zero-pads the result to capacity, failing if payload doesn't fit.
func frame(payload []byte, capacity int) ([]byte, error) {
	framed := make([]byte, lengthHeaderSize+len(payload))
	binary.BigEndian.PutUint32(framed, uint32(len(payload)))
	copy(framed[lengthHeaderSize:], payload)
	if len(framed) > capacity {
		return nil, fmt.Errorf("cimbar: payload (%d bytes framed) exceeds page capacity (%d bytes)", len(framed), capacity)
	}
	out := make([]byte, capacity)
	copy(out, framed)
	return out, nil
}

// buildFountainStream fills capacity bytes from an endless fountain
// chunk stream over payload, chunk size derived from ecc via
// fountain.ChunkSize (spec.md's chunk_size formula, §3), so the last
// chunk on a page may be cut short. page selects a disjoint
// range of chunk numbers so repeated Encode calls for the same payload
// at increasing page indices produce distinct, combinable pages
// (spec.md §4.5, §8 scenario 3).
func buildFountainStream(payload []byte, ecc, capacity, page int) ([]byte, error) {
	chunkSize := fountain.ChunkSize(ecc, geometry.BitsPerOp)
	if chunkSize <= 0 {
		return nil, fmt.Errorf("cimbar: non-positive fountain chunk size for ecc=%d", ecc)
	}
	enc, err := fountain.NewEncoderStream(payload, chunkSize)
	if err != nil {
		return nil, err
	}
	chunksPerPage := (capacity + chunkSize - 1) / chunkSize
	enc.SeekChunk(uint32(page * chunksPerPage))
	out := make([]byte, 0, capacity)
	for len(out) < capacity {
		c := enc.Next()
		out = append(out, c.Data...)
	}
	return out[:capacity], nil
}

// rsEncodeAndGroup RS-encodes stream in numBlocks dataLen-sized pieces
// and splits the resulting bytes into BITS_PER_OP-wide groups, one RS
// block at a time so each block's trailing partial group is
// zero-padded independently rather than bleeding into the next block.
func rsEncodeAndGroup(stream []byte, ecc, numBlocks int) ([]int, error) {
	dataLen := rscode.BlockSize - ecc
	if ecc == 0 {
		dataLen = rscode.BlockSize
	}
	symbols := make([]int, 0, numBlocks*groupsPerBlock)
	for b := 0; b < numBlocks; b++ {
		chunk := stream[b*dataLen : (b+1)*dataLen]
		var block []byte
		if ecc == 0 {
			block = chunk
		} else {
			var err error
			block, err = rscode.EncodeBlock(chunk, ecc)
			if err != nil {
				return nil, err
			}
		}
		r := bitstream.NewReader(bytes.NewReader(block), geometry.BitsPerOp)
		for g := 0; g < groupsPerBlock; g++ {
			v, ok := r.Read()
			if !ok {
				v = 0
			}
			symbols = append(symbols, v)
		}
	}
	return symbols, nil
}
