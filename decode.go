package cimbar

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/svanichkin/cimbar/bitstream"
	"github.com/svanichkin/cimbar/cellcodec"
	"github.com/svanichkin/cimbar/deskew"
	"github.com/svanichkin/cimbar/fountain"
	"github.com/svanichkin/cimbar/geometry"
	"github.com/svanichkin/cimbar/rscode"
)

// DecodeOptions configures one Decode call.
type DecodeOptions struct {
	Options
	DeskewLevel     deskew.Level
	ForcePreprocess bool
}

// Decode recovers the payload encoded onto src by Encode, mirroring
// spec.md §2's decode chain: deskew -> flood-fill cell classification
// -> de-interleave -> [Reed-Solomon] -> [fountain] -> payload bytes.
//
// When opts.Fountain is set, Decode only succeeds if src's own page
// carries enough independent chunks on its own (spec.md §8 scenario 3
// "decode page 2 alone: expect FountainIncomplete" describes exactly
// this call returning ErrFountainIncomplete). Recovering a payload
// that spans multiple physical pages requires NewFountainSession.
func Decode(src image.Image, opts DecodeOptions) ([]byte, error) {
	data, err := recoverPageData(src, opts)
	if err != nil {
		return nil, err
	}
	if opts.Fountain {
		return decodeFountainPage(data, opts.ECC, opts.Page)
	}
	return deframe(data)
}

// recoverPageData runs the deskew -> flood-fill -> de-interleave ->
// Reed-Solomon chain and returns the page's recovered data bytes,
// still carrying whatever header (length prefix, or fountain chunks)
// the encode side framed them with.
func recoverPageData(src image.Image, opts DecodeOptions) ([]byte, error) {
	res, err := deskew.Deskew(src, opts.DeskewLevel, opts.Palette.IsDark())
	if err != nil {
		return nil, err
	}
	sharpen := deskew.ShouldPreprocess(res, opts.ForcePreprocess)
	source := deskew.NewSource(res, opts.Palette.IsDark(), sharpen)

	cells := geometry.CellPositions(geometry.CellSpacing, geometry.CellDimensions, geometry.CellsOffset)
	finder := geometry.NewAdjacentCellFinder(cells, geometry.CellDimensions, geometry.CellsOffset, geometry.CellSpacing)
	flood := geometry.NewFloodDecodeOrder(cells, finder)
	lookup, _ := geometry.InterleaveReverse(cells, geometry.InterleaveBlocks, geometry.InterleavePartitions)

	capacityGroups := len(cells)
	capacityBlocks := capacityGroups / groupsPerBlock

	var buf bytes.Buffer
	iw := bitstream.NewInterleavedWriter(&buf, geometry.BitsPerOp, rscode.BlockSize)

	groups := make([]int, capacityBlocks*groupsPerBlock)
	for {
		idx, pos, hint, ok := flood.Next()
		if !ok {
			break
		}
		result := cellcodec.DecodeCell(source, source, pos.X, pos.Y, hint, opts.Palette)
		flood.Update(result.DX, result.DY, result.Distance)

		streamIdx := lookup[idx]
		if streamIdx >= len(groups) {
			continue // padding cell past declared capacity
		}
		groups[streamIdx] = result.Bits
	}
	// The flood fill visits cells out of stream order, and the writer packs
	// a block's groups in the order they arrive, so feed it in stream order.
	for streamIdx, bits := range groups {
		if err := iw.Write(bits, streamIdx/groupsPerBlock); err != nil {
			return nil, fmt.Errorf("cimbar: %w", err)
		}
	}

	rsStream := buf.Bytes()
	if len(rsStream) < capacityBlocks*rscode.BlockSize {
		return nil, fmt.Errorf("%w: only %d of %d RS block bytes were recovered", ErrStreamTruncated, len(rsStream), capacityBlocks*rscode.BlockSize)
	}

	return rsDecodeStream(rsStream, opts.ECC, capacityBlocks)
}

func rsDecodeStream(rsStream []byte, ecc, numBlocks int) ([]byte, error) {
	r := rscode.NewReader(bytes.NewReader(rsStream), ecc)
	out := make([]byte, 0, numBlocks*r.DataLen())
	for i := 0; i < numBlocks; i++ {
		block, err := r.ReadBlock()
		if block != nil {
			out = append(out, block...)
		}
		var blockErr *rscode.BlockError
		switch {
		case err == nil:
		case asBlockError(err, &blockErr):
			// non-fatal per spec.md §7: keep the (uncorrected) bytes
			// and let the fountain layer attempt recovery.
		default:
			return nil, fmt.Errorf("%w: %v", ErrStreamTruncated, err)
		}
	}
	return out, nil
}

func asBlockError(err error, target **rscode.BlockError) bool {
	be, ok := err.(*rscode.BlockError)
	if ok {
		*target = be
	}
	return ok
}

// deframe strips the 4-byte length header Encode adds when fountain is
// disabled.
func deframe(data []byte) ([]byte, error) {
	if len(data) < lengthHeaderSize {
		return nil, fmt.Errorf("%w: shorter than its own length header", ErrStreamTruncated)
	}
	n := binary.BigEndian.Uint32(data)
	if int(n) > len(data)-lengthHeaderSize {
		return nil, fmt.Errorf("%w: length header exceeds recovered capacity", ErrStreamTruncated)
	}
	return data[lengthHeaderSize : lengthHeaderSize+int(n)], nil
}

// pageChunks splits one page's recovered data into the fountain chunks
// it carries, with page giving the absolute chunk-number offset
// (spec.md §4.5) so a decoder fed chunks from several pages derives
// the same Sources the encoder used for each one.
func pageChunks(data []byte, ecc, page int) []fountain.Chunk {
	chunkSize := fountain.ChunkSize(ecc, geometry.BitsPerOp)
	chunksPerPage := (len(data) + chunkSize - 1) / chunkSize
	base := uint32(page * chunksPerPage)

	chunks := make([]fountain.Chunk, 0, chunksPerPage)
	for off := 0; off+chunkSize <= len(data); off += chunkSize {
		n := base + uint32(off/chunkSize)
		chunks = append(chunks, fountain.Chunk{
			Number:  n,
			Sources: fountain.ChunkSources(n, fountain.SourceBlocks),
			Data:    data[off : off+chunkSize],
		})
	}
	return chunks
}

// decodeFountainPage decodes a single page's fountain chunks in
// isolation, per spec.md §8 scenario 3's "decode page 2 alone" step:
// it returns ErrFountainIncomplete unless this one page already
// carries enough independent chunks.
func decodeFountainPage(data []byte, ecc, page int) ([]byte, error) {
	dec := fountain.NewDecoderStream(fountain.ChunkSize(ecc, geometry.BitsPerOp))
	for _, c := range pageChunks(data, ecc, page) {
		dec.Add(c)
	}
	return dec.Payload()
}

// FountainSession accumulates fountain chunks across multiple decoded
// pages of the same payload, per spec.md §4.5: "the decoder collects
// chunks from (possibly) multiple pages and completes once enough
// linearly independent chunks have arrived." Each page may be fed in
// any order and any page may be decoded with a different DeskewLevel;
// only opts.ECC and opts.Fountain (and the underlying geometry) need
// to agree across pages of one payload.
type FountainSession struct {
	dec *fountain.DecoderStream
	ecc int
}

// NewFountainSession starts an empty multi-page fountain accumulator
// for pages encoded with the given ECC level.
func NewFountainSession(ecc int) *FountainSession {
	return &FountainSession{dec: fountain.NewDecoderStream(fountain.ChunkSize(ecc, geometry.BitsPerOp)), ecc: ecc}
}

// AddPage runs src through the deskew/flood-fill/Reed-Solomon chain
// and folds its fountain chunks into the session. opts.Page MUST match
// the Page the corresponding Encode call used. opts.Fountain is
// implied and need not be set.
func (s *FountainSession) AddPage(src image.Image, opts DecodeOptions) error {
	opts.Fountain = true
	data, err := recoverPageData(src, opts)
	if err != nil {
		return err
	}
	for _, c := range pageChunks(data, s.ecc, opts.Page) {
		s.dec.Add(c)
	}
	return nil
}

// Payload returns the reconstructed payload, or ErrFountainIncomplete
// if the pages added so far aren't enough to invert the generator.
func (s *FountainSession) Payload() ([]byte, error) {
	return s.dec.Payload()
}
