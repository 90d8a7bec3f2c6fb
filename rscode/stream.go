package rscode

import (
	"errors"
	"fmt"
	"io"
)

// BlockError reports that one 155-byte block could not be corrected.
// Per spec.md §7 this is non-fatal: the stream keeps going, carrying
// whatever bytes the block actually held, and a downstream fountain
// layer may still recover the payload from other blocks.
type BlockError struct {
	BlockIndex int
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("rscode: block %d unrecoverable (errors exceed floor(ecc/2))", e.BlockIndex)
}

// ErrShortBlock is returned (wrapped) by Reader.ReadBlock when the
// underlying reader ends partway through a block, which spec.md §7
// treats as StreamTruncated. A stream that ends cleanly on a block
// boundary yields io.EOF instead.
var ErrShortBlock = errors.New("rscode: stream truncated mid-block")

// Writer frames dataLen=155-ecc byte chunks into 155-byte RS blocks
// and writes them to the underlying stream. If ecc is 0 the writer is
// a pass-through (spec.md §8 boundary case).
type Writer struct {
	w   io.Writer
	ecc int
}

// NewWriter returns a Writer with ecc parity bytes per block.
func NewWriter(w io.Writer, ecc int) *Writer {
	return &Writer{w: w, ecc: ecc}
}

// DataLen is the number of raw bytes consumed per emitted block.
func (rw *Writer) DataLen() int { return BlockSize - rw.ecc }

// WriteBlock encodes exactly DataLen() bytes of data and writes the
// resulting BlockSize-byte block.
func (rw *Writer) WriteBlock(data []byte) error {
	block, err := EncodeBlock(data, rw.ecc)
	if err != nil {
		return err
	}
	_, err = rw.w.Write(block)
	return err
}

// Reader reads 155-byte RS blocks from the underlying stream and
// yields their corrected DataLen()-byte payloads.
type Reader struct {
	r          io.Reader
	ecc        int
	blockIndex int
}

// NewReader returns a Reader with ecc parity bytes per block.
func NewReader(r io.Reader, ecc int) *Reader {
	return &Reader{r: r, ecc: ecc}
}

// DataLen is the number of payload bytes yielded per decoded block.
func (rr *Reader) DataLen() int { return BlockSize - rr.ecc }

// ReadBlock reads and corrects the next block. io.EOF is returned when
// no more blocks remain; ErrShortBlock is returned (with a nil data
// slice) if the stream ends partway through a block. A *BlockError is
// returned alongside the block's (uncorrected) data when correction
// fails — callers that want to keep streaming (e.g. into a fountain
// decoder) should treat it as non-fatal per spec.md §7.
func (rr *Reader) ReadBlock() (data []byte, err error) {
	if rr.ecc == 0 {
		buf := make([]byte, rr.DataLen())
		n, rerr := io.ReadFull(rr.r, buf)
		if n == 0 && rerr == io.EOF {
			return nil, io.EOF
		}
		if rerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrShortBlock, rerr)
		}
		return buf, nil
	}

	block := make([]byte, BlockSize)
	n, rerr := io.ReadFull(rr.r, block)
	if n == 0 && rerr == io.EOF {
		return nil, io.EOF
	}
	if rerr != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortBlock, rerr)
	}

	decoded, ok := DecodeBlock(block, rr.ecc)
	idx := rr.blockIndex
	rr.blockIndex++
	if !ok {
		return decoded, &BlockError{BlockIndex: idx}
	}
	return decoded, nil
}
