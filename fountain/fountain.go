// Package fountain implements the rateless erasure code layered on top
// of the Reed-Solomon framing (spec.md §4.5): an endless stream of
// numbered chunks, each an XOR combination of some subset of the
// payload's source blocks, such that any sufficiently large and
// independent subset of chunks reconstructs the whole payload. This
// lets one logical payload span, or be repeated redundantly across,
// more physical pages than would fit it alone.
//
// No fountain-code library appears anywhere in the retrieved example
// pack, so this is a from-scratch implementation of the classic Luby
// Transform idea: a chunk's source-block membership is derived from a
// PRNG seeded by the chunk's own number, so the decoder can recompute
// the same membership without it ever being transmitted.
package fountain

import (
	"math/rand"
)

// SourceBlocks is the number of source blocks a payload is split into
// per page (spec.md's FOUNTAIN_BLOCKS).
const SourceBlocks = 10

// Chunk is one numbered fountain-coded chunk: the XOR combination of
// the source blocks whose index is in Sources, each chunk_size bytes.
type Chunk struct {
	Number  uint32
	Sources []int
	Data    []byte
}

// ChunkSources derives the (deterministic, unsent) set of source block
// indices folded into chunk number n, for a payload split into
// sourceBlocks blocks. Both encoder and decoder call this — it is the
// only "header" a chunk needs.
func ChunkSources(n uint32, sourceBlocks int) []int {
	rng := rand.New(rand.NewSource(int64(n) + 1))
	degree := sampleDegree(rng, sourceBlocks)

	chosen := make(map[int]bool, degree)
	for len(chosen) < degree {
		chosen[rng.Intn(sourceBlocks)] = true
	}
	out := make([]int, 0, len(chosen))
	for idx := range chosen {
		out = append(out, idx)
	}
	return out
}

// sampleDegree picks how many source blocks combine into one chunk,
// following a coarse robust-soliton-like shape: mostly degree 1-2 (so
// many chunks decode immediately once their single source arrives),
// the remaining 20% spread evenly over degrees 3..sourceBlocks, and
// always at least 1.
func sampleDegree(rng *rand.Rand, sourceBlocks int) int {
	if sourceBlocks <= 1 {
		return 1
	}
	roll := rng.Float64()
	switch {
	case roll < 0.5:
		return 1
	case roll < 0.8:
		return 2
	default:
		d := 3 + rng.Intn(sourceBlocks-2)
		if d > sourceBlocks {
			d = sourceBlocks
		}
		return d
	}
}

// EncodeChunk XORs the chunkSize-byte slices of source named by
// ChunkSources(n, len(sourceBlocks)) into one chunk.
func EncodeChunk(n uint32, sourceBlocks [][]byte) Chunk {
	sources := ChunkSources(n, len(sourceBlocks))
	chunkSize := len(sourceBlocks[0])
	data := make([]byte, chunkSize)
	for _, idx := range sources {
		xorInto(data, sourceBlocks[idx])
	}
	return Chunk{Number: n, Sources: sources, Data: data}
}

func xorInto(dst, src []byte) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] ^= src[i]
	}
}
