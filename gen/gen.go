// Package gen provides the case generators used by hashcheck scenarios.
//
// Each generator targets a specific boundary of streaming hash implementations: the bare finalization path, block and
// padding edges, randomized lengths and content, and random partitions of a message across update calls. Generators
// which need randomness take a [Source] so that every failing case can be reproduced from its seed.
package gen

import (
	"bytes"
	"iter"
	"math/bits"
)

// Bounds holds the loop limits for a subject, derived from its internal block size.
type Bounds struct {
	// SubBlock is the number of lengths covered by the sub-block sweep (0 through SubBlock-1). It is the block size
	// unless that is implausibly large.
	SubBlock int

	// MaxPowerOfTwo is the largest exponent, inclusive, of the power-of-two length buffers.
	MaxPowerOfTwo int

	// FuzzLen is the exclusive upper bound on the length of naive fuzz buffers.
	FuzzLen int

	// ChunkLen is the exclusive upper bound on the length of each multi-update chunk.
	ChunkLen int
}

// maxSubBlock caps the sub-block sweep, which hashes O(n²) bytes for a block of n bytes.
const maxSubBlock = 1 << 13

// DeriveBounds returns the bounds for an algorithm with the given block size. Exponents are capped at maxExp so that no
// single buffer exceeds 1<<maxExp bytes. For a 64-byte block the fuzz and chunk bounds are 2^18 and 2^16 bytes, and
// the power-of-two lengths reach 2^30 when maxExp allows it, past the point where a 32-bit bit counter overflows.
func DeriveBounds(blockSize, maxExp int) Bounds {
	if blockSize <= 0 {
		panic("gen: block size must be positive")
	}

	lg := bits.Len(uint(blockSize - 1)) // ceil(log2(blockSize))
	return Bounds{
		SubBlock:      min(blockSize, maxSubBlock, 1<<maxExp),
		MaxPowerOfTwo: max(min(36-lg, maxExp), 0),
		FuzzLen:       1 << min(lg+12, maxExp),
		ChunkLen:      1 << min(lg+10, maxExp),
	}
}

// Empty returns a zero-length, non-nil buffer.
func Empty() []byte {
	return []byte{}
}

// Zeros returns a zero-filled buffer of length n.
func Zeros(n int) []byte {
	return make([]byte, n)
}

// PowersOfTwo yields (i, Zeros(1<<i)) for i in 0 through maxExp. Each buffer is freshly allocated.
func PowersOfTwo(maxExp int) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i := 0; i <= maxExp; i++ {
			if !yield(i, Zeros(1<<i)) {
				return
			}
		}
	}
}

// Ramp returns a buffer of length n in which each byte holds its own position, modulo 256.
func Ramp(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// SubBlock yields (n, Ramp(n)) for every length n from zero up to one full block minus one byte.
func SubBlock(blockSize int) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for n := range blockSize {
			if !yield(n, Ramp(n)) {
				return
			}
		}
	}
}

// Random returns a buffer with a uniformly random length in [0, maxLen) and uniformly random content.
func Random(src Source, maxLen int) []byte {
	return src.Data(src.Intn(maxLen))
}

// Fuzz yields count buffers produced by [Random].
func Fuzz(src Source, count, maxLen int) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i := range count {
			if !yield(i, Random(src, maxLen)) {
				return
			}
		}
	}
}

// Fill returns a buffer of length n filled by repeating pattern. An empty pattern fills with zeros.
func Fill(n int, pattern []byte) []byte {
	if len(pattern) == 0 {
		return Zeros(n)
	}
	return bytes.Repeat(pattern, n/len(pattern)+1)[:n]
}

// Partition splits buf into a random sequence of contiguous chunks whose concatenation is buf. Chunks may be empty,
// but never two in a row, so every Source makes progress. The chunks alias buf.
func Partition(src Source, buf []byte) [][]byte {
	var chunks [][]byte
	for rem := buf; len(rem) > 0; {
		n := src.Intn(len(rem) + 1)
		if n == 0 {
			chunks = append(chunks, rem[:0])
			n = 1 + src.Intn(len(rem))
		}
		chunks = append(chunks, rem[:n])
		rem = rem[n:]
	}
	return chunks
}

// Coin returns the outcome of a fair coin flip.
func Coin(src Source) bool {
	return src.Intn(2) == 0
}
