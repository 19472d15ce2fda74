// Package testdata provides deliberately broken hash.Hash implementations.
package testdata

import "hash"

// Overwriter is a hash.Hash which discards everything written before the most recent Write.
type Overwriter struct {
	hash.Hash
}

func (o *Overwriter) Write(p []byte) (int, error) {
	o.Hash.Reset()
	return o.Hash.Write(p)
}

// PaddingBug is a hash.Hash which corrupts its digest whenever the total input length is Offset modulo the block size.
type PaddingBug struct {
	hash.Hash
	Offset int

	n int
}

func (h *PaddingBug) Write(p []byte) (int, error) {
	h.n += len(p)
	return h.Hash.Write(p)
}

func (h *PaddingBug) Sum(b []byte) []byte {
	out := h.Hash.Sum(b)
	if h.n%h.BlockSize() == h.Offset {
		out[len(b)] ^= 1
	}
	return out
}

func (h *PaddingBug) Reset() {
	h.n = 0
	h.Hash.Reset()
}

// Retainer is a hash.Hash which keeps references to its inputs instead of copying them, and absorbs them only when
// the digest is computed.
type Retainer struct {
	hash.Hash

	pending [][]byte
}

func (r *Retainer) Write(p []byte) (int, error) {
	r.pending = append(r.pending, p)
	return len(p), nil
}

func (r *Retainer) Sum(b []byte) []byte {
	r.Hash.Reset()
	for _, p := range r.pending {
		_, _ = r.Hash.Write(p)
	}
	return r.Hash.Sum(b)
}

func (r *Retainer) Reset() {
	r.pending = nil
	r.Hash.Reset()
}

// Truncated is a hash.Hash whose digests are one byte shorter than its declared Size.
type Truncated struct {
	hash.Hash
}

func (t *Truncated) Sum(b []byte) []byte {
	out := t.Hash.Sum(b)
	return out[:len(out)-1]
}
