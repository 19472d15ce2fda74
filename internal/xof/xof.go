// Package xof adapts extendable-output functions to fixed-size hash.Hash values.
package xof

import (
	"hash"
	"io"
)

// XOF is the streaming surface shared by extendable-output functions.
type XOF interface {
	io.Writer
	io.Reader
	Reset()
	BlockSize() int
}

// New returns a hash.Hash which absorbs into an XOF created by newXOF and, on Sum, squeezes size bytes from a branch
// of its state. branch must return a reader over an independent copy of the given XOF's state, leaving the original
// able to absorb further input.
func New[X XOF](newXOF func() X, branch func(X) io.Reader, size int) hash.Hash {
	if size <= 0 {
		panic("xof: output size must be positive")
	}
	return &digest[X]{x: newXOF(), branch: branch, size: size}
}

type digest[X XOF] struct {
	x      X
	branch func(X) io.Reader
	size   int
}

func (d *digest[X]) Write(p []byte) (int, error) {
	return d.x.Write(p)
}

func (d *digest[X]) Sum(b []byte) []byte {
	out := make([]byte, d.size)
	if _, err := io.ReadFull(d.branch(d.x), out); err != nil {
		panic("xof: squeeze failed: " + err.Error())
	}
	return append(b, out...)
}

func (d *digest[X]) Reset() {
	d.x.Reset()
}

func (d *digest[X]) Size() int {
	return d.size
}

func (d *digest[X]) BlockSize() int {
	return d.x.BlockSize()
}

var _ hash.Hash = (*digest[XOF])(nil)
