package testdata

import "hash"

// ErrWriter is a hash.Hash whose Write always fails with Err.
type ErrWriter struct {
	hash.Hash
	Err error
}

func (e *ErrWriter) Write(_ []byte) (n int, err error) {
	return 0, e.Err
}

// ShortWriter is a hash.Hash which absorbs its input but reports one byte fewer than it was given.
type ShortWriter struct {
	hash.Hash
}

func (w *ShortWriter) Write(p []byte) (n int, err error) {
	n, err = w.Hash.Write(p)
	if n > 0 {
		n--
	}
	return n, err
}
