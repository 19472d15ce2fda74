package gen

import (
	"crypto/sha3"
	"encoding/binary"
	"io"
	"math"
)

// Source is the randomness capability handed to the case generators. Implementations must be deterministic for a
// given seed so that failures are reproducible.
type Source interface {
	// Data returns n bytes of pseudorandom data.
	Data(n int) []byte

	// Intn returns a uniformly distributed integer in [0, n). It panics if n <= 0.
	Intn(n int) int
}

// DRBG is a deterministic random bit generator based on SHAKE128.
type DRBG struct {
	h *sha3.SHAKE
}

// NewDRBG returns a new DRBG instance initialized with the given seed string.
func NewDRBG(seed string) *DRBG {
	h := sha3.NewSHAKE128()
	_, _ = h.Write([]byte(seed))
	return &DRBG{h}
}

// Data returns n bytes of deterministic data from the DRBG.
func (d *DRBG) Data(n int) []byte {
	b := make([]byte, n)
	_, _ = d.h.Read(b)
	return b
}

// Read fills p with deterministic data from the DRBG. It never returns an error.
func (d *DRBG) Read(p []byte) (int, error) {
	return d.h.Read(p)
}

// Intn returns a uniformly distributed integer in [0, n) using rejection sampling.
func (d *DRBG) Intn(n int) int {
	if n <= 0 {
		panic("gen: invalid argument to Intn")
	}

	m := uint64(n)
	limit := (math.MaxUint64 / m) * m
	var buf [8]byte
	for {
		_, _ = d.h.Read(buf[:])
		if v := binary.LittleEndian.Uint64(buf[:]); v < limit {
			return int(v % m)
		}
	}
}

var (
	_ Source    = (*DRBG)(nil)
	_ io.Reader = (*DRBG)(nil)
)
