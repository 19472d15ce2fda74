// Package oracle provides trusted reference implementations of hash functions for use as ground truth.
//
// An [Oracle] wraps a previously-verified hash.Hash constructor and exposes single-shot digest and HMAC operations.
// The package-level registry holds oracles for the standard library's hash functions and for the third-party
// implementations hashcheck trusts.
package oracle

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha3"
	"crypto/sha512"
	"hash"
	"io"
	"slices"

	"github.com/codahale/hashcheck/internal/xof"
	"github.com/codahale/kt128"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"lukechampine.com/blake3"
)

// Oracle is a trusted reference implementation of a hash function. It is safe for concurrent use.
type Oracle struct {
	name      string
	newHash   func() hash.Hash
	size      int
	blockSize int
}

// New returns an Oracle with the given name which uses fn to construct reference hash instances.
func New(name string, fn func() hash.Hash) *Oracle {
	h := fn()
	return &Oracle{
		name:      name,
		newHash:   fn,
		size:      h.Size(),
		blockSize: h.BlockSize(),
	}
}

// Name returns the oracle's algorithm name.
func (o *Oracle) Name() string {
	return o.name
}

// Size returns the length, in bytes, of the oracle's digests.
func (o *Oracle) Size() int {
	return o.size
}

// BlockSize returns the oracle's internal block size in bytes.
func (o *Oracle) BlockSize() int {
	return o.blockSize
}

// Digest returns the reference digest of p.
func (o *Oracle) Digest(p []byte) []byte {
	h := o.newHash()
	_, _ = h.Write(p)
	return h.Sum(nil)
}

// HMAC returns the reference HMAC of p under key. An empty key is passed through to the HMAC construction unchanged.
func (o *Oracle) HMAC(key, p []byte) []byte {
	h := hmac.New(o.newHash, key)
	_, _ = h.Write(p)
	return h.Sum(nil)
}

// Stream returns a fresh reference accumulator, for scenarios which feed the reference incrementally rather than
// buffering the entire message.
func (o *Oracle) Stream() hash.Hash {
	return o.newHash()
}

func (o *Oracle) String() string {
	return "Oracle(" + o.name + ")"
}

var registry = map[string]*Oracle{}

func register(name string, fn func() hash.Hash) {
	registry[name] = New(name, fn)
}

func init() {
	register("sha1", sha1.New)
	register("sha224", sha256.New224)
	register("sha256", sha256.New)
	register("sha384", sha512.New384)
	register("sha512", sha512.New)
	register("sha512-224", sha512.New512_224)
	register("sha512-256", sha512.New512_256)
	register("sha3-224", func() hash.Hash { return sha3.New224() })
	register("sha3-256", func() hash.Hash { return sha3.New256() })
	register("sha3-384", func() hash.Hash { return sha3.New384() })
	register("sha3-512", func() hash.Hash { return sha3.New512() })
	register("shake128", func() hash.Hash { return xof.New(sha3.NewSHAKE128, branchSHAKE(sha3.NewSHAKE128), 32) })
	register("shake256", func() hash.Hash { return xof.New(sha3.NewSHAKE256, branchSHAKE(sha3.NewSHAKE256), 64) })
	register("blake2b-256", func() hash.Hash { return must(blake2b.New256(nil)) })
	register("blake2b-512", func() hash.Hash { return must(blake2b.New512(nil)) })
	register("blake2s-256", func() hash.Hash { return must(blake2s.New256(nil)) })
	register("blake3", func() hash.Hash { return blake3.New(32, nil) })
	register("kt128", newKT128)
}

// Lookup returns the registered oracle with the given name.
func Lookup(name string) (*Oracle, bool) {
	o, ok := registry[name]
	return o, ok
}

// Names returns the names of all registered oracles in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// branchSHAKE copies a SHAKE state through its binary encoding so the copy can be squeezed while the original keeps
// absorbing.
func branchSHAKE(newSHAKE func() *sha3.SHAKE) func(*sha3.SHAKE) io.Reader {
	return func(s *sha3.SHAKE) io.Reader {
		state, err := s.MarshalBinary()
		if err != nil {
			panic(err)
		}
		c := newSHAKE()
		if err := c.UnmarshalBinary(state); err != nil {
			panic(err)
		}
		return c
	}
}

// newKT128 returns KT128 with an empty customization string and a 32-byte digest.
func newKT128() hash.Hash {
	return xof.New(func() *kt128.Hasher { return kt128.New(nil) }, func(h *kt128.Hasher) io.Reader { return h.Clone() }, 32)
}

func must(h hash.Hash, err error) hash.Hash {
	if err != nil {
		panic(err)
	}
	return h
}
