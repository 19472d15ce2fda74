// Package subjects provides hashcheck subjects for third-party hash implementations.
//
// Each subject is named after its algorithm so the matching oracle and vectors can be found by name. Extendable-output
// functions are adapted to fixed-size digests: SHAKE128 and KT128 produce 32 bytes and SHAKE256 produces 64.
package subjects

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	"github.com/codahale/kt128"
	zeebo "github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/codahale/hashcheck"
	"github.com/codahale/hashcheck/internal/xof"
)

// SHA256 returns a subject for the standard library's SHA-256, with HMAC.
func SHA256() hashcheck.Subject {
	return hashcheck.WithHMAC(hashcheck.Subject{Name: "sha256", New: sha256.New})
}

// SHA512 returns a subject for the standard library's SHA-512, with HMAC.
func SHA512() hashcheck.Subject {
	return hashcheck.WithHMAC(hashcheck.Subject{Name: "sha512", New: sha512.New})
}

// BLAKE2b512 returns a subject for golang.org/x/crypto/blake2b with a 64-byte digest.
func BLAKE2b512() hashcheck.Subject {
	return hashcheck.Subject{
		Name: "blake2b-512",
		New: func() hash.Hash {
			h, err := blake2b.New512(nil)
			if err != nil {
				panic(err)
			}
			return h
		},
	}
}

// BLAKE3 returns a subject for github.com/zeebo/blake3.
func BLAKE3() hashcheck.Subject {
	return hashcheck.Subject{
		Name: "blake3",
		New:  func() hash.Hash { return zeebo.New() },
	}
}

// SHAKE128 returns a subject for golang.org/x/crypto/sha3's SHAKE128 with a 32-byte digest.
func SHAKE128() hashcheck.Subject {
	return hashcheck.Subject{
		Name: "shake128",
		New:  func() hash.Hash { return xof.New(sha3.NewShake128, cloneShake, 32) },
	}
}

// SHAKE256 returns a subject for golang.org/x/crypto/sha3's SHAKE256 with a 64-byte digest.
func SHAKE256() hashcheck.Subject {
	return hashcheck.Subject{
		Name: "shake256",
		New:  func() hash.Hash { return xof.New(sha3.NewShake256, cloneShake, 64) },
	}
}

// KT128 returns a subject for github.com/codahale/kt128 with a 32-byte digest.
func KT128() hashcheck.Subject {
	return hashcheck.Subject{
		Name: "kt128",
		New:  newKT128,
	}
}

// All returns every subject in this package.
func All() []hashcheck.Subject {
	return []hashcheck.Subject{
		SHA256(),
		SHA512(),
		BLAKE2b512(),
		BLAKE3(),
		SHAKE128(),
		SHAKE256(),
		KT128(),
	}
}

func newKT128() hash.Hash {
	return xof.New(func() *kt128.Hasher { return kt128.New(nil) }, cloneKT128, 32)
}

func cloneKT128(h *kt128.Hasher) io.Reader {
	return h.Clone()
}

func cloneShake(h sha3.ShakeHash) io.Reader {
	return h.Clone()
}
