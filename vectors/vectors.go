// Package vectors loads known-answer test vectors for hash functions and HMACs.
//
// Vectors are stored as JSON fixtures. Digest fixtures are named <alg>.json and hold an ordered sequence of
// {"input": base64, "hash": hex} records. HMAC fixtures are named hmac-<alg>.json and hold an ordered sequence of
// {"key": hex, "data": hex, "digest": hex} records. A [Store] is populated once and is read-only afterwards.
package vectors

import (
	"embed"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// TestVector is a known-answer vector for an unkeyed digest.
type TestVector struct {
	Input       []byte
	ExpectedHex string
}

// HMACVector is a known-answer vector for an HMAC.
type HMACVector struct {
	Key         []byte
	Data        []byte
	ExpectedHex string
}

type digestRecord struct {
	Input string `json:"input"`
	Hash  string `json:"hash"`
}

type hmacRecord struct {
	Key    string `json:"key"`
	Data   string `json:"data"`
	Digest string `json:"digest"`
}

const hmacPrefix = "hmac-"

// ParseDigests decodes a digest fixture.
func ParseDigests(r io.Reader) ([]TestVector, error) {
	var records []digestRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decode digest vectors")
	}

	out := make([]TestVector, len(records))
	for i, rec := range records {
		input, err := base64.StdEncoding.DecodeString(rec.Input)
		if err != nil {
			return nil, errors.Wrapf(err, "vector %d: input", i)
		}

		expected, err := normalizeHex(rec.Hash)
		if err != nil {
			return nil, errors.Wrapf(err, "vector %d: hash", i)
		}

		out[i] = TestVector{Input: input, ExpectedHex: expected}
	}
	return out, nil
}

// ParseHMACs decodes an HMAC fixture.
func ParseHMACs(r io.Reader) ([]HMACVector, error) {
	var records []hmacRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decode hmac vectors")
	}

	out := make([]HMACVector, len(records))
	for i, rec := range records {
		key, err := hex.DecodeString(rec.Key)
		if err != nil {
			return nil, errors.Wrapf(err, "vector %d: key", i)
		}

		data, err := hex.DecodeString(rec.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "vector %d: data", i)
		}

		expected, err := normalizeHex(rec.Digest)
		if err != nil {
			return nil, errors.Wrapf(err, "vector %d: digest", i)
		}

		out[i] = HMACVector{Key: key, Data: data, ExpectedHex: expected}
	}
	return out, nil
}

func normalizeHex(s string) (string, error) {
	if s == "" {
		return "", errors.New("empty digest")
	}

	s = strings.ToLower(s)
	if _, err := hex.DecodeString(s); err != nil {
		return "", err
	}
	return s, nil
}

// Store holds the vectors of a set of fixtures, keyed by algorithm name.
type Store struct {
	digests map[string][]TestVector
	hmacs   map[string][]HMACVector
}

// Load parses every *.json fixture in the root of fsys. Any malformed fixture fails the whole load.
func Load(fsys fs.FS) (*Store, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, errors.Wrap(err, "list fixtures")
	}
	if len(names) == 0 {
		return nil, errors.New("no fixtures found")
	}

	s := &Store{
		digests: make(map[string][]TestVector),
		hmacs:   make(map[string][]HMACVector),
	}
	for _, name := range names {
		if err := s.load(fsys, name); err != nil {
			return nil, errors.Wrapf(err, "load %s", name)
		}
	}
	return s, nil
}

func (s *Store) load(fsys fs.FS, name string) error {
	f, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	alg := strings.TrimSuffix(path.Base(name), ".json")
	if hmacAlg, ok := strings.CutPrefix(alg, hmacPrefix); ok {
		v, err := ParseHMACs(f)
		if err != nil {
			return err
		}
		s.hmacs[hmacAlg] = v
		return nil
	}

	v, err := ParseDigests(f)
	if err != nil {
		return err
	}
	s.digests[alg] = v
	return nil
}

// Digests returns a copy of the digest vectors for the given algorithm, or nil if there are none.
func (s *Store) Digests(alg string) []TestVector {
	return slices.Clone(s.digests[alg])
}

// HMACs returns a copy of the HMAC vectors for the given algorithm, or nil if there are none.
func (s *Store) HMACs(alg string) []HMACVector {
	return slices.Clone(s.hmacs[alg])
}

// Algorithms returns the sorted names of all algorithms with digest or HMAC vectors.
func (s *Store) Algorithms() []string {
	var names []string
	for alg := range s.digests {
		names = append(names, alg)
	}
	for alg := range s.hmacs {
		if _, ok := s.digests[alg]; !ok {
			names = append(names, alg)
		}
	}
	slices.Sort(names)
	return names
}

//go:embed fixtures/*.json
var fixtures embed.FS

var loadDefault = sync.OnceValues(func() (*Store, error) {
	sub, err := fs.Sub(fixtures, "fixtures")
	if err != nil {
		return nil, errors.Wrap(err, "open embedded fixtures")
	}
	return Load(sub)
})

// Default returns the store of fixtures embedded in this package. The fixtures are parsed on first use.
func Default() (*Store, error) {
	return loadDefault()
}
