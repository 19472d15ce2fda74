// Package hashcheck is a conformance and fuzz harness for streaming hash implementations.
//
// hashcheck does not implement any hash algorithm. It drives an implementation under test (a [Subject]) through its
// construct, update, and finalize API and compares the results against a trusted reference (an [oracle.Oracle]) and
// against known-answer vectors (see package vectors). The properties it checks are the ones streaming
// implementations most often get wrong: chunking invariance, concatenation rather than overwrite semantics for
// repeated updates, isolation between independent instances, block and padding boundaries, and lossless input and
// output encodings.
//
// A [Suite] bundles a subject, its oracle, and its vectors. [Test] runs a suite as Go subtests; [Suite.Run] runs it
// against any [Reporter]; [Fuzz] registers a native fuzz target for chunking invariance.
package hashcheck

import (
	"crypto/hmac"
	"hash"
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrFinalized is recorded when an [Instance] is updated or finalized after it has already been finalized.
	ErrFinalized = errors.New("hashcheck: instance already finalized")

	// ErrNoConstructor is returned when a [Subject] has no constructor for the requested operation.
	ErrNoConstructor = errors.New("hashcheck: subject has no constructor")

	// ErrNoOracle is returned by [Suite.Validate] when a suite has no reference oracle.
	ErrNoOracle = errors.New("hashcheck: suite has no oracle")
)

// ContractError is an adapter contract violation: the subject does not behave like a streaming hash at all (it panics,
// returns nil, short-writes, or produces a digest of the wrong length). It is distinct from a digest mismatch, which is
// reported as a failed comparison.
type ContractError struct {
	Op  string
	Err error
}

func (e *ContractError) Error() string {
	return "hashcheck: contract violation in " + e.Op + ": " + e.Err.Error()
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// Subject is an implementation under test.
type Subject struct {
	// Name identifies the subject's algorithm. It is used to label results and to derive per-scenario seeds.
	Name string

	// New returns a fresh, empty accumulator.
	New func() hash.Hash

	// NewHMAC returns a fresh keyed accumulator. It is optional; HMAC scenarios run only when it is set.
	NewHMAC func(key []byte) hash.Hash
}

// WithHMAC returns a copy of s whose NewHMAC builds the standard HMAC construction over s.New.
func WithHMAC(s Subject) Subject {
	newHash := s.New
	s.NewHMAC = func(key []byte) hash.Hash {
		return hmac.New(newHash, key)
	}
	return s
}

// SupportsHMAC reports whether the subject declares a keyed construction.
func (s Subject) SupportsHMAC() bool {
	return s.NewHMAC != nil
}

// Create begins a new, empty accumulation.
func (s Subject) Create() (*Instance, error) {
	if s.New == nil {
		return nil, &ContractError{Op: "create", Err: ErrNoConstructor}
	}
	return construct("create", s.New)
}

// CreateHMAC begins a new keyed accumulation.
func (s Subject) CreateHMAC(key []byte) (*Instance, error) {
	if s.NewHMAC == nil {
		return nil, &ContractError{Op: "hmac", Err: ErrNoConstructor}
	}
	return construct("hmac", func() hash.Hash { return s.NewHMAC(key) })
}

// BlockSize returns the subject's declared internal block size.
func (s Subject) BlockSize() (n int, err error) {
	in, err := s.Create()
	if err != nil {
		return 0, err
	}

	defer recoverContract("block size", &err)
	if n = in.h.BlockSize(); n <= 0 {
		return 0, &ContractError{Op: "block size", Err: errors.Errorf("non-positive block size %d", n)}
	}
	return n, nil
}

func construct(op string, fn func() hash.Hash) (in *Instance, err error) {
	defer recoverContract(op, &err)
	h := fn()
	if h == nil {
		return nil, &ContractError{Op: op, Err: errors.New("constructor returned nil")}
	}
	return &Instance{h: h}, nil
}

func recoverContract(op string, err *error) {
	if r := recover(); r != nil {
		*err = &ContractError{Op: op, Err: errors.Errorf("panic: %v", r)}
	}
}

// Instance is a single accumulation of a subject. Update methods return the same Instance so calls can be chained;
// the first error is sticky and is returned by the finalizing call. An Instance may be finalized once.
type Instance struct {
	h    hash.Hash
	err  error
	done bool
}

// Update appends p to the accumulation.
func (in *Instance) Update(p []byte) *Instance {
	if in.err != nil {
		return in
	}
	if in.done {
		in.err = ErrFinalized
		return in
	}
	in.err = in.write(p)
	return in
}

// UpdateString decodes s with enc and appends the result to the accumulation. With [Raw], s is taken as plain text.
func (in *Instance) UpdateString(s string, enc Encoding) *Instance {
	if in.err != nil {
		return in
	}

	p, err := enc.Decode(s)
	if err != nil {
		in.err = errors.Wrapf(err, "decode %s input", enc)
		return in
	}
	return in.Update(p)
}

func (in *Instance) write(p []byte) (err error) {
	defer recoverContract("update", &err)
	n, err := in.h.Write(p)
	if err != nil {
		return &ContractError{Op: "update", Err: err}
	}
	if n != len(p) {
		return &ContractError{Op: "update", Err: errors.Wrapf(io.ErrShortWrite, "wrote %d of %d bytes", n, len(p))}
	}
	return nil
}

// Digest finalizes the accumulation and returns the raw digest.
func (in *Instance) Digest() ([]byte, error) {
	if in.err != nil {
		return nil, in.err
	}
	if in.done {
		return nil, ErrFinalized
	}
	in.done = true
	return in.sum()
}

// DigestString finalizes the accumulation and returns the digest in the given encoding.
func (in *Instance) DigestString(enc Encoding) (string, error) {
	b, err := in.Digest()
	if err != nil {
		return "", err
	}
	return enc.Encode(b), nil
}

// Err returns the first error recorded by an update, if any.
func (in *Instance) Err() error {
	return in.err
}

func (in *Instance) sum() (b []byte, err error) {
	defer recoverContract("digest", &err)
	b = in.h.Sum(nil)
	if size := in.h.Size(); len(b) != size {
		return nil, &ContractError{Op: "digest", Err: errors.Errorf("digest is %d bytes but Size() is %d", len(b), size)}
	}
	return b, nil
}
