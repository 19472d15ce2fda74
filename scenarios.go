package hashcheck

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"

	"github.com/codahale/hashcheck/gen"
)

// scenarioCase is the state of one running scenario. It is owned by a single goroutine.
type scenarioCase struct {
	suite  *Suite
	r      Reporter
	src    gen.Source
	bounds gen.Bounds
	cfg    *Config
}

// digest hashes the concatenation of chunks with a fresh instance of the subject.
func (c *scenarioCase) digest(chunks ...[]byte) ([]byte, error) {
	in, err := c.suite.Subject.Create()
	if err != nil {
		return nil, err
	}
	for _, p := range chunks {
		in.Update(p)
	}
	return in.Digest()
}

// expect checks got against the oracle's digest of p.
func (c *scenarioCase) expect(got, p []byte, label string) bool {
	return check(c.r, CompareBytes(got, c.suite.Oracle.Digest(p)), label)
}

func scenarioContract(c *scenarioCase) error {
	in, err := c.suite.Subject.Create()
	if err != nil {
		return err
	}
	h := in.h

	size := h.Size()
	if size <= 0 {
		return &ContractError{Op: "size", Err: errors.Errorf("non-positive digest size %d", size)}
	}
	c.r.Equal(size, c.suite.Oracle.Size(), "digest size")

	if _, err := c.suite.Subject.BlockSize(); err != nil {
		return err
	}

	if err := in.Update([]byte("abc")).Err(); err != nil {
		return err
	}
	first, err := in.sum()
	if err != nil {
		return err
	}
	second, err := in.sum()
	if err != nil {
		return err
	}
	check(c.r, CompareBytes(second, first), "sum is repeatable")
	c.expect(first, []byte("abc"), "sum of abc")

	if err := in.Update([]byte("def")).Err(); err != nil {
		return err
	}
	cont, err := in.sum()
	if err != nil {
		return err
	}
	c.expect(cont, []byte("abcdef"), "update after sum")

	prefix := []byte("prefix")
	appended := h.Sum(bytes.Clone(prefix))
	c.r.True(bytes.HasPrefix(appended, prefix), "sum appends to its argument")
	check(c.r, CompareBytes(appended[len(prefix):], cont), "appended sum")

	h.Reset()
	reset, err := in.sum()
	if err != nil {
		return err
	}
	c.expect(reset, nil, "reset")

	if _, err := in.Digest(); err != nil {
		return err
	}
	c.r.True(errors.Is(in.Update(nil).Err(), ErrFinalized), "update after digest is rejected")
	return nil
}

func scenarioEmpty(c *scenarioCase) error {
	got, err := c.digest()
	if err != nil {
		return err
	}
	c.expect(got, gen.Empty(), "no update")

	got, err = c.digest(gen.Empty())
	if err != nil {
		return err
	}
	c.expect(got, gen.Empty(), "empty update")
	return nil
}

func scenarioSubBlock(c *scenarioCase) error {
	for n, buf := range gen.SubBlock(c.bounds.SubBlock) {
		got, err := c.digest(buf)
		if err != nil {
			return err
		}
		c.expect(got, buf, fmt.Sprintf("length %d", n))
	}
	return nil
}

func scenarioPowersOfTwo(c *scenarioCase) error {
	for i, buf := range gen.PowersOfTwo(c.bounds.MaxPowerOfTwo) {
		got, err := c.digest(buf)
		if err != nil {
			return err
		}
		c.expect(got, buf, fmt.Sprintf("2^%d", i))
	}
	return nil
}

func scenarioNaiveFuzz(c *scenarioCase) error {
	for i, buf := range gen.Fuzz(c.src, c.cfg.FuzzRounds, c.bounds.FuzzLen) {
		got, err := c.digest(buf)
		if err != nil {
			return err
		}
		c.expect(got, buf, fmt.Sprintf("round %d (%d bytes)", i, len(buf)))
	}
	return nil
}

func scenarioMultipleUpdates(c *scenarioCase) error {
	in, err := c.suite.Subject.Create()
	if err != nil {
		return err
	}

	ref := c.suite.Oracle.Stream()
	total := 0
	for _, buf := range gen.Fuzz(c.src, c.cfg.UpdateRounds, c.bounds.ChunkLen) {
		in.Update(buf)
		_, _ = ref.Write(buf)
		total += len(buf)
	}

	got, err := in.Digest()
	if err != nil {
		return err
	}
	check(c.r, CompareBytes(got, ref.Sum(nil)), fmt.Sprintf("%d updates (%d bytes)", c.cfg.UpdateRounds, total))
	return nil
}

func scenarioChunking(c *scenarioCase) error {
	for i, buf := range gen.Fuzz(c.src, c.cfg.PartitionRounds, c.bounds.FuzzLen) {
		chunks := gen.Partition(c.src, buf)
		label := fmt.Sprintf("round %d (%d bytes, %d chunks)", i, len(buf), len(chunks))

		whole, err := c.digest(buf)
		if err != nil {
			return err
		}
		parts, err := c.digest(chunks...)
		if err != nil {
			return err
		}
		check(c.r, CompareBytes(parts, whole), label+" against one update")
		c.expect(parts, buf, label)
	}
	return nil
}

func scenarioRepeatedUpdate(c *scenarioCase) error {
	for _, tc := range []struct {
		label string
		buf   []byte
	}{
		{"hello pattern", gen.Fill(100, []byte("hello"))},
		{"random buffer", gen.Random(c.src, c.bounds.ChunkLen)},
	} {
		got, err := c.digest(tc.buf, tc.buf)
		if err != nil {
			return err
		}
		c.expect(got, bytes.Repeat(tc.buf, 2), tc.label)
	}
	return nil
}

func scenarioIndependent(c *scenarioCase) error {
	msg := []byte("hello")

	a, err := c.suite.Subject.Create()
	if err != nil {
		return err
	}
	b, err := c.suite.Subject.Create()
	if err != nil {
		return err
	}

	da, err := a.Update(msg).Digest()
	if err != nil {
		return err
	}
	db, err := b.Update(msg).Digest()
	if err != nil {
		return err
	}

	check(c.r, CompareBytes(da, db), "instances agree")
	c.expect(da, msg, "first instance")
	c.expect(db, msg, "second instance")
	return nil
}

func scenarioInterleaved(c *scenarioCase) error {
	a, err := c.suite.Subject.Create()
	if err != nil {
		return err
	}
	b, err := c.suite.Subject.Create()
	if err != nil {
		return err
	}

	// One buffer is refilled every round, which exposes subjects that retain their input instead of copying it.
	ref := c.suite.Oracle.Stream()
	buf := make([]byte, c.cfg.InterleaveSize)
	for range c.cfg.InterleaveRounds {
		copy(buf, c.src.Data(len(buf)))
		if gen.Coin(c.src) {
			a.Update(buf)
			b.Update(buf)
		} else {
			b.Update(buf)
			a.Update(buf)
		}
		_, _ = ref.Write(buf)
	}

	da, err := a.Digest()
	if err != nil {
		return err
	}
	db, err := b.Digest()
	if err != nil {
		return err
	}

	want := ref.Sum(nil)
	check(c.r, CompareBytes(da, db), "instances agree")
	check(c.r, CompareBytes(da, want), "first instance")
	check(c.r, CompareBytes(db, want), "second instance")
	return nil
}

func scenarioEncodings(c *scenarioCase) error {
	buf := gen.Random(c.src, c.bounds.ChunkLen)
	want := c.suite.Oracle.Digest(buf)

	for _, enc := range []Encoding{Hex, Base64} {
		in, err := c.suite.Subject.Create()
		if err != nil {
			return err
		}
		got, err := in.UpdateString(enc.Encode(buf), enc).Digest()
		if err != nil {
			return err
		}
		check(c.r, CompareBytes(got, want), enc.String()+" input")
	}

	in, err := c.suite.Subject.Create()
	if err != nil {
		return err
	}
	got, err := in.UpdateString("hello", Raw).Digest()
	if err != nil {
		return err
	}
	c.expect(got, []byte("hello"), "plain text input")

	for _, enc := range []Encoding{Hex, Base64} {
		in, err := c.suite.Subject.Create()
		if err != nil {
			return err
		}
		s, err := in.Update(buf).DigestString(enc)
		if err != nil {
			return err
		}
		check(c.r, CompareStrings(s, enc.Encode(want)), enc.String()+" output")

		raw, err := enc.Decode(s)
		if !c.r.True(err == nil, enc.String()+" output decodes") {
			continue
		}
		check(c.r, CompareBytes(raw, want), enc.String()+" round trip")
	}
	return nil
}

func scenarioVectors(c *scenarioCase) error {
	for i, v := range c.suite.Vectors {
		in, err := c.suite.Subject.Create()
		if err != nil {
			return err
		}
		got, err := in.Update(v.Input).DigestString(Hex)
		if err != nil {
			return err
		}
		check(c.r, CompareStrings(got, v.ExpectedHex), fmt.Sprintf("vector %d", i))
	}
	return nil
}

func scenarioHMACVectors(c *scenarioCase) error {
	for i, v := range c.suite.HMACVectors {
		in, err := c.suite.Subject.CreateHMAC(v.Key)
		if err != nil {
			return err
		}
		got, err := in.Update(v.Data).DigestString(Hex)
		if err != nil {
			return err
		}
		check(c.r, CompareStrings(got, v.ExpectedHex), fmt.Sprintf("vector %d", i))
	}
	return nil
}

func scenarioHMACFuzz(c *scenarioCase) error {
	bs := c.bounds.SubBlock
	for i := range c.cfg.HMACRounds {
		var keyLen int
		switch i {
		case 0:
			keyLen = 0
		case 1:
			keyLen = bs
		case 2:
			keyLen = bs + 1 + c.src.Intn(bs)
		default:
			keyLen = c.src.Intn(2*bs + 1)
		}
		key := c.src.Data(keyLen)
		msg := gen.Random(c.src, c.bounds.ChunkLen)

		in, err := c.suite.Subject.CreateHMAC(key)
		if err != nil {
			return err
		}
		got, err := in.Update(msg).Digest()
		if err != nil {
			return err
		}

		label := fmt.Sprintf("round %d (%d byte key, %d bytes)", i, len(key), len(msg))
		check(c.r, CompareBytes(got, c.suite.Oracle.HMAC(key, msg)), label)
	}
	return nil
}
