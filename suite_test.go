package hashcheck_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"hash"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codahale/hashcheck"
	"github.com/codahale/hashcheck/gen"
	"github.com/codahale/hashcheck/internal/testdata"
	"github.com/codahale/hashcheck/log"
	"github.com/codahale/hashcheck/oracle"
	"github.com/codahale/hashcheck/vectors"
)

func testConfig() *hashcheck.Config {
	c := hashcheck.DefaultConfig()
	c.UpdateRounds = 20
	c.MaxBufferExp = 14
	return c
}

func sha256Oracle(t testing.TB) *oracle.Oracle {
	t.Helper()
	o, ok := oracle.Lookup("sha256")
	require.True(t, ok)
	return o
}

// recorders hands out one Recorder per scenario.
type recorders struct {
	mu sync.Mutex
	m  map[string]*hashcheck.Recorder
}

func (r *recorders) reporter(name string) hashcheck.Reporter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = make(map[string]*hashcheck.Recorder)
	}
	rec := &hashcheck.Recorder{}
	r.m[name] = rec
	return rec
}

func (r *recorders) get(name string) *hashcheck.Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[name]
}

func run(t *testing.T, s *hashcheck.Suite) (hashcheck.Summary, *recorders) {
	t.Helper()
	if s.Oracle == nil {
		s.Oracle = sha256Oracle(t)
	}
	if s.Config == nil {
		s.Config = testConfig()
	}

	recs := &recorders{}
	summary, err := s.Run(recs.reporter)
	require.NoError(t, err)
	return summary, recs
}

func scenario(t *testing.T, summary hashcheck.Summary, name string) hashcheck.ScenarioResult {
	t.Helper()
	res, ok := summary.Scenario(name)
	require.True(t, ok, "no scenario %q", name)
	return res
}

func TestSuite_Run(t *testing.T) {
	store, err := vectors.Default()
	require.NoError(t, err)

	summary, recs := run(t, &hashcheck.Suite{
		Subject:     hashcheck.WithHMAC(sha256Subject),
		Vectors:     store.Digests("sha256"),
		HMACVectors: store.HMACs("sha256"),
	})

	assert.True(t, summary.Passed())
	assert.Zero(t, summary.Failed())
	assert.Zero(t, summary.ContractViolations())
	assert.Len(t, summary.Scenarios, 14)

	for _, res := range summary.Scenarios {
		assert.True(t, res.Passed(), res.Name)
		assert.Positive(t, res.Checks, res.Name)

		rec := recs.get(res.Name)
		require.NotNil(t, rec, res.Name)
		assert.True(t, rec.Ended(), res.Name)
		assert.Empty(t, rec.Failures(), res.Name)
		assert.Len(t, rec.Results(), res.Checks, res.Name)
	}

	kat := scenario(t, summary, "known-answer vectors")
	assert.Equal(t, len(store.Digests("sha256")), kat.Checks)
}

func TestSuite_RunParallel(t *testing.T) {
	c := testConfig()
	c.Parallel = 4

	summary, _ := run(t, &hashcheck.Suite{Subject: sha256Subject, Config: c})
	assert.True(t, summary.Passed())
	assert.Len(t, summary.Scenarios, 11)
}

func TestSuite_Deterministic(t *testing.T) {
	_, first := run(t, &hashcheck.Suite{Subject: sha256Subject})
	_, second := run(t, &hashcheck.Suite{Subject: sha256Subject})

	for _, name := range []string{"naive fuzz", "chunking invariance", "multiple updates"} {
		assert.Equal(t, first.get(name).Results(), second.get(name).Results(), name)
	}
}

func TestSuite_Rand(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	_, _ = run(t, &hashcheck.Suite{
		Subject: sha256Subject,
		Rand: func(scenario string) gen.Source {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, scenario)
			return gen.NewDRBG(scenario)
		},
	})

	assert.Contains(t, seen, "naive fuzz")
	assert.Contains(t, seen, "interleaved instances")
}

func TestSuite_Scenarios(t *testing.T) {
	names := func(s *hashcheck.Suite) []string {
		var names []string
		for _, sc := range s.Scenarios() {
			names = append(names, sc.Name)
		}
		return names
	}

	base := []string{
		"contract",
		"empty input",
		"sub-block lengths",
		"power-of-two lengths",
		"naive fuzz",
		"multiple updates",
		"chunking invariance",
		"repeated update",
		"independent instances",
		"interleaved instances",
		"encodings",
	}

	assert.Equal(t, base, names(&hashcheck.Suite{Subject: sha256Subject}))

	withVectors := &hashcheck.Suite{
		Subject:     sha256Subject,
		Vectors:     []vectors.TestVector{{Input: nil, ExpectedHex: "x"}},
		HMACVectors: []vectors.HMACVector{{ExpectedHex: "x"}},
	}
	assert.Equal(t, append(base, "known-answer vectors"), names(withVectors))

	withVectors.Subject = hashcheck.WithHMAC(sha256Subject)
	assert.Equal(t, append(base, "known-answer vectors", "hmac vectors", "hmac fuzz"), names(withVectors))

	hmacOnly := &hashcheck.Suite{Subject: hashcheck.WithHMAC(sha256Subject)}
	assert.Equal(t, append(base, "hmac fuzz"), names(hmacOnly))
}

func TestSuite_Validate(t *testing.T) {
	ref := sha256Oracle(t)

	err := (&hashcheck.Suite{Subject: hashcheck.Subject{Name: "none"}, Oracle: ref}).Validate()
	assert.True(t, errors.Is(err, hashcheck.ErrNoConstructor), "%v", err)

	err = (&hashcheck.Suite{Subject: sha256Subject}).Validate()
	assert.True(t, errors.Is(err, hashcheck.ErrNoOracle), "%v", err)

	c := hashcheck.DefaultConfig()
	c.FuzzRounds = 0
	assert.Error(t, (&hashcheck.Suite{Subject: sha256Subject, Oracle: ref, Config: c}).Validate())

	_, err = (&hashcheck.Suite{Subject: sha256Subject}).Run((&recorders{}).reporter)
	assert.Error(t, err)
}

func TestSuite_DetectsOverwrite(t *testing.T) {
	summary, recs := run(t, &hashcheck.Suite{Subject: hashcheck.Subject{
		Name: "overwrite",
		New:  func() hash.Hash { return &testdata.Overwriter{Hash: sha256.New()} },
	}})

	assert.False(t, summary.Passed())
	assert.Zero(t, summary.ContractViolations())
	assert.False(t, scenario(t, summary, "repeated update").Passed())
	assert.False(t, scenario(t, summary, "multiple updates").Passed())
	assert.True(t, scenario(t, summary, "empty input").Passed())
	assert.True(t, scenario(t, summary, "sub-block lengths").Passed())

	failures := recs.get("repeated update").Failures()
	require.NotEmpty(t, failures)
	assert.Contains(t, failures[0], "hello pattern: byte ")
}

func TestSuite_DetectsSharedState(t *testing.T) {
	shared := sha256.New()
	summary, _ := run(t, &hashcheck.Suite{Subject: hashcheck.Subject{
		Name: "shared",
		New: func() hash.Hash {
			shared.Reset()
			return shared
		},
	}})

	assert.False(t, scenario(t, summary, "interleaved instances").Passed())
	assert.False(t, scenario(t, summary, "independent instances").Passed())
	assert.True(t, scenario(t, summary, "empty input").Passed())
	assert.True(t, scenario(t, summary, "power-of-two lengths").Passed())
}

func TestSuite_DetectsPaddingBug(t *testing.T) {
	summary, recs := run(t, &hashcheck.Suite{Subject: hashcheck.Subject{
		Name: "padding",
		New:  func() hash.Hash { return &testdata.PaddingBug{Hash: sha256.New(), Offset: 56} },
	}})

	res := scenario(t, summary, "sub-block lengths")
	assert.False(t, res.Passed())
	assert.Equal(t, 64, res.Checks)
	require.Len(t, res.Failures, 1)
	assert.True(t, strings.HasPrefix(res.Failures[0], "length 56: byte 0 differs"), res.Failures[0])
	assert.Equal(t, res.Failures, recs.get("sub-block lengths").Failures())

	assert.True(t, scenario(t, summary, "power-of-two lengths").Passed())
}

func TestSuite_DetectsRetainedInput(t *testing.T) {
	summary, _ := run(t, &hashcheck.Suite{Subject: hashcheck.Subject{
		Name: "retainer",
		New:  func() hash.Hash { return &testdata.Retainer{Hash: sha256.New()} },
	}})

	assert.False(t, scenario(t, summary, "interleaved instances").Passed())
	assert.True(t, scenario(t, summary, "multiple updates").Passed())
	assert.True(t, scenario(t, summary, "chunking invariance").Passed())
	assert.True(t, scenario(t, summary, "contract").Passed())
}

func TestSuite_DetectsWrongHMAC(t *testing.T) {
	store, err := vectors.Default()
	require.NoError(t, err)

	summary, _ := run(t, &hashcheck.Suite{
		Subject: hashcheck.Subject{
			Name: "unkeyed",
			New:  sha256.New,
			NewHMAC: func(_ []byte) hash.Hash {
				return hmac.New(sha256.New, nil)
			},
		},
		HMACVectors: store.HMACs("sha256"),
	})

	assert.False(t, scenario(t, summary, "hmac vectors").Passed())
	assert.False(t, scenario(t, summary, "hmac fuzz").Passed())
	assert.True(t, scenario(t, summary, "contract").Passed())
	assert.Zero(t, summary.ContractViolations())
}

func TestSuite_ContractViolations(t *testing.T) {
	for _, tc := range []struct {
		name     string
		new      func() hash.Hash
		scenario string
		all      bool
	}{
		{"short write", func() hash.Hash { return &testdata.ShortWriter{Hash: sha256.New()} }, "contract", false},
		{"truncated digest", func() hash.Hash { return &testdata.Truncated{Hash: sha256.New()} }, "empty input", false},
		{"panicking constructor", func() hash.Hash { panic("boom") }, "contract", true},
		{"nil instance", func() hash.Hash { return nil }, "naive fuzz", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			summary, recs := run(t, &hashcheck.Suite{Subject: hashcheck.Subject{Name: tc.name, New: tc.new}})

			res := scenario(t, summary, tc.scenario)
			assert.True(t, res.ContractViolation(), "%v", res.Err)
			assert.False(t, summary.Passed())

			failures := recs.get(tc.scenario).Failures()
			require.NotEmpty(t, failures)
			assert.True(t, strings.HasPrefix(failures[len(failures)-1], "contract violation: "), failures)
			assert.True(t, recs.get(tc.scenario).Ended())

			if tc.all {
				assert.Equal(t, len(summary.Scenarios), summary.ContractViolations())
			}
		})
	}
}

func TestSuite_ShortWriteSparesEmptyInput(t *testing.T) {
	summary, _ := run(t, &hashcheck.Suite{Subject: hashcheck.Subject{
		Name: "short write",
		New:  func() hash.Hash { return &testdata.ShortWriter{Hash: sha256.New()} },
	}})

	assert.True(t, scenario(t, summary, "empty input").Passed())
	assert.False(t, scenario(t, summary, "naive fuzz").Passed())
}

func TestSuite_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)

	_, _ = run(t, &hashcheck.Suite{
		Subject: hashcheck.Subject{
			Name: "short write",
			New:  func() hash.Hash { return &testdata.ShortWriter{Hash: sha256.New()} },
		},
		Logger: &logger,
	})

	out := buf.String()
	assert.Contains(t, out, `"kind":"contract"`)
	assert.Contains(t, out, `"scenario":"contract"`)
	assert.Contains(t, out, `"message":"run finished"`)
	assert.NotContains(t, out, `"level":"debug"`)
}

func TestTest(t *testing.T) {
	c := testConfig()
	c.Parallel = 2

	hashcheck.Test(t, &hashcheck.Suite{
		Subject: hashcheck.WithHMAC(sha256Subject),
		Oracle:  sha256Oracle(t),
		Config:  c,
	})
}

func TestSuite_VectorsCheckedIndependently(t *testing.T) {
	store, err := vectors.Default()
	require.NoError(t, err)

	kat := store.Digests("sha256")
	kat[2].ExpectedHex = "00" + kat[2].ExpectedHex[2:]
	hmacs := store.HMACs("sha256")
	hmacs[3].ExpectedHex = "00" + hmacs[3].ExpectedHex[2:]

	summary, recs := run(t, &hashcheck.Suite{
		Subject:     hashcheck.WithHMAC(sha256Subject),
		Vectors:     kat,
		HMACVectors: hmacs,
	})

	for _, tc := range []struct {
		scenario string
		count    int
		label    string
	}{
		{"known-answer vectors", len(kat), "vector 2: "},
		{"hmac vectors", len(hmacs), "vector 3: "},
	} {
		res := scenario(t, summary, tc.scenario)
		assert.Equal(t, tc.count, res.Checks, tc.scenario)
		assert.False(t, res.ContractViolation(), tc.scenario)
		require.Len(t, res.Failures, 1, tc.scenario)
		assert.True(t, strings.HasPrefix(res.Failures[0], tc.label), res.Failures[0])
		assert.Equal(t, res.Failures, recs.get(tc.scenario).Failures(), tc.scenario)
	}

	assert.Equal(t, 2, summary.Failed())
}

func TestSuite_ValidateLogLevel(t *testing.T) {
	c := hashcheck.DefaultConfig()
	c.Logger = &log.Config{Level: "loud"}

	err := (&hashcheck.Suite{Subject: sha256Subject, Oracle: sha256Oracle(t), Config: c}).Validate()
	assert.Error(t, err)
}
