package hashcheck

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/codahale/hashcheck/gen"
	"github.com/codahale/hashcheck/log"
	"github.com/codahale/hashcheck/oracle"
	"github.com/codahale/hashcheck/vectors"
)

// Suite is a subject together with everything needed to check it. A Suite is read-only while it runs, so its
// scenarios may run concurrently.
type Suite struct {
	// Subject is the implementation under test.
	Subject Subject

	// Oracle is the trusted reference for the subject's algorithm.
	Oracle *oracle.Oracle

	// Vectors are known-answer vectors for the subject's algorithm. They are optional.
	Vectors []vectors.TestVector

	// HMACVectors are known-answer HMAC vectors. They are checked only if the subject supports HMAC.
	HMACVectors []vectors.HMACVector

	// Config holds the run's tunables. If nil, DefaultConfig is used.
	Config *Config

	// Logger receives run progress. If nil, a logger is built from Config.Logger, or logging is disabled if that is
	// also nil.
	Logger *zerolog.Logger

	// Rand returns the random source for the named scenario. If nil, each scenario gets a DRBG seeded with the
	// configured seed, the subject name, and the scenario name.
	Rand func(scenario string) gen.Source
}

// Scenario is a named check of a suite's subject.
type Scenario struct {
	Name string
	run  func(c *scenarioCase) error
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name     string
	Checks   int
	Failures []string

	// Err is the error which aborted the scenario, if any. See ContractViolation.
	Err error
}

// Passed reports whether the scenario completed with no failed checks.
func (r ScenarioResult) Passed() bool {
	return r.Err == nil && len(r.Failures) == 0
}

// ContractViolation reports whether the scenario was aborted by an adapter contract violation rather than a digest
// mismatch.
func (r ScenarioResult) ContractViolation() bool {
	var ce *ContractError
	return errors.As(r.Err, &ce)
}

// Summary is the outcome of a run.
type Summary struct {
	Scenarios []ScenarioResult
}

// Passed reports whether every scenario passed.
func (s Summary) Passed() bool {
	for _, r := range s.Scenarios {
		if !r.Passed() {
			return false
		}
	}
	return true
}

// Failed returns the number of scenarios with failed checks or errors.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Scenarios {
		if !r.Passed() {
			n++
		}
	}
	return n
}

// ContractViolations returns the number of scenarios aborted by contract violations.
func (s Summary) ContractViolations() int {
	n := 0
	for _, r := range s.Scenarios {
		if r.ContractViolation() {
			n++
		}
	}
	return n
}

// Scenario returns the result of the named scenario.
func (s Summary) Scenario(name string) (ScenarioResult, bool) {
	for _, r := range s.Scenarios {
		if r.Name == name {
			return r, true
		}
	}
	return ScenarioResult{}, false
}

// Validate checks the suite's setup. A suite which fails validation cannot run any scenario.
func (s *Suite) Validate() error {
	if s.Subject.New == nil {
		return errors.Wrapf(ErrNoConstructor, "subject %q", s.Subject.Name)
	}
	if s.Oracle == nil {
		return ErrNoOracle
	}
	return s.config().Validate()
}

// Scenarios returns the scenarios which apply to this suite, in run order. Known-answer scenarios are included only
// when vectors are present, and HMAC scenarios only when the subject supports HMAC.
func (s *Suite) Scenarios() []Scenario {
	list := []Scenario{
		{"contract", scenarioContract},
		{"empty input", scenarioEmpty},
		{"sub-block lengths", scenarioSubBlock},
		{"power-of-two lengths", scenarioPowersOfTwo},
		{"naive fuzz", scenarioNaiveFuzz},
		{"multiple updates", scenarioMultipleUpdates},
		{"chunking invariance", scenarioChunking},
		{"repeated update", scenarioRepeatedUpdate},
		{"independent instances", scenarioIndependent},
		{"interleaved instances", scenarioInterleaved},
		{"encodings", scenarioEncodings},
	}
	if len(s.Vectors) > 0 {
		list = append(list, Scenario{"known-answer vectors", scenarioVectors})
	}
	if s.Subject.SupportsHMAC() {
		if len(s.HMACVectors) > 0 {
			list = append(list, Scenario{"hmac vectors", scenarioHMACVectors})
		}
		list = append(list, Scenario{"hmac fuzz", scenarioHMACFuzz})
	}
	return list
}

// Run runs every scenario, giving each the Reporter returned by newReporter, and summarizes the results. It returns an
// error only if the suite fails validation; failed checks are reported and summarized, never returned.
func (s *Suite) Run(newReporter func(scenario string) Reporter) (Summary, error) {
	if err := s.Validate(); err != nil {
		return Summary{}, err
	}

	logger := s.logger()
	scenarios := s.Scenarios()
	results := make([]ScenarioResult, len(scenarios))

	var g errgroup.Group
	g.SetLimit(s.config().Parallel)
	for i, sc := range scenarios {
		g.Go(func() error {
			results[i] = s.runScenario(logger, sc, newReporter(sc.Name))
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{Scenarios: results}
	event := logger.Info()
	if !summary.Passed() {
		event = logger.Error()
	}
	event.Str("subject", s.Subject.Name).
		Int("scenarios", len(results)).
		Int("failed", summary.Failed()).
		Int("contract_violations", summary.ContractViolations()).
		Msg("run finished")

	return summary, nil
}

// Test runs every scenario of s as a subtest of t.
func Test(t *testing.T, s *Suite) {
	t.Helper()
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}

	logger := s.logger()
	parallel := s.config().Parallel > 1
	for _, sc := range s.Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			if parallel {
				t.Parallel()
			}
			s.runScenario(logger, sc, NewTestReporter(t))
		})
	}
}

func (s *Suite) runScenario(parent *zerolog.Logger, sc Scenario, r Reporter) (res ScenarioResult) {
	logger := parent.With().Str("subject", s.Subject.Name).Str("scenario", sc.Name).Logger()
	logger.Debug().Msg("scenario started")

	t := &tally{r: r}
	c := &scenarioCase{
		suite:  s,
		r:      t,
		src:    s.source(sc.Name),
		bounds: s.bounds(),
		cfg:    s.config(),
	}

	res.Name = sc.Name
	defer func() {
		if p := recover(); p != nil {
			res.Err = &ContractError{Op: "scenario", Err: errors.Errorf("panic: %v", p)}
		}

		res.Checks, res.Failures = t.checks, t.failures
		switch {
		case res.ContractViolation():
			logger.Warn().Str("kind", "contract").Err(res.Err).Msg("scenario aborted")
			r.Fail("contract violation: " + res.Err.Error())
		case res.Err != nil:
			logger.Warn().Str("kind", "setup").Err(res.Err).Msg("scenario aborted")
			r.Fail("scenario error: " + res.Err.Error())
		case len(res.Failures) > 0:
			logger.Error().Int("failures", len(res.Failures)).Strs("messages", res.Failures).Msg("scenario failed")
		default:
			logger.Debug().Int("checks", res.Checks).Msg("scenario passed")
		}
		r.EndCase()
	}()

	res.Err = sc.run(c)
	return res
}

func (s *Suite) config() *Config {
	if s.Config == nil {
		return DefaultConfig()
	}
	return s.Config
}

func (s *Suite) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}

	nop := zerolog.Nop()
	if cfg := s.config(); cfg.Logger != nil {
		if l, err := log.New(cfg.Logger, nil); err == nil {
			return &l
		}
	}
	return &nop
}

func (s *Suite) source(scenario string) gen.Source {
	if s.Rand != nil {
		return s.Rand(scenario)
	}
	return gen.NewDRBG(fmt.Sprintf("%s/%s/%s", s.config().Seed, s.Subject.Name, scenario))
}

// bounds derives loop limits from the subject's declared block size, falling back to the oracle's if the subject
// cannot report one. The contract scenario reports the subject's failure.
func (s *Suite) bounds() gen.Bounds {
	bs, err := s.Subject.BlockSize()
	if err != nil {
		bs = s.Oracle.BlockSize()
	}
	return gen.DeriveBounds(bs, s.config().MaxBufferExp)
}
