package hashcheck

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// Reporter is the reporting surface hashcheck needs from the runner it is embedded in. Each scenario gets its own
// Reporter; EndCase is called once when the scenario finishes.
type Reporter interface {
	// Equal records whether got equals want and returns the outcome.
	Equal(got, want any, label string) bool

	// True records whether ok holds and returns it.
	True(ok bool, label string) bool

	// Fail records an unconditional failure.
	Fail(label string)

	// EndCase marks the end of the scenario.
	EndCase()
}

// NewTestReporter returns a Reporter which reports failures to t.
func NewTestReporter(t testing.TB) Reporter {
	return &testReporter{t: t}
}

type testReporter struct {
	t testing.TB
}

func (r *testReporter) Equal(got, want any, label string) bool {
	r.t.Helper()
	return assert.Equal(r.t, want, got, label)
}

func (r *testReporter) True(ok bool, label string) bool {
	r.t.Helper()
	return assert.True(r.t, ok, label)
}

func (r *testReporter) Fail(label string) {
	r.t.Helper()
	assert.Fail(r.t, label)
}

func (r *testReporter) EndCase() {}

// Recorder is a Reporter which collects results in memory. The zero value is ready to use.
type Recorder struct {
	mu      sync.Mutex
	results []Result
	ended   bool
}

func (r *Recorder) Equal(got, want any, label string) bool {
	ok := assert.ObjectsAreEqual(want, got)
	msg := label
	if !ok {
		msg = fmt.Sprintf("%s: got %v, want %v", label, got, want)
	}
	r.add(Result{Passed: ok, Message: msg})
	return ok
}

func (r *Recorder) True(ok bool, label string) bool {
	r.add(Result{Passed: ok, Message: label})
	return ok
}

func (r *Recorder) Fail(label string) {
	r.add(Result{Message: label})
}

func (r *Recorder) EndCase() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = true
}

func (r *Recorder) add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns a copy of every recorded result, in order.
func (r *Recorder) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

// Failures returns the messages of every failed result, in order.
func (r *Recorder) Failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var msgs []string
	for _, res := range r.results {
		if !res.Passed {
			msgs = append(msgs, res.Message)
		}
	}
	return msgs
}

// Ended reports whether EndCase has been called.
func (r *Recorder) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// NewLogReporter returns a Reporter which writes failures for the named scenario to logger at error level and passes
// at trace level.
func NewLogReporter(logger zerolog.Logger, scenario string) Reporter {
	return &logReporter{log: logger.With().Str("scenario", scenario).Logger()}
}

type logReporter struct {
	log zerolog.Logger
}

func (r *logReporter) Equal(got, want any, label string) bool {
	ok := assert.ObjectsAreEqual(want, got)
	if ok {
		r.log.Trace().Str("check", label).Msg("passed")
	} else {
		r.log.Error().Str("check", label).Interface("got", got).Interface("want", want).Msg("mismatch")
	}
	return ok
}

func (r *logReporter) True(ok bool, label string) bool {
	if ok {
		r.log.Trace().Str("check", label).Msg("passed")
	} else {
		r.log.Error().Str("check", label).Msg("failed")
	}
	return ok
}

func (r *logReporter) Fail(label string) {
	r.log.Error().Str("check", label).Msg("failed")
}

func (r *logReporter) EndCase() {
	r.log.Debug().Msg("scenario finished")
}

// tally counts the checks of one scenario on behalf of the runner and forwards them to the scenario's Reporter.
type tally struct {
	r        Reporter
	checks   int
	failures []string
}

func (t *tally) Equal(got, want any, label string) bool {
	t.checks++
	ok := t.r.Equal(got, want, label)
	if !ok {
		t.failures = append(t.failures, fmt.Sprintf("%s: got %v, want %v", label, got, want))
	}
	return ok
}

func (t *tally) True(ok bool, label string) bool {
	t.checks++
	if !t.r.True(ok, label) {
		t.failures = append(t.failures, label)
	}
	return ok
}

func (t *tally) Fail(label string) {
	t.checks++
	t.failures = append(t.failures, label)
	t.r.Fail(label)
}

func (t *tally) EndCase() {
	t.r.EndCase()
}

// check reports a comparison result under label.
func check(r Reporter, res Result, label string) bool {
	if res.Passed {
		return r.True(true, label)
	}
	r.Fail(label + ": " + res.Message)
	return false
}
