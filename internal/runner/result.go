package runner

import (
	"encoding/json"
	"time"

	"github.com/michaelbrown/conceptloop/internal/sandbox"
	"github.com/michaelbrown/conceptloop/internal/value"
)

// TestResult is the outcome of one test case.
type TestResult struct {
	Passed bool
	// Expected and Received are the raw values, before normalization.
	// Received is value.Undefined when the code produced nothing.
	Expected    any
	Received    any
	Description string
	// Error is set only when execution itself failed.
	Error       string
	ErrorKind   sandbox.Kind
	Suggestion  string
	ConsoleLogs []string
	Duration    time.Duration
}

type resultJSON struct {
	Passed          bool         `json:"passed"`
	Expected        any          `json:"expected"`
	Received        any          `json:"received"`
	ExpectedDisplay string       `json:"expected_display"`
	ReceivedDisplay string       `json:"received_display"`
	Description     string       `json:"description,omitempty"`
	Error           string       `json:"error,omitempty"`
	ErrorKind       sandbox.Kind `json:"error_kind,omitempty"`
	Suggestion      string       `json:"suggestion,omitempty"`
	ConsoleLogs     []string     `json:"console_logs,omitempty"`
	DurationMS      float64      `json:"duration_ms"`
}

func (r TestResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Passed:          r.Passed,
		Expected:        value.JSONSafe(r.Expected),
		Received:        value.JSONSafe(r.Received),
		ExpectedDisplay: value.Format(r.Expected),
		ReceivedDisplay: value.Format(r.Received),
		Description:     r.Description,
		Error:           r.Error,
		ErrorKind:       r.ErrorKind,
		Suggestion:      r.Suggestion,
		ConsoleLogs:     r.ConsoleLogs,
		DurationMS:      milliseconds(r.Duration),
	})
}

// Report summarizes a run.
type Report struct {
	ID         string        `json:"id"`
	EntryPoint string        `json:"entry_point"`
	Results    []TestResult  `json:"results"`
	Passed     int           `json:"passed"`
	Total      int           `json:"total"`
	AllPassed  bool          `json:"all_passed"`
	Duration   time.Duration `json:"-"`
}

func (r *Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		*plain
		DurationMS float64 `json:"duration_ms"`
	}{(*plain)(r), milliseconds(r.Duration)})
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
