// Package runner verifies learner code against a list of test cases.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/michaelbrown/conceptloop/internal/challenge"
	"github.com/michaelbrown/conceptloop/internal/diagnose"
	"github.com/michaelbrown/conceptloop/internal/sandbox"
	"github.com/michaelbrown/conceptloop/internal/value"
)

// SyntaxCheckDescription labels the single result reported for code that
// does not compile.
const SyntaxCheckDescription = "Syntax Check"

// Runner executes source against test cases in a sandbox. Cases run one at
// a time, in order.
type Runner struct {
	sandbox sandbox.Sandbox
	logger  *log.Logger

	// OnResult, when set, is called after each result is produced, in order.
	OnResult func(index int, r TestResult)
}

// New creates a Runner. A nil logger discards output.
func New(sb sandbox.Sandbox, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{sandbox: sb, logger: logger}
}

// Run verifies source against cases and returns one result per case in the
// same order, or exactly one result when the source does not compile. Run
// never fails: every problem is reported inside a TestResult. An empty entry
// point or a nil case list is a programming error and panics.
func (r *Runner) Run(ctx context.Context, source, entryPoint string, cases []challenge.TestCase) []TestResult {
	if entryPoint == "" {
		panic("runner: Run called with an empty entry point")
	}
	if cases == nil {
		panic("runner: Run called with a nil case list")
	}

	if res, failed := r.precheck(ctx, source, cases); failed {
		r.emit(0, res)
		return []TestResult{res}
	}

	results := make([]TestResult, 0, len(cases))
	for i, tc := range cases {
		res := r.runCase(ctx, source, entryPoint, tc)
		r.logger.Debug("case finished", "entry", entryPoint, "index", i, "passed", res.Passed, "kind", res.ErrorKind, "duration", res.Duration)
		results = append(results, res)
		r.emit(i, res)
	}
	return results
}

// Report runs the cases and summarizes the outcome.
func (r *Runner) Report(ctx context.Context, source, entryPoint string, cases []challenge.TestCase) *Report {
	start := time.Now()
	results := r.Run(ctx, source, entryPoint, cases)
	rep := NewReport(entryPoint, results)
	rep.Duration = time.Since(start)
	r.logger.Info("run finished", "id", rep.ID, "entry", entryPoint, "passed", rep.Passed, "total", rep.Total, "duration", rep.Duration)
	return rep
}

func (r *Runner) emit(i int, res TestResult) {
	if r.OnResult != nil {
		r.OnResult(i, res)
	}
}

// precheck compiles the source once. It reports failed only for a genuine
// syntax error; a backend failure is logged and left for the cases to
// surface.
func (r *Runner) precheck(ctx context.Context, source string, cases []challenge.TestCase) (TestResult, bool) {
	err := r.sandbox.Check(ctx, source)
	if err == nil {
		return TestResult{}, false
	}

	var ee *sandbox.ExecError
	if !errors.As(err, &ee) || ee.Kind != sandbox.KindSyntax {
		r.logger.Warn("syntax check unavailable", "err", err)
		return TestResult{}, false
	}

	var expected any
	if len(cases) > 0 {
		expected = cases[0].Expected
	}
	return TestResult{
		Passed:      false,
		Expected:    expected,
		Received:    value.Undefined,
		Description: SyntaxCheckDescription,
		Error:       "Syntax Error: " + ee.Message,
		ErrorKind:   sandbox.KindSyntax,
		Suggestion:  diagnose.Syntax(ee.Issue),
	}, true
}

func (r *Runner) runCase(ctx context.Context, source, entryPoint string, tc challenge.TestCase) (res TestResult) {
	res = TestResult{
		Expected:    tc.Expected,
		Received:    value.Undefined,
		Description: tc.Description,
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("case panicked", "entry", entryPoint, "panic", p)
			res.Passed = false
			res.Received = value.Undefined
			res.Error = fmt.Sprintf("internal error: %v", p)
			res.ErrorKind = sandbox.KindInternal
			res.Suggestion = ""
		}
	}()

	args, err := arguments(tc)
	if err != nil {
		return internal(res, err)
	}

	out, err := r.sandbox.Exec(ctx, sandbox.ExecOpts{
		Source:     source,
		EntryPoint: entryPoint,
		Args:       args,
	})
	if err != nil {
		r.logger.Error("sandbox failed", "entry", entryPoint, "err", err)
		return internal(res, err)
	}

	res.ConsoleLogs = out.Logs
	res.Duration = out.Duration

	if out.Err != nil {
		res.Error = out.Err.Message
		if out.Err.Kind == sandbox.KindSyntax {
			res.Error = "Syntax Error: " + out.Err.Message
		}
		res.ErrorKind = out.Err.Kind
		res.Suggestion = diagnose.Runtime(source, entryPoint, out.Err)
		return res
	}

	res.Received = out.Value
	if value.DeepEqual(value.Normalize(out.Value), value.Normalize(tc.Expected)) {
		res.Passed = true
		return res
	}
	res.Suggestion = diagnose.Mismatch(source, out.Value, tc.Expected)
	return res
}

func internal(res TestResult, err error) TestResult {
	res.Error = err.Error()
	res.ErrorKind = sandbox.KindInternal
	return res
}

// arguments builds the positional argument list for a case, placing
// declared callbacks at their positions.
func arguments(tc challenge.TestCase) ([]any, error) {
	args := make([]any, len(tc.Input))
	copy(args, tc.Input)
	for _, inj := range tc.Callbacks {
		src, err := inj.Behavior.Source()
		if err != nil {
			return nil, err
		}
		for len(args) <= inj.Arg {
			args = append(args, value.Undefined)
		}
		args[inj.Arg] = sandbox.Callback{Name: string(inj.Behavior), Source: src}
	}
	return args, nil
}

// NewReport summarizes results under a fresh id.
func NewReport(entryPoint string, results []TestResult) *Report {
	rep := &Report{
		ID:         uuid.New().String(),
		EntryPoint: entryPoint,
		Results:    results,
		Total:      len(results),
	}
	for _, res := range results {
		if res.Passed {
			rep.Passed++
		}
	}
	rep.AllPassed = rep.Total > 0 && rep.Passed == rep.Total
	return rep
}
