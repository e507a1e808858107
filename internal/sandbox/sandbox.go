// Package sandbox executes untrusted learner JavaScript behind a small
// capability boundary: no file, network or process access, captured console
// output, a wall-clock deadline and structured error reporting.
package sandbox

import (
	"context"
	"fmt"
	"time"
)

// sourceName labels learner code in engine messages.
const sourceName = "submission.js"

// Callback is a function argument built from JavaScript source inside the
// sandbox before the entry point is called.
type Callback struct {
	Name   string
	Source string
}

// ExecOpts describes a code execution request.
type ExecOpts struct {
	Source     string // Learner source declaring the entry point
	EntryPoint string // Function to invoke
	Args       []any  // Positional arguments; Callback values become functions
}

// ExecResult is the output of a sandboxed execution.
type ExecResult struct {
	Value    any       // Returned value in the value model; value.Undefined when Err is set
	Logs     []string  // Captured console lines
	Err      *ExecError
	Duration time.Duration
}

// Sandbox runs code in an isolated environment. Failures inside learner code
// are reported in ExecResult.Err; the returned error is reserved for the
// backend itself failing.
type Sandbox interface {
	// Check compiles source as a function body without running it. It
	// returns an *ExecError of kind syntax when compilation fails.
	Check(ctx context.Context, source string) error
	// Exec declares the source in a fresh scope and invokes the entry point.
	Exec(ctx context.Context, opts ExecOpts) (*ExecResult, error)
	// Eval runs a snippet as a script and returns its completion value.
	Eval(ctx context.Context, code string) (*ExecResult, error)
}

// New returns the sandbox backend with the given name.
func New(backend string, policy Policy) (Sandbox, error) {
	switch backend {
	case "", "goja":
		return NewGojaSandbox(policy), nil
	case "docker":
		if !policy.IsImageAllowed(policy.Image) {
			return nil, fmt.Errorf("image %q not in allowlist", policy.Image)
		}
		return NewDockerSandbox(policy), nil
	default:
		return nil, fmt.Errorf("unknown sandbox backend %q", backend)
	}
}
