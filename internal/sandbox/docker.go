package sandbox

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/michaelbrown/conceptloop/internal/value"
)

//go:embed harness.js
var harnessJS []byte

// containerGrace covers container start-up on top of the execution timeout.
const containerGrace = 30 * time.Second

// DockerSandbox runs code with Node.js in a throwaway Docker container.
type DockerSandbox struct {
	Policy Policy

	// launch builds the command that runs the harness found in dir.
	launch func(ctx context.Context, dir string) *exec.Cmd
}

// NewDockerSandbox creates a sandbox with the given policy.
func NewDockerSandbox(policy Policy) *DockerSandbox {
	d := &DockerSandbox{Policy: policy}
	d.launch = d.dockerCommand
	return d
}

func (d *DockerSandbox) dockerCommand(ctx context.Context, dir string) *exec.Cmd {
	timeout := d.Policy.timeout()
	args := []string{
		"run", "--rm", "-i",
		"--memory", d.Policy.MaxMemory,
		"--stop-timeout", fmt.Sprintf("%d", int(math.Ceil(timeout.Seconds()))),
		"-v", dir + ":/workspace:ro",
		"-w", "/workspace",
	}
	if !d.Policy.Network {
		args = append(args, "--network=none")
	}
	args = append(args, d.Policy.Image, "node", "/workspace/harness.js")
	return exec.CommandContext(ctx, "docker", args...)
}

type harnessRequest struct {
	Mode       string      `json:"mode"`
	Source     string      `json:"source"`
	EntryPoint string      `json:"entry_point,omitempty"`
	Args       []wireValue `json:"args"`
	TimeoutMS  int64       `json:"timeout_ms"`
	MaxLogs    int         `json:"max_logs"`
}

type harnessError struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type harnessResponse struct {
	Value *wireValue    `json:"value"`
	Logs  []string      `json:"logs"`
	Error *harnessError `json:"error"`
}

func (d *DockerSandbox) Check(ctx context.Context, source string) error {
	resp, err := d.invoke(ctx, harnessRequest{Mode: "check", Source: source})
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return d.execError(resp.Error)
	}
	return nil
}

func (d *DockerSandbox) Exec(ctx context.Context, opts ExecOpts) (*ExecResult, error) {
	if !entryPattern.MatchString(opts.EntryPoint) {
		return nil, fmt.Errorf("invalid entry point %q", opts.EntryPoint)
	}
	args := make([]wireValue, len(opts.Args))
	for i, a := range opts.Args {
		w, err := encodeWire(a)
		if err != nil {
			return nil, fmt.Errorf("encoding argument %d: %w", i, err)
		}
		args[i] = w
	}
	return d.execute(ctx, harnessRequest{
		Mode:       "exec",
		Source:     opts.Source,
		EntryPoint: opts.EntryPoint,
		Args:       args,
	})
}

func (d *DockerSandbox) Eval(ctx context.Context, code string) (*ExecResult, error) {
	return d.execute(ctx, harnessRequest{Mode: "eval", Source: code})
}

func (d *DockerSandbox) execute(ctx context.Context, req harnessRequest) (*ExecResult, error) {
	start := time.Now()
	resp, err := d.invoke(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return &ExecResult{
				Value:    value.Undefined,
				Err:      contextError(ctx, d.Policy.timeout()),
				Duration: time.Since(start),
			}, nil
		}
		return nil, err
	}

	res := &ExecResult{Value: value.Undefined, Logs: resp.Logs}
	if resp.Error != nil {
		res.Err = d.execError(resp.Error)
	} else if resp.Value != nil {
		if res.Value, err = decodeWire(*resp.Value); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (d *DockerSandbox) invoke(ctx context.Context, req harnessRequest) (*harnessResponse, error) {
	req.TimeoutMS = d.Policy.timeout().Milliseconds()
	req.MaxLogs = d.Policy.MaxLogLines
	if req.Args == nil {
		req.Args = []wireValue{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	// Create a temp dir for the harness
	tmpDir, err := os.MkdirTemp("", "conceptloop-sandbox-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := os.WriteFile(filepath.Join(tmpDir, "harness.js"), harnessJS, 0o644); err != nil {
		return nil, fmt.Errorf("writing harness: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, d.Policy.timeout()+containerGrace)
	defer cancel()

	cmd := d.launch(runCtx, tmpDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = bytes.NewReader(payload)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || runCtx.Err() != nil {
			return nil, fmt.Errorf("running sandbox: %w", err)
		}
		if stdout.Len() == 0 {
			return &harnessResponse{Error: &harnessError{
				Kind:    string(KindInternal),
				Message: fmt.Sprintf("sandbox exited with code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String())),
			}}, nil
		}
	}

	var resp harnessResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decoding sandbox response: %w", err)
	}
	return &resp, nil
}

func (d *DockerSandbox) execError(he *harnessError) *ExecError {
	switch Kind(he.Kind) {
	case KindTimeout:
		return timeoutError(d.Policy.timeout())
	case KindInternal:
		return internalError(he.Message)
	}
	if he.Name == "" {
		return &ExecError{Kind: KindThrown, Message: he.Message}
	}
	return Classify(he.Name, he.Message)
}

// wireValue carries a value across the JSON boundary. Tags keep undefined,
// non-finite numbers and functions intact.
type wireValue struct {
	T       string               `json:"$t"`
	Value   json.RawMessage      `json:"value,omitempty"`
	Name    string               `json:"name,omitempty"`
	Source  string               `json:"source,omitempty"`
	Items   []wireValue          `json:"items"`
	Entries map[string]wireValue `json:"entries"`
}

func encodeWire(v any) (wireValue, error) {
	switch x := v.(type) {
	case Callback:
		return wireValue{T: "callback", Name: x.Name, Source: x.Source}, nil
	case []any:
		items := make([]wireValue, len(x))
		for i, e := range x {
			w, err := encodeWire(e)
			if err != nil {
				return wireValue{}, err
			}
			items[i] = w
		}
		return wireValue{T: "array", Items: items}, nil
	case map[string]any:
		entries := make(map[string]wireValue, len(x))
		for k, e := range x {
			w, err := encodeWire(e)
			if err != nil {
				return wireValue{}, err
			}
			entries[k] = w
		}
		return wireValue{T: "object", Entries: entries}, nil
	}

	c := value.Canonical(v)
	switch x := c.(type) {
	case []any, map[string]any:
		return encodeWire(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return wireValue{T: "number", Value: json.RawMessage(`"` + value.FormatNumber(x) + `"`)}, nil
		}
	}
	if value.IsUndefined(c) {
		return wireValue{T: "undefined"}, nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return wireValue{}, err
	}
	return wireValue{T: "json", Value: raw}, nil
}

func decodeWire(w wireValue) (any, error) {
	switch w.T {
	case "undefined":
		return value.Undefined, nil
	case "function", "callback":
		return value.Function{Name: w.Name}, nil
	case "number":
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return nil, err
		}
		switch s {
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return math.NaN(), nil
	case "array":
		out := make([]any, len(w.Items))
		for i, e := range w.Items {
			v, err := decodeWire(e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case "object":
		out := make(map[string]any, len(w.Entries))
		for k, e := range w.Entries {
			v, err := decodeWire(e)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case "json":
		if len(w.Value) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(w.Value, &v); err != nil {
			return nil, err
		}
		return value.Canonical(v), nil
	}
	return nil, fmt.Errorf("unknown value tag %q", w.T)
}
