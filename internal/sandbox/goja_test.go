package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelbrown/conceptloop/internal/value"
)

func testPolicy() Policy {
	p := DefaultPolicy()
	p.Timeout = 500 * time.Millisecond
	return p
}

func mustExec(t *testing.T, sb Sandbox, source, entry string, args ...any) *ExecResult {
	t.Helper()
	res, err := sb.Exec(context.Background(), ExecOpts{Source: source, EntryPoint: entry, Args: args})
	require.NoError(t, err)
	return res
}

func TestGojaSandbox_Exec(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())

	tests := []struct {
		name   string
		source string
		entry  string
		args   []any
		want   any
	}{
		{"add", "function add(a, b) { return a + b; }", "add", []any{2, 3}, 5.0},
		{"string", `function greet(n) { return "Hi, " + n + "!"; }`, "greet", []any{"Sam"}, "Hi, Sam!"},
		{"no return", "function add(a, b) {}", "add", []any{2, 3}, value.Undefined},
		{"null", "function f() { return null; }", "f", nil, nil},
		{"array input is a real array", "function f(xs) { return Array.isArray(xs) && xs.length; }", "f", []any{[]any{1, 2}}, 2.0},
		{"object input", "function f(o) { return Object.keys(o).join(','); }", "f", []any{map[string]any{"b": 1, "a": 2}}, "a,b"},
		{"array result", "function f() { return [1, 'a', true]; }", "f", nil, []any{1.0, "a", true}},
		{"object result", "function f() { return {min: 2, max: null}; }", "f", nil, map[string]any{"min": 2.0, "max": nil}},
		{"function result", "function f() { return function g() {}; }", "f", nil, value.Function{Name: "g"}},
		{"arrow entry", "const double = (x) => x * 2;", "double", []any{4}, 8.0},
		{"fraction", "function f() { return 12.5; }", "f", nil, 12.5},
		{"missing args are undefined", "function f(a, b) { return typeof b; }", "f", []any{1}, "undefined"},
		{"undefined arg", "function f(a) { return a === undefined; }", "f", []any{value.Undefined}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustExec(t, sb, tt.source, tt.entry, tt.args...)
			require.Nil(t, res.Err, "unexpected error: %v", res.Err)
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func TestGojaSandbox_ExecCircularResult(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())
	res := mustExec(t, sb, "function f() { const o = {}; o.self = o; return o; }", "f")
	require.Nil(t, res.Err)
	assert.Equal(t, map[string]any{"self": "[Circular]"}, res.Value)
}

func TestGojaSandbox_ExecCallbackArgument(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())
	src := "function applyCallback(value, callback) { return callback(value); }"
	res := mustExec(t, sb, src, "applyCallback", 5, Callback{Name: "double", Source: "x => x * 2"})
	require.Nil(t, res.Err)
	assert.Equal(t, 10.0, res.Value)
}

func TestGojaConsoleCapture(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())
	src := `function f() {
  console.log("a");
  console.log("b", 1, {k: [1, 2]}, [3]);
  console.info("info");
  console.warn("careful", {x: 1});
  console.error("bad");
  return 1;
}`
	res := mustExec(t, sb, src, "f")
	require.Nil(t, res.Err)
	assert.Equal(t, []string{
		"a",
		`b 1 {"k":[1,2]} [3]`,
		"info",
		"[WARN] careful [object Object]",
		"[ERROR] bad",
	}, res.Logs)
}

func TestGojaConsoleKeptOnError(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())
	res := mustExec(t, sb, `function f() { console.log("before"); throw new Error("boom"); }`, "f")
	require.NotNil(t, res.Err)
	assert.Equal(t, []string{"before"}, res.Logs)
	assert.Equal(t, value.Undefined, res.Value)
}

func TestGojaConsoleTruncated(t *testing.T) {
	p := testPolicy()
	p.MaxLogLines = 3
	sb := NewGojaSandbox(p)
	res := mustExec(t, sb, "function f() { for (let i = 0; i < 10; i++) console.log(i); return 0; }", "f")
	require.Nil(t, res.Err)
	assert.Equal(t, []string{"0", "1", "2", truncatedLine}, res.Logs)
}

func TestGojaSandbox_ExecErrors(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())

	tests := []struct {
		name       string
		source     string
		entry      string
		kind       Kind
		identifier string
		message    string
	}{
		{"entry not defined", "function sum(a, b) { return a + b; }", "add", KindReference, "add", "add is not defined"},
		{"entry not a function", "const add = 5;", "add", KindNotAFunction, "add", "add is not a function"},
		{"undefined variable", "function f() { return total; }", "f", KindReference, "total", "total is not defined"},
		{"type error", "function f() { return null.x; }", "f", KindType, "", ""},
		{"thrown error", `function f() { throw new Error("boom"); }`, "f", KindThrown, "", "boom"},
		{"thrown string", `function f() { throw "oops"; }`, "f", KindThrown, "", "oops"},
		{"range error", "function f() { return new Array(-1); }", "f", KindRange, "", ""},
		{"stack overflow", "function f() { return 1 + f(); }", "f", KindRange, "", "Maximum call stack size exceeded"},
		{"recursion without base case", "function fact(n) { return n * fact(n - 1); }", "fact", KindRange, "", "Maximum call stack size exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustExec(t, sb, tt.source, tt.entry)
			require.NotNil(t, res.Err)
			assert.Equal(t, tt.kind, res.Err.Kind, res.Err.Message)
			if tt.identifier != "" {
				assert.Equal(t, tt.identifier, res.Err.Identifier)
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, res.Err.Message)
			}
			assert.Equal(t, value.Undefined, res.Value)
		})
	}
}

func TestGojaSandbox_ExecTimeout(t *testing.T) {
	p := testPolicy()
	p.Timeout = 50 * time.Millisecond
	sb := NewGojaSandbox(p)

	res := mustExec(t, sb, "function f() { while (true) {} }", "f")
	require.NotNil(t, res.Err)
	assert.Equal(t, KindTimeout, res.Err.Kind)
	assert.True(t, strings.HasPrefix(res.Err.Message, "Execution timed out after"))

	// The sandbox is still usable afterwards.
	res = mustExec(t, sb, "function f() { return 1; }", "f")
	require.Nil(t, res.Err)
	assert.Equal(t, 1.0, res.Value)
}

func TestGojaSandbox_ExecResultGetters(t *testing.T) {
	p := testPolicy()
	p.Timeout = 100 * time.Millisecond
	sb := NewGojaSandbox(p)

	tests := []struct {
		name    string
		source  string
		kind    Kind
		message string
	}{
		{"throwing getter", "function f() { return { get x() { throw new Error('boom'); } }; }", KindThrown, "boom"},
		{"getter type error", "function f() { return [{ get y() { return null.z; } }]; }", KindType, ""},
		{"looping getter", "function f() { return { get x() { while (true) {} } }; }", KindTimeout, "Execution timed out after 100ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustExec(t, sb, tt.source, "f")
			require.NotNil(t, res.Err)
			assert.Equal(t, tt.kind, res.Err.Kind, res.Err.Message)
			assert.NotContains(t, res.Err.Message, "sandbox panic")
			if tt.message != "" {
				assert.Equal(t, tt.message, res.Err.Message)
			}
			assert.Equal(t, value.Undefined, res.Value)
		})
	}

	res := mustExec(t, sb, "function f() { return { get x() { return 2; } }; }", "f")
	require.Nil(t, res.Err)
	assert.Equal(t, map[string]any{"x": 2.0}, res.Value)
}

func TestGojaSandbox_ExecContextCanceled(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := sb.Exec(ctx, ExecOpts{Source: "function f() { return 1; }", EntryPoint: "f"})
	require.NoError(t, err)
	require.NotNil(t, res.Err)
	assert.Equal(t, KindInternal, res.Err.Kind)
}

func TestGojaIsolation(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())
	src := "let count = 0;\nfunction next() { count++; leak = count; return count; }"

	first := mustExec(t, sb, src, "next")
	second := mustExec(t, sb, src, "next")
	assert.Equal(t, 1.0, first.Value)
	assert.Equal(t, 1.0, second.Value)

	res := mustExec(t, sb, "function f() { return typeof leak; }", "f")
	assert.Equal(t, "undefined", res.Value)
}

func TestGojaNoHostAccess(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())
	res := mustExec(t, sb, "function f() { return typeof require + typeof process + typeof fetch; }", "f")
	require.Nil(t, res.Err)
	assert.Equal(t, "undefinedundefinedundefined", res.Value)
}

func TestGojaInvalidEntryPoint(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())
	_, err := sb.Exec(context.Background(), ExecOpts{Source: "", EntryPoint: "a b"})
	assert.Error(t, err)
}

func TestGojaSandbox_Check(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())

	tests := []struct {
		name   string
		source string
		issue  SyntaxIssue
		ok     bool
	}{
		{"valid", "function add(a, b) { return a + b; }", IssueNone, true},
		{"top level return", "return 5;", IssueNone, true},
		{"empty", "", IssueNone, true},
		{"unbalanced brace", "function add(a,b){return a+b", IssueUnexpectedEnd, false},
		{"extra paren", "function f() { return 1; })", IssueExtraParen, false},
		{"extra brace", "function f() { return 1; }}", IssueExtraBrace, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sb.Check(context.Background(), tt.source)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			ee, ok := err.(*ExecError)
			require.True(t, ok, "want *ExecError, got %T", err)
			assert.Equal(t, KindSyntax, ee.Kind)
			assert.Equal(t, tt.issue, ee.Issue, ee.Message)
			assert.False(t, strings.HasPrefix(ee.Message, sourceName))
		})
	}
}

func TestGojaSandbox_Eval(t *testing.T) {
	sb := NewGojaSandbox(testPolicy())

	res, err := sb.Eval(context.Background(), "const name = 'Sam';\nconsole.log(`Hello, ${name}!`);\n1 + 1")
	require.NoError(t, err)
	require.Nil(t, res.Err)
	assert.Equal(t, []string{"Hello, Sam!"}, res.Logs)
	assert.Equal(t, 2.0, res.Value)

	res, err = sb.Eval(context.Background(), "missing()")
	require.NoError(t, err)
	require.NotNil(t, res.Err)
	assert.Equal(t, KindReference, res.Err.Kind)

	res, err = sb.Eval(context.Background(), "let = ;")
	require.NoError(t, err)
	require.NotNil(t, res.Err)
	assert.Equal(t, KindSyntax, res.Err.Kind)
}

func TestNew(t *testing.T) {
	sb, err := New("goja", DefaultPolicy())
	require.NoError(t, err)
	assert.IsType(t, &GojaSandbox{}, sb)

	sb, err = New("docker", DefaultPolicy())
	require.NoError(t, err)
	assert.IsType(t, &DockerSandbox{}, sb)

	p := DefaultPolicy()
	p.Image = "alpine:latest"
	_, err = New("docker", p)
	assert.Error(t, err)

	_, err = New("wasm", DefaultPolicy())
	assert.Error(t, err)
}
