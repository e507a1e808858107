package diagnose

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/michaelbrown/conceptloop/internal/sandbox"
	"github.com/michaelbrown/conceptloop/internal/value"
)

func TestSyntax(t *testing.T) {
	assert.Contains(t, Syntax(sandbox.IssueUnexpectedEnd), "missing a closing bracket")
	assert.Contains(t, Syntax(sandbox.IssueExtraBrace), "extra closing bracket")
	assert.Contains(t, Syntax(sandbox.IssueExtraParen), "extra closing parenthesis")
	assert.Contains(t, Syntax(sandbox.IssueUnexpectedIdent), "unexpected word")
	assert.Empty(t, Syntax(sandbox.IssueNone))
	assert.Empty(t, Syntax(sandbox.IssueInvalidAssignment))
}

func TestRuntime(t *testing.T) {
	const withReturn = "function add(a, b) { return a + b; }"

	tests := []struct {
		name   string
		source string
		err    *sandbox.ExecError
		want   string
	}{
		{
			name:   "timeout wins",
			source: "function add() { while (true) {} }",
			err:    &sandbox.ExecError{Kind: sandbox.KindTimeout},
			want:   "took too long",
		},
		{
			name:   "entry point not defined",
			source: "function sum(a, b) { return a + b; }",
			err:    &sandbox.ExecError{Kind: sandbox.KindReference, Identifier: "add"},
			want:   "The function `add` is not defined",
		},
		{
			name:   "entry point not a function",
			source: "const add = 5;",
			err:    &sandbox.ExecError{Kind: sandbox.KindNotAFunction, Identifier: "add"},
			want:   "`add` is not a function",
		},
		{
			name:   "no return",
			source: "function add(a, b) { total.push(a); }",
			err:    &sandbox.ExecError{Kind: sandbox.KindReference, Identifier: "total"},
			want:   "forget the `return` keyword",
		},
		{
			name:   "undefined variable",
			source: "function add(a, b) { return totl; }",
			err:    &sandbox.ExecError{Kind: sandbox.KindReference, Identifier: "totl"},
			want:   "variable that doesn't exist",
		},
		{
			name:   "brackets",
			source: withReturn,
			err:    &sandbox.ExecError{Kind: sandbox.KindSyntax, Issue: sandbox.IssueUnexpectedEnd},
			want:   "parentheses and brackets",
		},
		{
			name:   "quotes",
			source: withReturn,
			err:    &sandbox.ExecError{Kind: sandbox.KindSyntax, Issue: sandbox.IssueUnterminatedStr},
			want:   "Check your quotes",
		},
		{
			name:   "misspelled return",
			source: "function add(a, b) { if (a) retrun a; return b.x.y; }",
			err:    &sandbox.ExecError{Kind: sandbox.KindType},
			want:   "spelling of `return`",
		},
		{
			name:   "assignment",
			source: withReturn,
			err:    &sandbox.ExecError{Kind: sandbox.KindReference, Issue: sandbox.IssueInvalidAssignment},
			want:   "`=` (assignment)",
		},
		{
			name:   "nothing applies",
			source: withReturn,
			err:    &sandbox.ExecError{Kind: sandbox.KindThrown, Message: "boom"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Runtime(tt.source, "add", tt.err)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.want)
		})
	}

	assert.Empty(t, Runtime(withReturn, "add", nil))
}

func TestMismatch(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		received any
		expected any
		want     string
	}{
		{"undefined without return", "function f() {}", value.Undefined, 5.0, "Did you forget to use `return`?"},
		{"undefined with return", "function f() { return; }", value.Undefined, 5.0, "returning the right value"},
		{"boolean as string", "", "true", true, "a boolean was expected"},
		{"number as string", "", "5", 5.0, "Remove the quotes"},
		{"capitalization", "", "Hello", "hello", "capitalization"},
		{"plain wrong number", "", 4.0, 5.0, ""},
		{"plain wrong string", "", "bye", "hello", ""},
		{"number instead of string", "", 5.0, "5", ""},
		{"both undefined", "", value.Undefined, value.Undefined, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mismatch(tt.source, tt.received, tt.expected)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.want)
		})
	}
}
