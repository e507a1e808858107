package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySyntax(t *testing.T) {
	tests := []struct {
		msg  string
		want SyntaxIssue
	}{
		{"Line 3:1 Unexpected end of input", IssueUnexpectedEnd},
		{"Line 1:27 Unexpected token }", IssueExtraBrace},
		{"Line 1:27 Unexpected token )", IssueExtraParen},
		{"Line 1:5 Unexpected token ;", IssueUnexpectedToken},
		{"Unexpected identifier 'b'", IssueUnexpectedIdent},
		{"missing ) after argument list", IssueMissingParen},
		{"missing } after function body", IssueMissingBrace},
		{"Unterminated string constant", IssueUnterminatedStr},
		{"Invalid or unexpected token", IssueUnterminatedStr},
		{"Unexpected string", IssueUnterminatedStr},
		{"Invalid left-hand side in assignment", IssueInvalidAssignment},
		{"Unexpected reserved word", IssueNone},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySyntax(tt.msg))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name, msg  string
		kind       Kind
		identifier string
	}{
		{"ReferenceError", "total is not defined", KindReference, "total"},
		{"TypeError", "add is not a function", KindNotAFunction, "add"},
		{"TypeError", "Cannot read property 'x' of null", KindType, ""},
		{"RangeError", "Invalid array length", KindRange, ""},
		{"Error", "boom", KindThrown, ""},
		{"ValidationError", "custom", KindThrown, ""},
		{"SyntaxError", "Unexpected end of input", KindSyntax, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name+" "+tt.msg, func(t *testing.T) {
			e := Classify(tt.name, tt.msg)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.identifier, e.Identifier)
			assert.Equal(t, tt.msg, e.Message)
		})
	}
}

func TestNewSyntaxErrorCleansMessage(t *testing.T) {
	e := NewSyntaxError("SyntaxError: submission.js: Line 1:29 Unexpected end of input (and 2 more errors)")
	assert.Equal(t, "Line 1:29 Unexpected end of input", e.Message)
	assert.Equal(t, IssueUnexpectedEnd, e.Issue)
	assert.Equal(t, KindSyntax, e.Kind)
}
