package sandbox

import (
	"regexp"
	"strings"
)

// Kind classifies why learner code failed to produce a value.
type Kind string

const (
	KindSyntax       Kind = "syntax"
	KindReference    Kind = "reference"
	KindType         Kind = "type"
	KindNotAFunction Kind = "not-a-function"
	KindRange        Kind = "range"
	KindThrown       Kind = "thrown"
	KindTimeout      Kind = "timeout"
	KindInternal     Kind = "internal"
)

// SyntaxIssue narrows a syntax error down to the mistake a learner most
// likely made.
type SyntaxIssue string

const (
	IssueNone              SyntaxIssue = ""
	IssueUnexpectedEnd     SyntaxIssue = "unexpected-end"
	IssueExtraBrace        SyntaxIssue = "extra-brace"
	IssueExtraParen        SyntaxIssue = "extra-paren"
	IssueUnexpectedToken   SyntaxIssue = "unexpected-token"
	IssueUnexpectedIdent   SyntaxIssue = "unexpected-identifier"
	IssueMissingParen      SyntaxIssue = "missing-paren"
	IssueMissingBrace      SyntaxIssue = "missing-brace"
	IssueUnterminatedStr   SyntaxIssue = "unterminated-string"
	IssueInvalidAssignment SyntaxIssue = "invalid-assignment"
)

// ExecError describes a failure inside learner code. It is data, not a
// host failure: backends report it in ExecResult.Err.
type ExecError struct {
	Kind Kind `json:"kind"`
	// Issue is set for syntax errors and for runtime errors whose message
	// points at a syntax-level mistake.
	Issue SyntaxIssue `json:"issue,omitempty"`
	// Name is the JavaScript error constructor name, e.g. "TypeError".
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
	// Identifier is the name a reference or not-a-function error refers to.
	Identifier string `json:"identifier,omitempty"`
}

func (e *ExecError) Error() string {
	return e.Message
}

var (
	notDefinedPattern  = regexp.MustCompile(`^(.+?) is not defined`)
	notFunctionPattern = regexp.MustCompile(`^(.+?) is not a function`)
	moreErrorsPattern  = regexp.MustCompile(` \(and \d+ more errors?\)$`)
)

// ClassifySyntax maps an engine syntax error message to an issue. Matching
// is case-insensitive and the first rule that applies wins.
func ClassifySyntax(msg string) SyntaxIssue {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "unexpected end"):
		return IssueUnexpectedEnd
	case strings.Contains(m, "unterminated string"),
		strings.Contains(m, "unexpected string"),
		strings.Contains(m, "invalid or unexpected token"):
		return IssueUnterminatedStr
	case strings.Contains(m, "unexpected token"):
		switch {
		case strings.Contains(m, "}"):
			return IssueExtraBrace
		case strings.Contains(m, ")"):
			return IssueExtraParen
		}
		return IssueUnexpectedToken
	case strings.Contains(m, "unexpected identifier"):
		return IssueUnexpectedIdent
	case strings.Contains(m, "missing )"):
		return IssueMissingParen
	case strings.Contains(m, "missing }"):
		return IssueMissingBrace
	case strings.Contains(m, "invalid left-hand side"):
		return IssueInvalidAssignment
	}
	return IssueNone
}

// NewSyntaxError builds a syntax ExecError from an engine message.
func NewSyntaxError(msg string) *ExecError {
	msg = cleanMessage(msg)
	return &ExecError{
		Kind:    KindSyntax,
		Issue:   ClassifySyntax(msg),
		Name:    "SyntaxError",
		Message: msg,
	}
}

// Classify builds an ExecError from a JavaScript error name and message.
// Both backends report errors this way so their classification agrees.
func Classify(name, msg string) *ExecError {
	e := &ExecError{Name: name, Message: msg}
	switch name {
	case "SyntaxError":
		return NewSyntaxError(msg)
	case "ReferenceError":
		e.Kind = KindReference
		if m := notDefinedPattern.FindStringSubmatch(msg); m != nil {
			e.Identifier = m[1]
		}
		if strings.Contains(strings.ToLower(msg), "invalid left-hand side") {
			e.Issue = IssueInvalidAssignment
		}
	case "TypeError":
		e.Kind = KindType
		if m := notFunctionPattern.FindStringSubmatch(msg); m != nil {
			e.Kind = KindNotAFunction
			e.Identifier = m[1]
		}
	case "RangeError":
		e.Kind = KindRange
	default:
		e.Kind = KindThrown
	}
	return e
}

func notDefined(name string) *ExecError {
	return &ExecError{
		Kind:       KindReference,
		Name:       "ReferenceError",
		Message:    name + " is not defined",
		Identifier: name,
	}
}

func notAFunction(name string) *ExecError {
	return &ExecError{
		Kind:       KindNotAFunction,
		Name:       "TypeError",
		Message:    name + " is not a function",
		Identifier: name,
	}
}

func internalError(msg string) *ExecError {
	return &ExecError{Kind: KindInternal, Message: msg}
}

// cleanMessage drops the file name prefix and the trailing error count the
// parser adds.
func cleanMessage(msg string) string {
	msg = strings.TrimPrefix(msg, "SyntaxError: ")
	msg = strings.TrimPrefix(msg, sourceName+": ")
	msg = strings.TrimPrefix(msg, "(anonymous): ")
	return moreErrorsPattern.ReplaceAllString(msg, "")
}
