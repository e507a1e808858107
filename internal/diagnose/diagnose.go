// Package diagnose turns structured execution failures and wrong answers
// into hints written for beginners.
package diagnose

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/michaelbrown/conceptloop/internal/sandbox"
	"github.com/michaelbrown/conceptloop/internal/value"
)

var syntaxHints = map[sandbox.SyntaxIssue]string{
	sandbox.IssueUnexpectedEnd:   "💡 It looks like you're missing a closing bracket `}` or parenthesis `)`. Check that every opening bracket has a matching closing one.",
	sandbox.IssueExtraBrace:      "💡 There's an extra closing bracket `}`. Remove it or add the matching opening bracket `{`.",
	sandbox.IssueExtraParen:      "💡 There's an extra closing parenthesis `)`. Remove it or add the matching opening parenthesis `(`.",
	sandbox.IssueUnexpectedToken: "💡 There's a syntax error in your code. Check for typos, missing semicolons, or mismatched brackets.",
	sandbox.IssueUnexpectedIdent: "💡 There's an unexpected word in your code. You might be missing a semicolon, comma, or operator.",
	sandbox.IssueMissingParen:    "💡 You're missing a closing parenthesis `)`.",
	sandbox.IssueMissingBrace:    "💡 You're missing a closing bracket `}`.",
}

const (
	hintTimeout       = "💡 Tip: Your code took too long to finish. Check your loops: make sure each one has a condition that eventually becomes false."
	hintMissingReturn = "💡 Tip: Did you forget the `return` keyword? Your function needs to give back a value using `return`."
	hintUndefinedVar  = "💡 Tip: You're using a variable that doesn't exist. Check your spelling and make sure you've declared it with `const`."
	hintBrackets      = "💡 Tip: Check your parentheses and brackets. Every `(` needs a `)` and every `{` needs a `}`."
	hintQuotes        = "💡 Tip: Check your quotes! Every string needs matching opening and closing quotes."
	hintSpelling      = "💡 Tip: Check your spelling of `return`. It looks like there might be a typo!"
	hintAssignment    = "💡 Tip: You might be using `=` (assignment) instead of `===` (comparison)."

	hintReturnedNothing = "💡 Your function returned `undefined`. Did you forget to use `return`?"
	hintReturnedWrong   = "💡 Your function returned `undefined`. Make sure you're returning the right value."
	hintBooleanString   = "💡 You returned a string, but a boolean was expected. Remember: `true` and `\"true\"` are different!"
	hintNumberString    = "💡 You returned a string instead of a number. Remove the quotes around your value."
	hintCapitalization  = "💡 Almost there! Check your capitalization. JavaScript strings are case-sensitive."
)

var (
	returnPattern     = regexp.MustCompile(`\breturn\b`)
	misspelledReturns = []string{"retrun", "reutrn", "retrn"}
)

// Syntax returns the hint for a syntax issue found before any test ran, or
// "" when there is none.
func Syntax(issue sandbox.SyntaxIssue) string {
	return syntaxHints[issue]
}

// Runtime returns the hint for an error raised while running source. The
// first matching rule wins.
func Runtime(source, entryPoint string, err *sandbox.ExecError) string {
	if err == nil {
		return ""
	}
	switch {
	case err.Kind == sandbox.KindTimeout:
		return hintTimeout
	case err.Kind == sandbox.KindReference && err.Identifier == entryPoint:
		return fmt.Sprintf("💡 The function `%s` is not defined. Make sure you've written the function with the correct name: `function %s(...) { ... }`", entryPoint, entryPoint)
	case err.Kind == sandbox.KindNotAFunction && err.Identifier == entryPoint:
		return fmt.Sprintf("💡 `%s` is not a function. Make sure you're defining a function, not just a variable.", entryPoint)
	case !returnPattern.MatchString(source):
		return hintMissingReturn
	case err.Kind == sandbox.KindReference && err.Identifier != "":
		return hintUndefinedVar
	case err.Issue == sandbox.IssueUnexpectedEnd || err.Issue == sandbox.IssueMissingParen:
		return hintBrackets
	case err.Issue == sandbox.IssueUnterminatedStr:
		return hintQuotes
	case containsMisspelledReturn(source):
		return hintSpelling
	case err.Issue == sandbox.IssueInvalidAssignment:
		return hintAssignment
	}
	return ""
}

func containsMisspelledReturn(source string) bool {
	lower := strings.ToLower(source)
	for _, m := range misspelledReturns {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Mismatch returns the hint for a value that ran cleanly but differs from
// the expected one. received and expected are the raw, unnormalized values.
func Mismatch(source string, received, expected any) string {
	if value.IsUndefined(received) && !value.IsUndefined(expected) {
		if !returnPattern.MatchString(source) {
			return hintReturnedNothing
		}
		return hintReturnedWrong
	}

	rt, et := value.TypeOf(received), value.TypeOf(expected)
	if rt != et {
		switch {
		case et == "boolean" && rt == "string":
			return hintBooleanString
		case et == "number" && rt == "string":
			return hintNumberString
		}
		return ""
	}

	if r, ok := received.(string); ok {
		e := expected.(string)
		if r != e && strings.EqualFold(r, e) {
			return hintCapitalization
		}
	}
	return ""
}
