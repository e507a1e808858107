package value

import (
	"regexp"
	"strings"
	"unicode"
)

// ansiPattern matches terminal color and cursor control sequences, both the
// ESC-prefixed form and the single-byte CSI form.
var ansiPattern = regexp.MustCompile("[\u001b\u009b][\\[()#;?]*(?:[0-9]{1,4}(?:;[0-9]{0,4})*)?[0-9A-ORZcf-nqry=><]")

// StripANSI removes terminal escape sequences from s. Removal is repeated
// until nothing matches, so sequences split by another sequence do not
// survive.
func StripANSI(s string) string {
	for {
		out := ansiPattern.ReplaceAllString(s, "")
		if out == s {
			return out
		}
		s = out
	}
}

func isTrimSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Normalize removes incidental differences from v before comparison:
// strings lose escape sequences and surrounding whitespace, arrays and
// objects are normalized recursively (object keys included). Every other
// value is returned unchanged. Normalize is idempotent.
func Normalize(v any) any {
	switch x := Canonical(v).(type) {
	case string:
		return normalizeString(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		// Keys that collide after normalization resolve in sorted order.
		for _, k := range sortedKeys(x) {
			out[normalizeString(k)] = Normalize(x[k])
		}
		return out
	default:
		return x
	}
}

func normalizeString(s string) string {
	return strings.TrimFunc(StripANSI(s), isTrimSpace)
}
