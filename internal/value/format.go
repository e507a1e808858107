package value

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Format renders v for display next to a test result: strings are quoted,
// arrays use bracket notation and objects are shown as JSON.
func Format(v any) string {
	switch x := Canonical(v).(type) {
	case undefined:
		return "undefined"
	case nil:
		return "null"
	case string:
		return `"` + x + `"`
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	case Function:
		return x.String()
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Format(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		b, err := json.Marshal(JSONSafe(x))
		if err != nil {
			return "[object Object]"
		}
		return string(b)
	default:
		return "[object Object]"
	}
}

// FormatNumber formats f the way JavaScript's String(number) does for the
// common cases.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	// Go pads the exponent to two digits; JavaScript does not.
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + sign + digits
}
