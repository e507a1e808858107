package challenge

import (
	"fmt"
	"sort"
)

// Callback names a canned function behavior that a test case can hand to
// the entry point.
type Callback string

const (
	Double    Callback = "double"
	Identity  Callback = "identity"
	Increment Callback = "increment"
	Square    Callback = "square"
	Negate    Callback = "negate"
	IsEven    Callback = "is-even"
	ToUpper   Callback = "to-upper"
)

var callbackSources = map[Callback]string{
	Double:    "x => x * 2",
	Identity:  "x => x",
	Increment: "x => x + 1",
	Square:    "x => x * x",
	Negate:    "x => -x",
	IsEven:    "x => x % 2 === 0",
	ToUpper:   "s => String(s).toUpperCase()",
}

// Valid reports whether c is a known behavior.
func (c Callback) Valid() bool {
	_, ok := callbackSources[c]
	return ok
}

// Source returns the JavaScript arrow function implementing c.
func (c Callback) Source() (string, error) {
	src, ok := callbackSources[c]
	if !ok {
		return "", fmt.Errorf("unknown callback behavior %q", c)
	}
	return src, nil
}

// Callbacks lists every known behavior, sorted.
func Callbacks() []Callback {
	out := make([]Callback, 0, len(callbackSources))
	for c := range callbackSources {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
