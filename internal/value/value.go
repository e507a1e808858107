// Package value models the JavaScript values that cross the sandbox boundary
// and implements the normalization and comparison used to grade them.
//
// Values are plain Go data: nil is null, Undefined is undefined, numbers are
// float64, arrays are []any and plain objects are map[string]any. Canonical
// converts arbitrary decoded data (YAML, JSON) into that shape.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

type undefined struct{}

// Undefined is the JavaScript undefined value. It is distinct from nil, which
// models null.
var Undefined any = undefined{}

func (undefined) String() string { return "undefined" }

// MarshalJSON encodes undefined as null, the closest JSON has.
func (undefined) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// IsUndefined reports whether v is the undefined value.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Function stands in for a function value returned by learner code.
type Function struct {
	Name string
}

func (f Function) String() string {
	if f.Name == "" {
		return "[Function (anonymous)]"
	}
	return "[Function: " + f.Name + "]"
}

func (f Function) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// TypeOf returns the JavaScript typeof tag for v.
func TypeOf(v any) string {
	switch v.(type) {
	case undefined:
		return "undefined"
	case nil:
		return "object"
	case bool:
		return "boolean"
	case string:
		return "string"
	case Function:
		return "function"
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	default:
		return "object"
	}
}

// Canonical converts decoded Go data into the value model: every number
// becomes a float64, slices become []any and maps become map[string]any.
func Canonical(v any) any {
	switch x := v.(type) {
	case nil, undefined, bool, string, float64, Function:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String()
		}
		return f
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Canonical(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Canonical(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = Canonical(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Canonical(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = Canonical(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Canonical(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

// JSONSafe returns a copy of v that encoding/json can always marshal:
// non-finite numbers become their JavaScript spelling and undefined becomes
// null.
func JSONSafe(v any) any {
	switch x := Canonical(v).(type) {
	case undefined:
		return nil
	case float64:
		switch {
		case math.IsNaN(x):
			return "NaN"
		case math.IsInf(x, 1):
			return "Infinity"
		case math.IsInf(x, -1):
			return "-Infinity"
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = JSONSafe(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = JSONSafe(e)
		}
		return out
	default:
		return x
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
