package value

import "math"

// DeepEqual reports whether a and b are structurally equal. Arrays compare
// element-wise in order, objects compare by key set and value regardless of
// key order. null and undefined are only equal to themselves. There is no
// loose coercion: 1 and "1" are different.
//
// Unlike JavaScript's ===, NaN equals NaN, which keeps DeepEqual reflexive.
func DeepEqual(a, b any) bool {
	return deepEqual(Canonical(a), Canonical(b))
}

func deepEqual(a, b any) bool {
	if a == nil || b == nil || IsUndefined(a) || IsUndefined(b) {
		return a == b
	}
	if TypeOf(a) != TypeOf(b) {
		return false
	}

	switch x := a.(type) {
	case float64:
		y := b.(float64)
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case string:
		return x == b.(string)
	case bool:
		return x == b.(bool)
	case Function:
		return x.Name == b.(Function).Name
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !deepEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !deepEqual(xv, yv) {
				return false
			}
		}
		return true
	}
	return false
}
