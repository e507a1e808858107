package sandbox

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/dop251/goja"

	"github.com/michaelbrown/conceptloop/internal/value"
)

// maxExportLength bounds arrays copied out of the runtime.
const maxExportLength = 100_000

// toJS builds a native JavaScript value from the value model, so arrays
// and objects behave exactly like literals written in the source.
func toJS(vm *goja.Runtime, v any) (goja.Value, error) {
	switch x := v.(type) {
	case Callback:
		fn, err := vm.RunScript("callback:"+x.Name, "("+x.Source+")")
		if err != nil {
			return nil, fmt.Errorf("compiling callback %s: %w", x.Name, err)
		}
		if _, ok := goja.AssertFunction(fn); !ok {
			return nil, fmt.Errorf("callback %s is not a function", x.Name)
		}
		return fn, nil
	case []any:
		items := make([]any, len(x))
		for i, e := range x {
			jv, err := toJS(vm, e)
			if err != nil {
				return nil, err
			}
			items[i] = jv
		}
		return vm.NewArray(items...), nil
	case map[string]any:
		obj := vm.NewObject()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			jv, err := toJS(vm, x[k])
			if err != nil {
				return nil, err
			}
			if err := obj.Set(k, jv); err != nil {
				return nil, err
			}
		}
		return obj, nil
	}

	switch x := value.Canonical(v).(type) {
	case nil:
		return goja.Null(), nil
	case bool, string, float64:
		return vm.ToValue(x), nil
	case []any, map[string]any:
		return toJS(vm, x)
	default:
		if value.IsUndefined(x) {
			return goja.Undefined(), nil
		}
		return vm.ToValue(x), nil
	}
}

// fromJS copies a runtime value into the value model. Cycles are cut with
// the string "[Circular]".
func fromJS(v goja.Value) (any, error) {
	return exportValue(v, map[*goja.Object]bool{})
}

func exportValue(v goja.Value, seen map[*goja.Object]bool) (any, error) {
	if v == nil || goja.IsUndefined(v) {
		return value.Undefined, nil
	}
	if goja.IsNull(v) {
		return nil, nil
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		switch x := v.Export().(type) {
		case int64:
			return float64(x), nil
		case float64, string, bool:
			return x, nil
		case *big.Int:
			return x.String(), nil
		default:
			return v.String(), nil
		}
	}

	if _, isFn := goja.AssertFunction(v); isFn {
		name := ""
		if n := obj.Get("name"); n != nil && !goja.IsUndefined(n) {
			name = n.String()
		}
		return value.Function{Name: name}, nil
	}

	if seen[obj] {
		return "[Circular]", nil
	}
	seen[obj] = true
	defer delete(seen, obj)

	if obj.ClassName() == "Array" {
		n := obj.Get("length").ToInteger()
		if n > maxExportLength {
			return nil, fmt.Errorf("array of length %d is too large to return", n)
		}
		out := make([]any, n)
		for i := range out {
			e, err := exportValue(obj.Get(strconv.Itoa(i)), seen)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	}

	keys := obj.Keys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		e, err := exportValue(obj.Get(k), seen)
		if err != nil {
			return nil, err
		}
		out[k] = e
	}
	return out, nil
}
