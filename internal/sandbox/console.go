package sandbox

import (
	"strings"
	"sync"

	"github.com/dop251/goja"
)

const truncatedLine = "... (output truncated)"

// console collects output from one execution. Once closed it drops further
// writes, so a runtime that outlives its execution cannot leak lines into a
// result that was already returned.
type console struct {
	mu        sync.Mutex
	lines     []string
	max       int
	truncated bool
	closed    bool
}

func newConsole(max int) *console {
	return &console{max: max}
}

func (c *console) write(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.truncated {
		return
	}
	if c.max > 0 && len(c.lines) >= c.max {
		c.lines = append(c.lines, truncatedLine)
		c.truncated = true
		return
	}
	c.lines = append(c.lines, line)
}

// close detaches the buffer and returns what was captured.
func (c *console) close() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.lines
}

// install replaces the runtime's console with one writing into c. The
// returned func restores the previous binding and closes the buffer.
func (c *console) install(vm *goja.Runtime) (restore func() []string) {
	prev := vm.Get("console")

	obj := vm.NewObject()
	logFn := func(call goja.FunctionCall) goja.Value {
		c.write(formatArgs(call.Arguments, true))
		return goja.Undefined()
	}
	prefixed := func(prefix string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			c.write(prefix + formatArgs(call.Arguments, false))
			return goja.Undefined()
		}
	}
	_ = obj.Set("log", logFn)
	_ = obj.Set("info", logFn)
	_ = obj.Set("debug", logFn)
	_ = obj.Set("warn", prefixed("[WARN] "))
	_ = obj.Set("error", prefixed("[ERROR] "))
	_ = vm.Set("console", obj)

	return func() []string {
		if prev == nil {
			_ = vm.GlobalObject().Delete("console")
		} else {
			_ = vm.Set("console", prev)
		}
		return c.close()
	}
}

// formatArgs joins console arguments with spaces. With stringify set,
// plain objects and arrays are rendered as JSON.
func formatArgs(args []goja.Value, stringify bool) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = formatArg(a, stringify)
	}
	return strings.Join(parts, " ")
}

func formatArg(a goja.Value, stringify bool) string {
	if stringify {
		if obj, ok := a.(*goja.Object); ok {
			if _, isFn := goja.AssertFunction(a); !isFn {
				if b, err := obj.MarshalJSON(); err == nil {
					return string(b)
				}
			}
		}
	}
	return a.String()
}
