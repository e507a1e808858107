package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/michaelbrown/conceptloop/internal/value"
)

const maxCachedPrograms = 256

var entryPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

type programKey struct {
	source string
	entry  string
}

// GojaSandbox runs code in an embedded ECMAScript interpreter. Every call
// gets its own goja.Runtime, which has no host bindings beyond the captured
// console. Compiled programs are shared between calls.
type GojaSandbox struct {
	Policy Policy

	mu       sync.Mutex
	programs map[programKey]*goja.Program
}

// NewGojaSandbox creates a sandbox with the given policy.
func NewGojaSandbox(policy Policy) *GojaSandbox {
	return &GojaSandbox{
		Policy:   policy,
		programs: make(map[programKey]*goja.Program),
	}
}

func (g *GojaSandbox) Check(ctx context.Context, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := goja.Parse(sourceName, source)
	if err == nil {
		return nil
	}
	// A function body may return at the top level; a script may not.
	if strings.Contains(strings.ToLower(err.Error()), "illegal return") {
		if _, werr := goja.Parse(sourceName, "(function() {\n"+source+"\n})"); werr == nil {
			return nil
		}
	}
	return NewSyntaxError(err.Error())
}

func (g *GojaSandbox) Exec(ctx context.Context, opts ExecOpts) (*ExecResult, error) {
	if !entryPattern.MatchString(opts.EntryPoint) {
		return nil, fmt.Errorf("invalid entry point %q", opts.EntryPoint)
	}

	res := g.run(ctx, func(vm *goja.Runtime) (goja.Value, error) {
		prg, err := g.program(opts.Source, opts.EntryPoint)
		if err != nil {
			return nil, err
		}
		wrapper, err := vm.RunProgram(prg)
		if err != nil {
			return nil, err
		}
		declare, _ := goja.AssertFunction(wrapper)
		entry, err := declare(goja.Undefined())
		if err != nil {
			return nil, err
		}
		if entry == nil || goja.IsUndefined(entry) {
			return nil, notDefined(opts.EntryPoint)
		}
		call, ok := goja.AssertFunction(entry)
		if !ok {
			return nil, notAFunction(opts.EntryPoint)
		}

		args := make([]goja.Value, len(opts.Args))
		for i, a := range opts.Args {
			if args[i], err = toJS(vm, a); err != nil {
				return nil, err
			}
		}
		return call(goja.Undefined(), args...)
	})
	return res, nil
}

func (g *GojaSandbox) Eval(ctx context.Context, code string) (*ExecResult, error) {
	return g.run(ctx, func(vm *goja.Runtime) (goja.Value, error) {
		return vm.RunScript("snippet.js", code)
	}), nil
}

// program returns the compiled declaration wrapper for source. Running it
// yields a function that declares the source in its own scope and returns
// the entry point.
func (g *GojaSandbox) program(source, entry string) (*goja.Program, error) {
	key := programKey{source: source, entry: entry}

	g.mu.Lock()
	prg, ok := g.programs[key]
	g.mu.Unlock()
	if ok {
		return prg, nil
	}

	wrapped := "(function() {\n" + source + "\n;return typeof " + entry + " === 'undefined' ? undefined : " + entry + ";\n})"
	prg, err := goja.Compile(sourceName, wrapped, false)
	if err != nil {
		return nil, NewSyntaxError(err.Error())
	}

	g.mu.Lock()
	if len(g.programs) >= maxCachedPrograms {
		clear(g.programs)
	}
	g.programs[key] = prg
	g.mu.Unlock()
	return prg, nil
}

// run executes fn in a fresh runtime under the policy's limits and turns
// whatever happens into an ExecResult.
func (g *GojaSandbox) run(ctx context.Context, fn func(vm *goja.Runtime) (goja.Value, error)) (res *ExecResult) {
	res = &ExecResult{Value: value.Undefined}
	start := time.Now()

	vm := goja.New()
	if g.Policy.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(g.Policy.MaxCallStack)
	}
	restore := newConsole(g.Policy.MaxLogLines).install(vm)

	timeout := g.Policy.timeout()
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt(timeoutError(timeout))
	})
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(contextError(ctx, timeout))
	})

	defer func() {
		timer.Stop()
		stop()
		if r := recover(); r != nil {
			res.Value = value.Undefined
			res.Err = internalError(fmt.Sprintf("sandbox panic: %v", r))
		}
		res.Logs = restore()
		res.Duration = time.Since(start)
	}()

	if ctx.Err() != nil {
		res.Err = contextError(ctx, timeout)
		return res
	}

	v, err := fn(vm)
	if err != nil {
		res.Err = classify(err)
		return res
	}
	res.Value, res.Err = export(v)
	return res
}

// export converts a returned value. Getters on the value run learner code,
// so a throw or an interrupt inside one is reported like any other failure
// of that code.
func export(v goja.Value) (out any, ee *ExecError) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				panic(r)
			}
			out, ee = value.Undefined, classify(err)
		}
	}()
	out, err := fromJS(v)
	if err != nil {
		return value.Undefined, &ExecError{Kind: KindRange, Name: "RangeError", Message: err.Error()}
	}
	return out, nil
}

func timeoutError(d time.Duration) *ExecError {
	return &ExecError{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("Execution timed out after %s", d),
	}
}

func contextError(ctx context.Context, d time.Duration) *ExecError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return timeoutError(d)
	}
	return internalError("execution canceled")
}

func classify(err error) *ExecError {
	var so *goja.StackOverflowError
	if errors.As(err, &so) {
		return stackOverflow()
	}
	var ee *ExecError
	if errors.As(err, &ee) {
		return ee
	}
	if strings.Contains(err.Error(), "call stack size exceeded") {
		return stackOverflow()
	}
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		if ee, ok := ie.Value().(*ExecError); ok {
			return ee
		}
		return internalError(ie.Error())
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return fromException(ex)
	}
	var se *goja.CompilerSyntaxError
	if errors.As(err, &se) {
		return NewSyntaxError(se.Error())
	}
	return internalError(err.Error())
}

func stackOverflow() *ExecError {
	return &ExecError{Kind: KindRange, Name: "RangeError", Message: "Maximum call stack size exceeded"}
}

func fromException(ex *goja.Exception) *ExecError {
	val := ex.Value()
	obj, ok := val.(*goja.Object)
	if !ok {
		msg := "undefined"
		if val != nil {
			msg = val.String()
		}
		return &ExecError{Kind: KindThrown, Message: msg}
	}
	name := propString(obj, "name")
	if name == "" {
		return &ExecError{Kind: KindThrown, Message: obj.String()}
	}
	return Classify(name, propString(obj, "message"))
}

func propString(obj *goja.Object, key string) string {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}
