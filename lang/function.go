package lang

import (
	"maps"
	"slices"
	"sync"
)

// Func is the body of a dynamic function.
//
// A Func may capture and mutate state of its own. Executions of the same
// handle may run concurrently, so a Func must tolerate concurrent
// invocation. Its error is returned to the caller of Exec unchanged.
type Func func(args []Value) (Value, error)

// ConstFunc is the body of a constant function.
//
// A ConstFunc must not depend on mutable captured state: it is freely copied
// and shared between every handle that shares its registry.
type ConstFunc func(args []Value) (Value, error)

// unbounded marks an absent upper arity bound.
const unbounded = -1

// arity holds the inclusive bounds on a function's argument count.
type arity struct {
	min, max int
}

// defaultArity accepts any number of arguments.
var defaultArity = arity{min: 0, max: unbounded}

// check returns an [*ArityError] if got arguments fall outside the bounds.
func (a arity) check(name string, got int) error {
	if got < a.min || (a.max != unbounded && got > a.max) {
		return &ArityError{Name: name, Min: a.min, Max: a.max, Got: got}
	}

	return nil
}

// FunctionOption configures the argument count bounds of a function.
type FunctionOption func(arity) arity

// MinArgs sets the minimum number of arguments a function accepts.
func MinArgs(n int) FunctionOption {
	return func(a arity) arity {
		a.min = max(n, 0)

		return a
	}
}

// MaxArgs sets the maximum number of arguments a function accepts.
// A negative n removes the upper bound.
func MaxArgs(n int) FunctionOption {
	return func(a arity) arity {
		if n < 0 {
			n = unbounded
		}

		a.max = n

		return a
	}
}

// Args sets both bounds so that a function accepts exactly n arguments.
func Args(n int) FunctionOption {
	return func(a arity) arity {
		return MaxArgs(n)(MinArgs(n)(a))
	}
}

// Variadic removes the upper bound on the number of arguments.
func Variadic() FunctionOption { return MaxArgs(unbounded) }

func makeArity(opts ...FunctionOption) arity {
	a := defaultArity
	for _, opt := range opts {
		a = opt(a)
	}

	return a
}

// Function is a named callable that may capture state.
// Functions are never copied across [Expr.Clone].
type Function struct {
	call Func
	arity
}

// NewFunction returns a [Function] calling fn with the given bounds.
// Without options the function accepts any number of arguments.
func NewFunction(fn Func, opts ...FunctionOption) *Function {
	return &Function{call: fn, arity: makeArity(opts...)}
}

// Arity returns the minimum and maximum argument counts. A maximum of -1
// means the function is variadic.
func (f *Function) Arity() (minArgs, maxArgs int) { return f.min, f.max }

// Call invokes the function after checking the argument count.
func (f *Function) Call(name string, args []Value) (Value, error) {
	if err := f.check(name, len(args)); err != nil {
		return nil, err
	}

	return f.call(args)
}

// ConstFunction is a named stateless callable.
// It is a plain value and is shared freely.
type ConstFunction struct {
	call ConstFunc
	arity
}

// NewConstFunction returns a [ConstFunction] calling fn with the given
// bounds. Without options the function accepts any number of arguments.
func NewConstFunction(fn ConstFunc, opts ...FunctionOption) ConstFunction {
	return ConstFunction{call: fn, arity: makeArity(opts...)}
}

// Arity returns the minimum and maximum argument counts. A maximum of -1
// means the function is variadic.
func (f ConstFunction) Arity() (minArgs, maxArgs int) { return f.min, f.max }

// Call invokes the function after checking the argument count.
func (f ConstFunction) Call(name string, args []Value) (Value, error) {
	if err := f.check(name, len(args)); err != nil {
		return nil, err
	}

	return f.call(args)
}

// Functions is a registry of dynamic functions owned by a single handle or
// request. Setting a name that already exists replaces it.
type Functions map[string]*Function

// Set binds name to f. A nil f removes the binding.
func (fs Functions) Set(name string, f *Function) {
	if f == nil {
		delete(fs, name)

		return
	}

	fs[name] = f
}

// Lookup returns the function bound to name. The result reports whether
// the registry holds name at all, so an entry assigned nil directly is
// still found, with a nil function.
func (fs Functions) Lookup(name string) (*Function, bool) {
	f, ok := fs[name]

	return f, ok
}

// Delete removes name from the registry.
func (fs Functions) Delete(name string) { delete(fs, name) }

// Len returns the number of registered functions.
func (fs Functions) Len() int { return len(fs) }

// Names returns the registered names in sorted order.
func (fs Functions) Names() []string { return slices.Sorted(maps.Keys(fs)) }

// Clone returns a shallow copy of the registry. The functions themselves,
// and any state they capture, are shared with the receiver.
func (fs Functions) Clone() Functions {
	if fs == nil {
		return Functions{}
	}

	return maps.Clone(fs)
}

// ConstFunctions is a registry of constant functions that may be shared by
// many handles, including every clone of a handle.
//
// Each method is atomic with respect to the others. A sequence of calls,
// such as a lookup followed by a conditional set, is not.
type ConstFunctions struct {
	mu sync.RWMutex
	fs map[string]ConstFunction
}

// NewConstFunctions returns an empty registry.
func NewConstFunctions() *ConstFunctions {
	return &ConstFunctions{fs: make(map[string]ConstFunction)}
}

// Set binds name to f, replacing any previous binding.
func (c *ConstFunctions) Set(name string, f ConstFunction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fs == nil {
		c.fs = make(map[string]ConstFunction)
	}

	c.fs[name] = f
}

// Lookup returns the function bound to name.
// A nil registry is empty.
func (c *ConstFunctions) Lookup(name string) (ConstFunction, bool) {
	if c == nil {
		return ConstFunction{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	f, ok := c.fs[name]

	return f, ok && f.call != nil
}

// Delete removes name from the registry.
func (c *ConstFunctions) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.fs, name)
}

// Len returns the number of registered functions.
func (c *ConstFunctions) Len() int {
	if c == nil {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.fs)
}

// Names returns the registered names in sorted order.
func (c *ConstFunctions) Names() []string {
	if c == nil {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Sorted(maps.Keys(c.fs))
}
