package lang

import (
	"context"
	"maps"
)

// Request is a one-shot evaluation of an [Expr] against per-request
// bindings. The handle supplies the compiled unit and the constant
// registry; the request supplies the scope stack and dynamic functions.
//
// Requests built from one compiled handle may execute concurrently.
type Request struct {
	expr      *Expr
	ctx       context.Context //nolint:containedctx
	functions Functions
	contexts  Contexts
	shared    bool // innermost frame belongs to the caller
}

// NewRequest returns a request for e with one empty scope frame and no
// dynamic functions.
func NewRequest(e *Expr) *Request {
	return &Request{
		expr:      e,
		ctx:       context.Background(),
		functions: make(Functions),
		contexts:  NewContexts(),
	}
}

// WithContext sets the context passed to the handle's logger.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx != nil {
		r.ctx = ctx
	}

	return r
}

// WithContexts replaces the request's scope stack.
// An empty stack is replaced by one empty frame. The frames are shared
// with the caller, not copied; [Request.WithValue] copies the innermost
// frame before its first write.
func (r *Request) WithContexts(cs Contexts) *Request {
	r.contexts = NewContexts(cs...)
	r.shared = len(cs) > 0

	return r
}

// WithFunctions replaces the request's dynamic registry.
func (r *Request) WithFunctions(fns Functions) *Request {
	if fns == nil {
		fns = make(Functions)
	}

	r.functions = fns

	return r
}

// WithValue converts v with [ToValue] and binds it to name in the
// innermost frame of the request's scope stack. Frames passed to
// [Request.WithContexts] are never modified.
func (r *Request) WithValue(name string, v any) (*Request, error) {
	val, err := ToValue(v)
	if err != nil {
		return r, err
	}

	if r.shared {
		r.contexts[len(r.contexts)-1] = maps.Clone(r.contexts.Innermost())
		r.shared = false
	}

	r.contexts.Innermost()[name] = val

	return r, nil
}

// Exec evaluates the handle's expression with the request's bindings and
// the handle's constant functions. The handle's own scope stack and
// dynamic registry are not consulted.
func (r *Request) Exec() (Value, error) {
	return r.expr.run(r.ctx, r.contexts, r.functions)
}
