package lang

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/ardnew/formula/log"
)

// Expr is a reusable expression handle. It owns the source text, the
// optionally cached compiled [Unit], the variable scope stack, a registry
// of dynamic functions and a shared registry of constant functions.
//
// Builder methods mutate the receiver and return it so that calls chain:
//
//	v, err := lang.New("a + b").
//		WithValue("a", 2).
//		WithValue("b", 3).
//		Exec()
//
// An Expr is not safe for concurrent mutation. Once compiled, concurrent
// evaluation goes through [Request] values built from the handle.
type Expr struct {
	logger    log.Logger
	err       error // terminal compile failure
	pending   error // first failed WithValue conversion
	unit      *Unit
	functions Functions
	consts    *ConstFunctions
	source    string
	contexts  Contexts
}

// Option configures an [Expr] at construction.
type Option func(*Expr)

// WithLogger sets the logger that receives trace records for compilation
// and evaluation. The zero [log.Logger] discards everything.
func WithLogger(logger log.Logger) Option {
	return func(e *Expr) { e.logger = logger }
}

// WithConstFunctions makes the handle use an existing constant registry,
// sharing it with every other handle that uses it.
func WithConstFunctions(consts *ConstFunctions) Option {
	return func(e *Expr) {
		if consts != nil {
			e.consts = consts
		}
	}
}

// New returns an uncompiled handle for source with one empty scope frame
// and empty registries. Nothing is parsed until [Expr.Compile] or
// [Expr.Exec].
func New(source string, opts ...Option) *Expr {
	e := &Expr{
		source:    source,
		functions: make(Functions),
		consts:    NewConstFunctions(),
		contexts:  NewContexts(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// WithFunction binds name in the handle's dynamic registry, replacing any
// previous binding. A nil fn removes the binding.
// Dynamic functions shadow constant functions and built-ins of the same
// name.
func (e *Expr) WithFunction(name string, fn Func, opts ...FunctionOption) *Expr {
	if fn == nil {
		e.functions.Delete(name)

		return e
	}

	e.functions.Set(name, NewFunction(fn, opts...))

	return e
}

// WithConstFunction binds name in the constant registry shared by this
// handle and all of its clones. A nil fn removes the binding.
func (e *Expr) WithConstFunction(
	name string,
	fn ConstFunc,
	opts ...FunctionOption,
) *Expr {
	if fn == nil {
		e.consts.Delete(name)

		return e
	}

	e.consts.Set(name, NewConstFunction(fn, opts...))

	return e
}

// WithValue converts v with [ToValue] and binds it to name in the innermost
// scope frame. A value that cannot be converted is not bound; the error is
// reported by the next [Expr.Exec]. Compilation and requests are unaffected.
func (e *Expr) WithValue(name string, v any) *Expr {
	val, err := ToValue(v)
	if err != nil {
		if e.pending == nil {
			e.pending = NewError("bind "+strconv.Quote(name)).
				With(slog.String("name", name)).
				Wrap(err)
		}

		return e
	}

	e.contexts.Innermost()[name] = val

	return e
}

// Compile parses the source and caches the resulting unit.
//
// Compiling an already compiled handle does nothing. A compile failure is
// terminal: the handle reports the same error from every later call to
// Compile or [Expr.Exec].
func (e *Expr) Compile() (*Expr, error) {
	if e.err != nil {
		return e, e.err
	}

	if e.unit != nil {
		return e, nil
	}

	unit, err := e.compile()
	if err != nil {
		e.err = err

		return e, err
	}

	e.unit = unit

	return e, nil
}

// Exec evaluates the expression against the handle's scope stack and
// registries.
//
// An uncompiled handle is compiled for this call only; the unit is not
// cached, so repeated calls reparse the source. Call [Expr.Compile] first
// to reuse the unit. A value rejected by [Expr.WithValue] is reported here.
func (e *Expr) Exec() (Value, error) {
	if e.pending != nil {
		return nil, e.pending
	}

	return e.run(context.Background(), e.contexts, e.functions)
}

func (e *Expr) compile() (*Unit, error) {
	unit, err := Compile(e.source)
	if err != nil {
		e.logger.Trace("compile failed", slog.Any("error", err))

		return nil, err
	}

	e.logger.Trace("compiled", slog.Any("unit", unit))

	return unit, nil
}

func (e *Expr) run(ctx context.Context, cs Contexts, fns Functions) (Value, error) {
	if e.err != nil {
		return nil, e.err
	}

	unit := e.unit
	if unit == nil {
		var err error

		if unit, err = e.compile(); err != nil {
			return nil, err
		}
	}

	v, err := unit.Run(cs, fns, e.consts)
	if err != nil {
		e.logger.TraceContext(ctx, "evaluation failed",
			slog.String("source", e.source),
			slog.Any("error", err),
		)

		return nil, err
	}

	e.logger.TraceContext(ctx, "evaluated",
		slog.String("source", e.source),
		slog.String("kind", KindOf(v).String()),
	)

	return v, nil
}

// Clone returns a handle with the same source and compiled unit, a deep
// copy of the scope stack, an empty dynamic registry and the same constant
// registry.
//
// Mutating the clone's scope or dynamic functions never affects the
// original, but constant functions registered through either handle are
// visible to both.
func (e *Expr) Clone() *Expr {
	return &Expr{
		logger:    e.logger,
		err:       e.err,
		pending:   e.pending,
		unit:      e.unit,
		functions: make(Functions),
		consts:    e.consts,
		source:    e.source,
		contexts:  e.contexts.Clone(),
	}
}

// Equal reports whether e and other were created from the same source
// text. Bindings and compilation state are not compared.
func (e *Expr) Equal(other *Expr) bool {
	if e == nil || other == nil {
		return e == other
	}

	return e.source == other.source
}

// String returns the source text. Bindings are not included.
func (e *Expr) String() string { return e.source }

// Parse returns a compiled handle for text. It is the inverse of
// [Expr.String] up to the bindings, which are not preserved.
func Parse(text string, opts ...Option) (*Expr, error) {
	return New(text, opts...).Compile()
}

// Compiled reports whether the handle caches a compiled unit.
func (e *Expr) Compiled() bool { return e.unit != nil }

// Unit returns the cached compiled unit, or nil if the handle is not
// compiled.
func (e *Expr) Unit() *Unit { return e.unit }

// Source returns the source text.
func (e *Expr) Source() string { return e.source }

// ConstFunctions returns the constant registry shared by the handle and
// its clones.
func (e *Expr) ConstFunctions() *ConstFunctions { return e.consts }

// Functions returns the handle's dynamic registry.
func (e *Expr) Functions() Functions { return e.functions }

// Contexts returns the handle's scope stack. The innermost frame receives
// bindings made with [Expr.WithValue].
func (e *Expr) Contexts() Contexts { return e.contexts }

// LogValue implements slog.LogValuer.
func (e *Expr) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", e.source),
		slog.Bool("compiled", e.unit != nil),
		slog.Int("frames", len(e.contexts)),
		slog.Int("functions", e.functions.Len()),
		slog.Int("consts", e.consts.Len()),
	)
}
