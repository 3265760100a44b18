package lang

import (
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
//
// Every typed error below unwraps to one of these, so callers may test
// either errors.Is against a sentinel or errors.As against the type.
var (
	ErrCompile            = NewError("compile expression")
	ErrEmptySource        = NewError("empty expression")
	ErrUnsupported        = NewError("unsupported expression")
	ErrUnresolvedVariable = NewError("unresolved variable")
	ErrUnresolvedFunction = NewError("unresolved function")
	ErrArity              = NewError("argument count mismatch")
	ErrEvaluation         = NewError("evaluation failed")
	ErrInvalidValue       = NewError("invalid value")
	ErrInvalidFormat      = NewError("invalid format")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an Error carrying the same message, so that
// errors derived with [Error.With] and [Error.Wrap] still match the
// sentinel they came from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.err == nil && t.msg != "" && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// CompileError reports source text the front-end rejected.
type CompileError struct {
	Source string
	Err    error
}

func (e *CompileError) Error() string {
	return ErrCompile.msg + " " + strconv.Quote(e.Source) + ": " + e.Err.Error()
}

// Unwrap returns both [ErrCompile] and the front-end's own error.
func (e *CompileError) Unwrap() []error { return []error{ErrCompile, e.Err} }

// LogValue implements slog.LogValuer.
func (e *CompileError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrCompile.msg),
		slog.String("source", e.Source),
		slog.String("cause", e.Err.Error()),
	)
}

// UnresolvedVariableError reports a variable bound in no frame.
type UnresolvedVariableError struct {
	Name string
}

func (e *UnresolvedVariableError) Error() string {
	return ErrUnresolvedVariable.msg + " " + strconv.Quote(e.Name)
}

func (e *UnresolvedVariableError) Unwrap() error { return ErrUnresolvedVariable }

// LogValue implements slog.LogValuer.
func (e *UnresolvedVariableError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrUnresolvedVariable.msg),
		slog.String("name", e.Name),
	)
}

// UnresolvedFunctionError reports a call to a name found in no registry and
// among no built-ins.
type UnresolvedFunctionError struct {
	Name string
}

func (e *UnresolvedFunctionError) Error() string {
	return ErrUnresolvedFunction.msg + " " + strconv.Quote(e.Name)
}

func (e *UnresolvedFunctionError) Unwrap() error { return ErrUnresolvedFunction }

// LogValue implements slog.LogValuer.
func (e *UnresolvedFunctionError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrUnresolvedFunction.msg),
		slog.String("name", e.Name),
	)
}

// ArityError reports a call whose argument count falls outside the
// resolved function's bounds. A Max of -1 means there is no upper bound.
type ArityError struct {
	Name string
	Min  int
	Max  int
	Got  int
}

func (e *ArityError) Error() string {
	var want string

	switch {
	case e.Max == unbounded:
		want = "at least " + nargs(e.Min)
	case e.Min == e.Max:
		want = "exactly " + nargs(e.Min)
	case e.Min == 0:
		want = "at most " + nargs(e.Max)
	default:
		want = "between " + strconv.Itoa(e.Min) + " and " + nargs(e.Max)
	}

	return e.Name + ": expects " + want + ", got " + strconv.Itoa(e.Got)
}

func nargs(n int) string {
	if n == 1 {
		return "1 argument"
	}

	return strconv.Itoa(n) + " arguments"
}

func (e *ArityError) Unwrap() error { return ErrArity }

// LogValue implements slog.LogValuer.
func (e *ArityError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrArity.msg),
		slog.String("name", e.Name),
		slog.Int("min", e.Min),
		slog.Int("max", e.Max),
		slog.Int("got", e.Got),
	)
}

// EvaluationError reports an operator or built-in applied to operands of
// the wrong kind, or a similar runtime failure such as an index out of
// range.
type EvaluationError struct {
	Operator string
	Kinds    []Kind
	Reason   string
}

func (e *EvaluationError) Error() string {
	var b strings.Builder

	b.WriteString(ErrEvaluation.msg)
	b.WriteString(": ")
	b.WriteString(strconv.Quote(e.Operator))

	if len(e.Kinds) > 0 {
		b.WriteString(" on (")

		for i, k := range e.Kinds {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(k.String())
		}

		b.WriteString(")")
	}

	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}

	return b.String()
}

func (e *EvaluationError) Unwrap() error { return ErrEvaluation }

// LogValue implements slog.LogValuer.
func (e *EvaluationError) LogValue() slog.Value {
	kinds := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		kinds[i] = k.String()
	}

	return slog.GroupValue(
		slog.String("error", ErrEvaluation.msg),
		slog.String("operator", e.Operator),
		slog.String("kinds", strings.Join(kinds, ",")),
		slog.String("reason", e.Reason),
	)
}

// operandError returns an [*EvaluationError] describing the kinds of the
// given operands.
func operandError(op string, operands ...Value) *EvaluationError {
	return &EvaluationError{Operator: op, Kinds: kindsOf(operands...)}
}

// evalError returns an [*EvaluationError] with a reason.
func evalError(op, reason string, operands ...Value) *EvaluationError {
	return &EvaluationError{
		Operator: op,
		Kinds:    kindsOf(operands...),
		Reason:   reason,
	}
}
