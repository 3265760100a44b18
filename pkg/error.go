package pkg

import (
	"fmt"
	"reflect"
	"strings"
)

// Error is a chain of errors, innermost first.
//
// It lets a command report every cause of a failure at once, for example
// each context file that could not be decoded, while [errors.Is] and
// [errors.As] still see every link.
type Error []error

// Sentinel errors reported by the command-line host.
var (
	ErrReadInput     = MakeErrorf("failed to read input")
	ErrReadStdin     = MakeErrorf("failed to read stdin")
	ErrDecodeContext = MakeErrorf("invalid context document")
	ErrDecodeConfig  = MakeErrorf("invalid configuration file")
	ErrAssignment    = MakeErrorf("invalid assignment")
	ErrConfigExists  = MakeErrorf("configuration file exists (use --force to overwrite)")
)

// MakeError constructs an Error from errs, skipping nil values and
// flattening nested chains. Nil is returned if nothing remains.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf constructs an Error from a formatted message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error joins the messages of the chain with ": ", innermost first.
func (e Error) Error() string {
	var sb strings.Builder

	for i, err := range e {
		if i > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(err.Error())
	}

	return sb.String()
}

// Wrap returns a new chain with errs appended to the receiver. The receiver
// is never modified, so package-level sentinels can be wrapped freely.
func (e Error) Wrap(errs ...error) Error {
	out := make(Error, 0, len(e)+len(errs))
	out = append(out, e...)

	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}

	return out
}

// Wrapf returns a new chain with a formatted error appended.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Unwrap returns the errors of the chain.
func (e Error) Unwrap() []error { return e }

// Is reports whether target is a chain that e extends, such as a sentinel
// that e was wrapped from.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok || len(t) == 0 || len(t) > len(e) {
		return false
	}

	for i, err := range t {
		if !reflect.TypeOf(err).Comparable() || e[i] != err {
			return false
		}
	}

	return true
}

// UnwrapErrors recursively unwraps err and returns every error in its
// tree, innermost first, ending with err itself.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	var chain Error

	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, wrapped := range e.Unwrap() {
			chain = append(chain, UnwrapErrors(wrapped)...)
		}

	case interface{ Unwrap() error }:
		chain = append(chain, UnwrapErrors(e.Unwrap())...)
	}

	return append(chain, err)
}
