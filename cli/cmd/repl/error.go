package repl

import (
	"errors"

	"github.com/ardnew/formula/lang"
)

// Sentinel errors.
var (
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")
	ErrLetSyntax    = lang.NewError("expected :let name = expression")
)
