// Package lang compiles expression source text once and evaluates it any
// number of times against varying variable bindings and callable behavior.
//
// Syntax is delegated to the expr-lang front-end
// ([github.com/expr-lang/expr/parser]), which only produces a syntax tree.
// Every name in that tree is resolved when the unit runs, never when it is
// compiled, so one [Unit] can be reused with entirely different bindings.
//
// # Handles
//
// An [Expr] owns the source text, an optional cached [Unit], its own
// [Functions] registry, a shared [ConstFunctions] registry and a
// [Contexts] stack of variable frames:
//
//	e, err := lang.New("max(a, b) * 2").
//		WithValue("a", 3).
//		WithValue("b", 7).
//		WithFunction("max", maxFunc, lang.Args(2)).
//		Compile()
//	if err != nil {
//		return err
//	}
//	v, err := e.Exec() // 14
//
// A failed [Expr.Compile] is terminal: every later Compile or Exec on the
// handle returns the same [*CompileError].
//
// # Name resolution
//
// Variables are looked up innermost frame first. Function calls resolve in
// strict priority order: the handle's (or request's) [Functions], then the
// shared [ConstFunctions], then the built-in functions listed by [Builtins].
// The argument count is checked against the resolved function's bounds
// before it is invoked, and any error it returns is passed through
// unchanged.
//
// # Reuse
//
// [Expr.Clone] duplicates a handle with the same source and compiled state,
// a deep copy of its contexts, the same [ConstFunctions] and an empty
// [Functions] registry. [NewRequest] runs a handle's unit against
// caller-supplied contexts and functions without touching the handle.
//
// Text conversion keeps only the source: [Expr.String] yields the source
// text and [Parse] produces a freshly compiled handle with empty bindings.
// The JSON and YAML encodings of an [Expr] follow the same rule.
package lang
