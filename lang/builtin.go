package lang

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// builtin is a function of the lowest resolution tier, consulted only when
// neither registry binds the called name.
type builtin struct {
	ConstFunction
	signature string
}

// Builtins returns the sorted names of the built-in functions.
func Builtins() []string { return slices.Sorted(maps.Keys(builtins)) }

// BuiltinSignature returns a human-readable signature such as
// "join(array, separator?)" for the named built-in.
func BuiltinSignature(name string) (string, bool) {
	b, ok := builtins[name]

	return b.signature, ok
}

func define(sig string, fn ConstFunc, opts ...FunctionOption) builtin {
	return builtin{ConstFunction: NewConstFunction(fn, opts...), signature: sig}
}

//nolint:gochecknoglobals
var builtins = map[string]builtin{
	"len":     define("len(v)", builtinLen, Args(1)),
	"abs":     define("abs(n)", mathFunc("abs", math.Abs), Args(1)),
	"ceil":    define("ceil(n)", mathFunc("ceil", math.Ceil), Args(1)),
	"floor":   define("floor(n)", mathFunc("floor", math.Floor), Args(1)),
	"round":   define("round(n)", mathFunc("round", math.Round), Args(1)),
	"sqrt":    define("sqrt(n)", mathFunc("sqrt", math.Sqrt), Args(1)),
	"min":     define("min(n, ...)", extremum("min", -1), MinArgs(1)),
	"max":     define("max(n, ...)", extremum("max", 1), MinArgs(1)),
	"sum":     define("sum(array)", builtinSum, Args(1)),
	"mean":    define("mean(array)", builtinMean, Args(1)),
	"upper":   define("upper(s)", stringFunc("upper", strings.ToUpper), Args(1)),
	"lower":   define("lower(s)", stringFunc("lower", strings.ToLower), Args(1)),
	"trim":    define("trim(s)", stringFunc("trim", strings.TrimSpace), Args(1)),
	"split":   define("split(s, separator)", builtinSplit, Args(2)),
	"join":    define("join(array, separator?)", builtinJoin, MinArgs(1), MaxArgs(2)),
	"replace": define("replace(s, old, new)", builtinReplace, Args(3)),
	"keys":    define("keys(object)", builtinKeys, Args(1)),
	"values":  define("values(object)", builtinValues, Args(1)),
	"first":   define("first(array)", builtinEnd("first", 0), Args(1)),
	"last":    define("last(array)", builtinEnd("last", -1), Args(1)),
	"reverse": define("reverse(array)", builtinReverse, Args(1)),
	"string":  define("string(v)", builtinString, Args(1)),
	"number":  define("number(v)", builtinNumber, Args(1)),
	"type":    define("type(v)", builtinType, Args(1)),
}

func builtinLen(args []Value) (Value, error) {
	switch v := args[0].(type) {
	case string:
		return float64(utf8.RuneCountInString(v)), nil
	case []any:
		return float64(len(v)), nil
	case map[string]any:
		return float64(len(v)), nil
	}

	return nil, operandError("len", args...)
}

func mathFunc(name string, fn func(float64) float64) ConstFunc {
	return func(args []Value) (Value, error) {
		f, ok := args[0].(float64)
		if !ok {
			return nil, operandError(name, args...)
		}

		return fn(f), nil
	}
}

func stringFunc(name string, fn func(string) string) ConstFunc {
	return func(args []Value) (Value, error) {
		s, ok := args[0].(string)
		if !ok {
			return nil, operandError(name, args...)
		}

		return fn(s), nil
	}
}

// numbers returns the numeric arguments of a variadic call, or the
// elements of a single array argument.
func numbers(name string, args []Value) ([]float64, error) {
	if len(args) == 1 {
		if arr, ok := args[0].([]any); ok {
			args = arr
		}
	}

	out := make([]float64, len(args))

	for i, v := range args {
		f, ok := v.(float64)
		if !ok {
			return nil, evalError(name, "expects numbers", v)
		}

		out[i] = f
	}

	return out, nil
}

// extremum returns min (sign -1) or max (sign 1) of its arguments.
func extremum(name string, sign float64) ConstFunc {
	return func(args []Value) (Value, error) {
		ns, err := numbers(name, args)
		if err != nil {
			return nil, err
		}

		if len(ns) == 0 {
			return nil, evalError(name, "no values", args...)
		}

		best := ns[0]
		for _, n := range ns[1:] {
			if (n-best)*sign > 0 {
				best = n
			}
		}

		return best, nil
	}
}

func builtinSum(args []Value) (Value, error) {
	if _, ok := args[0].([]any); !ok {
		return nil, operandError("sum", args...)
	}

	ns, err := numbers("sum", args)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, n := range ns {
		total += n
	}

	return total, nil
}

func builtinMean(args []Value) (Value, error) {
	arr, ok := args[0].([]any)
	if !ok {
		return nil, operandError("mean", args...)
	}

	if len(arr) == 0 {
		return nil, evalError("mean", "no values", args...)
	}

	total, err := builtinSum(args)
	if err != nil {
		return nil, err
	}

	return total.(float64) / float64(len(arr)), nil
}

func builtinSplit(args []Value) (Value, error) {
	s, sok := args[0].(string)
	sep, pok := args[1].(string)

	if !sok || !pok {
		return nil, operandError("split", args...)
	}

	parts := strings.Split(s, sep)
	out := make([]any, len(parts))

	for i, p := range parts {
		out[i] = p
	}

	return out, nil
}

func builtinJoin(args []Value) (Value, error) {
	arr, ok := args[0].([]any)
	if !ok {
		return nil, operandError("join", args...)
	}

	sep := ""

	if len(args) > 1 {
		if sep, ok = args[1].(string); !ok {
			return nil, operandError("join", args...)
		}
	}

	parts := make([]string, len(arr))

	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, evalError("join", "expects an array of strings", v)
		}

		parts[i] = s
	}

	return strings.Join(parts, sep), nil
}

func builtinReplace(args []Value) (Value, error) {
	s, sok := args[0].(string)
	old, ook := args[1].(string)
	repl, rok := args[2].(string)

	if !sok || !ook || !rok {
		return nil, operandError("replace", args...)
	}

	return strings.ReplaceAll(s, old, repl), nil
}

func builtinKeys(args []Value) (Value, error) {
	obj, ok := args[0].(map[string]any)
	if !ok {
		return nil, operandError("keys", args...)
	}

	out := make([]any, 0, len(obj))
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		out = append(out, k)
	}

	return out, nil
}

func builtinValues(args []Value) (Value, error) {
	obj, ok := args[0].(map[string]any)
	if !ok {
		return nil, operandError("values", args...)
	}

	out := make([]any, 0, len(obj))
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		out = append(out, obj[k])
	}

	return out, nil
}

// builtinEnd returns the element at i, counting negative i from the end,
// or nil for an empty array.
func builtinEnd(name string, i int) ConstFunc {
	return func(args []Value) (Value, error) {
		arr, ok := args[0].([]any)
		if !ok {
			return nil, operandError(name, args...)
		}

		if len(arr) == 0 {
			return nil, nil
		}

		if i < 0 {
			return arr[len(arr)+i], nil
		}

		return arr[i], nil
	}
}

func builtinReverse(args []Value) (Value, error) {
	switch v := args[0].(type) {
	case []any:
		out := slices.Clone(v)
		slices.Reverse(out)

		return out, nil
	case string:
		runes := []rune(v)
		slices.Reverse(runes)

		return string(runes), nil
	}

	return nil, operandError("reverse", args...)
}

func builtinString(args []Value) (Value, error) {
	s, err := ToText(args[0])
	if err != nil {
		return nil, err
	}

	return s, nil
}

func builtinNumber(args []Value) (Value, error) {
	switch v := args[0].(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1.0, nil
		}

		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, evalError("number", "not a number", v)
		}

		return f, nil
	}

	return nil, operandError("number", args...)
}

func builtinType(args []Value) (Value, error) {
	return KindOf(args[0]).String(), nil
}
