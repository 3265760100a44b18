package lang

//go:generate go tool stringer --linecomment --type Kind --output value_string.go

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"reflect"
	"slices"
)

// Value is a JSON-like datum: nil, bool, float64, string, []any, or
// map[string]any, nested arbitrarily.
//
// Values handed to and returned from the evaluator are never mutated by it.
type Value = any

// Kind classifies a [Value].
type Kind int

const (
	KindNull    Kind = iota // null
	KindBool                // bool
	KindNumber              // number
	KindString              // string
	KindArray               // array
	KindObject              // object
	KindInvalid             // invalid
)

// KindOf returns the kind of v.
// Host values that have not been normalized with [ToValue] are
// [KindInvalid].
func KindOf(v Value) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindInvalid
	}
}

// kindsOf returns the kinds of each of the given values.
func kindsOf(vs ...Value) []Kind {
	kinds := make([]Kind, len(vs))
	for i, v := range vs {
		kinds[i] = KindOf(v)
	}

	return kinds
}

// ToValue normalizes a host Go value into the [Value] model.
//
// All integer and floating-point kinds become float64, slices and arrays
// become []any, and maps keyed by strings become map[string]any. Anything
// else (structs, for instance) is converted through its JSON encoding.
func ToValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil, bool, float64, string:
		return x, nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, ErrInvalidValue.With(slog.String("number", x.String())).Wrap(err)
		}

		return f, nil
	case []any:
		out := make([]any, len(x))

		for i, elem := range x {
			n, err := ToValue(elem)
			if err != nil {
				return nil, err
			}

			out[i] = n
		}

		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))

		for key, elem := range x {
			n, err := ToValue(elem)
			if err != nil {
				return nil, err
			}

			out[key] = n
		}

		return out, nil
	}

	return reflectValue(v)
}

// reflectValue converts the container kinds that ToValue does not match
// directly, falling back to a JSON round trip for everything else.
func reflectValue(v any) (Value, error) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}

		return ToValue(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, nil
		}

		// Byte slices keep their JSON (base64) encoding.
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}

		out := make([]any, rv.Len())

		for i := range rv.Len() {
			n, err := ToValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}

			out[i] = n
		}

		return out, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		out := make(map[string]any, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			n, err := ToValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}

			out[iter.Key().String()] = n
		}

		return out, nil

	case reflect.String:
		return rv.String(), nil

	case reflect.Bool:
		return rv.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil

	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil

	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128,
		reflect.UnsafePointer:
		return nil, ErrInvalidValue.
			With(slog.String("type", rv.Type().String())).
			Wrap(fmt.Errorf("unsupported type %s", rv.Type()))
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, ErrInvalidValue.
			With(slog.String("type", rv.Type().String())).
			Wrap(err)
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, ErrInvalidValue.
			With(slog.String("type", rv.Type().String())).
			Wrap(err)
	}

	return out, nil
}

// Equal reports whether a and b are deeply equal values.
// Numbers compare by value, so NaN is never equal to anything.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)

		return ok && x == y
	case float64:
		y, ok := b.(float64)

		return ok && x == y
	case string:
		y, ok := b.(string)

		return ok && x == y
	case []any:
		y, ok := b.([]any)

		return ok && slices.EqualFunc(x, y, Equal)
	case map[string]any:
		y, ok := b.(map[string]any)

		return ok && maps.EqualFunc(x, y, Equal)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// cloneValue returns a deep copy of v.
func cloneValue(v Value) Value {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = cloneValue(elem)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for key, elem := range x {
			out[key] = cloneValue(elem)
		}

		return out
	default:
		return v
	}
}

// asIndex converts a number to an integer index, reporting false when it
// has a fractional part or does not fit in an int.
func asIndex(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}

	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}

	return int(f), true
}
