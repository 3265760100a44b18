package lang

import (
	"errors"
	"slices"
	"testing"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name string
		args []Value
		want Value
	}{
		{"len", []Value{"héllo"}, 5.0},
		{"len", []Value{map[string]any{"a": 1.0}}, 1.0},
		{"abs", []Value{-2.5}, 2.5},
		{"ceil", []Value{1.2}, 2.0},
		{"floor", []Value{1.8}, 1.0},
		{"round", []Value{2.5}, 3.0},
		{"sqrt", []Value{9.0}, 3.0},
		{"min", []Value{3.0, 1.0, 2.0}, 1.0},
		{"max", []Value{[]any{3.0, 5.0}}, 5.0},
		{"sum", []Value{[]any{1.0, 2.0, 3.5}}, 6.5},
		{"mean", []Value{[]any{1.0, 2.0, 3.0}}, 2.0},
		{"upper", []Value{"ab"}, "AB"},
		{"lower", []Value{"AB"}, "ab"},
		{"trim", []Value{"  x "}, "x"},
		{"split", []Value{"a,b", ","}, []any{"a", "b"}},
		{"join", []Value{[]any{"a", "b"}}, "ab"},
		{"replace", []Value{"aXbX", "X", "-"}, "a-b-"},
		{"keys", []Value{map[string]any{"b": 1.0, "a": 2.0}}, []any{"a", "b"}},
		{"values", []Value{map[string]any{"b": 1.0, "a": 2.0}}, []any{2.0, 1.0}},
		{"first", []Value{[]any{1.0, 2.0}}, 1.0},
		{"last", []Value{[]any{1.0, 2.0}}, 2.0},
		{"first", []Value{[]any{}}, nil},
		{"reverse", []Value{[]any{1.0, 2.0}}, []any{2.0, 1.0}},
		{"reverse", []Value{"abc"}, "cba"},
		{"string", []Value{3.0}, "3"},
		{"string", []Value{[]any{1.0, "a"}}, `[1,"a"]`},
		{"number", []Value{" 2.5 "}, 2.5},
		{"number", []Value{true}, 1.0},
		{"type", []Value{map[string]any{}}, "object"},
		{"type", []Value{nil}, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := builtins[tt.name]
			if !ok {
				t.Fatalf("no builtin %q", tt.name)
			}

			got, err := b.Call(tt.name, tt.args)
			if err != nil {
				t.Fatalf("call error: %v", err)
			}

			if !Equal(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestBuiltins_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []Value
		want error
	}{
		{"len", []Value{1.0}, ErrEvaluation},
		{"len", nil, ErrArity},
		{"min", nil, ErrArity},
		{"min", []Value{[]any{}}, ErrEvaluation},
		{"sum", []Value{1.0}, ErrEvaluation},
		{"sum", []Value{[]any{"a"}}, ErrEvaluation},
		{"mean", []Value{[]any{}}, ErrEvaluation},
		{"join", []Value{[]any{1.0}}, ErrEvaluation},
		{"join", []Value{[]any{}, ",", "x"}, ErrArity},
		{"number", []Value{"abc"}, ErrEvaluation},
		{"keys", []Value{[]any{}}, ErrEvaluation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := builtins[tt.name].Call(tt.name, tt.args)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBuiltinSignature(t *testing.T) {
	if !slices.IsSorted(Builtins()) || !slices.Contains(Builtins(), "join") {
		t.Errorf("unexpected builtin names %v", Builtins())
	}

	sig, ok := BuiltinSignature("join")
	if !ok || sig != "join(array, separator?)" {
		t.Errorf("unexpected signature (%q, %v)", sig, ok)
	}

	if _, ok := BuiltinSignature("nope"); ok {
		t.Error("signature reported for unknown name")
	}
}
