package lang

import (
	"errors"
	"testing"
)

func testContexts() Contexts {
	return NewContexts(Context{
		"n":     4.0,
		"s":     "hello",
		"t":     true,
		"f":     false,
		"none":  nil,
		"xs":    []any{1.0, 2.0, 3.0},
		"names": []any{"ann", "bob"},
		"obj": map[string]any{
			"a":     1.0,
			"inner": map[string]any{"b": "deep"},
		},
	})
}

func TestUnit_Run(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Value
	}{
		{"integer", "42", 42.0},
		{"float", "1.5", 1.5},
		{"string", `"abc"`, "abc"},
		{"nil", "nil", nil},
		{"bool", "true", true},
		{"precedence", "1 + 2 * 3", 7.0},
		{"parens", "(1 + 2) * 3", 9.0},
		{"division", "7 / 2", 3.5},
		{"modulo", "7 % 3", 1.0},
		{"power", "2 ** 10", 1024.0},
		{"caret power", "2 ^ 3", 8.0},
		{"negate", "-n", -4.0},
		{"plus", "+n", 4.0},
		{"not", "not t", false},
		{"bang", "!f", true},
		{"concat", `s + " world"`, "hello world"},
		{"array concat", "xs + [4]", []any{1.0, 2.0, 3.0, 4.0}},
		{"equal", "n == 4", true},
		{"equal mixed kinds", `n == "4"`, false},
		{"not equal", "n != 4", false},
		{"deep equal", "xs == [1, 2, 3]", true},
		{"less", "n < 5", true},
		{"greater equal", "n >= 5", false},
		{"string order", `"a" < "b"`, true},
		{"and", "t and f", false},
		{"or", "f || t", true},
		{"in array", "2 in xs", true},
		{"not in array", "5 not in xs", true},
		{"in object", `"a" in obj`, true},
		{"range", "1..3", []any{1.0, 2.0, 3.0}},
		{"empty range", "3..1", []any{}},
		{"matches", `s matches "^h.*o$"`, true},
		{"contains", `s contains "ell"`, true},
		{"startsWith", `s startsWith "he"`, true},
		{"endsWith", `s endsWith "lo"`, true},
		{"ternary", `t ? "yes" : "no"`, "yes"},
		{"coalesce nil", "none ?? 7", 7.0},
		{"coalesce value", "n ?? 7", 4.0},
		{"member", "obj.a", 1.0},
		{"nested member", "obj.inner.b", "deep"},
		{"bracket member", `obj["a"]`, 1.0},
		{"missing key", "obj.zzz", nil},
		{"index", "xs[0]", 1.0},
		{"negative index", "xs[-1]", 3.0},
		{"string index", "s[1]", "e"},
		{"slice", "xs[1:]", []any{2.0, 3.0}},
		{"slice clamp", "xs[:10]", []any{1.0, 2.0, 3.0}},
		{"string slice", "s[1:3]", "el"},
		{"optional nil", "none?.a", nil},
		{"optional chain", "none?.a.b", nil},
		{"optional value", "obj?.a", 1.0},
		{"array literal", "[n, s]", []any{4.0, "hello"}},
		{"map literal", `{k: n, "q": 1}`, map[string]any{"k": 4.0, "q": 1.0}},
		{"let", "let y = n * 2; y + 1", 9.0},
		{"let shadows", "let n = 1; n", 1.0},
		{"builtin len", "len(xs)", 3.0},
		{"builtin max", "max(1, 9, 3)", 9.0},
		{"builtin upper", `upper(s)`, "HELLO"},
		{"builtin join", `join(names, ",")`, "ann,bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Compile(tt.src)
			if err != nil {
				t.Fatalf("compile %q: %v", tt.src, err)
			}

			got, err := u.Run(testContexts(), nil, nil)
			if err != nil {
				t.Fatalf("run %q: %v", tt.src, err)
			}

			if !Equal(got, tt.want) {
				t.Errorf("%q: expected %#v, got %#v", tt.src, tt.want, got)
			}
		})
	}
}

func TestUnit_Run_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unresolved", "missing", ErrUnresolvedVariable},
		{"unresolved coalesce", "missing ?? 1", ErrUnresolvedVariable},
		{"unresolved function", "nothing()", ErrUnresolvedFunction},
		{"builtin arity", "len(1, 2)", ErrArity},
		{"add kinds", `n + "x"`, ErrEvaluation},
		{"divide by zero", "n / 0", ErrEvaluation},
		{"modulo by zero", "n % 0", ErrEvaluation},
		{"not a bool", "not n", ErrEvaluation},
		{"logical kinds", "n and t", ErrEvaluation},
		{"condition kind", `n ? 1 : 2`, ErrEvaluation},
		{"compare kinds", `n < "x"`, ErrEvaluation},
		{"index range", "xs[3]", ErrEvaluation},
		{"fractional index", "xs[0.5]", ErrEvaluation},
		{"member of nil", "none.a", ErrEvaluation},
		{"builtin operand", "upper(n)", ErrEvaluation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Compile(tt.src)
			if err != nil {
				t.Fatalf("compile %q: %v", tt.src, err)
			}

			_, err = u.Run(testContexts(), nil, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("%q: expected %v, got %v", tt.src, tt.want, err)
			}
		})
	}
}

func TestUnit_Run_ShortCircuit(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"f and boom()", false},
		{"t or boom()", true},
		{"n ?? boom()", 4.0},
		{"t ? 1 : boom()", 1.0},
		{"f ? boom() : 2", 2.0},
		{"none?.x.y", nil},
	}

	fns := Functions{}
	fns.Set("boom", NewFunction(func([]Value) (Value, error) {
		t.Error("short-circuited operand evaluated")

		return nil, errors.New("boom")
	}))

	for _, tt := range tests {
		u, err := Compile(tt.src)
		if err != nil {
			t.Fatalf("compile %q: %v", tt.src, err)
		}

		got, err := u.Run(testContexts(), fns, nil)
		if err != nil {
			t.Fatalf("run %q: %v", tt.src, err)
		}

		if !Equal(got, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.src, tt.want, got)
		}
	}
}

func TestUnit_Run_LeftToRight(t *testing.T) {
	var order []string

	record := func(tag string) *Function {
		return NewFunction(func([]Value) (Value, error) {
			order = append(order, tag)

			return 1.0, nil
		})
	}

	fns := Functions{}
	fns.Set("a", record("a"))
	fns.Set("b", record("b"))
	fns.Set("c", record("c"))

	u, err := Compile("[a() + b(), c()]")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if _, err := u.Run(nil, fns, nil); err != nil {
		t.Fatalf("run error: %v", err)
	}

	if got := len(order); got != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("unexpected evaluation order %v", order)
	}
}

func TestUnit_Run_DoesNotMutateInputs(t *testing.T) {
	xs := []any{3.0, 1.0, 2.0}
	cs := NewContexts(Context{"xs": xs})

	u, err := Compile("reverse(xs) + xs[0:1]")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if _, err := u.Run(cs, nil, nil); err != nil {
		t.Fatalf("run error: %v", err)
	}

	if !Equal(xs, []any{3.0, 1.0, 2.0}) {
		t.Errorf("input mutated: %v", xs)
	}
}

func TestUnit_Run_ConstRegistry(t *testing.T) {
	consts := NewConstFunctions()
	consts.Set("double", NewConstFunction(func(args []Value) (Value, error) {
		return args[0].(float64) * 2, nil
	}, Args(1)))

	u, err := Compile("double(n)")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	v, err := u.Run(testContexts(), nil, consts)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if v != 8.0 {
		t.Errorf("expected 8, got %v", v)
	}
}
