package lang

import (
	"errors"
	"slices"
	"testing"
)

func TestCompile_Names(t *testing.T) {
	tests := []struct {
		src       string
		variables []string
		functions []string
	}{
		{"1 + 2", []string{}, []string{}},
		{"a + b * a", []string{"a", "b"}, []string{}},
		{"f(x) + g(y, x)", []string{"x", "y"}, []string{"f", "g"}},
		{"len(xs)", []string{"xs"}, []string{"len"}},
		{"let y = x; y + 1", []string{"x"}, []string{}},
		{"obj.field", []string{"obj"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			u, err := Compile(tt.src)
			if err != nil {
				t.Fatalf("compile error: %v", err)
			}

			if got := u.Variables(); !slices.Equal(got, tt.variables) {
				t.Errorf("variables: expected %v, got %v", tt.variables, got)
			}

			if got := u.Functions(); !slices.Equal(got, tt.functions) {
				t.Errorf("functions: expected %v, got %v", tt.functions, got)
			}

			if u.Source() != tt.src {
				t.Errorf("source: expected %q, got %q", tt.src, u.Source())
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"empty", "", ErrEmptySource},
		{"blank", "  \n\t", ErrEmptySource},
		{"syntax", "1 +", ErrCompile},
		{"unbalanced", "(1", ErrCompile},
		{"predicate", "filter(xs, # > 1)", ErrUnsupported},
		{"method", "s.trim()", ErrUnsupported},
		{"pattern", `s matches "("`, ErrCompile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Compile(tt.src)
			if u != nil {
				t.Errorf("expected no unit, got %v", u)
			}

			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("expected CompileError, got %T", err)
			}

			if ce.Source != tt.src {
				t.Errorf("expected source %q, got %q", tt.src, ce.Source)
			}
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	const src = `a > 1 ? upper(s) : join(xs, "-")`

	u1, err := Compile(src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	u2, err := Compile(src)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	if u1.String() != u2.String() {
		t.Errorf("canonical forms differ: %q != %q", u1.String(), u2.String())
	}

	cs := NewContexts(Context{"a": 2.0, "s": "x", "xs": []any{"p", "q"}})

	v1, err1 := u1.Run(cs, nil, nil)
	v2, err2 := u2.Run(cs, nil, nil)

	if err1 != nil || err2 != nil || !Equal(v1, v2) {
		t.Errorf("units disagree: (%v, %v) vs (%v, %v)", v1, err1, v2, err2)
	}
}

func TestUnit_String_Reparses(t *testing.T) {
	for _, src := range []string{
		"1+2*3",
		`x   ==   "y"`,
		"[1,2, 3][0]",
		"a ?? b",
		"let z = 2; z * z",
	} {
		u, err := Compile(src)
		if err != nil {
			t.Fatalf("compile %q: %v", src, err)
		}

		again, err := Compile(u.String())
		if err != nil {
			t.Fatalf("canonical form %q of %q does not compile: %v", u.String(), src, err)
		}

		if again.String() != u.String() {
			t.Errorf("canonical form not stable: %q -> %q", u.String(), again.String())
		}
	}
}
