package repl

import (
	"slices"
	"strings"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  functionCall
	}{
		{"no_call", "greeting", functionCall{}},
		{"first_arg_empty", "add(", functionCall{"add", 0, true}},
		{"first_arg", "add(1", functionCall{"add", 0, true}},
		{"second_arg_empty", "add(1,", functionCall{"add", 1, true}},
		{"second_arg", "add(1, 2", functionCall{"add", 1, true}},
		{"closed", "add(1, 2)", functionCall{}},
		{"nested_inner", "outer(1, inner(2", functionCall{"inner", 0, true}},
		{"nested_after_inner", "outer(1, inner(2), ", functionCall{"outer", 2, true}},
		{"array_commas", "sum([1, 2, 3], ", functionCall{"sum", 1, true}},
		{"inside_array", "sum([1, 2", functionCall{}},
		{"object_commas", "keys({a: 1, b: 2}", functionCall{"keys", 0, true}},
		{"string_comma", `join("a,b", `, functionCall{"join", 1, true}},
		{"string_paren", `upper("(" + `, functionCall{"upper", 0, true}},
		{"escaped_quote", `split("a\",b", `, functionCall{"split", 1, true}},
		{"space_before_paren", "len (x", functionCall{"len", 0, true}},
		{"grouping", "(1 + ", functionCall{}},
		{"grouping_after_op", "2 * (1 + ", functionCall{}},
		{"member_call", "obj.f(", functionCall{}},
		{"numeric", "2(", functionCall{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFunctionCall(tt.input, len(tt.input)); got != tt.want {
				t.Errorf("detectFunctionCall(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetectFunctionCall_CursorInside(t *testing.T) {
	input := "max(1, 2) + min(3"

	if got := detectFunctionCall(input, len("max(1, ")); got != (functionCall{"max", 1, true}) {
		t.Errorf("unexpected call at cursor: %+v", got)
	}

	if got := detectFunctionCall(input, len("max(1, 2) + ")); got.inCall {
		t.Errorf("expected no call between calls, got %+v", got)
	}
}

func TestSignatureParams(t *testing.T) {
	tests := []struct {
		sig  string
		want []string
	}{
		{"join(array, separator?)", []string{"array", "separator?"}},
		{"min(n, ...)", []string{"n", "..."}},
		{"cwd()", nil},
		{"broken(", nil},
		{"name", nil},
	}

	for _, tt := range tests {
		if got := signatureParams(tt.sig); !slices.Equal(got, tt.want) {
			t.Errorf("signatureParams(%q) = %q, want %q", tt.sig, got, tt.want)
		}
	}
}

func TestSession_getSignature(t *testing.T) {
	s := newTestSession(t)

	sig, params := s.getSignature("double")
	if sig != "double(n)" || !slices.Equal(params, []string{"n"}) {
		t.Errorf("unexpected signature %q %q", sig, params)
	}

	if sig, params := s.getSignature("missing"); sig != "" || params != nil {
		t.Errorf("expected no signature, got %q %q", sig, params)
	}
}

func TestSession_reservedHint(t *testing.T) {
	s := newTestSession(t)

	if hint, ok := s.reservedHint("filter"); !ok || !strings.Contains(hint, "filter") {
		t.Errorf("expected hint for reserved name, got %q %v", hint, ok)
	}

	// Bound functions and plain names get no hint.
	for _, name := range []string{"len", "double", "server"} {
		if hint, ok := s.reservedHint(name); ok {
			t.Errorf("unexpected hint for %q: %q", name, hint)
		}
	}
}

func TestModel_renderSignatureHint(t *testing.T) {
	m := newTestModel(t)

	tests := []struct {
		name      string
		signature string
		argIndex  int
	}{
		{"first", "join(array, separator?)", 0},
		{"second", "join(array, separator?)", 1},
		{"variadic", "min(n, ...)", 4},
		{"no_params", "cwd()", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.renderSignatureHint(tt.signature, signatureParams(tt.signature), tt.argIndex)
			if !strings.Contains(got, "(") || !strings.Contains(got, ")") {
				t.Errorf("unexpected hint %q", got)
			}

			for _, p := range signatureParams(tt.signature) {
				if !strings.Contains(got, p) {
					t.Errorf("hint %q missing parameter %q", got, p)
				}
			}
		})
	}

	if got := m.renderSignatureHint("", nil, 0); got != "" {
		t.Errorf("expected empty hint, got %q", got)
	}
}

func BenchmarkDetectFunctionCall(b *testing.B) {
	input := `join(split(upper(name), ","), pick(1, [2, 3], {a: "(x"}, `

	for b.Loop() {
		_ = detectFunctionCall(input, len(input))
	}
}

func BenchmarkSession_getSignature(b *testing.B) {
	s := newTestSession(b)
	names := []string{"len", "join", "double", "pick", "missing"}

	for i := 0; b.Loop(); i++ {
		_, _ = s.getSignature(names[i%len(names)])
	}
}
