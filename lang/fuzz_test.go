package lang

import (
	"testing"
	"unicode/utf8"
)

// FuzzCompile checks that compiling and running arbitrary input never
// panics.
func FuzzCompile(f *testing.F) {
	f.Add("1 + 2")
	f.Add(`"a" + s`)
	f.Add("xs[1:2]")
	f.Add("obj?.a.b ?? 0")
	f.Add("let x = 1; x * n")
	f.Add("max(1, n, 3)")
	f.Add("filter(xs, # > 1)")
	f.Add("1..100")
	f.Add(`s matches "[a-z]+"`)
	f.Add("{a: [1, {b: nil}]}")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("panicked on input %q: %v", input, r)
			}
		}()

		u, err := Compile(input)
		if err != nil {
			if u != nil {
				t.Errorf("unit returned with error for %q", input)
			}

			return
		}

		_, _ = u.Run(testContexts(), nil, nil)
	})
}
