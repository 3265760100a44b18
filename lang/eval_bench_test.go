package lang

import "testing"

// BenchmarkExec compares running a cached unit against compiling on every
// execution.
func BenchmarkExec(b *testing.B) {
	tests := []struct {
		name string
		expr string
	}{
		{"arithmetic", "n * 2 + 1"},
		{"string", `upper(s) + " world"`},
		{"collection", "len(xs) > 2 and 2 in xs"},
		{"member", `obj.inner.b ?? "none"`},
	}

	for _, tt := range tests {
		b.Run(tt.name+"/compiled", func(b *testing.B) {
			u, err := Compile(tt.expr)
			if err != nil {
				b.Fatalf("compile error: %v", err)
			}

			cs := testContexts()

			for b.Loop() {
				if _, err := u.Run(cs, nil, nil); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(tt.name+"/uncompiled", func(b *testing.B) {
			e := New(tt.expr)
			e.contexts = testContexts()

			for b.Loop() {
				if _, err := e.Exec(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRequest_Parallel(b *testing.B) {
	e, err := New("n * n").Compile()
	if err != nil {
		b.Fatalf("compile error: %v", err)
	}

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			r := NewRequest(e).WithContexts(NewContexts(Context{"n": 3.0}))
			if _, err := r.Exec(); err != nil {
				b.Error(err)
			}
		}
	})
}
