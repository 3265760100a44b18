package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/ardnew/formula/lang"
)

func evalHost(t *testing.T, source string) (lang.Value, error) {
	t.Helper()

	return lang.New(source, lang.WithConstFunctions(HostFunctions())).Exec()
}

func TestHostFunctions_env(t *testing.T) {
	t.Setenv("FORMULA_TEST_VAR", "set")

	tests := []struct {
		source string
		want   lang.Value
	}{
		{`env("FORMULA_TEST_VAR")`, "set"},
		{`env("FORMULA_TEST_UNSET_VAR")`, nil},
		{`env("FORMULA_TEST_UNSET_VAR", 7)`, 7.0},
		{`env("FORMULA_TEST_UNSET_VAR") ?? "fallback"`, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := evalHost(t, tt.source)
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}

	if _, err := evalHost(t, "env(1)"); err == nil {
		t.Error("expected error for numeric name")
	}

	if _, err := evalHost(t, "env()"); err == nil {
		t.Error("expected arity error")
	}
}

func TestHostFunctions_pathPrefix(t *testing.T) {
	sep := string(os.PathListSeparator)

	got, err := evalHost(t, `pathPrefix("/usr/bin`+sep+`/bin", "/opt/bin", ["/home/bin"])`)
	if err != nil {
		t.Fatal(err)
	}

	s, ok := got.(string)
	if !ok {
		t.Fatalf("expected string, got %#v", got)
	}

	for _, want := range []string{"/opt/bin", "/home/bin"} {
		if !strings.Contains(s, want) {
			t.Errorf("list %q missing %q", s, want)
		}
	}

	for _, bad := range []string{`pathPrefix(1)`, `pathPrefix("a", 2)`, `pathPrefix("a", [2])`} {
		if _, err := evalHost(t, bad); err == nil {
			t.Errorf("%s: expected error", bad)
		}
	}
}

func TestHostFunctions_cwd(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	got, err := evalHost(t, "cwd()")
	if err != nil {
		t.Fatal(err)
	}

	if s, ok := got.(string); !ok || s == "" {
		t.Errorf("unexpected working directory %#v", got)
	}

	if _, err := evalHost(t, "cwd(1)"); err == nil {
		t.Error("expected arity error")
	}
}

func TestHostSignatures_CoverFunctions(t *testing.T) {
	names := HostFunctions().Names()
	if len(names) != len(HostSignatures) {
		t.Errorf("expected a signature per function, got %v for %v", HostSignatures, names)
	}

	for _, name := range names {
		if sig, ok := HostSignatures[name]; !ok || !strings.HasPrefix(sig, name+"(") {
			t.Errorf("bad signature %q for %s", sig, name)
		}
	}
}
