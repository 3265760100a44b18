package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// writeFiles creates the named files under a temporary directory and
// returns their paths in the same order.
func writeFiles(t *testing.T, contents ...string) []string {
	t.Helper()

	dir := t.TempDir()
	paths := make([]string, len(contents))

	for i, content := range contents {
		paths[i] = filepath.Join(dir, "doc"+string(rune('a'+i))+".yaml")
		if err := os.WriteFile(paths[i], []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	return paths
}

func readSources(t *testing.T, srcs []source) []string {
	t.Helper()

	var out []string

	for _, src := range srcs {
		data, err := io.ReadAll(src)
		if err != nil {
			t.Fatal(err)
		}

		out = append(out, string(data))
	}

	return out
}

func TestOpenSources(t *testing.T) {
	paths := writeFiles(t, "first", "second")

	link := filepath.Join(t.TempDir(), "link.yaml")
	if err := os.Symlink(paths[0], link); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{"empty", nil, nil},
		{"ordered", []string{paths[1], paths[0]}, []string{"second", "first"}},
		{"duplicate", []string{paths[0], paths[0]}, []string{"first"}},
		{"symlink", []string{paths[0], link, paths[1]}, []string{"first", "second"}},
		{"stdin_last", []string{"-", paths[1], "-"}, []string{"second", "input"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srcs, closeAll, err := openSources(tt.paths, strings.NewReader("input"))
			defer closeAll()

			if err != nil {
				t.Fatal(err)
			}

			if got := readSources(t, srcs); !slices.Equal(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOpenSources_MissingFile(t *testing.T) {
	paths := writeFiles(t, "first")

	srcs, closeAll, err := openSources(
		[]string{paths[0], filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	defer closeAll()

	if err == nil || srcs != nil {
		t.Errorf("expected error for missing file, got %v, %v", srcs, err)
	}
}

func TestContextValues(t *testing.T) {
	ctx := t.Context()

	if kongContextFrom(ctx) != nil || contextFilesFrom(ctx) != nil {
		t.Error("empty context carries values")
	}

	ctx = WithContextFiles(ctx, []string{"a.yaml", "-"})
	if got := contextFilesFrom(ctx); !slices.Equal(got, []string{"a.yaml", "-"}) {
		t.Errorf("unexpected files %v", got)
	}

	stdio := stdioFrom(context.Background())
	if stdio.In != os.Stdin || stdio.Out != os.Stdout || stdio.Err != os.Stderr {
		t.Error("stdio does not default to the process streams")
	}

	var out bytes.Buffer

	stdio = stdioFrom(WithStdio(ctx, Stdio{Out: &out}))
	if stdio.Out != &out || stdio.In != os.Stdin {
		t.Error("stdio override not applied")
	}
}
