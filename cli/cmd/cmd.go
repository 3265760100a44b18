package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
)

type (
	contextKey      struct{}
	contextFilesKey struct{}
	stdioKey        struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(contextKey{}).(*kong.Context)

	return ktx
}

// WithContextFiles returns a new context.Context carrying the paths of the
// YAML documents whose mappings form the outer scopes of every evaluation,
// outermost first. The path "-" reads standard input.
func WithContextFiles(ctx context.Context, paths []string) context.Context {
	return context.WithValue(ctx, contextFilesKey{}, paths)
}

func contextFilesFrom(ctx context.Context) []string {
	paths, _ := ctx.Value(contextFilesKey{}).([]string)

	return paths
}

// Stdio holds the streams a command reads and writes.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// WithStdio returns a new context.Context whose commands use the given
// streams. Nil streams fall back to the process's standard streams.
func WithStdio(ctx context.Context, stdio Stdio) context.Context {
	return context.WithValue(ctx, stdioKey{}, stdio)
}

func stdioFrom(ctx context.Context) Stdio {
	s, _ := ctx.Value(stdioKey{}).(Stdio)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	if s.Err == nil {
		s.Err = os.Stderr
	}

	return s
}

// stdinSource is the special path that reads standard input.
const stdinSource = "-"

// source is one opened input document.
type source struct {
	io.Reader

	name string
}

// fileKey uniquely identifies a file by its device and inode numbers, so
// the same file reached through symlinks or different relative paths is
// read only once.
type fileKey struct {
	dev uint64
	ino uint64
}

// openSources opens the files at paths in order, skipping duplicates of a
// file already opened. Every occurrence of "-" (or of a path naming the
// same file as stdin) is replaced by a single stdin source placed last.
//
// The returned function closes every opened file.
func openSources(paths []string, stdin io.Reader) ([]source, func(), error) {
	var (
		srcs   []source
		files  []*os.File
		seen   = make(map[fileKey]struct{})
		hasIn  bool
		closer = func() {
			for _, f := range files {
				_ = f.Close()
			}
		}
	)

	var stdinKey fileKey

	if info, err := os.Stdin.Stat(); err == nil {
		stdinKey, _ = makeFileKey(info)
	}

	for _, path := range paths {
		if path == stdinSource {
			hasIn = true

			continue
		}

		f, key, err := openFile(path)
		if err != nil {
			closer()

			return nil, func() {}, err
		}

		if key == stdinKey && key != (fileKey{}) {
			hasIn = true

			_ = f.Close()

			continue
		}

		if key != (fileKey{}) {
			if _, dup := seen[key]; dup {
				_ = f.Close()

				continue
			}

			seen[key] = struct{}{}
		}

		files = append(files, f)
		srcs = append(srcs, source{Reader: f, name: path})
	}

	if hasIn {
		srcs = append(srcs, source{Reader: stdin, name: stdinSource})
	}

	return srcs, closer, nil
}

// openFile resolves path through any symlinks and opens it.
func openFile(path string) (*os.File, fileKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fileKey{}, err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fileKey{}, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fileKey{}, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, fileKey{}, err
	}

	key, _ := makeFileKey(info)

	return f, key, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// It reports false if the platform does not expose a *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (fileKey, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{}, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
