package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/log"
)

const defaultEditor = "vi"

// editBindingsCommand implements [tea.ExecCommand]. It writes the session's
// :let bindings to a temporary YAML file, opens the user's editor on it,
// and decodes the result. On a decoding error the user is asked to edit
// again; declining ends the session.
type editBindingsCommand struct {
	ctxFunc  func() context.Context
	logger   log.Logger
	bindings lang.Context
	result   lang.Context
	edited   bool
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editBindingsCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editBindingsCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editBindingsCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-decode-retry loop. An emptied file cancels the edit
// without changing anything. If the user declines to edit again after an
// error, Run returns [ErrEditDeclined].
func (c *editBindingsCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := encodeBindings(ctx, c.bindings)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp("", "formula-repl-*.yaml")
	if err != nil {
		return err
	}

	path := f.Name()
	_ = f.Close()

	defer os.Remove(path)

	for {
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		if content, err = os.ReadFile(path); err != nil {
			return err
		}

		if len(bytes.TrimSpace(content)) == 0 {
			return nil
		}

		frame, decodeErr := decodeBindings(ctx, content)

		c.logger.TraceContext(ctx, "repl edit attempt",
			slog.Int("length", len(content)),
			slog.Bool("success", decodeErr == nil),
		)

		if decodeErr == nil {
			c.result, c.edited = frame, true

			return nil
		}

		fmt.Fprintf(c.stderr, "\nerror: %s\n", decodeErr)
		fmt.Fprint(c.stdout, "Edit again? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

func encodeBindings(ctx context.Context, frame lang.Context) ([]byte, error) {
	if len(frame) == 0 {
		return []byte("# name: value\n"), nil
	}

	return yaml.MarshalContext(ctx, map[string]any(frame), yaml.Indent(2))
}

func decodeBindings(ctx context.Context, content []byte) (lang.Context, error) {
	var doc map[string]any
	if err := yaml.UnmarshalContext(ctx, content, &doc); err != nil {
		return nil, err
	}

	frame := make(lang.Context, len(doc))

	for name, raw := range doc {
		v, err := lang.ToValue(raw)
		if err != nil {
			return nil, err
		}

		frame[name] = v
	}

	return frame, nil
}

// runEditor runs $EDITOR (or vi) on path and waits for it to exit.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
