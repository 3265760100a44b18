package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/pkg"
)

// Fmt prints expressions in their canonical form.
//
// Without arguments, or with "-", it reads one expression per line from
// stdin; blank lines and lines starting with '#' are copied unchanged.
type Fmt struct {
	Exprs []string `arg:"" help:"Expressions to format, or '-' to read them from stdin" name:"expr" optional:""`
}

// Run executes the fmt command.
func (f *Fmt) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	stdio := stdioFrom(ctx)

	for _, arg := range f.Exprs {
		if arg == stdinSource {
			continue
		}

		if err := formatLine(stdio, arg); err != nil {
			return err
		}
	}

	if len(f.Exprs) > 0 && !slices.Contains(f.Exprs, stdinSource) {
		return nil
	}

	scanner := bufio.NewScanner(stdio.In)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()

		if trimmed := strings.TrimSpace(text); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if _, err := fmt.Fprintln(stdio.Out, text); err != nil {
				return ErrWriteOutput.Wrap(err)
			}

			continue
		}

		if err := formatLine(stdio, text); err != nil {
			return ErrReadExpr.With(slog.Int("line", line)).Wrap(err)
		}
	}

	if err := scanner.Err(); err != nil {
		return ErrReadExpr.Wrap(pkg.ErrReadStdin.Wrap(err))
	}

	return nil
}

func formatLine(stdio Stdio, source string) error {
	unit, err := lang.Compile(source)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(stdio.Out, unit.String()); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
