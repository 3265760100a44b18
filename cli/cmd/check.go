package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/log"
)

// Check compiles an expression without evaluating it and reports the free
// variables and functions it references.
type Check struct {
	Expr   string `arg:"" help:"Expression to check, or '-' to read it from stdin" name:"expr"`
	Output string `default:"text" enum:"text,json,yaml" help:"Report format (${enum})." short:"o"`
	Indent int    `default:"2" help:"Indent width for json and yaml (0 for compact)." short:"i"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) error {
	stdio := stdioFrom(ctx)

	format, err := lang.ParseFormat(c.Output)
	if err != nil {
		return err
	}

	source, err := readExpr(c.Expr, stdio.In)
	if err != nil {
		return err
	}

	x, err := lang.New(source, lang.WithLogger(log.Default())).Compile()
	if err != nil {
		return err
	}

	report := map[string]any{
		"expr":      x.Unit().String(),
		"variables": strs(x.Unit().Variables()),
		"functions": strs(x.Unit().Functions()),
	}

	if format != lang.FormatText {
		if err := lang.FormatValue(ctx, stdio.Out, report, format, c.Indent); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	_, err = fmt.Fprintf(stdio.Out, "expr: %s\nvariables: %s\nfunctions: %s\n",
		report["expr"],
		strings.Join(x.Unit().Variables(), " "),
		strings.Join(x.Unit().Functions(), " "),
	)
	if err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// strs converts names to an array value.
func strs(names []string) []any {
	out := make([]any, len(names))
	for i, name := range names {
		out[i] = name
	}

	return out
}
