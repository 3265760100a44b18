package cmd

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/log"
	"github.com/ardnew/formula/pkg"
)

// Eval compiles an expression once and evaluates it against the context
// documents, either a single time or once per element of --each.
type Eval struct {
	Expr   string   `arg:"" help:"Expression to evaluate, or '-' to read it from stdin" name:"expr"`
	Set    []string `help:"Bind NAME=VALUE in the innermost scope (VALUE is parsed as YAML)" placeholder:"NAME=VALUE" sep:"none" short:"s"`
	Each   string   `help:"YAML sequence of scopes; evaluate once per element" placeholder:"FILE" type:"existingfile"`
	Output string   `default:"text" enum:"text,json,yaml" help:"Result format (${enum})." short:"o"`
	Indent int      `default:"2" help:"Indent width for json and yaml (0 for compact)." short:"i"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	stdio := stdioFrom(ctx)

	format, err := lang.ParseFormat(e.Output)
	if err != nil {
		return err
	}

	source, err := readExpr(e.Expr, stdio.In)
	if err != nil {
		return err
	}

	cs, err := loadContexts(ctx, contextFilesFrom(ctx), stdio.In)
	if err != nil {
		return err
	}

	for _, s := range e.Set {
		name, v, err := parseAssignment(s)
		if err != nil {
			return err
		}

		cs.Innermost()[name] = v
	}

	x, err := lang.New(source,
		lang.WithLogger(log.Default()),
		lang.WithConstFunctions(HostFunctions()),
	).Compile()
	if err != nil {
		return err
	}

	scopes := []lang.Context{nil}

	if e.Each != "" {
		if scopes, err = e.readEach(ctx, stdio.In); err != nil {
			return err
		}
	}

	log.DebugContext(ctx, "evaluating",
		slog.String("expr", source),
		slog.Int("scopes", len(cs)),
		slog.Int("runs", len(scopes)),
	)

	for i, scope := range scopes {
		frames := cs
		if scope != nil {
			frames = cs.Push(scope)
		}

		v, err := lang.NewRequest(x).WithContext(ctx).WithContexts(frames).Exec()
		if err != nil {
			return ErrEvaluate.
				With(slog.String("expr", source), slog.Int("run", i)).
				Wrap(err)
		}

		if err := lang.FormatValue(ctx, stdio.Out, v, format, e.Indent); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}

func (e *Eval) readEach(ctx context.Context, stdin io.Reader) ([]lang.Context, error) {
	srcs, closeAll, err := openSources([]string{e.Each}, stdin)
	defer closeAll()

	if err != nil {
		return nil, ErrLoadContext.Wrap(pkg.ErrReadInput.Wrap(err))
	}

	if len(srcs) == 0 {
		return nil, nil
	}

	frames, err := decodeEach(ctx, srcs[0])
	if err != nil {
		return nil, ErrLoadContext.With(slog.String("file", e.Each)).Wrap(err)
	}

	return frames, nil
}

// readExpr returns arg, or all of stdin when arg is "-".
func readExpr(arg string, stdin io.Reader) (string, error) {
	if arg != stdinSource {
		return arg, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", ErrReadExpr.Wrap(pkg.ErrReadStdin.Wrap(err))
	}

	return strings.TrimSpace(string(data)), nil
}
