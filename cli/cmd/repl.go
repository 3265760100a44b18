package cmd

import (
	"context"
	"errors"

	"github.com/ardnew/formula/cli/cmd/repl"
	"github.com/ardnew/formula/log"
)

// Repl starts an interactive session evaluating expressions against the
// context documents.
type Repl struct {
	Set []string `help:"Bind NAME=VALUE in the innermost scope (VALUE is parsed as YAML)" placeholder:"NAME=VALUE" sep:"none" short:"s"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cs, err := loadContexts(ctx, contextFilesFrom(ctx), stdioFrom(ctx).In)
	if err != nil {
		return err
	}

	for _, s := range r.Set {
		name, v, err := parseAssignment(s)
		if err != nil {
			return err
		}

		cs.Innermost()[name] = v
	}

	var cacheDir string

	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	err = repl.Run(ctx, repl.Config{
		Contexts:   cs,
		Consts:     HostFunctions(),
		Signatures: HostSignatures,
		CacheDir:   cacheDir,
		Logger:     log.Default(),
	})
	if errors.Is(err, repl.ErrEditDeclined) {
		return nil
	}

	return err
}
