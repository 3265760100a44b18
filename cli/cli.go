package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/formula/cli/cmd"
	"github.com/ardnew/formula/pkg"
)

// CLI is the top-level command-line interface for formula.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Context []string `help:"YAML or JSON context document(s), outermost first, or '-' for stdin" name:"context" placeholder:"FILE" sep:"none" short:"c" type:"existingfile"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Eval  cmd.Eval  `cmd:"" default:"withargs" help:"Evaluate an expression"`
	Check cmd.Check `cmd:""                    help:"Compile an expression and report what it references"`
	Fmt   cmd.Fmt   `cmd:""                    help:"Print expressions in canonical form"`
	Repl  cmd.Repl  `cmd:""                    help:"Evaluate expressions interactively"`
	Init  cmd.Init  `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the formula CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position.
	cli.Log.scan(args)

	parser, err := newParser(&cli, func() context.Context { return ctx },
		kong.Exit(exit),
		kong.Configuration(kong.JSON, configPath(baseConfigJSON)),
		kong.Configuration(resolve(ctx), configPath(baseConfig)),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithContextFiles(ctx, cli.Context)

	// Finalize logger configuration with all parsed values.
	cli.Log.start(ctx)

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

// newParser returns the kong parser of cli. Commands receive the context
// returned by ctx when they run.
func newParser(
	cli *CLI,
	ctx func() context.Context,
	opts ...kong.Option,
) (*kong.Kong, error) {
	vars := kong.Vars{
		"version":            pkg.Version,
		cmd.ConfigIdentifier: configPath(baseConfig),
		cmd.CacheIdentifier:  cachePath(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	return kong.New(cli, append([]kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(ctx),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		vars,
	}, opts...)...)
}
