package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/formula/log"
)

// logFormat configures the logger format as a side effect of parsing via
// encoding.TextUnmarshaler, so that errors reported while kong is still
// parsing already use it.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing via
// encoding.TextUnmarshaler.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"${logLevelEnum}"  help:"Set log level (${enum})."`
	Format     logFormat `default:"text"    enum:"${logFormatEnum}" help:"Set log format (${enum})."`
	TimeLayout string    `default:"RFC3339"                         help:"Set timestamp format, or 'none'."`
	Caller     bool      `default:"false"                           help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                            help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

// start applies the fully parsed configuration, including the flags that
// have no parse-time side effect.
func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// logFlag describes how scan applies one logger flag.
type logFlag struct {
	// takesValue flags consume the next argument when not given "=value".
	takesValue bool
	apply      func(f *logConfig, value string, assigned bool)
}

// boolFlag applies a boolean flag; negated flags store the inverse.
func boolFlag(set func(f *logConfig, v bool), negated bool) logFlag {
	return logFlag{apply: func(f *logConfig, value string, assigned bool) {
		v := true

		if assigned {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return
			}

			v = b
		}

		set(f, v != negated)
	}}
}

func setPretty(f *logConfig, v bool) {
	f.Pretty = v
	log.Config(log.WithPretty(v))
}

func setCaller(f *logConfig, v bool) {
	f.Caller = v
	log.Config(log.WithCaller(v))
}

//nolint:gochecknoglobals
var logFlags = map[string]logFlag{
	"--log-level": {takesValue: true, apply: func(f *logConfig, v string, _ bool) {
		_ = f.Level.UnmarshalText([]byte(v))
	}},
	"--log-format": {takesValue: true, apply: func(f *logConfig, v string, _ bool) {
		_ = f.Format.UnmarshalText([]byte(v))
	}},
	"--log-time-layout": {takesValue: true, apply: func(f *logConfig, v string, _ bool) {
		f.TimeLayout = v
		log.Config(log.WithTimeLayout(v))
	}},
	"--log-pretty":    boolFlag(setPretty, false),
	"--no-log-pretty": boolFlag(setPretty, true),
	"--log-caller":    boolFlag(setCaller, false),
	"--no-log-caller": boolFlag(setCaller, true),
}

// scan performs an early pass over command-line arguments to extract and
// apply logger configuration before kong begins parsing, so the logger is
// configured regardless of flag position on the command line.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			return
		}

		name, value, assigned := strings.Cut(args[i], "=")

		flag, ok := logFlags[name]
		if !ok {
			continue
		}

		if flag.takesValue && !assigned {
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				continue
			}

			i++
			value = args[i]
		}

		flag.apply(f, value, assigned)
	}
}
