// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// A [Logger] is configured once, at creation, with functional options.
// Its configuration is immutable; [Logger.Wrap] derives a new logger with
// further options applied.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//	logger.Info("compiled", slog.String("source", src))
//
// Every level has a context-aware variant. The others use the context
// returned by [DefaultContextProvider].
//
// The package-level functions ([Trace], [Info], [ErrorContext], ...) write
// to a default logger that [Config] reconfigures.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is rendered as "TRACE". The
// evaluator reports compilation and evaluation at this level.
//
// # Output
//
// [FormatText] and [FormatJSON] select the layout. With [WithPretty]
// enabled, records are colorized when written to a terminal and grouped
// attributes are flattened into dotted keys. Timestamps follow
// [WithTimeLayout], which accepts the names of the [time] package layouts
// or "none".
package log
