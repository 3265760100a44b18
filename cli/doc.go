// Package cli contains the command line interface for formula.
//
// # Usage
//
//	formula [flags] <expr>                 evaluate (the default command)
//	formula [flags] eval <expr>            evaluate an expression
//	formula [flags] check <expr>           report variables and functions
//	formula [flags] fmt [<expr> ...]       print the canonical form
//	formula [flags] repl                   interactive session
//	formula [flags] init                   write the configuration file
//
// Context documents given with -c/--context are YAML or JSON mappings.
// Each one becomes a scope, the first outermost, so later documents shadow
// earlier ones. The path "-" reads standard input.
//
//	formula -c defaults.yaml -c site.yaml 'rate * sum(items)'
//	formula eval --set rate=2 --each rows.yaml 'rate * n'
//
// # Configuration
//
// Flag values are also read from config.yaml (and config.json) in the
// user configuration directory. Nested mappings are joined with '-':
//
//	log:
//	  level: debug
//	  format: json
//
// The init command writes the current flag values to that file.
// Command-line flags override configuration values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize output on a terminal
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
package cli
