// Package cmd implements the formula subcommands: eval, check, fmt, init
// and repl.
//
// Commands read their shared inputs from the context passed to Run. The
// root command installs the parsed kong context ([WithContext]), the
// context document paths ([WithContextFiles]) and optionally the standard
// streams ([WithStdio]).
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the configuration file.
	ConfigIdentifier = "config"
)
