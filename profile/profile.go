package profile

// Config reports the settings of a profiler: the mode, the directory that
// receives the profile, and whether the profiler keeps quiet about it.
type Config func() (mode, path string, quiet bool)

// Option derives a new Config from another.
type Option func(Config) Config

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// New returns a Config with opts applied to the empty configuration.
func New(opts ...Option) Config {
	c := Config(func() (string, string, bool) { return "", "", false })

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// Start begins profiling and returns the session's stopper.
//
// A Config without a mode, an unknown mode, or a binary built without the
// pprof tag all yield a no-op stopper. Both Start and Stop are always
// safely callable.
func (c Config) Start() Stopper {
	if c == nil {
		return ignore{}
	}

	mode, path, quiet := c()
	if mode == "" {
		return ignore{}
	}

	return start(mode, path, quiet)
}

// WithMode selects one of [Modes].
func WithMode(mode string) Option {
	return func(c Config) Config {
		_, path, quiet := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithPath sets the output directory.
func WithPath(path string) Option {
	return func(c Config) Config {
		mode, _, quiet := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithQuiet suppresses the profiler's own start and stop messages.
func WithQuiet(quiet bool) Option {
	return func(c Config) Config {
		mode, path, _ := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

type ignore struct{}

func (ignore) Stop() {}
