//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"
)

// Modes returns the sorted names of the supported profiling modes.
//
//nolint:gochecknoglobals
var Modes = sync.OnceValue(func() []string {
	return slices.Sorted(maps.Keys(modes))
})

//nolint:gochecknoglobals
var modes = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

func start(mode, path string, quiet bool) Stopper {
	fn, ok := modes[mode]
	if !ok {
		return ignore{}
	}

	// pkg/profile installs its own SIGINT handler unless told otherwise; the
	// command already stops the profiler when its context ends.
	settings := []func(*profile.Profile){fn, profile.NoShutdownHook}

	if path != "" {
		settings = append(settings, profile.ProfilePath(path))
	}

	if quiet {
		settings = append(settings, profile.Quiet)
	}

	return profile.Start(settings...)
}
