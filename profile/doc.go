// Package profile starts optional runtime profiling of the formula command
// through [github.com/pkg/profile].
//
// Profiling is compiled in only with the pprof build tag:
//
//	go build -tags pprof .
//
// Without it, [Modes] is empty and [Config.Start] always returns a no-op
// stopper, so callers never need their own build constraints.
//
//	stop := profile.New(
//		profile.WithMode("cpu"),
//		profile.WithPath(dir),
//	).Start()
//	defer stop.Stop()
//
// Profiles are written to the configured directory under the name of the
// mode (cpu.pprof, mem.pprof, ...) and can be inspected with
// "go tool pprof".
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
