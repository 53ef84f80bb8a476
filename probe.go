package callscope

import (
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// Probe brackets one profiled scope. Acquire it at the top of the scope and
// release it with defer so the end is recorded on every exit path, panics
// included:
//
//	defer callscope.NewProbe(p, "load").Finish()
type Probe struct {
	profiler *Profiler
	done     bool
}

func NewProbe(p *Profiler, name string) *Probe {
	p.StartCaller(name)
	return &Probe{profiler: p}
}

// Finish records the end of the probed scope. It runs at most once; later
// calls are no-ops. A probe is balanced by construction, so an unbalanced
// error here means the profiler was reset or misused mid-scope; it is
// reported rather than swallowed, and the profiler needs a Reset.
func (pr *Probe) Finish() {
	if pr.done {
		return
	}
	pr.done = true
	if err := pr.profiler.EndCaller(); err != nil {
		log.Error().Err(err).Msg("probe finished on an unbalanced profiler")
	}
}

// ProbeFunc brackets the calling function on p, using the function's own name
// as the caller name.
func ProbeFunc(p *Profiler) *Probe {
	return NewProbe(p, callerFuncName())
}

// ProbeHere brackets the calling function on the default profiler.
func ProbeHere() *Probe {
	return NewProbe(Default(), callerFuncName())
}

// callerFuncName names the function two frames up, trimmed of its package
// path prefix.
func callerFuncName() string {
	pc, _, _, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	name := fn.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
