package callscope

import (
	"io"
	"sync"
)

var (
	defaultOnce     sync.Once
	defaultProfiler *Profiler
)

// Default returns the process-wide profiler backing the package-level
// functions. Code that wants isolation, tests in particular, should construct
// its own instance with New instead.
func Default() *Profiler {
	defaultOnce.Do(func() {
		defaultProfiler = New()
	})
	return defaultProfiler
}

func StartCaller(name string) {
	Default().StartCaller(name)
}

func EndCaller() error {
	return Default().EndCaller()
}

func WriteReport(w io.Writer) error {
	return Default().WriteReport(w)
}

func Reset() {
	Default().Reset()
}
