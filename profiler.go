// Package callscope profiles hierarchical call paths: every bracketed
// invocation is attributed to the full chain of callers it ran under, so the
// same function reached from two different call sites is counted and timed
// separately.
package callscope

import (
	"io"
	"sync"
	"time"

	"github.com/callscope/callscope/internal/calltree"
	"github.com/callscope/callscope/internal/errorutil"
	"github.com/callscope/callscope/internal/report"
)

// callerInfo lives on the active stack between a start and its matching end.
type callerInfo struct {
	name  string
	start time.Time
}

// Profiler accumulates elapsed time and invocation counts per distinct call
// path. Methods are safe for concurrent use, but start/end pairing is strict
// LIFO, so meaningful results still require one logical flow of control per
// instance.
type Profiler struct {
	mu    sync.Mutex
	tree  *calltree.Tree
	stack []callerInfo
	now   func() time.Time
}

func New() *Profiler {
	return &Profiler{
		tree: calltree.New(),
		now:  time.Now,
	}
}

// StartCaller records entry into a profiled scope. Every StartCaller needs a
// matching EndCaller; prefer a Probe, which guarantees the pairing.
func (p *Profiler) StartCaller(name string) {
	start := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stack = append(p.stack, callerInfo{name: name, start: start})
	p.tree.Entry(name)
}

// EndCaller records exit from the most recently started scope, aggregating
// the elapsed time into the node for its call path. It returns
// errorutil.ErrUnbalancedCall when no start is pending; the profiler is left
// untouched in that case, but the instrumentation that caused it is broken
// and Reset is the only defined recovery.
func (p *Profiler) EndCaller() error {
	end := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.stack) == 0 {
		return errorutil.ErrUnbalancedCall
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.tree.Record(p.tree.Cursor(), end.Sub(top.start))
	return p.tree.MoveToParent()
}

// WriteReport writes the indented text report of everything profiled so far.
func (p *Profiler) WriteReport(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return report.Write(w, p.tree)
}

// MarshalReport encodes the profiled tree as a one-shot JSON report.
func (p *Profiler) MarshalReport() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return report.Marshal(p.tree)
}

// Reset discards all accumulated data and any pending starts.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stack = p.stack[:0]
	p.tree.Reset()
}

// Pending returns the number of started scopes awaiting their end.
func (p *Profiler) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stack)
}
