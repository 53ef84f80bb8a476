package callscope

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/callscope/callscope/internal/calltree"
	"github.com/callscope/callscope/internal/errorutil"
	"github.com/callscope/callscope/internal/testutil"
)

// fakeClock makes elapsed times deterministic.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestProfiler() (*Profiler, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	p := New()
	p.now = clock.now
	return p, clock
}

func TestNestedCallsReport(t *testing.T) {
	p, clock := newTestProfiler()

	p.StartCaller("outer")
	clock.advance(3 * time.Millisecond)
	p.StartCaller("inner")
	clock.advance(5 * time.Millisecond)
	if err := p.EndCaller(); err != nil {
		t.Fatal(err)
	}
	clock.advance(2 * time.Millisecond)
	if err := p.EndCaller(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := p.WriteReport(&buf); err != nil {
		t.Fatal(err)
	}
	want := "Profiling Result\n" +
		"  outer - Total Time: 10 ms, Call Count: 1\n" +
		"    inner - Total Time: 5 ms, Call Count: 1\n"
	if diff := testutil.Diff(want, buf.String()); diff != "" {
		t.Fatalf("report mismatch: %s", diff)
	}
}

func TestRepeatedCallsAggregate(t *testing.T) {
	p, clock := newTestProfiler()

	const n = 4
	for i := 0; i < n; i++ {
		p.StartCaller("f")
		clock.advance(2 * time.Millisecond)
		if err := p.EndCaller(); err != nil {
			t.Fatal(err)
		}
	}

	root := p.tree.Children(calltree.Root)
	if len(root) != 1 {
		t.Fatalf("expected a single node for f, got %d", len(root))
	}
	if got := p.tree.CallCount(root[0]); got != n {
		t.Fatalf("call count: got %d, want %d", got, n)
	}
	if got := p.tree.TotalTime(root[0]); got != n*2*time.Millisecond {
		t.Fatalf("total time: got %v, want %v", got, n*2*time.Millisecond)
	}
}

func TestPathDisambiguation(t *testing.T) {
	p, clock := newTestProfiler()

	// a→b and a→c in separate branches under the same parent.
	p.StartCaller("a")
	p.StartCaller("b")
	clock.advance(time.Millisecond)
	p.EndCaller()
	p.StartCaller("c")
	clock.advance(time.Millisecond)
	p.EndCaller()
	p.EndCaller()

	a := p.tree.Children(calltree.Root)
	if len(a) != 1 {
		t.Fatalf("expected one root caller, got %d", len(a))
	}
	children := p.tree.Children(a[0])
	if len(children) != 2 {
		t.Fatalf("expected b and c as distinct children of a, got %d nodes", len(children))
	}
	for _, id := range children {
		if got := p.tree.CallCount(id); got != 1 {
			t.Fatalf("%s: call count %d, want 1", p.tree.Name(id), got)
		}
	}
}

func TestBalancedSequenceReturnsToRoot(t *testing.T) {
	p, _ := newTestProfiler()

	p.StartCaller("a")
	p.StartCaller("b")
	p.EndCaller()
	p.StartCaller("c")
	p.StartCaller("d")
	p.EndCaller()
	p.EndCaller()
	p.EndCaller()

	if p.Pending() != 0 {
		t.Fatalf("stack not empty after balanced sequence: %d pending", p.Pending())
	}
	if got := p.tree.Depth(); got != 0 {
		t.Fatalf("cursor depth after balanced sequence: got %d, want 0", got)
	}
}

func TestStackCursorLockStep(t *testing.T) {
	p, _ := newTestProfiler()

	for i, name := range []string{"a", "b", "c"} {
		p.StartCaller(name)
		if got := p.tree.Depth(); got != i+1 || p.Pending() != i+1 {
			t.Fatalf("after start %d: depth %d, pending %d", i+1, got, p.Pending())
		}
	}
	for i := 2; i >= 0; i-- {
		if err := p.EndCaller(); err != nil {
			t.Fatal(err)
		}
		if got := p.tree.Depth(); got != i || p.Pending() != i {
			t.Fatalf("after end to depth %d: depth %d, pending %d", i, got, p.Pending())
		}
	}
}

func TestUnbalancedEndFails(t *testing.T) {
	p, _ := newTestProfiler()

	if err := p.EndCaller(); !errors.Is(err, errorutil.ErrUnbalancedCall) {
		t.Fatalf("fresh profiler: expected ErrUnbalancedCall, got %v", err)
	}

	p.StartCaller("f")
	if err := p.EndCaller(); err != nil {
		t.Fatal(err)
	}
	if err := p.EndCaller(); !errors.Is(err, errorutil.ErrUnbalancedCall) {
		t.Fatalf("after balanced pair: expected ErrUnbalancedCall, got %v", err)
	}

	// The failed end must not disturb what was already recorded.
	var buf bytes.Buffer
	if err := p.WriteReport(&buf); err != nil {
		t.Fatal(err)
	}
	want := "Profiling Result\n" +
		"  f - Total Time: 0 ms, Call Count: 1\n"
	if diff := testutil.Diff(want, buf.String()); diff != "" {
		t.Fatalf("report mismatch: %s", diff)
	}
}

func TestUnfinishedCallerHasEmptyPayload(t *testing.T) {
	p, clock := newTestProfiler()

	p.StartCaller("pending")
	clock.advance(50 * time.Millisecond)

	id := p.tree.Children(calltree.Root)[0]
	if got := p.tree.CallCount(id); got != 0 {
		t.Fatalf("call count before end: got %d, want 0", got)
	}
	if got := p.tree.TotalTime(id); got != 0 {
		t.Fatalf("total time before end: got %v, want 0", got)
	}

	if err := p.EndCaller(); err != nil {
		t.Fatal(err)
	}
	if got := p.tree.TotalTime(id); got != 50*time.Millisecond {
		t.Fatalf("total time after end: got %v, want 50ms", got)
	}
}

func TestTimeMonotonicity(t *testing.T) {
	p, clock := newTestProfiler()

	var prev time.Duration
	for i := 0; i < 5; i++ {
		p.StartCaller("f")
		clock.advance(time.Duration(i) * time.Millisecond)
		if err := p.EndCaller(); err != nil {
			t.Fatal(err)
		}
		id := p.tree.Children(calltree.Root)[0]
		got := p.tree.TotalTime(id)
		if got < prev {
			t.Fatalf("total time decreased: %v after %v", got, prev)
		}
		prev = got
	}
}

func TestResetIsIdempotent(t *testing.T) {
	p, clock := newTestProfiler()

	p.StartCaller("a")
	p.StartCaller("b")
	clock.advance(time.Millisecond)

	for i := 0; i < 2; i++ {
		p.Reset()
		if p.Pending() != 0 {
			t.Fatalf("reset %d: stack not empty", i)
		}
		var buf bytes.Buffer
		if err := p.WriteReport(&buf); err != nil {
			t.Fatal(err)
		}
		if diff := testutil.Diff("Profiling Result\n", buf.String()); diff != "" {
			t.Fatalf("reset %d: report mismatch: %s", i, diff)
		}
	}
}

func TestMarshalReport(t *testing.T) {
	p, clock := newTestProfiler()

	p.StartCaller("f")
	clock.advance(3 * time.Millisecond)
	if err := p.EndCaller(); err != nil {
		t.Fatal(err)
	}

	b, err := p.MarshalReport()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`"name":"f"`)) {
		t.Fatalf("marshaled report missing caller node: %s", b)
	}
}

func TestDefaultIsStable(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default returned two different instances")
	}
}
