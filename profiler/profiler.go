// Package profiler provides scoped begin/end markers around effect passes.
//
// Effects take a Group and never branch on whether profiling is active; the
// Nop group makes every marker free.
package profiler

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Group is a scope that can open nested scopes.
type Group interface {
	Start(label string) Group
	End()
}

// Nop is a Group that records nothing.
type Nop struct{}

// Start returns Nop.
func (Nop) Start(string) Group { return Nop{} }

// End does nothing.
func (Nop) End() {}

// OrNop returns g, or Nop when g is nil.
func OrNop(g Group) Group {
	if g == nil {
		return Nop{}
	}
	return g
}

// Result is one completed scope, flattened depth-first.
type Result struct {
	Label    string
	Depth    int
	Duration time.Duration
}

func (r Result) String() string {
	return fmt.Sprintf("%s%s %v", strings.Repeat("  ", r.Depth), r.Label, r.Duration)
}

// Recorder measures wall-clock time of nested scopes.
type Recorder struct {
	mu    sync.Mutex
	now   func() time.Time
	roots []*Span
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Start opens a top-level scope.
func (r *Recorder) Start(label string) Group {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Span{Label: label, rec: r, start: r.now()}
	r.roots = append(r.roots, s)
	return s
}

// End does nothing. The recorder is the root of the scope tree and is not
// timed itself.
func (r *Recorder) End() {}

// Results returns every finished scope in start order. Scopes still open are
// skipped along with their children.
func (r *Recorder) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Result
	var walk func(s *Span, depth int)
	walk = func(s *Span, depth int) {
		if s.end.IsZero() {
			return
		}
		out = append(out, Result{Label: s.Label, Depth: depth, Duration: s.end.Sub(s.start)})
		for _, c := range s.children {
			walk(c, depth+1)
		}
	}
	for _, s := range r.roots {
		walk(s, 0)
	}
	return out
}

// Reset drops recorded scopes, typically once per frame.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roots = r.roots[:0]
}

// Span is a scope recorded by a Recorder.
type Span struct {
	Label    string
	rec      *Recorder
	start    time.Time
	end      time.Time
	children []*Span
}

// Start opens a nested scope.
func (s *Span) Start(label string) Group {
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()

	c := &Span{Label: label, rec: s.rec, start: s.rec.now()}
	s.children = append(s.children, c)
	return c
}

// End closes the scope. Ending twice keeps the first end time.
func (s *Span) End() {
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	if s.end.IsZero() {
		s.end = s.rec.now()
	}
}
