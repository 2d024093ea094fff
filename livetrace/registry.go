// Package livetrace implements the live trace registry (spec.md C6): a
// thread-safe map from slot id to a tracked root span, with an Untrack
// callback standing in for Rust's weak-handle-drop semantics. Go has no
// widely-used weak pointer (runtime/weak is new and unused elsewhere in the
// reference pack), so "weak" here means explicit removal on span finish —
// the same pattern the teacher used for its asset-event ring buffer
// bookkeeping (explicit removal, not GC finalizers).
package livetrace

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hearthwatch/telemetry/tracing"
)

// entry is what the registry actually stores: the root span plus the data
// needed to render a trace-event pair even while still open.
type entry struct {
	traceID string
	name    string
	start   time.Time
	span    *tracing.Span
}

// Registry is a thread-safe slot map of currently-live root spans.
type Registry struct {
	mu      sync.Mutex
	slots   map[uint64]*entry
	nextID  atomic.Uint64
	TrackAll bool
}

// NewRegistry builds an empty registry and records trackAll in TrackAll.
// Track itself stores every span handed to it; which roots are handed over
// is decided by the tracing.Tracer's own trackAll flag, not by this field.
func NewRegistry(trackAll bool) *Registry {
	return &Registry{slots: make(map[uint64]*entry), TrackAll: trackAll}
}

// Track inserts span and returns an untrack closure that removes its slot;
// it satisfies tracing.LiveTracker so a Tracer can be wired directly to a
// Registry.
func (r *Registry) Track(span *tracing.Span) func() {
	id := r.nextID.Add(1)
	e := &entry{
		traceID: span.TraceID.String(),
		name:    span.Name,
		start:   span.Start,
		span:    span,
	}
	r.mu.Lock()
	r.slots[id] = e
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.slots, id)
		r.mu.Unlock()
	}
}

// LiveReference is a snapshot of one tracked root span at the moment
// GetLiveReferences was called.
type LiveReference struct {
	TraceID string
	Name    string
	Start   time.Time
	Finish  time.Time
	Open    bool
}

// GetLiveReferences snapshots every currently-tracked root.
func (r *Registry) GetLiveReferences() []LiveReference {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.slots))
	for _, e := range r.slots {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	out := make([]LiveReference, 0, len(entries))
	for _, e := range entries {
		snap := e.span.Snapshot()
		out = append(out, LiveReference{
			TraceID: e.traceID,
			Name:    e.name,
			Start:   e.start,
			Finish:  snap.Finish,
			Open:    !e.span.IsFinished(),
		})
	}
	return out
}

// Len reports how many roots are currently tracked.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}
