package tracing

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LogField is a single structured log entry attached to a span (spec.md
// §4.4 add_span_log_fields!).
type LogField struct {
	Key   string
	Value string
}

// Span is the mutable record of one span's lifetime: Created -> Open ->
// Finished. There is no Go analogue of Rust's scope-exit Drop, so callers
// must call SpanScope.End explicitly; this mirrors the teacher's own
// simpleSpan, which already requires an explicit End() call rather than
// relying on garbage collection.
type Span struct {
	mu sync.Mutex

	TraceID      trace.TraceID
	SpanID       trace.SpanID
	ParentSpanID trace.SpanID
	Name         string
	Start        time.Time
	Finish       time.Time
	Sampled      bool
	Tags         []attribute.KeyValue
	LogFields    []LogField

	finished       bool
	overrideFinish bool
	tracer         *Tracer
	untrack        func()
}

// SpanScope is the handle callers hold; it owns exactly one End() call.
type SpanScope struct {
	span *Span
}

type spanCtxKey struct{}

func fromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	sp, _ := ctx.Value(spanCtxKey{}).(*Span)
	return sp
}

func withSpan(ctx context.Context, sp *Span) context.Context {
	return context.WithValue(ctx, spanCtxKey{}, sp)
}

// AddTags mutates the span's tags if sampled; no-op otherwise (spec.md
// §4.4 add_span_tags!).
func (s *SpanScope) AddTags(tags ...attribute.KeyValue) {
	if s == nil || s.span == nil || !s.span.Sampled {
		return
	}
	s.span.mu.Lock()
	defer s.span.mu.Unlock()
	s.span.Tags = append(s.span.Tags, tags...)
}

// AddLogFields mutates the span's log fields if sampled; no-op otherwise.
func (s *SpanScope) AddLogFields(fields ...LogField) {
	if s == nil || s.span == nil || !s.span.Sampled {
		return
	}
	s.span.mu.Lock()
	defer s.span.mu.Unlock()
	s.span.LogFields = append(s.span.LogFields, fields...)
}

// SetStartTime overrides the recorded start time (no-op if unsampled).
func (s *SpanScope) SetStartTime(t time.Time) {
	if s == nil || s.span == nil || !s.span.Sampled {
		return
	}
	s.span.mu.Lock()
	defer s.span.mu.Unlock()
	s.span.Start = t
}

// SetFinishTime overrides the recorded finish time (no-op if unsampled);
// the override only takes effect once End is eventually called.
func (s *SpanScope) SetFinishTime(t time.Time) {
	if s == nil || s.span == nil || !s.span.Sampled {
		return
	}
	s.span.mu.Lock()
	defer s.span.mu.Unlock()
	s.span.Finish = t
	s.span.overrideFinish = true
}

// TraceID returns the hosting trace's identifier.
func (s *SpanScope) TraceID() trace.TraceID {
	if s == nil || s.span == nil {
		return trace.TraceID{}
	}
	return s.span.TraceID
}

// StateForTraceStitching snapshots this span as a TraceState fit for
// crossing a process boundary.
func (s *SpanScope) StateForTraceStitching() TraceState {
	if s == nil || s.span == nil {
		return TraceState{}
	}
	s.span.mu.Lock()
	defer s.span.mu.Unlock()
	return TraceState{
		TraceID:      s.span.TraceID,
		SpanID:       s.span.SpanID,
		ParentSpanID: s.span.ParentSpanID,
		Sampled:      s.span.Sampled,
	}
}

// IsSampled reports whether mutation calls on this scope do anything.
func (s *SpanScope) IsSampled() bool { return s != nil && s.span != nil && s.span.Sampled }

// Span exposes the underlying span snapshot, mainly for exporters and tests.
func (s *SpanScope) Span() *Span { return s.span }

// End finishes the span: it is enqueued for export if sampled, and
// untracked from the tracer's live registry hook either way. End is
// idempotent; only the first call has effect.
func (s *SpanScope) End() {
	if s == nil || s.span == nil {
		return
	}
	sp := s.span
	sp.mu.Lock()
	if sp.finished {
		sp.mu.Unlock()
		return
	}
	sp.finished = true
	if !sp.overrideFinish {
		sp.Finish = time.Now()
	}
	sp.mu.Unlock()

	if sp.tracer != nil {
		sp.tracer.finish(sp)
	}
}

// FinishedSpan is the immutable snapshot handed to exporters once a span
// completes.
type FinishedSpan struct {
	TraceID      trace.TraceID
	SpanID       trace.SpanID
	ParentSpanID trace.SpanID
	Name         string
	Start        time.Time
	Finish       time.Time
	Sampled      bool
	Tags         []attribute.KeyValue
	LogFields    []LogField
}

// Snapshot exposes a thread-safe read of the span's current state, mainly
// for the live trace registry to render open spans before they finish.
func (sp *Span) Snapshot() FinishedSpan { return sp.snapshot() }

// IsFinished reports whether the span has already been finished.
func (sp *Span) IsFinished() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.finished
}

func (sp *Span) snapshot() FinishedSpan {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return FinishedSpan{
		TraceID:      sp.TraceID,
		SpanID:       sp.SpanID,
		ParentSpanID: sp.ParentSpanID,
		Name:         sp.Name,
		Start:        sp.Start,
		Finish:       sp.Finish,
		Sampled:      sp.Sampled,
		Tags:         append([]attribute.KeyValue(nil), sp.Tags...),
		LogFields:    append([]LogField(nil), sp.LogFields...),
	}
}
