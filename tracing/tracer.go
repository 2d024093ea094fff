package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LiveTracker is the minimal hook the livetrace registry (package
// livetrace) implements; kept here as an interface rather than an import so
// tracing never depends on livetrace.
type LiveTracker interface {
	Track(root *Span) (untrack func())
}

// Tracer owns sampling policy and the channel finished spans are pushed
// onto for export (spec.md §4.4/§4.5: exporters read from this channel
// until it is closed).
type Tracer struct {
	sampler  Sampler
	out      chan FinishedSpan
	live     LiveTracker
	trackAll bool
}

// NewTracer builds a Tracer with the given sampling policy, publishing
// finished sampled spans onto a channel of the given buffer size. live, if
// non-nil, is handed every sampled root span, or every root span when
// trackAll is set.
func NewTracer(sampler Sampler, bufferSize int, live LiveTracker, trackAll bool) *Tracer {
	if sampler == nil {
		sampler = PassiveSampler{}
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Tracer{sampler: sampler, out: make(chan FinishedSpan, bufferSize), live: live, trackAll: trackAll}
}

// Finished returns the channel exporters should drain; it is closed by
// Close.
func (t *Tracer) Finished() <-chan FinishedSpan { return t.out }

// Close signals exporters to stop once they've drained the channel.
func (t *Tracer) Close() { close(t.out) }

// TraceOptions configures StartTrace.
type TraceOptions struct {
	StitchWithTrace      *TraceState
	OverrideSamplingRatio *float64
}

// Span starts a child span of the current span in ctx if one exists, else
// starts a new root trace (spec.md §4.4 span()).
func (t *Tracer) Span(ctx context.Context, name string) (context.Context, *SpanScope) {
	if parent := fromContext(ctx); parent != nil {
		child := t.newChild(parent, name)
		return withSpan(ctx, child), &SpanScope{span: child}
	}
	return t.StartTrace(ctx, name, TraceOptions{})
}

func (t *Tracer) newChild(parent *Span, name string) *Span {
	parent.mu.Lock()
	traceID := parent.TraceID
	parentSpanID := parent.SpanID
	sampled := parent.Sampled
	parent.mu.Unlock()
	return &Span{
		TraceID:      traceID,
		SpanID:       newSpanID(),
		ParentSpanID: parentSpanID,
		Name:         name,
		Start:        timeNow(),
		Sampled:      sampled,
		tracer:       t,
	}
}

// StartTrace always creates a new root span; if a sampled span is current
// in ctx, the new root is linked to it via a short-lived reference child
// (spec.md §4.4 "Linking a new root to a current span").
func (t *Tracer) StartTrace(ctx context.Context, name string, opts TraceOptions) (context.Context, *SpanScope) {
	var traceID trace.TraceID
	var parentSpanID trace.SpanID
	var sampled bool

	switch {
	case opts.StitchWithTrace != nil:
		traceID = opts.StitchWithTrace.TraceID
		parentSpanID = opts.StitchWithTrace.SpanID
		sampled = opts.StitchWithTrace.Sampled
	case opts.OverrideSamplingRatio != nil:
		traceID = newTraceID()
		sampled = decideOverride(*opts.OverrideSamplingRatio)
	default:
		traceID = newTraceID()
		sampled = t.sampler.Sample()
	}

	root := &Span{
		TraceID:      traceID,
		SpanID:       newSpanID(),
		ParentSpanID: parentSpanID,
		Name:         name,
		Start:        timeNow(),
		Sampled:      sampled,
		tracer:       t,
	}

	if current := fromContext(ctx); current != nil {
		current.mu.Lock()
		currentSampled := current.Sampled
		currentTraceID := current.TraceID
		current.mu.Unlock()
		if currentSampled {
			ref := t.newChild(current, fmt.Sprintf("[%s ref]", name))
			ref.Tags = append(ref.Tags, attribute.String("trace_id", traceID.String()), attribute.String("note", "root span forked from this point"))
			(&SpanScope{span: ref}).End()
			root.Tags = append(root.Tags, attribute.String("trace_id", currentTraceID.String()), attribute.String("fork_of_span_id", ref.SpanID.String()))
		}
	}

	if t.live != nil && (root.Sampled || t.trackAll) {
		root.untrack = t.live.Track(root)
	}

	ctx = withSpan(ctx, root)
	return ctx, &SpanScope{span: root}
}

// ForkTrace is start_trace(name, {override_sampling_ratio: 1.0}) iff the
// current span is sampled; otherwise it yields an inactive span, finished
// immediately and emitted nowhere (spec.md §4.4 fork_trace).
func (t *Tracer) ForkTrace(ctx context.Context, name string) (context.Context, *SpanScope) {
	current := fromContext(ctx)
	if current == nil || !current.Sampled {
		inactive := &Span{Name: name, finished: true}
		return ctx, &SpanScope{span: inactive}
	}
	one := 1.0
	return t.StartTrace(ctx, name, TraceOptions{OverrideSamplingRatio: &one})
}

func (t *Tracer) finish(sp *Span) {
	if sp.untrack != nil {
		sp.untrack()
	}
	if sp.Sampled {
		select {
		case t.out <- sp.snapshot():
		default:
			// Exporter isn't keeping up; spec.md names no backpressure
			// policy for this channel beyond "closed by tracer drop", so a
			// full buffer drops the span rather than blocking the caller
			// that's ending it.
		}
	}
}

func decideOverride(ratio float64) bool {
	if ratio <= 0 {
		return false
	}
	if ratio >= 1 {
		return true
	}
	return randFloat() < ratio
}
