// Package telemetry is the root entry point: the per-request Context (C2),
// the composite Driver that owns the server and background exporters (C9),
// and the Init surface that wires config.Settings into a running runtime
// (C10).
package telemetry

import (
	"context"

	"github.com/hearthwatch/telemetry/logging"
	"github.com/hearthwatch/telemetry/scope"
	"github.com/hearthwatch/telemetry/tracing"
)

var logStack = scope.NewStack[*logging.Handle]()
var spanStack = scope.NewStack[*tracing.SpanScope]()
var testTracerStack = scope.NewStack[*tracing.Tracer]()

// globalTracer is the production tracer installed by Init. Tests never
// touch it: they install a Tracer directly on a Context's TestTracer field
// instead, which WithForkedTrace prefers when present.
var globalTracer *tracing.Tracer

func setGlobalTracer(t *tracing.Tracer) { globalTracer = t }

// Context is the bundle of "what's current" a call site reads off a
// context.Context: the active logger, the active span, and (in tests) a
// handle to the in-memory tracer driving both. TestTracer is nil outside
// test harness setup.
type Context struct {
	Log        *logging.Handle
	Span       *tracing.SpanScope
	TestTracer *tracing.Tracer
}

// Current reads the logger, span, and test tracer current in ctx, falling
// back to each stack's process-wide default when ctx carries no value. Init
// installs no such default, so a bare context yields a zero Context.
func Current(ctx context.Context) Context {
	log, _ := logStack.Current(ctx)
	span, _ := spanStack.Current(ctx)
	tracer, _ := testTracerStack.Current(ctx)
	return Context{Log: log, Span: span, TestTracer: tracer}
}

// Scope pushes c's log, span, and test tracer (if any) onto ctx, returning
// a derived context later calls to Current will see. There is no explicit
// pop: the derived context simply falls out of scope the way
// context.WithValue always has.
func (c Context) Scope(ctx context.Context) context.Context {
	if c.Log != nil {
		ctx, _ = logStack.Push(ctx, c.Log)
	}
	if c.Span != nil {
		ctx, _ = spanStack.Push(ctx, c.Span)
	}
	if c.TestTracer != nil {
		ctx, _ = testTracerStack.Push(ctx, c.TestTracer)
	}
	return ctx
}

// Apply runs fn with c pushed onto ctx for the duration of the call, the
// common case of Scope immediately followed by a single function call.
func (c Context) Apply(ctx context.Context, fn func(ctx context.Context)) {
	fn(c.Scope(ctx))
}

// WithForkedTrace forks the current trace through tracing.Tracer.ForkTrace,
// using the tracer installed in ctx's Context: when the current span is
// sampled the result is a new sampled root linked to it, otherwise an
// inactive span that is never exported. It returns both the derived context
// and the Context value wrapping that span.
func WithForkedTrace(ctx context.Context, name string) (context.Context, Context) {
	cur := Current(ctx)
	tracer := cur.TestTracer
	if tracer == nil {
		tracer = globalTracer
	}
	if tracer == nil {
		return ctx, cur
	}
	next, sp := tracer.ForkTrace(ctx, name)
	out := Context{Log: cur.Log, Span: sp, TestTracer: cur.TestTracer}
	return out.Scope(next), out
}

// WithForkedLog returns a derived context and Context carrying a forked
// logger (spec.md §4.2 with_forked_log): later AddFields/SetVerbosity calls
// on the fork never affect the original handle.
func WithForkedLog(ctx context.Context) (context.Context, Context) {
	cur := Current(ctx)
	if cur.Log == nil {
		return ctx, cur
	}
	out := Context{Log: cur.Log.Fork(), Span: cur.Span, TestTracer: cur.TestTracer}
	return out.Scope(ctx), out
}
