// Package testharness implements the deterministic in-memory telemetry
// context tests run against (spec.md C11 / §4.11): a memory-backed log
// sink, an in-memory tracer whose finished spans are captured rather than
// exported, and helpers to assert against both.
package testharness

import (
	"sort"
	"sync"

	"github.com/hearthwatch/telemetry/config"
	"github.com/hearthwatch/telemetry/logging"
	"github.com/hearthwatch/telemetry/tracing"
)

// memSink captures every record handed to it instead of rendering it
// anywhere, so assertions can inspect exactly what a test produced.
type memSink struct {
	mu      sync.Mutex
	records []logging.Record
}

func (s *memSink) Write(rec logging.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memSink) snapshot() []logging.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]logging.Record(nil), s.records...)
}

// memLiveTracker is a no-op tracing.LiveTracker: the harness never needs
// the live trace registry, only the finished-span channel below.
type memLiveTracker struct{}

func (memLiveTracker) Track(*tracing.Span) func() { return func() {} }

// TestLogRecord is log_records()'s per-entry shape: a flattened view of a
// logging.Record, convenient for assert.Contains-style checks.
type TestLogRecord struct {
	Level   logging.Level
	Message string
	Fields  map[string]string
}

// TestTrace is one reconstructed root span plus its descendants, built by
// Traces.
type TestTrace struct {
	Root     tracing.FinishedSpan
	Children []tracing.FinishedSpan
}

// TracesOptions configures Traces(); currently empty but kept as a typed
// parameter so future filters (by name, by sampled-only) don't need a
// signature change.
type TracesOptions struct{}

// Context is the isolated telemetry pair a test runs against: an in-memory
// log drain and an in-memory tracer. It holds no scope stack of its own; a
// test pushes Log and Tracer onto its context before exercising code under
// test.
type Context struct {
	Log    *logging.Handle
	Tracer *tracing.Tracer

	sink *memSink
}

// New builds a fresh, isolated Context: nothing written through it ever
// reaches a real sink or a real exporter.
func New() *Context {
	sink := &memSink{}
	log := logging.NewHandle(config.LoggingSettings{Verbosity: config.LevelTrace}, sink, nil)
	tracer := tracing.NewTracer(alwaysSampler{}, 1024, memLiveTracker{}, true)
	return &Context{Log: log, Tracer: tracer, sink: sink}
}

type alwaysSampler struct{}

func (alwaysSampler) Sample() bool { return true }

// LogRecords returns a snapshot of every record emitted through c.Log so
// far, flattened for easy assertions.
func (c *Context) LogRecords() []TestLogRecord {
	raw := c.sink.snapshot()
	out := make([]TestLogRecord, 0, len(raw))
	for _, r := range raw {
		fields := make(map[string]string, len(r.Fields))
		for _, f := range r.Fields {
			if _, exists := fields[f.Key]; !exists {
				fields[f.Key] = f.Value
			}
		}
		out = append(out, TestLogRecord{Level: r.Level, Message: r.Message, Fields: fields})
	}
	return out
}

// Traces drains every finished span pushed so far (non-blocking) and
// reconstructs the span forest: spans are sorted by start time, then
// grouped under their root (a span whose ParentSpanID is zero or whose
// parent isn't present in this batch).
func (c *Context) Traces(opts TracesOptions) []TestTrace {
	var spans []tracing.FinishedSpan
	for {
		select {
		case sp, ok := <-c.Tracer.Finished():
			if !ok {
				return buildTraceForest(spans)
			}
			spans = append(spans, sp)
		default:
			return buildTraceForest(spans)
		}
	}
}

func buildTraceForest(spans []tracing.FinishedSpan) []TestTrace {
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start.Before(spans[j].Start) })

	bySpanID := make(map[string]int, len(spans))
	for i, sp := range spans {
		bySpanID[sp.SpanID.String()] = i
	}

	var roots []TestTrace
	rootIndex := make(map[string]int)
	for _, sp := range spans {
		if _, isChild := bySpanID[sp.ParentSpanID.String()]; isChild && sp.ParentSpanID.IsValid() {
			continue
		}
		rootIndex[sp.SpanID.String()] = len(roots)
		roots = append(roots, TestTrace{Root: sp})
	}
	for _, sp := range spans {
		parentIdx, isChild := bySpanID[sp.ParentSpanID.String()]
		if !isChild || !sp.ParentSpanID.IsValid() {
			continue
		}
		parent := spans[parentIdx]
		if ri, ok := rootIndex[parent.SpanID.String()]; ok {
			roots[ri].Children = append(roots[ri].Children, sp)
			continue
		}
		// parent is itself a non-root we've already attached somewhere;
		// walk up to the trace's root by TraceID match.
		for i := range roots {
			if roots[i].Root.TraceID == sp.TraceID {
				roots[i].Children = append(roots[i].Children, sp)
				break
			}
		}
	}
	return roots
}
