// Package tracing implements the trace engine (spec.md C4): span creation,
// parent/child linkage, sampling, trace forking, and cross-process stitching.
package tracing

import (
	crand "crypto/rand"

	"go.opentelemetry.io/otel/trace"
)

// newTraceID generates a 128-bit trace identifier using otel's own ID type,
// the same type the teacher's otel metrics bridge already depends on
// (telemetry/metrics/otel_provider.go), so downstream OTLP export never
// needs to re-derive or re-encode trace identity.
func newTraceID() trace.TraceID {
	var id trace.TraceID
	for {
		_, _ = crand.Read(id[:])
		if id.IsValid() {
			return id
		}
	}
}

// newSpanID generates a 64-bit span identifier.
func newSpanID() trace.SpanID {
	var id trace.SpanID
	for {
		_, _ = crand.Read(id[:])
		if id.IsValid() {
			return id
		}
	}
}
