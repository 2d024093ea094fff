package traceexport

import (
	"encoding/binary"

	"go.opentelemetry.io/otel/trace"
)

// traceIDHalves splits a 128-bit trace ID into its high/low 64-bit halves,
// the representation Jaeger's Thrift schema uses (spec.md §4.5.2 mirrors
// this split for OTLP's own 128-bit encoding).
func traceIDHalves(id trace.TraceID) (high, low int64) {
	high = int64(binary.BigEndian.Uint64(id[0:8]))
	low = int64(binary.BigEndian.Uint64(id[8:16]))
	return
}

func spanIDToInt64(id trace.SpanID) int64 {
	return int64(binary.BigEndian.Uint64(id[:]))
}
