package tracing

import (
	"encoding/hex"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// TraceState is the serializable {trace_id, span_id, parent, sampled-flag} set
// used to stitch a trace across a process boundary (spec.md §4.3 "Trace
// State"). It encodes to the Jaeger convention
// "<trace_id>:<span_id>:<parent>:<flags>".
type TraceState struct {
	TraceID      trace.TraceID
	SpanID       trace.SpanID
	ParentSpanID trace.SpanID
	Sampled      bool
}

const sampledFlag = 0x1

// Encode renders the Jaeger-compatible stitch string.
func (s TraceState) Encode() string {
	flags := 0
	if s.Sampled {
		flags = sampledFlag
	}
	return fmt.Sprintf("%s:%s:%s:%x", hex.EncodeToString(s.TraceID[:]), hex.EncodeToString(s.SpanID[:]), hex.EncodeToString(s.ParentSpanID[:]), flags)
}

// DecodeTraceState parses a stitch string produced by Encode. The string
// must have all four fields; an empty parent segment decodes to the zero
// SpanID (root with no parent).
func DecodeTraceState(s string) (TraceState, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return TraceState{}, fmt.Errorf("tracing: malformed trace state %q: want 4 colon-separated fields", s)
	}
	var out TraceState
	traceBytes, err := hex.DecodeString(parts[0])
	if err != nil || len(traceBytes) != len(out.TraceID) {
		return TraceState{}, fmt.Errorf("tracing: malformed trace_id %q", parts[0])
	}
	copy(out.TraceID[:], traceBytes)

	spanBytes, err := hex.DecodeString(parts[1])
	if err != nil || len(spanBytes) != len(out.SpanID) {
		return TraceState{}, fmt.Errorf("tracing: malformed span_id %q", parts[1])
	}
	copy(out.SpanID[:], spanBytes)

	if parts[2] != "" {
		parentBytes, err := hex.DecodeString(parts[2])
		if err != nil || len(parentBytes) != len(out.ParentSpanID) {
			return TraceState{}, fmt.Errorf("tracing: malformed parent span id %q", parts[2])
		}
		copy(out.ParentSpanID[:], parentBytes)
	}

	var flags int64
	if _, err := fmt.Sscanf(parts[3], "%x", &flags); err != nil {
		return TraceState{}, fmt.Errorf("tracing: malformed flags %q", parts[3])
	}
	out.Sampled = flags&sampledFlag != 0
	return out, nil
}
