package traceexport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jaegerthrift "github.com/uber/jaeger-client-go/thrift-gen/jaeger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hearthwatch/telemetry/tracing"
)

func TestToThriftSpanCarriesCoreFields(t *testing.T) {
	fs := tracing.FinishedSpan{
		Name:    "handle-request",
		Sampled: true,
		Start:   time.Unix(1000, 0),
		Finish:  time.Unix(1001, 0),
		Tags:    []attribute.KeyValue{attribute.String("route", "/orders")},
		LogFields: []tracing.LogField{
			{Key: "note", Value: "retried"},
		},
	}
	fs.TraceID[15] = 1
	fs.SpanID[7] = 2

	sp := toThriftSpan(fs)
	assert.Equal(t, "handle-request", sp.OperationName)
	assert.EqualValues(t, 1, sp.Flags)
	assert.EqualValues(t, 1_000_000, sp.Duration)
	require.Len(t, sp.Tags, 1)
	assert.Equal(t, "route", sp.Tags[0].Key)
	require.Len(t, sp.Logs, 1)
}

func TestSerializeBatchProducesNonEmptyBytes(t *testing.T) {
	fs := tracing.FinishedSpan{Name: "s", Start: time.Unix(0, 0), Finish: time.Unix(0, 0)}
	sp := toThriftSpan(fs)
	batch := &jaegerthrift.Batch{Process: &jaegerthrift.Process{ServiceName: "svc"}, Spans: []*jaegerthrift.Span{sp}}
	encoded, err := serializeBatch(batch)
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
}
