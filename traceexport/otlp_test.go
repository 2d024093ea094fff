package traceexport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hearthwatch/telemetry/tracing"
)

func TestToOTLPSpanCarriesAttributesAndEvents(t *testing.T) {
	fs := tracing.FinishedSpan{
		Name:   "fetch-order",
		Start:  time.Unix(10, 0),
		Finish: time.Unix(11, 0),
		Tags:   []attribute.KeyValue{attribute.String("order_id", "abc")},
		LogFields: []tracing.LogField{
			{Key: "cache", Value: "miss"},
		},
	}
	sp := toOTLPSpan(fs)
	assert.Equal(t, "fetch-order", sp.Name)
	require.Len(t, sp.Attributes, 1)
	assert.Equal(t, "order_id", sp.Attributes[0].Key)
	require.Len(t, sp.Events, 1)
	assert.Equal(t, "cache", sp.Events[0].Name)
}

func TestTraceIDHalvesSplitsBigEndian(t *testing.T) {
	var id [16]byte
	id[7] = 1  // lowest-order byte of high half
	id[15] = 2 // lowest-order byte of low half
	high, low := traceIDHalves(id)
	assert.EqualValues(t, 1, high)
	assert.EqualValues(t, 2, low)
}
