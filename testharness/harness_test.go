package testharness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthwatch/telemetry/logging"
)

func TestLogRecordsCapturesEmittedFields(t *testing.T) {
	h := New()
	h.Log.Info("hello", logging.F("k", "v"))

	recs := h.LogRecords()
	require.Len(t, recs, 1)
	assert.Equal(t, "hello", recs[0].Message)
	assert.Equal(t, "v", recs[0].Fields["k"])
}

func TestTracesReconstructsParentChild(t *testing.T) {
	h := New()
	ctx, root := h.Tracer.Span(context.Background(), "root")
	_, child := h.Tracer.Span(ctx, "child")
	child.End()
	root.End()

	traces := h.Traces(TracesOptions{})
	require.Len(t, traces, 1)
	assert.Equal(t, "root", traces[0].Root.Name)
	require.Len(t, traces[0].Children, 1)
	assert.Equal(t, "child", traces[0].Children[0].Name)
}

func TestTracesReturnsEmptyWhenNothingFinished(t *testing.T) {
	h := New()
	assert.Empty(t, h.Traces(TracesOptions{}))
}
