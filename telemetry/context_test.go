package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthwatch/telemetry/testharness"
)

func TestCurrentEmptyContextIsZeroValue(t *testing.T) {
	got := Current(context.Background())
	assert.Nil(t, got.Log)
	assert.Nil(t, got.Span)
}

func TestScopeThenCurrentRoundTrips(t *testing.T) {
	h := testharness.New()
	c := Context{Log: h.Log, TestTracer: h.Tracer}
	ctx := c.Scope(context.Background())

	got := Current(ctx)
	assert.Same(t, h.Log, got.Log)
	assert.Same(t, h.Tracer, got.TestTracer)
}

func TestWithForkedTraceStartsNewSpanUsingTestTracer(t *testing.T) {
	h := testharness.New()
	c := Context{Log: h.Log, TestTracer: h.Tracer}
	ctx := c.Scope(context.Background())

	next, forked := WithForkedTrace(ctx, "op")
	require.NotNil(t, forked.Span)
	forked.Span.End()

	got := Current(next)
	assert.Same(t, forked.Span, got.Span)
}

func TestWithForkedLogIsolatesMutations(t *testing.T) {
	h := testharness.New()
	c := Context{Log: h.Log}
	ctx := c.Scope(context.Background())

	_, forked := WithForkedLog(ctx)
	forked.Log.SetVerbosity(0)

	assert.NotEqual(t, h.Log.Generation(), forked.Log.Generation())
}
