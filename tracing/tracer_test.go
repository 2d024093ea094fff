package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alwaysSample is a test Sampler that samples every root.
type alwaysSample struct{}

func (alwaysSample) Sample() bool { return true }

func TestSpanCreatesChildOfCurrent(t *testing.T) {
	tr := NewTracer(alwaysSample{}, 8, nil, false)
	ctx, root := tr.Span(context.Background(), "root")
	require.True(t, root.IsSampled())

	_, child := tr.Span(ctx, "child")
	require.True(t, child.IsSampled())
	assert.Equal(t, root.TraceID(), child.TraceID())
	assert.Equal(t, root.Span().SpanID, child.Span().ParentSpanID)
}

func TestStartTraceAlwaysCreatesNewRoot(t *testing.T) {
	tr := NewTracer(alwaysSample{}, 8, nil, false)
	ctx, first := tr.Span(context.Background(), "first")
	_, second := tr.StartTrace(ctx, "second", TraceOptions{})
	assert.NotEqual(t, first.TraceID(), second.TraceID())
}

func TestStartTraceLinksReferenceChildWhenCurrentSampled(t *testing.T) {
	tr := NewTracer(alwaysSample{}, 8, nil, false)
	ctx, current := tr.Span(context.Background(), "current")
	_, newRoot := tr.StartTrace(ctx, "forked", TraceOptions{})

	found := false
	var forkOf string
	for _, tag := range newRoot.Span().Tags {
		if string(tag.Key) == "fork_of_span_id" {
			found = true
			forkOf = tag.Value.AsString()
		}
	}
	assert.True(t, found)
	assert.NotEmpty(t, forkOf)
	_ = current
}

func TestForkTraceYieldsInactiveWhenCurrentUnsampled(t *testing.T) {
	tr := NewTracer(PassiveSampler{}, 8, nil, false)
	ctx, current := tr.Span(context.Background(), "root")
	require.False(t, current.IsSampled())

	_, fork := tr.ForkTrace(ctx, "fork")
	assert.False(t, fork.IsSampled())
	// Mutations are no-ops and End is safe to call even though the span
	// was never tracked or enqueued.
	fork.AddTags()
	fork.End()
}

func TestEndEnqueuesSampledSpanOnly(t *testing.T) {
	tr := NewTracer(alwaysSample{}, 8, nil, false)
	_, sampled := tr.Span(context.Background(), "sampled")
	sampled.End()

	select {
	case fs := <-tr.Finished():
		assert.Equal(t, "sampled", fs.Name)
	default:
		t.Fatal("expected a finished span on the channel")
	}

	tr2 := NewTracer(PassiveSampler{}, 8, nil, false)
	_, unsampled := tr2.Span(context.Background(), "quiet")
	unsampled.End()
	select {
	case <-tr2.Finished():
		t.Fatal("unsampled span should not be exported")
	default:
	}
}

func TestTraceStateRoundTrip(t *testing.T) {
	tr := NewTracer(alwaysSample{}, 8, nil, false)
	_, root := tr.Span(context.Background(), "root")
	state := root.StateForTraceStitching()
	encoded := state.Encode()
	decoded, err := DecodeTraceState(encoded)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestStitchWithTraceUsesProvidedIDs(t *testing.T) {
	tr := NewTracer(PassiveSampler{}, 8, nil, false)
	_, upstream := tr.Span(context.Background(), "upstream-leaf")
	upstream.End()
	state := upstream.StateForTraceStitching()
	state.Sampled = true

	_, stitched := tr.StartTrace(context.Background(), "downstream-root", TraceOptions{StitchWithTrace: &state})
	assert.Equal(t, state.TraceID, stitched.TraceID())
	assert.Equal(t, state.SpanID, stitched.Span().ParentSpanID)
	assert.True(t, stitched.IsSampled())
}

func TestAddTagsNoOpWhenUnsampled(t *testing.T) {
	tr := NewTracer(PassiveSampler{}, 8, nil, false)
	_, sp := tr.Span(context.Background(), "quiet")
	sp.AddTags()
	assert.Empty(t, sp.Span().Tags)
}
