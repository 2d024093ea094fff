package livetrace

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthwatch/telemetry/tracing"
)

type alwaysSample struct{}

func (alwaysSample) Sample() bool { return true }

func TestTrackUntrackRemovesSlot(t *testing.T) {
	reg := NewRegistry(false)
	tr := tracing.NewTracer(alwaysSample{}, 4, reg, false)
	_, scope := tr.Span(context.Background(), "root")
	require.Equal(t, 1, reg.Len())

	scope.End()
	assert.Equal(t, 0, reg.Len())
}

func TestGetLiveReferencesReportsOpenSpans(t *testing.T) {
	reg := NewRegistry(false)
	tr := tracing.NewTracer(alwaysSample{}, 4, reg, false)
	_, scope := tr.Span(context.Background(), "root")
	defer scope.End()

	refs := reg.GetLiveReferences()
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Open)
	assert.Equal(t, "root", refs[0].Name)
}

func TestDumpJSONEmitsBeginEndAndMarker(t *testing.T) {
	reg := NewRegistry(false)
	tr := tracing.NewTracer(alwaysSample{}, 4, reg, false)
	_, scope := tr.Span(context.Background(), "root")
	defer scope.End()

	out, err := reg.DumpJSON(time.Now())
	require.NoError(t, err)

	var events []traceEvent
	require.NoError(t, json.Unmarshal(out, &events))
	require.Len(t, events, 3)
	assert.Equal(t, "B", events[0].Ph)
	assert.Equal(t, "E", events[1].Ph)
	assert.Equal(t, "Trace dump requested", events[2].Name)
	assert.Equal(t, "i", events[2].Ph)
}
