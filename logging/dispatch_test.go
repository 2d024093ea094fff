package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := &memSink{}
	d := newDispatcher(sink)
	for i := 0; i < 5; i++ {
		d.push(Record{Message: "m", Fields: []Field{F("i", i)}})
	}
	d.Close()

	recs := sink.snapshot()
	require.Len(t, recs, 5)
	for i, rec := range recs {
		assert.Equal(t, F("i", i), rec.Fields[0])
	}
}

// blockingSink never returns, standing in for a slow consumer so push() is
// forced down the evict-oldest path instead of the fast channel-send path.
type blockingSink struct{ block chan struct{} }

func (b *blockingSink) Write(Record) error {
	<-b.block
	return nil
}

func TestDispatcherEvictsOldestWhenFull(t *testing.T) {
	sink := &blockingSink{block: make(chan struct{})}
	d := newDispatcher(sink)

	// Fill the channel well past capacity; the worker is stuck on its first
	// Write call, so every record after the first sits in the channel.
	for i := 0; i < dispatchCapacity+10; i++ {
		d.push(Record{Message: "m"})
	}
	assert.Greater(t, d.DroppedCount(), uint64(0))
	close(sink.block)
	d.Close()
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	sink := &memSink{}
	d := newDispatcher(sink)
	d.push(Record{Message: "only"})
	d.Close()
	recs := sink.snapshot()
	require.Len(t, recs, 1)
	assert.Equal(t, "only", recs[0].Message)
}
