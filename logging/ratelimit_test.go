package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllowsBurstThenLimits(t *testing.T) {
	b := newTokenBucket(1, 2)
	clock := time.Now()
	b.now = func() time.Time { return clock }

	assert.True(t, b.allow())
	assert.True(t, b.allow())
	assert.False(t, b.allow(), "burst exhausted")

	clock = clock.Add(time.Second)
	assert.True(t, b.allow(), "one token regenerated after a second")
}

func TestTokenBucketTracksDrops(t *testing.T) {
	b := newTokenBucket(0, 1)
	var dropped int
	b.onDropFunc = func() { dropped++ }
	assert.True(t, b.allow())
	assert.False(t, b.allow())
	assert.Equal(t, 1, dropped)
}
