package tracing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbabilisticSamplerRespectsCap(t *testing.T) {
	s := NewProbabilisticSampler(1.0, 2)
	clock := time.Now()
	s.now = func() time.Time { return clock }
	s.randFn = func() float64 { return 0 } // always passes the ratio check

	assert.True(t, s.Sample())
	assert.True(t, s.Sample())
	assert.False(t, s.Sample(), "cap exhausted")

	clock = clock.Add(time.Second)
	assert.True(t, s.Sample(), "bucket refills")
}

func TestProbabilisticSamplerZeroRatioNeverSamples(t *testing.T) {
	s := NewProbabilisticSampler(0, 0)
	assert.False(t, s.Sample())
}

func TestPassiveSamplerNeverSamples(t *testing.T) {
	assert.False(t, PassiveSampler{}.Sample())
}
