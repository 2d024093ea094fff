package tracing

import (
	"math/rand"
	"sync"
	"time"
)

// Sampler decides, once per root span, whether that root is sampled.
type Sampler interface {
	Sample() bool
}

// PassiveSampler never proactively samples; under it a root is sampled only
// when StartTrace is given an override ratio of 1.0 (fork_trace, or a
// caller-forced StartTrace) or a stitched TraceState whose sampled flag is
// set. Grounds spec.md's "passive" sampling strategy kind.
type PassiveSampler struct{}

func (PassiveSampler) Sample() bool { return false }

// ProbabilisticSampler samples with probability Ratio, additionally capped
// by a token-bucket so sampled-per-second never exceeds CapPerSecond even
// if Ratio alone would allow more. Sampled-root quotas are not refunded
// when a span later finishes (spec.md §4.4).
type ProbabilisticSampler struct {
	Ratio float64

	mu      sync.Mutex
	tokens  float64
	cap     float64
	ratePerSecond float64
	last    time.Time
	now     func() time.Time
	randFn  func() float64
}

// NewProbabilisticSampler builds a sampler with ratio in [0,1] and an
// optional per-second cap (0 disables the cap).
func NewProbabilisticSampler(ratio float64, capPerSecond float64) *ProbabilisticSampler {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	s := &ProbabilisticSampler{
		Ratio:  ratio,
		now:    time.Now,
		randFn: rand.Float64,
	}
	if capPerSecond > 0 {
		s.cap = capPerSecond
		s.ratePerSecond = capPerSecond
		s.tokens = capPerSecond
	}
	return s
}

func (s *ProbabilisticSampler) Sample() bool {
	if s.Ratio <= 0 {
		return false
	}
	if s.randFn() >= s.Ratio {
		return false
	}
	if s.cap <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.last.IsZero() {
		s.last = now
	}
	elapsed := now.Sub(s.last).Seconds()
	s.last = now
	s.tokens += elapsed * s.ratePerSecond
	if s.tokens > s.cap {
		s.tokens = s.cap
	}
	if s.tokens < 1 {
		return false
	}
	s.tokens--
	return true
}
