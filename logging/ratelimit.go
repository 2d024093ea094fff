package logging

import (
	"sync"
	"time"
)

// tokenBucket is a small hand-rolled limiter: no third-party rate limiter is
// imported anywhere in the reference pack's non-crawler code, so this stays
// on the standard library per DESIGN.md's justification for that choice.
type tokenBucket struct {
	mu         sync.Mutex
	rate       float64 // tokens per second
	burst      float64
	tokens     float64
	last       time.Time
	now        func() time.Time
	onDropFunc func()
}

func newTokenBucket(ratePerSecond float64, burst int) *tokenBucket {
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{
		rate:   ratePerSecond,
		burst:  float64(burst),
		tokens: float64(burst),
		now:    time.Now,
	}
}

// allow reports whether a record may proceed, consuming one token if so.
func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if b.last.IsZero() {
		b.last = now
	}
	elapsed := now.Sub(b.last).Seconds()
	b.last = now
	b.tokens += elapsed * b.rate
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	if b.tokens < 1 {
		if b.onDropFunc != nil {
			b.onDropFunc()
		}
		return false
	}
	b.tokens--
	return true
}
