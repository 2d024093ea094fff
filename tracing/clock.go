package tracing

import (
	"math/rand"
	"time"
)

// timeNow and randFloat are indirected through vars so tests can make
// sampling and timestamps deterministic without touching Tracer's public
// surface.
var timeNow = time.Now
var randFloat = rand.Float64
