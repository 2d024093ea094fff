package logging

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hearthwatch/telemetry/config"
)

// MaxGeneration bounds how many times a single Handle may be mutated via
// AddFields/SetVerbosity before it is considered a programming error (an
// unbounded wrapper stack accidentally built in a loop). Spec.md §3.
const MaxGeneration = 1000

// RecordCounter is the minimal hook the metrics registry wires in to back
// log_records_total{level} (spec.md §4.3). Kept as a narrow interface here
// so this package never imports metrics.
type RecordCounter interface {
	IncLevel(level Level)
}

type innerLogger struct {
	contextFields []Field // newest-first
	verbosity     Level
	redact        redactSet
}

// Handle is the shared, mutably-replaceable logger handle of spec.md §3.
// Mutating operations replace the inner logger with a child and bump the
// generation counter; in-flight records built from a prior inner snapshot
// are never affected (spec.md §4.3 invariant).
type Handle struct {
	mu         sync.RWMutex
	inner      *innerLogger
	generation atomic.Uint32

	dispatch  *dispatcher
	rateLimit *tokenBucket
	counter   RecordCounter
}

// NewHandle constructs a root Handle wired to sink via a fresh async
// dispatcher, honoring settings for verbosity, redaction, and rate limiting.
func NewHandle(settings config.LoggingSettings, sink Sink, counter RecordCounter) *Handle {
	h := &Handle{
		inner: &innerLogger{
			verbosity: settings.Verbosity,
			redact:    newRedactSet(settings.RedactKeys),
		},
		dispatch: newDispatcher(sink),
		counter:  counter,
	}
	if settings.RateLimit.Enabled {
		h.rateLimit = newTokenBucket(settings.RateLimit.EventsPerSecond, settings.RateLimit.Burst)
	}
	return h
}

func (h *Handle) snapshot() *innerLogger {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.inner
}

func (h *Handle) bumpGeneration() {
	g := h.generation.Add(1)
	if g > MaxGeneration {
		panic(fmt.Sprintf("logging: handle exceeded MAX_GENERATION (%d); this is a programming error, likely add_fields!/set_verbosity called in an unbounded loop", MaxGeneration))
	}
}

// AddFields attaches fields to the current logger, replacing the inner
// logger with a child that has them prepended (newest-first) ahead of any
// fields already attached. Redacted keys are stripped immediately so later
// dedup never has to consider them.
func (h *Handle) AddFields(fields ...Field) {
	if len(fields) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := filterRedact(fields, h.inner.redact)
	next := &innerLogger{
		verbosity: h.inner.verbosity,
		redact:    h.inner.redact,
	}
	// newest-first: the fields just added go in front, reversed to
	// preserve "most recently added" meaning when a single call supplies
	// more than one field.
	next.contextFields = make([]Field, 0, len(kept)+len(h.inner.contextFields))
	for i := len(kept) - 1; i >= 0; i-- {
		next.contextFields = append(next.contextFields, kept[i])
	}
	next.contextFields = append(next.contextFields, h.inner.contextFields...)
	h.inner = next
	h.bumpGeneration()
}

// SetVerbosity replaces the current logger with one filtered at level,
// preserving its accumulated fields.
func (h *Handle) SetVerbosity(level Level) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := &innerLogger{
		contextFields: h.inner.contextFields,
		redact:        h.inner.redact,
		verbosity:     level,
	}
	h.inner = next
	h.bumpGeneration()
}

// Fork returns a new Handle that inherits the current context fields,
// verbosity, and redaction set, but mutates independently: later
// AddFields/SetVerbosity calls on the fork never affect this Handle, and
// vice versa (spec.md §4.2 with_forked_log). The fork shares this Handle's
// sink/dispatcher and rate limiter so output still lands in one place.
func (h *Handle) Fork() *Handle {
	snap := h.snapshot()
	fork := &Handle{
		inner: &innerLogger{
			contextFields: append([]Field(nil), snap.contextFields...),
			verbosity:     snap.verbosity,
			redact:        snap.redact,
		},
		dispatch:  h.dispatch,
		rateLimit: h.rateLimit,
		counter:   h.counter,
	}
	return fork
}

// Log builds a record, runs it through the filter/rate-limit pipeline, and
// (if it survives) hands it to the async dispatcher.
func (h *Handle) Log(level Level, msg string, fields ...Field) {
	if h.counter != nil {
		h.counter.IncLevel(level)
	}
	snap := h.snapshot()
	if level > snap.verbosity {
		return // level filter: below-verbosity records dropped before any formatting work
	}
	if h.rateLimit != nil && !h.rateLimit.allow() {
		return
	}
	recordFields := filterRedact(fields, snap.redact)
	merged := mergeDedup(recordFields, snap.contextFields)
	h.dispatch.push(Record{Level: level, Message: msg, Fields: merged})
}

func (h *Handle) Critical(msg string, fields ...Field) { h.Log(LevelCritical, msg, fields...) }
func (h *Handle) Error(msg string, fields ...Field)    { h.Log(LevelError, msg, fields...) }
func (h *Handle) Warn(msg string, fields ...Field)     { h.Log(LevelWarning, msg, fields...) }
func (h *Handle) Info(msg string, fields ...Field)     { h.Log(LevelInfo, msg, fields...) }
func (h *Handle) Debug(msg string, fields ...Field)    { h.Log(LevelDebug, msg, fields...) }
func (h *Handle) Trace(msg string, fields ...Field)    { h.Log(LevelTrace, msg, fields...) }

// Generation returns the current mutation count, mostly for tests.
func (h *Handle) Generation() uint32 { return h.generation.Load() }

// Close stops the background dispatcher, draining whatever is queued.
func (h *Handle) Close() { h.dispatch.Close() }

// DroppedCount exposes the async-dispatch drop-oldest counter.
func (h *Handle) DroppedCount() uint64 { return h.dispatch.DroppedCount() }
