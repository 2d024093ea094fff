package logging

import (
	"sync"
	"testing"

	"github.com/hearthwatch/telemetry/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSink collects every record it receives, guarded by a mutex since the
// dispatcher delivers from a background goroutine.
type memSink struct {
	mu   sync.Mutex
	recs []Record
}

func (m *memSink) Write(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memSink) snapshot() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.recs...)
}

func newTestHandle(t *testing.T, settings config.LoggingSettings) (*Handle, *memSink) {
	t.Helper()
	sink := &memSink{}
	h := NewHandle(settings, sink, nil)
	t.Cleanup(h.Close)
	return h, sink
}

// Mirrors spec.md §8 scenario 1: a field attached twice, with the later
// value expected to win, and the per-record field ordered ahead of context.
func TestLogDedupKeepsNewestValue(t *testing.T) {
	h, sink := newTestHandle(t, config.LoggingSettings{Verbosity: LevelTrace})
	h.AddFields(F("request_id", "r1"))
	h.AddFields(F("request_id", "r2"))
	h.Log(LevelInfo, "handled", F("status", "ok"))
	h.Close()

	recs := sink.snapshot()
	require.Len(t, recs, 1)
	fieldMap := toMap(recs[0].Fields)
	assert.Equal(t, "r2", fieldMap["request_id"])
	assert.Equal(t, "ok", fieldMap["status"])
}

// Mirrors spec.md §8 scenario 2: redaction runs before dedup, so a redacted
// key never resurfaces through either the record fields or the logger's
// context fields.
func TestLogRedactionRunsBeforeDedup(t *testing.T) {
	h, sink := newTestHandle(t, config.LoggingSettings{
		Verbosity:  LevelTrace,
		RedactKeys: []string{"password"},
	})
	h.AddFields(F("password", "hunter2"))
	h.Log(LevelInfo, "login", F("password", "hunter3"), F("user", "ada"))
	h.Close()

	recs := sink.snapshot()
	require.Len(t, recs, 1)
	fieldMap := toMap(recs[0].Fields)
	_, present := fieldMap["password"]
	assert.False(t, present)
	assert.Equal(t, "ada", fieldMap["user"])
}

func TestLogLevelFilterDropsBelowVerbosity(t *testing.T) {
	h, sink := newTestHandle(t, config.LoggingSettings{Verbosity: LevelWarning})
	h.Log(LevelInfo, "too quiet")
	h.Log(LevelError, "loud enough")
	h.Close()

	recs := sink.snapshot()
	require.Len(t, recs, 1)
	assert.Equal(t, "loud enough", recs[0].Message)
}

func TestAddFieldsGenerationPanicsPastMax(t *testing.T) {
	h, _ := newTestHandle(t, config.LoggingSettings{Verbosity: LevelTrace})
	for i := 0; i < MaxGeneration; i++ {
		h.AddFields(F("i", i))
	}
	assert.Panics(t, func() {
		h.AddFields(F("one_too_many", true))
	})
}

func TestForkMutatesIndependently(t *testing.T) {
	h, sink := newTestHandle(t, config.LoggingSettings{Verbosity: LevelTrace})
	h.AddFields(F("base", "1"))
	fork := h.Fork()
	fork.AddFields(F("fork_only", "x"))
	h.Log(LevelInfo, "parent")
	fork.Log(LevelInfo, "child")
	h.Close()
	fork.Close()

	recs := sink.snapshot()
	require.Len(t, recs, 2)
	parentFields := toMap(recs[0].Fields)
	childFields := toMap(recs[1].Fields)
	_, parentHasForkField := parentFields["fork_only"]
	assert.False(t, parentHasForkField)
	assert.Equal(t, "x", childFields["fork_only"])
	assert.Equal(t, "1", childFields["base"])
}

func toMap(fields []Field) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}
