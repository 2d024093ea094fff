// Package logging implements the structured-logging pipeline (spec.md C3):
// field filtering (redaction, dedup), level filtering, rate limiting, async
// dispatch, and pluggable sinks.
package logging

import (
	"fmt"

	"github.com/hearthwatch/telemetry/config"
)

// Level is re-exported so callers don't need to import config directly for
// the common case of choosing a verbosity.
type Level = config.LogLevel

const (
	LevelCritical = config.LevelCritical
	LevelError    = config.LevelError
	LevelWarning  = config.LevelWarning
	LevelInfo     = config.LevelInfo
	LevelDebug    = config.LevelDebug
	LevelTrace    = config.LevelTrace
)

// Field is a single (key, rendered-value) pair. Values are rendered to
// string at attach/emit time so sinks never need to know about arbitrary
// caller types.
type Field struct {
	Key   string
	Value string
}

// F builds a Field from any value using fmt's default verb, the same
// renders-everything-to-text posture the teacher's slog wrapper relies on
// (slog.String/slog.Int etc. all ultimately stringify for the text sink).
func F(key string, value interface{}) Field {
	if s, ok := value.(string); ok {
		return Field{Key: key, Value: s}
	}
	return Field{Key: key, Value: fmt.Sprint(value)}
}

// Record is a single emitted log line after field assembly but before
// rendering to a sink's wire format.
type Record struct {
	Level   Level
	Message string
	Fields  []Field // already filtered (redacted + deduped), newest-first within ties
}
