package logging

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogHandler adapts a Handle to slog.Handler, so libraries that log through
// log/slog (the ambient logging interface most of the surrounding Go
// ecosystem expects) land in the same pipeline as native Handle.Log calls.
type SlogHandler struct {
	handle *Handle
	fields []Field
}

// NewSlogHandler wraps h for use as a slog.Handler.
func NewSlogHandler(h *Handle) *SlogHandler { return &SlogHandler{handle: h} }

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	snap := h.handle.snapshot()
	return fromSlogLevel(level) <= snap.verbosity
}

func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]Field, 0, len(h.fields)+r.NumAttrs())
	fields = append(fields, h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, F(a.Key, a.Value.String()))
		return true
	})
	h.handle.Log(fromSlogLevel(r.Level), r.Message, fields...)
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &SlogHandler{handle: h.handle, fields: append([]Field(nil), h.fields...)}
	for _, a := range attrs {
		next.fields = append(next.fields, F(a.Key, a.Value.String()))
	}
	return next
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	// Groups have no natural analogue in the flat Field model; the group
	// name is kept as a separate "group" field instead of being dropped.
	// Attribute keys themselves are not prefixed with it.
	next := &SlogHandler{handle: h.handle, fields: append([]Field(nil), h.fields...)}
	next.fields = append(next.fields, F("group", name))
	return next
}

func fromSlogLevel(level slog.Level) Level {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarning
	case level >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// fieldFromAny builds a Field from a non-string value by rendering it with
// fmt.Sprint before handing it to F.
func fieldFromAny(key string, v interface{}) Field { return F(key, fmt.Sprint(v)) }
