package logging

import (
	"context"
	"log/slog"
	"strings"

	"subgen/internal/events"
)

// EventHandler forwards log records to the parent-facing event stream. Only
// the message travels; attributes stay on the diagnostic sink. Records below
// INFO are dropped.
type EventHandler struct {
	stream *events.Writer
}

// NewEventHandler returns a handler writing "log" events to stream.
func NewEventHandler(stream *events.Writer) *EventHandler {
	return &EventHandler{stream: stream}
}

func (h *EventHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h != nil && h.stream != nil && level >= slog.LevelInfo
}

func (h *EventHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.Enabled(ctx, record.Level) {
		return nil
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		return nil
	}
	return h.stream.Log(EventLevel(record.Level), msg)
}

func (h *EventHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *EventHandler) WithGroup(string) slog.Handler { return h }

// EventLevel maps a slog level onto the stream's level vocabulary.
func EventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return events.LevelError
	case level >= slog.LevelWarn:
		return events.LevelWarning
	default:
		return events.LevelInfo
	}
}
