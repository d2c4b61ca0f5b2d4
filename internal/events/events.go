package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Log levels understood by stream consumers.
const (
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// Event type discriminators.
const (
	TypeLog      = "log"
	TypeProgress = "progress"
	TypeResult   = "result"
)

// Log is a human-readable status line.
type Log struct {
	Type      string  `json:"type"`
	Level     string  `json:"level"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

// Progress reports the current stage and overall completion fraction.
type Progress struct {
	Type     string  `json:"type"`
	Stage    string  `json:"stage"`
	Progress float64 `json:"progress"`
}

// Result is the terminal event of a run. Exactly one is written per run.
type Result struct {
	Success    bool    `json:"success"`
	OutputPath string  `json:"output_path,omitempty"`
	Duration   float64 `json:"duration"`
	Language   string  `json:"language,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type successPayload struct {
	Type       string  `json:"type"`
	Success    bool    `json:"success"`
	OutputPath string  `json:"output_path"`
	Duration   float64 `json:"duration"`
	Language   string  `json:"language"`
}

type failurePayload struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Writer serializes events to an underlying stream. It is safe for
// concurrent use, though a run only ever writes from one goroutine.
type Writer struct {
	mu      sync.Mutex
	buf     *bufio.Writer
	now     func() time.Time
	results int
}

// NewWriter wraps w. Each event is flushed before the call returns.
func NewWriter(w io.Writer) *Writer {
	return &Writer{buf: bufio.NewWriter(w), now: time.Now}
}

// WithClock replaces the timestamp source (for testing).
func (w *Writer) WithClock(now func() time.Time) *Writer {
	if now != nil {
		w.now = now
	}
	return w
}

// Log writes a log event.
func (w *Writer) Log(level, message string) error {
	if w == nil {
		return nil
	}
	ts := w.now()
	return w.write(Log{
		Type:      TypeLog,
		Level:     level,
		Message:   message,
		Timestamp: float64(ts.UnixNano()) / float64(time.Second),
	})
}

// Progress writes a progress event. The fraction is clamped into [0,1].
func (w *Writer) Progress(stage string, fraction float64) error {
	if w == nil {
		return nil
	}
	return w.write(Progress{Type: TypeProgress, Stage: stage, Progress: Clamp(fraction)})
}

// Result writes the terminal result event. A second call returns an error
// and writes nothing.
func (w *Writer) Result(result Result) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	if w.results > 0 {
		w.mu.Unlock()
		return fmt.Errorf("events: result already written")
	}
	w.results++
	w.mu.Unlock()

	if result.Success {
		return w.write(successPayload{
			Type:       TypeResult,
			Success:    true,
			OutputPath: result.OutputPath,
			Duration:   result.Duration,
			Language:   result.Language,
		})
	}
	return w.write(failurePayload{Type: TypeResult, Success: false, Error: result.Error})
}

// ResultWritten reports whether the terminal result has been emitted.
func (w *Writer) ResultWritten() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.results > 0
}

func (w *Writer) write(event any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	enc := json.NewEncoder(w.buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(event); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush event: %w", err)
	}
	return nil
}

// Clamp bounds a fraction to [0,1]. NaN maps to 0.
func Clamp(fraction float64) float64 {
	switch {
	case fraction != fraction:
		return 0
	case fraction < 0:
		return 0
	case fraction > 1:
		return 1
	default:
		return fraction
	}
}
