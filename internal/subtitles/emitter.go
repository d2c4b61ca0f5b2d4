package subtitles

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gofrs/flock"

	"subgen/internal/engine"
	"subgen/internal/logging"
	"subgen/internal/progress"
)

// ErrStream marks emission failures raised by the cue stream rather than by
// the output file.
var ErrStream = errors.New("transcription stream")

// Outcome is the terminal result of one emission. Err carries the failure
// behind Error.
type Outcome struct {
	Success         bool
	OutputPath      string
	Error           string
	Err             error
	DurationSeconds float64
	Language        string
	CueCount        int
}

// Emitter writes a session's cues to an SRT file.
type Emitter struct {
	logger   *slog.Logger
	reporter *progress.Reporter
}

// NewEmitter constructs an emitter. reporter may be nil.
func NewEmitter(logger *slog.Logger, reporter *progress.Reporter) *Emitter {
	return &Emitter{
		logger:   logging.NewComponentLogger(logger, "subtitles"),
		reporter: reporter,
	}
}

// Emit drains the session's cue stream into outputPath. It never returns an
// error; failures are reported through the Outcome. A partially written file
// is left in place on failure.
func (e *Emitter) Emit(ctx context.Context, session *engine.Session, outputPath string) Outcome {
	if session == nil || session.Cues == nil {
		return e.failure(outputPath, 0, errors.New("no transcription session"))
	}

	lock := flock.New(outputPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return e.failure(outputPath, 0, fmt.Errorf("lock output: %w", err))
	}
	if !locked {
		return e.failure(outputPath, 0, fmt.Errorf("output %s is being written by another run", outputPath))
	}
	// The lock file stays on disk so every run contends on the same inode.
	defer func() { _ = lock.Unlock() }()

	file, err := os.Create(outputPath)
	if err != nil {
		return e.failure(outputPath, 0, fmt.Errorf("create output: %w", err))
	}
	count, writeErr := e.writeCues(ctx, session, bufio.NewWriter(file))
	closeErr := file.Close()
	if writeErr != nil {
		return e.failure(outputPath, count, writeErr)
	}
	if closeErr != nil {
		return e.failure(outputPath, count, fmt.Errorf("close output: %w", closeErr))
	}

	e.logger.Info(fmt.Sprintf("subtitle file written: %s", outputPath), logging.Int("cue_count", count))
	e.logger.Info(fmt.Sprintf("%d cues processed", count))
	if e.logger.Enabled(ctx, slog.LevelDebug) {
		if summary, err := Summarize(outputPath); err == nil {
			e.logger.Debug("subtitle file summary",
				logging.Int("records", summary.Cues),
				logging.Float64("first_seconds", summary.First),
				logging.Float64("last_seconds", summary.Last),
			)
		}
	}
	e.reporter.Checkpoint(progress.Complete)
	return Outcome{
		Success:         true,
		OutputPath:      outputPath,
		DurationSeconds: session.Meta.DurationSeconds,
		Language:        session.Meta.Language,
		CueCount:        count,
	}
}

func (e *Emitter) writeCues(ctx context.Context, session *engine.Session, w *bufio.Writer) (int, error) {
	tracker := progress.NewCueTracker(e.reporter, session.Meta.DurationSeconds)
	n := 0
	for {
		cue, err := session.Cues.Next(ctx)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("%w: %w", ErrStream, err)
		}
		n++
		if n == 1 {
			e.logger.Info("first cue received, processing the rest")
			e.reporter.Checkpoint(progress.FirstCue)
			tracker.Raise(progress.FirstCue.Fraction)
		}

		start, end := cue.Span()
		if _, err := w.WriteString(FormatRecord(n, start, end, cue.Text)); err != nil {
			return n - 1, fmt.Errorf("write cue %d: %w", n, err)
		}
		if err := w.Flush(); err != nil {
			return n - 1, fmt.Errorf("write cue %d: %w", n, err)
		}
		tracker.Observe(cue.End)
	}
}

func (e *Emitter) failure(outputPath string, count int, err error) Outcome {
	e.logger.Debug("subtitle emission stopped",
		logging.String("output_path", outputPath),
		logging.Int("cue_count", count),
		logging.Error(err),
	)
	return Outcome{
		OutputPath: outputPath,
		Error:      err.Error(),
		Err:        err,
		CueCount:   count,
	}
}
