package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"subgen/internal/engine"
	"subgen/internal/logging"
	"subgen/internal/plan"
	"subgen/internal/progress"
)

const maxDecodeAttempts = 2

// Decoded is a started transcription. The caller owns Model and must close
// it once Session has been drained.
type Decoded struct {
	Model    engine.Model
	Plan     plan.Plan
	Session  *engine.Session
	Attempts int
}

// Retried reports whether the decode was repeated on CPU.
func (d Decoded) Retried() bool {
	return d.Attempts > 1
}

// Decoder starts a transcription, retrying once on CPU after an accelerator fault.
type Decoder struct {
	loader   *Loader
	logger   *slog.Logger
	reporter *progress.Reporter
}

// NewDecoder constructs a decoder that reloads through loader. reporter may be nil.
func NewDecoder(loader *Loader, logger *slog.Logger, reporter *progress.Reporter) *Decoder {
	return &Decoder{
		loader:   loader,
		logger:   logging.NewComponentLogger(logger, "decoder"),
		reporter: reporter,
	}
}

// Decode takes ownership of model. On success the returned Decoded holds the
// model that produced the session; on failure every model has been closed.
func (d *Decoder) Decode(ctx context.Context, modelPath string, model engine.Model, req engine.DecodeRequest) (Decoded, error) {
	current := model
	var failures []Attempt
	for attempt := 1; attempt <= maxDecodeAttempts; attempt++ {
		session, err := current.Decode(ctx, req)
		if err == nil {
			return Decoded{Model: current, Plan: current.Plan(), Session: session, Attempts: attempt}, nil
		}
		failures = append(failures, Attempt{Plan: current.Plan(), Err: err})

		if attempt == maxDecodeAttempts || !current.Plan().IsAccelerated() || !IsAcceleratorFault(err) || ctx.Err() != nil {
			break
		}

		cpu := plan.CPUPlan()
		logging.WarnWithContext(d.logger,
			fmt.Sprintf("accelerator fault during transcription, retrying on CPU: %v", err),
			"decode_fallback",
			logging.String(logging.FieldBackend, cpu.Backend.String()),
			logging.String(logging.FieldPrecision, cpu.Precision.String()),
			logging.Int(logging.FieldAttempt, attempt+1),
			logging.String(logging.FieldImpact, "transcription restarts on CPU and is slower"),
		)
		_ = current.Close()
		current = nil

		d.reporter.Checkpoint(progress.Loading)
		reloaded, loadErr := d.loader.LoadDirect(ctx, modelPath, cpu)
		if loadErr != nil {
			failures = append(failures, Attempt{Plan: cpu, Err: fmt.Errorf("reload: %w", loadErr)})
			return Decoded{}, &DecodeError{Attempts: failures}
		}
		d.logger.Info(fmt.Sprintf("model reloaded on %s", cpu.Backend))
		d.reporter.Checkpoint(progress.Loaded)
		d.reporter.Checkpoint(progress.Preparing)
		d.reporter.Checkpoint(progress.Analyzing)
		current = reloaded
	}
	if current != nil {
		_ = current.Close()
	}
	return Decoded{}, &DecodeError{Attempts: failures}
}
