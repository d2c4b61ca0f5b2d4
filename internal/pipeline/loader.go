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

// Loader loads a model, falling back from the accelerated plan to CPU.
type Loader struct {
	engine   engine.Engine
	logger   *slog.Logger
	reporter *progress.Reporter
}

// NewLoader constructs a loader. reporter may be nil.
func NewLoader(eng engine.Engine, logger *slog.Logger, reporter *progress.Reporter) *Loader {
	return &Loader{
		engine:   eng,
		logger:   logging.NewComponentLogger(logger, "loader"),
		reporter: reporter,
	}
}

// loadAttempts is the ordered list of plans to try for p.
func loadAttempts(p plan.Plan) []plan.Plan {
	if p.IsAccelerated() {
		return []plan.Plan{p, p.Demote()}
	}
	return []plan.Plan{p}
}

// Load tries p and, when p is accelerated, the CPU plan once. It returns the
// model together with the plan that actually loaded.
func (l *Loader) Load(ctx context.Context, modelPath string, p plan.Plan) (engine.Model, plan.Plan, error) {
	attempts := loadAttempts(p)
	failures := make([]Attempt, 0, len(attempts))
	for i, candidate := range attempts {
		if i > 0 {
			prev := failures[len(failures)-1]
			logging.WarnWithContext(l.logger,
				fmt.Sprintf("model load on %s failed, falling back to %s: %v", prev.Plan.Backend, candidate.Backend, prev.Err),
				"load_fallback",
				logging.String(logging.FieldBackend, candidate.Backend.String()),
				logging.String(logging.FieldPrecision, candidate.Precision.String()),
				logging.Int(logging.FieldAttempt, i+1),
				logging.String(logging.FieldImpact, "transcription runs on CPU and is slower"),
			)
			l.reporter.Checkpoint(progress.Loading)
		}

		model, err := l.LoadDirect(ctx, modelPath, candidate)
		if err == nil {
			return model, candidate, nil
		}
		failures = append(failures, Attempt{Plan: candidate, Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return nil, p, &LoadError{ModelPath: modelPath, Attempts: failures}
}

// LoadDirect makes exactly one load attempt under p.
func (l *Loader) LoadDirect(ctx context.Context, modelPath string, p plan.Plan) (engine.Model, error) {
	l.logger.Debug("loading model",
		logging.String("model", modelPath),
		logging.String(logging.FieldBackend, p.Backend.String()),
		logging.String(logging.FieldPrecision, p.Precision.String()),
	)
	model, err := l.engine.Load(ctx, modelPath, p)
	if err != nil {
		return nil, err
	}
	return model, nil
}
