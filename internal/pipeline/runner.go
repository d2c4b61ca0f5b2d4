package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"subgen/internal/accel"
	"subgen/internal/config"
	"subgen/internal/engine"
	"subgen/internal/events"
	"subgen/internal/history"
	"subgen/internal/language"
	"subgen/internal/logging"
	"subgen/internal/plan"
	"subgen/internal/preflight"
	"subgen/internal/progress"
	"subgen/internal/subtitles"
)

// Prober reports accelerator availability.
type Prober interface {
	Probe(ctx context.Context) accel.Result
}

// DurationProber reads a media duration when the engine does not report one.
type DurationProber interface {
	DurationSeconds(ctx context.Context, path string) (float64, error)
}

// Recorder stores the outcome of a run.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Options wires a Runner. Engine, Prober, and Events are required.
type Options struct {
	Engine   engine.Engine
	Prober   Prober
	Events   *events.Writer
	Logger   *slog.Logger
	Duration DurationProber
	History  Recorder
	// CheckCapability returns a *CapabilityMissingError when the engine
	// cannot run at all.
	CheckCapability func() error
	Decode          config.Decode
	Now             func() time.Time
}

// Runner executes transcription runs.
type Runner struct {
	opts Options
}

// NewRunner constructs a runner.
func NewRunner(opts Options) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Decode.BeamSize == 0 {
		opts.Decode = config.Default().Decode
	}
	return &Runner{opts: opts}
}

// runState collects what the history ledger needs as a run progresses.
type runState struct {
	record history.Run
}

// Run performs one transcription. An invalid request returns an error before
// anything is written to the event stream; every other failure is reported as
// the single terminal result event and also returned.
func (r *Runner) Run(ctx context.Context, req Request) (subtitles.Outcome, error) {
	if err := req.Validate(); err != nil {
		return subtitles.Outcome{}, err
	}
	if r.opts.Engine == nil || r.opts.Prober == nil || r.opts.Events == nil {
		return subtitles.Outcome{}, errors.New("runner is missing a required dependency")
	}
	if r.opts.Events.ResultWritten() {
		return subtitles.Outcome{}, errors.New("event stream already carries a result")
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.opts.Logger, "pipeline"))
	state := &runState{record: history.Run{
		ID:         runID,
		StartedAt:  r.opts.Now(),
		InputPath:  req.InputPath,
		Model:      req.ModelPath,
		Preference: req.Preference().String(),
	}}

	outcome, err := r.execute(ctx, logger, req, state)
	if err != nil {
		if !IsRunFailure(err) {
			err = &RunError{Stage: "run", Err: err}
		}
		var capErr *CapabilityMissingError
		if !errors.As(err, &capErr) {
			logging.ErrorWithContext(logger, fmt.Sprintf("transcription failed: %v", err), "run_failed",
				logging.String(logging.FieldErrorHint, failureHint(err)),
			)
		}
		outcome.Success = false
		outcome.Error = err.Error()
	}
	r.finish(ctx, logger, state, outcome)
	return outcome, err
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, req Request, state *runState) (subtitles.Outcome, error) {
	if r.opts.CheckCapability != nil {
		if err := r.opts.CheckCapability(); err != nil {
			return subtitles.Outcome{}, err
		}
	}

	reporter := progress.NewReporter(r.opts.Events)
	reporter.Checkpoint(progress.Start)
	logger.Info(fmt.Sprintf("input: %s", req.InputPath))
	logger.Info(fmt.Sprintf("output directory: %s", req.OutputDir))

	if result := preflight.EnsureDirectory("Output directory", req.OutputDir); !result.Passed {
		return subtitles.Outcome{}, &RunError{Stage: "prepare output", Err: result.Err()}
	}
	if result := preflight.CheckInputFile("Input file", req.InputPath); !result.Passed {
		return subtitles.Outcome{}, &RunError{Stage: "check input", Err: result.Err()}
	}
	reporter.Checkpoint(progress.Init)

	probe := r.opts.Prober.Probe(ctx)
	pref := req.Preference()
	selected := plan.Select(pref, probe.Available)
	state.record.Accelerator = probe.Identity
	if plan.Downgraded(pref, probe.Available) {
		logging.WarnWithContext(logger,
			fmt.Sprintf("accelerator requested but unavailable (%s), using CPU", probe.FailureReason),
			"accelerator_downgrade",
			logging.String("cause", string(probe.Cause)),
			logging.String(logging.FieldImpact, "transcription runs on CPU and is slower"),
		)
	}
	logger.Info(fmt.Sprintf("execution plan: %s (%s)", selected.Backend, selected.Precision),
		logging.String(logging.FieldBackend, selected.Backend.String()),
		logging.String(logging.FieldPrecision, selected.Precision.String()),
	)

	loader := NewLoader(r.opts.Engine, logger, reporter)
	reporter.Checkpoint(progress.Loading)
	logger.Info(fmt.Sprintf("loading model %s", req.ModelPath))
	model, loaded, err := loader.Load(ctx, req.ModelPath, selected)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			state.record.LoadFallback = len(loadErr.Attempts) > 1
		}
		return subtitles.Outcome{}, err
	}
	state.record.Plan = loaded.String()
	state.record.LoadFallback = loaded != selected
	reporter.Checkpoint(progress.Loaded)
	logger.Info(fmt.Sprintf("model loaded on %s", loaded.Backend))

	reporter.Checkpoint(progress.Preparing)
	decodeReq := req.DecodeRequest(r.opts.Decode)
	if decodeReq.Language == "" {
		logger.Info("language: auto-detect")
	} else {
		logger.Info(fmt.Sprintf("language: %s", language.DisplayName(decodeReq.Language)))
	}
	reporter.Checkpoint(progress.Analyzing)
	logger.Info("analyzing audio")

	decoder := NewDecoder(loader, logger, reporter)
	decoded, err := decoder.Decode(ctx, req.ModelPath, model, decodeReq)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			state.record.DecodeRetry = len(decodeErr.Attempts) > 1
		}
		return subtitles.Outcome{}, err
	}
	defer func() {
		if closeErr := decoded.Model.Close(); closeErr != nil {
			logger.Debug("model close failed", logging.Error(closeErr))
		}
	}()
	state.record.Plan = decoded.Plan.String()
	state.record.DecodeRetry = decoded.Retried()

	session := decoded.Session
	reporter.Checkpoint(progress.AnalyzingDone)
	r.fillDuration(ctx, logger, req.InputPath, session)
	logger.Info(fmt.Sprintf("detected language: %s (%.0f%%)", language.DisplayName(session.Meta.Language), session.Meta.LanguageProbability*100),
		logging.String("language", session.Meta.Language),
	)
	logger.Info(fmt.Sprintf("total duration: %.1fs", session.Meta.DurationSeconds))

	reporter.Checkpoint(progress.Transcribing)
	logger.Info("writing subtitles, waiting for the first cue")
	outputPath := req.OutputPath()
	outcome := subtitles.NewEmitter(logger, reporter).Emit(ctx, session, outputPath)
	if !outcome.Success {
		return outcome, &EmissionError{OutputPath: outputPath, CueCount: outcome.CueCount, Message: outcome.Error, Err: outcome.Err}
	}
	if err := reporter.Err(); err != nil {
		return outcome, &RunError{Stage: "report progress", Err: err}
	}
	return outcome, nil
}

func (r *Runner) fillDuration(ctx context.Context, logger *slog.Logger, inputPath string, session *engine.Session) {
	if session.Meta.DurationSeconds > 0 || r.opts.Duration == nil {
		return
	}
	d, err := r.opts.Duration.DurationSeconds(ctx, inputPath)
	if err != nil {
		logger.Debug("duration fallback unavailable", logging.Error(err))
		return
	}
	session.Meta.DurationSeconds = d
	logger.Debug("duration taken from container metadata", logging.Float64("duration_seconds", d))
}

// finish records the run and writes the terminal result event, in that
// order, so nothing follows the result on the stream.
func (r *Runner) finish(ctx context.Context, logger *slog.Logger, state *runState, outcome subtitles.Outcome) {
	state.record.FinishedAt = r.opts.Now()
	state.record.Success = outcome.Success
	state.record.OutputPath = outcome.OutputPath
	state.record.ErrorMessage = outcome.Error
	state.record.Language = outcome.Language
	state.record.DurationSeconds = outcome.DurationSeconds
	state.record.CueCount = outcome.CueCount
	if r.opts.History != nil {
		if err := r.opts.History.Record(context.WithoutCancel(ctx), state.record); err != nil {
			logger.Debug("history record failed", logging.Error(err))
		}
	}

	result := events.Result{Success: outcome.Success, Error: outcome.Error}
	if outcome.Success {
		result.OutputPath = outcome.OutputPath
		result.Duration = outcome.DurationSeconds
		result.Language = outcome.Language
	}
	if err := r.opts.Events.Result(result); err != nil {
		logger.Debug("result event not written", logging.Error(err))
	}
}

func failureHint(err error) string {
	var (
		loadErr   *LoadError
		decodeErr *DecodeError
		emitErr   *EmissionError
	)
	switch {
	case errors.As(err, &loadErr):
		return "check the model path and the worker's stderr"
	case errors.As(err, &decodeErr):
		return "check that the input has a decodable audio stream"
	case errors.Is(err, subtitles.ErrStream):
		return "the worker stopped mid-transcription; check the worker's stderr"
	case errors.As(err, &emitErr):
		return "check free space and permissions in the output directory"
	default:
		return "check logs for details"
	}
}
