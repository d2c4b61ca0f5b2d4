package progress

import (
	"math"
	"sync"

	"subgen/internal/events"
)

// Sink receives progress events.
type Sink interface {
	Progress(stage string, fraction float64) error
}

// Checkpoint is a fixed milestone in a run.
type Checkpoint struct {
	Fraction float64
	Stage    string
}

// Stage names.
const (
	StageStarting     = "starting"
	StageInitializing = "initializing"
	StageLoadingModel = "loading_model"
	StageModelLoaded  = "model_loaded"
	StagePreparing    = "preparing"
	StageAnalyzing    = "analyzing"
	StageTranscribing = "transcribing"
	StageCompleted    = "completed"
)

// Run checkpoints.
var (
	Start         = Checkpoint{0.00, StageStarting}
	Init          = Checkpoint{0.02, StageInitializing}
	Loading       = Checkpoint{0.05, StageLoadingModel}
	Loaded        = Checkpoint{0.10, StageModelLoaded}
	Preparing     = Checkpoint{0.15, StagePreparing}
	Analyzing     = Checkpoint{0.20, StageAnalyzing}
	AnalyzingDone = Checkpoint{0.22, StageAnalyzing}
	Transcribing  = Checkpoint{0.25, StageTranscribing}
	FirstCue      = Checkpoint{0.28, StageTranscribing}
	Complete      = Checkpoint{1.00, StageCompleted}
)

// Transcribing band.
const (
	bandStart = 0.25
	bandWidth = 0.70
)

// Reporter forwards progress to a sink. A nil Reporter discards everything.
type Reporter struct {
	mu   sync.Mutex
	sink Sink
	err  error
}

// NewReporter constructs a reporter writing to sink.
func NewReporter(sink Sink) *Reporter {
	return &Reporter{sink: sink}
}

// Emit sends fraction, clamped to [0,1], with the given stage.
func (r *Reporter) Emit(fraction float64, stage string) {
	if r == nil || r.sink == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.sink.Progress(stage, events.Clamp(fraction)); err != nil && r.err == nil {
		r.err = err
	}
}

// Checkpoint emits a fixed milestone.
func (r *Reporter) Checkpoint(c Checkpoint) {
	r.Emit(c.Fraction, c.Stage)
}

// Err returns the first sink failure, if any.
func (r *Reporter) Err() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// CueTracker turns cue end offsets into coalesced transcribing progress.
type CueTracker struct {
	reporter    *Reporter
	duration    float64
	cues        int
	lastPercent int
	highWater   float64
}

// NewCueTracker tracks progress for a stream of the given total duration.
// A non-positive duration disables per-cue updates.
func NewCueTracker(r *Reporter, durationSeconds float64) *CueTracker {
	return &CueTracker{
		reporter:    r,
		duration:    durationSeconds,
		lastPercent: percent(bandStart),
		highWater:   bandStart,
	}
}

// Map converts an end offset to the overall completion fraction.
func Map(endSeconds, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return bandStart
	}
	raw := math.Min(math.Max(endSeconds/durationSeconds, 0), 1)
	return bandStart + raw*bandWidth
}

// Raise lifts the floor below which no update is emitted, used after an
// out-of-band checkpoint such as FirstCue.
func (t *CueTracker) Raise(fraction float64) {
	if fraction > t.highWater {
		t.highWater = fraction
	}
}

// Observe records one cue ending at endSeconds and reports whether an
// update was emitted.
func (t *CueTracker) Observe(endSeconds float64) bool {
	t.cues++
	if t.duration <= 0 {
		return false
	}
	current := Map(endSeconds, t.duration)
	currentPercent := percent(current)
	if currentPercent < t.lastPercent+2 && t.cues%3 != 0 {
		return false
	}
	value := math.Max(current, t.highWater)
	t.highWater = value
	t.lastPercent = currentPercent
	t.reporter.Emit(value, StageTranscribing)
	return true
}

// Cues returns the number of cues observed.
func (t *CueTracker) Cues() int {
	return t.cues
}

func percent(fraction float64) int {
	return int(fraction*100 + 1e-9)
}
