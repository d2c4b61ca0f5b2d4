package engine

import (
	"context"

	"subgen/internal/plan"
)

// Engine loads models. Each Load yields an independent Model.
type Engine interface {
	Load(ctx context.Context, modelPath string, p plan.Plan) (Model, error)
}

// Model is a loaded model bound to one execution plan.
type Model interface {
	// Decode starts a transcription and returns once the stream metadata is
	// known. Errors surfacing here are eligible for backend fallback.
	Decode(ctx context.Context, req DecodeRequest) (*Session, error)
	Plan() plan.Plan
	Close() error
}

// CueStream yields cues in their natural order. Next returns io.EOF when the
// stream is exhausted. The stream is single-pass.
type CueStream interface {
	Next(ctx context.Context) (Cue, error)
}

// VADOptions tunes the voice-activity filter.
type VADOptions struct {
	MinSilenceMs int     `json:"min_silence_duration_ms"`
	Threshold    float64 `json:"threshold"`
}

// DecodeRequest carries everything the engine needs for one transcription.
// It is rebuilt identically for a retry.
type DecodeRequest struct {
	MediaPath               string     `json:"input"`
	Language                string     `json:"language,omitempty"`
	BeamSize                int        `json:"beam_size"`
	VADFilter               bool       `json:"vad_filter"`
	VAD                     VADOptions `json:"vad_parameters"`
	WordTimestamps          bool       `json:"word_timestamps"`
	InitialPrompt           string     `json:"initial_prompt,omitempty"`
	ConditionOnPreviousText bool       `json:"condition_on_previous_text"`
}

// DefaultDecodeRequest returns the request used for subtitle generation.
func DefaultDecodeRequest(mediaPath, language, prompt string) DecodeRequest {
	return DecodeRequest{
		MediaPath:               mediaPath,
		Language:                language,
		BeamSize:                5,
		VADFilter:               true,
		VAD:                     VADOptions{MinSilenceMs: 500, Threshold: 0.5},
		WordTimestamps:          true,
		InitialPrompt:           prompt,
		ConditionOnPreviousText: true,
	}
}

// Meta describes the decode as a whole.
type Meta struct {
	Language            string
	LanguageProbability float64
	DurationSeconds     float64
}

// Session is one in-flight decode.
type Session struct {
	Meta Meta
	Cues CueStream
}

// Word is a word-level timestamp.
type Word struct {
	Start float64
	End   float64
	Text  string
}

// Cue is one timed transcription segment.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
	Words []Word
}

// Span returns the effective start and end of the cue. Word timestamps win
// over the segment's own bounds when present.
func (c Cue) Span() (float64, float64) {
	if len(c.Words) == 0 {
		return c.Start, c.End
	}
	return c.Words[0].Start, c.Words[len(c.Words)-1].End
}
