package history

import "time"

// Run is one recorded transcription run.
type Run struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	InputPath       string
	OutputPath      string
	Model           string
	Preference      string
	Plan            string
	Accelerator     string
	LoadFallback    bool
	DecodeRetry     bool
	Success         bool
	ErrorMessage    string
	Language        string
	DurationSeconds float64
	CueCount        int
}

// Elapsed returns the wall-clock time the run took.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
