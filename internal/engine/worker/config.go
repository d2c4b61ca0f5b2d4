package worker

import "time"

// Config captures how the worker executable is launched.
type Config struct {
	Command string
	// Args are placed before the sub-command.
	Args []string
	// Env is appended to the parent environment.
	Env                []string
	ProbeTimeout       time.Duration
	LoadTimeout        time.Duration
	DecodeStartTimeout time.Duration
	ShutdownGrace      time.Duration
}

// Protocol constants.
const (
	probeSubcommand = "probe"
	serveSubcommand = "serve"

	eventReady   = "ready"
	eventError   = "error"
	eventInfo    = "info"
	eventSegment = "segment"
	eventDone    = "done"

	opTranscribe = "transcribe"

	defaultShutdownGrace = 10 * time.Second
	stderrTailBytes      = 4096
	maxLineBytes         = 4 << 20
)

// DefaultEnv is the worker environment applied once at process startup:
// UTF-8 stdio and quiet model-hub housekeeping.
func DefaultEnv() []string {
	return []string{
		"PYTHONIOENCODING=utf-8",
		"PYTHONUNBUFFERED=1",
		"HF_HUB_DISABLE_SYMLINKS_WARNING=1",
		"HF_HUB_DISABLE_TELEMETRY=1",
	}
}
