package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"subgen/internal/engine"
	"subgen/internal/plan"
)

// CapabilityMissingError reports that the inference engine cannot be used at
// all, so no plan could ever succeed.
type CapabilityMissingError struct {
	Component string
	Detail    string
}

func (e *CapabilityMissingError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("inference engine unavailable: %s", e.Component)
	}
	return fmt.Sprintf("inference engine unavailable: %s (%s)", e.Component, e.Detail)
}

// Attempt is one try under one plan.
type Attempt struct {
	Plan plan.Plan
	Err  error
}

func (a Attempt) String() string {
	return fmt.Sprintf("%s: %v", a.Plan, a.Err)
}

// LoadError reports that every load attempt failed.
type LoadError struct {
	ModelPath string
	Attempts  []Attempt
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model %s: %s", e.ModelPath, joinAttempts(e.Attempts))
}

// Unwrap exposes every attempt's cause.
func (e *LoadError) Unwrap() []error {
	return attemptErrors(e.Attempts)
}

// DecodeError reports a terminal decode failure.
type DecodeError struct {
	Attempts []Attempt
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("transcription failed after %d attempt(s): %s", len(e.Attempts), joinAttempts(e.Attempts))
}

// Unwrap exposes every attempt's cause.
func (e *DecodeError) Unwrap() []error {
	return attemptErrors(e.Attempts)
}

// EmissionError reports that the cue stream could not be written out.
type EmissionError struct {
	OutputPath string
	CueCount   int
	Message    string
	Err        error
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("write subtitles %s: %s", e.OutputPath, e.Message)
}

func (e *EmissionError) Unwrap() error {
	return e.Err
}

func joinAttempts(attempts []Attempt) string {
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, "; ")
}

func attemptErrors(attempts []Attempt) []error {
	errs := make([]error, 0, len(attempts))
	for _, a := range attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// acceleratorFaultMarkers identify failures raised by the accelerator stack.
var acceleratorFaultMarkers = []string{"cuda", "cudnn", "cublas"}

// IsAcceleratorFault reports whether err's message names the accelerator
// stack. For worker failures only the reported message counts; the worker's
// stderr tail is ignored because GPU runtimes mention CUDA in routine output.
func IsAcceleratorFault(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	var werr *engine.WorkerError
	if errors.As(err, &werr) {
		text = werr.Message
	}
	msg := strings.ToLower(text)
	for _, marker := range acceleratorFaultMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsRunFailure reports whether err is one of the typed run failures that has
// already been reported on the event stream.
func IsRunFailure(err error) bool {
	var (
		capErr    *CapabilityMissingError
		loadErr   *LoadError
		decodeErr *DecodeError
		emitErr   *EmissionError
		failed    *RunError
	)
	return errors.As(err, &capErr) || errors.As(err, &loadErr) || errors.As(err, &decodeErr) ||
		errors.As(err, &emitErr) || errors.As(err, &failed)
}

// RunError wraps any other fatal error that ended a run after it started
// reporting, such as an unusable output directory.
type RunError struct {
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
