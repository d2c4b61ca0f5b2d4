package engine

// WorkerError is a failure reported by, or observed on, the inference worker.
// Message is the failure itself; StderrTail is the worker's recent diagnostic
// output and is context only.
type WorkerError struct {
	Message    string
	StderrTail string
	Err        error
}

func (e *WorkerError) Error() string {
	if e.StderrTail == "" {
		return e.Message
	}
	return e.Message + ": " + e.StderrTail
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}
