package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"subgen/internal/accel"
	"subgen/internal/events"
	"subgen/internal/logging"
	"subgen/internal/progress"
	"subgen/internal/testsupport"
)

type harness struct {
	stream   *bytes.Buffer
	events   *events.Writer
	logger   *slog.Logger
	reporter *progress.Reporter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	stream := &bytes.Buffer{}
	writer := events.NewWriter(stream)
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Diagnostic: &bytes.Buffer{}, Events: writer})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return &harness{stream: stream, events: writer, logger: logger, reporter: progress.NewReporter(writer)}
}

func (h *harness) parsed(t *testing.T) []testsupport.Event {
	t.Helper()
	return testsupport.ParseEvents(t, h.stream.Bytes())
}

func (h *harness) logs(t *testing.T, level string) []testsupport.Event {
	t.Helper()
	var out []testsupport.Event
	for _, ev := range testsupport.FilterEvents(h.parsed(t), events.TypeLog) {
		if ev.String("level") == level {
			out = append(out, ev)
		}
	}
	return out
}

func (h *harness) progressValues(t *testing.T) []float64 {
	t.Helper()
	var out []float64
	for _, ev := range testsupport.FilterEvents(h.parsed(t), events.TypeProgress) {
		out = append(out, ev.Float("progress"))
	}
	return out
}

type fixedProber struct {
	result accel.Result
	calls  int
}

func (p *fixedProber) Probe(context.Context) accel.Result {
	p.calls++
	return p.result
}

func availableProbe() *fixedProber {
	return &fixedProber{result: accel.Result{Available: true, Identity: "NVIDIA GeForce RTX 4090", Cause: accel.CauseNone}}
}

func unavailableProbe() *fixedProber {
	return &fixedProber{result: accel.Result{Cause: accel.CauseNoDeviceVisible, FailureReason: "accelerator support present but no device visible"}}
}
