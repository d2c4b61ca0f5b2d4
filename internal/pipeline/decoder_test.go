package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"subgen/internal/engine"
	"subgen/internal/events"
	"subgen/internal/plan"
	"subgen/internal/testsupport"
)

func loadModel(t *testing.T, eng *testsupport.FakeEngine, p plan.Plan) engine.Model {
	t.Helper()
	model, err := eng.Load(context.Background(), "large-v3", p)
	if err != nil {
		t.Fatalf("initial load: %v", err)
	}
	return model
}

func TestIsAcceleratorFault(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("CUDA failed with error out of memory"), true},
		{errors.New("cuDNN status execution failed"), true},
		{errors.New("CUBLAS_STATUS_NOT_INITIALIZED"), true},
		{errors.New("Invalid data found when processing input"), false},
		{&engine.WorkerError{
			Message:    "Invalid data found when processing input",
			StderrTail: "INFO: using CUDA device 0 (NVIDIA GeForce RTX 3060)",
		}, false},
		{&engine.WorkerError{
			Message:    "CUDA failed with error out of memory",
			StderrTail: "loading model",
		}, true},
		{fmt.Errorf("decode: %w", &engine.WorkerError{Message: "cuBLAS failure"}), true},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsAcceleratorFault(tt.err); got != tt.want {
			t.Errorf("IsAcceleratorFault(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestDecoderRetriesOnCPUAfterAcceleratorFault(t *testing.T) {
	h := newHarness(t)
	eng := &testsupport.FakeEngine{Decode: func(attempt int, p plan.Plan) (*engine.Session, error) {
		if p.IsAccelerated() {
			return nil, errors.New("CUDA failed with error out of memory")
		}
		return testsupport.NewSession(engine.Meta{Language: "ko"}), nil
	}}
	model := loadModel(t, eng, plan.AcceleratedPlan())
	decoder := NewDecoder(NewLoader(eng, h.logger, h.reporter), h.logger, h.reporter)
	req := engine.DefaultDecodeRequest("/media/a.mp4", "ko", "prompt")

	decoded, err := decoder.Decode(context.Background(), "large-v3", model, req)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Plan != plan.CPUPlan() || !decoded.Retried() || decoded.Attempts != 2 {
		t.Fatalf("unexpected decoded %+v", decoded)
	}
	if got := eng.Loads(); !slices.Equal(got, []plan.Plan{plan.AcceleratedPlan(), plan.CPUPlan()}) {
		t.Fatalf("loads = %v", got)
	}
	if eng.Closed() != 1 {
		t.Fatalf("old model should be closed once, closed=%d", eng.Closed())
	}
	if reqs := eng.Requests(); len(reqs) != 2 || reqs[0] != reqs[1] {
		t.Fatalf("retry must reuse the identical request: %+v", reqs)
	}
	if warnings := h.logs(t, events.LevelWarning); len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(warnings))
	}
	if got := h.progressValues(t); !slices.Equal(got, []float64{0.05, 0.10, 0.15, 0.20}) {
		t.Fatalf("reload progress = %v", got)
	}
}

func TestDecoderRetriesExactlyOnce(t *testing.T) {
	h := newHarness(t)
	eng := &testsupport.FakeEngine{Decode: func(int, plan.Plan) (*engine.Session, error) {
		return nil, errors.New("CUDA error: an illegal memory access was encountered")
	}}
	model := loadModel(t, eng, plan.AcceleratedPlan())
	decoder := NewDecoder(NewLoader(eng, h.logger, h.reporter), h.logger, h.reporter)

	_, err := decoder.Decode(context.Background(), "large-v3", model, engine.DefaultDecodeRequest("/media/a.mp4", "", ""))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if len(decodeErr.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(decodeErr.Attempts))
	}
	if got := eng.Decodes(); !slices.Equal(got, []plan.Plan{plan.AcceleratedPlan(), plan.CPUPlan()}) {
		t.Fatalf("decodes = %v", got)
	}
	if len(eng.Loads()) != 2 {
		t.Fatalf("expected exactly one reload, got %d loads", len(eng.Loads()))
	}
	if eng.Closed() != 2 {
		t.Fatalf("both models should be closed, closed=%d", eng.Closed())
	}
}

func TestDecoderDoesNotRetry(t *testing.T) {
	tests := []struct {
		name string
		plan plan.Plan
		err  error
	}{
		{"input fault on accelerator", plan.AcceleratedPlan(), errors.New("Invalid data found when processing input")},
		{"accelerator text on cpu", plan.CPUPlan(), errors.New("CUDA not available")},
		{"accelerator text only in worker stderr", plan.AcceleratedPlan(), &engine.WorkerError{
			Message:    "Invalid data found when processing input",
			StderrTail: "INFO: using CUDA device 0 (NVIDIA GeForce RTX 3060)",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			eng := &testsupport.FakeEngine{Decode: func(int, plan.Plan) (*engine.Session, error) { return nil, tt.err }}
			model := loadModel(t, eng, tt.plan)
			decoder := NewDecoder(NewLoader(eng, h.logger, h.reporter), h.logger, h.reporter)

			_, err := decoder.Decode(context.Background(), "large-v3", model, engine.DefaultDecodeRequest("/media/a.mp4", "", ""))
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) || len(decodeErr.Attempts) != 1 {
				t.Fatalf("expected single-attempt DecodeError, got %v", err)
			}
			if !errors.Is(err, tt.err) {
				t.Fatal("DecodeError should unwrap to the cause")
			}
			if len(eng.Loads()) != 1 || eng.Closed() != 1 {
				t.Fatalf("loads=%d closed=%d", len(eng.Loads()), eng.Closed())
			}
			if warnings := h.logs(t, events.LevelWarning); len(warnings) != 0 {
				t.Fatalf("no warning expected, got %d", len(warnings))
			}
		})
	}
}

func TestDecoderReloadFailure(t *testing.T) {
	h := newHarness(t)
	eng := &testsupport.FakeEngine{
		LoadErr: func(attempt int, _ plan.Plan) error {
			if attempt > 1 {
				return errors.New("cannot allocate memory")
			}
			return nil
		},
		Decode: func(int, plan.Plan) (*engine.Session, error) { return nil, errors.New("cuBLAS failure") },
	}
	model := loadModel(t, eng, plan.AcceleratedPlan())
	decoder := NewDecoder(NewLoader(eng, h.logger, h.reporter), h.logger, h.reporter)

	_, err := decoder.Decode(context.Background(), "large-v3", model, engine.DefaultDecodeRequest("/media/a.mp4", "", ""))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || len(decodeErr.Attempts) != 2 {
		t.Fatalf("expected DecodeError with reload attempt, got %v", err)
	}
	if !strings.Contains(err.Error(), "reload: cannot allocate memory") {
		t.Fatalf("error should mention reload failure: %v", err)
	}
	if len(eng.Loads()) != 2 {
		t.Fatalf("loader must not cascade on reload, got %d loads", len(eng.Loads()))
	}
}
