package worker

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestRuntimeInspectParsesLastReport(t *testing.T) {
	var gotArgs []string
	r := NewRuntime(Config{Command: "worker", Args: []string{"-m", "subgen_worker"}})
	r.run = func(_ context.Context, _ string, args []string, _ []string) ([]byte, []byte, error) {
		gotArgs = args
		out := "warming up\n" +
			`{"runtime_version":"2.3.1","accelerator_built":false}` + "\n" +
			`{"runtime_version":"2.3.1+cu121","accelerator_built":true,"accelerator_version":"12.1","devices":[{"index":0,"name":"NVIDIA GeForce RTX 4090","memory_mb":24564}]}` + "\n"
		return []byte(out), nil, nil
	}

	report, err := r.Inspect(context.Background())
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !slices.Equal(gotArgs, []string{"-m", "subgen_worker", "probe"}) {
		t.Fatalf("args = %v", gotArgs)
	}
	if !report.AcceleratorBuilt || report.AcceleratorVersion != "12.1" || len(report.Devices) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Devices[0].MemoryMB != 24564 {
		t.Fatalf("unexpected device %+v", report.Devices[0])
	}
}

func TestRuntimeInspectErrors(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		stderr string
		err    error
		want   string
	}{
		{name: "no report", stdout: "nothing useful\n", want: "no report"},
		{name: "malformed", stdout: "{not json\n", want: "parse probe report"},
		{name: "command failed", stderr: "ImportError: libcudnn.so.8", err: errors.New("exit status 1"), want: "libcudnn.so.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRuntime(Config{Command: "worker"})
			r.run = func(context.Context, string, []string, []string) ([]byte, []byte, error) {
				return []byte(tt.stdout), []byte(tt.stderr), tt.err
			}
			_, err := r.Inspect(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
