package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"subgen/internal/accel"
)

type commandRunner func(ctx context.Context, name string, args []string, env []string) ([]byte, []byte, error)

// Runtime answers accelerator probes by running the worker's probe mode.
type Runtime struct {
	cfg Config
	run commandRunner
}

// NewRuntime constructs a probe client for the configured worker command.
func NewRuntime(cfg Config) *Runtime {
	return &Runtime{cfg: cfg, run: runCommand}
}

// Inspect runs the probe sub-command and decodes its report. The report is
// the last JSON object the worker prints.
func (r *Runtime) Inspect(ctx context.Context) (accel.Report, error) {
	if r.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ProbeTimeout)
		defer cancel()
	}
	args := append(append([]string(nil), r.cfg.Args...), probeSubcommand)
	stdout, stderr, err := r.run(ctx, r.cfg.Command, args, r.cfg.Env)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return accel.Report{}, fmt.Errorf("probe %s: %w", r.cfg.Command, ctxErr)
		}
		if tail := strings.TrimSpace(string(stderr)); tail != "" {
			return accel.Report{}, fmt.Errorf("probe %s: %w: %s", r.cfg.Command, err, lastLines(tail, 5))
		}
		return accel.Report{}, fmt.Errorf("probe %s: %w", r.cfg.Command, err)
	}
	return parseReport(stdout)
}

func parseReport(stdout []byte) (accel.Report, error) {
	lines := bytes.Split(stdout, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var report accel.Report
		if err := json.Unmarshal(line, &report); err != nil {
			return accel.Report{}, fmt.Errorf("parse probe report: %w", err)
		}
		return report, nil
	}
	return accel.Report{}, errors.New("probe produced no report")
}

func runCommand(ctx context.Context, name string, args []string, env []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
