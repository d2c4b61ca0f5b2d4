package accel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"subgen/internal/logging"
)

// Device is one accelerator visible to the runtime.
type Device struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	MemoryMB int    `json:"memory_mb"`
}

// Report is what the runtime says about itself.
type Report struct {
	RuntimeVersion     string   `json:"runtime_version"`
	AcceleratorBuilt   bool     `json:"accelerator_built"`
	AcceleratorVersion string   `json:"accelerator_version"`
	Devices            []Device `json:"devices"`
}

// CPUOnlyBuild reports whether the runtime lacks accelerator support.
func (r Report) CPUOnlyBuild() bool {
	return !r.AcceleratorBuilt || strings.Contains(r.RuntimeVersion, "+cpu")
}

// Runtime inspects the inference runtime.
type Runtime interface {
	Inspect(ctx context.Context) (Report, error)
}

// Cause explains why no accelerator is available.
type Cause string

const (
	CauseNone            Cause = "none"
	CauseCPUOnlyRuntime  Cause = "runtime_without_accelerator"
	CauseNoDeviceVisible Cause = "no_device_visible"
	CauseProbeFailed     Cause = "probe_failed"
)

const (
	defaultProbeTimeout = 30 * time.Second
	diagnosticRule      = "============================================================"
)

// Result is the immutable outcome of one probe.
type Result struct {
	Available     bool
	Identity      string
	FailureReason string
	Cause         Cause
	Report        Report
	PCIDevices    []PCIDevice
}

// Prober runs the accelerator probe.
type Prober struct {
	runtime Runtime
	diag    io.Writer
	logger  *slog.Logger
	scan    func() ([]PCIDevice, error)
	timeout time.Duration
}

// Option customizes a Prober.
type Option func(*Prober)

// WithPCIScanner replaces the sysfs scan (for testing or non-Linux hosts).
func WithPCIScanner(scan func() ([]PCIDevice, error)) Option {
	return func(p *Prober) { p.scan = scan }
}

// WithTimeout bounds the runtime inspection.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewProber constructs a prober. diag receives the human-readable diagnostic
// block; logger receives the one-line verdict.
func NewProber(runtime Runtime, diag io.Writer, logger *slog.Logger, opts ...Option) *Prober {
	if diag == nil {
		diag = io.Discard
	}
	p := &Prober{
		runtime: runtime,
		diag:    diag,
		logger:  logging.NewComponentLogger(logger, "accel"),
		scan:    ScanPCIDevices,
		timeout: defaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe inspects the runtime and never fails.
func (p *Prober) Probe(ctx context.Context) Result {
	d := &diagnostics{w: p.diag}
	d.line(diagnosticRule)
	d.line("accelerator probe")
	d.line(diagnosticRule)
	defer d.line(diagnosticRule)

	var result Result
	if p.scan != nil {
		devices, err := p.scan()
		if err != nil {
			d.linef("sysfs scan: %v", err)
		}
		result.PCIDevices = devices
		d.linef("NVIDIA PCI devices in sysfs: %d", len(devices))
	}

	if p.runtime == nil {
		return p.unavailable(d, result, CauseProbeFailed, "no runtime configured")
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	report, err := p.runtime.Inspect(probeCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("probe timed out after %s: %w", p.timeout, err)
		}
		d.linef("probe error: %v", err)
		return p.unavailable(d, result, CauseProbeFailed, err.Error())
	}
	result.Report = report

	d.linef("runtime version: %s", valueOr(report.RuntimeVersion, "unknown"))
	d.linef("accelerator support built in: %t", report.AcceleratorBuilt)
	if report.AcceleratorVersion != "" {
		d.linef("accelerator runtime version: %s", report.AcceleratorVersion)
	}

	if report.CPUOnlyBuild() {
		d.line("the runtime is a CPU-only build; reinstall an accelerator-enabled build to use the GPU")
		return p.unavailable(d, result, CauseCPUOnlyRuntime, "runtime built without accelerator support")
	}

	d.linef("devices visible: %d", len(report.Devices))
	for _, dev := range report.Devices {
		if dev.MemoryMB > 0 {
			d.linef("device %d: %s (%d MiB)", dev.Index, dev.Name, dev.MemoryMB)
		} else {
			d.linef("device %d: %s", dev.Index, dev.Name)
		}
	}
	if len(report.Devices) == 0 {
		d.line("possible causes:")
		d.line("  1. the accelerator driver is not installed or not loaded")
		d.line("  2. the accelerator toolkit is missing or mismatched")
		d.line("  3. the device is hidden from this process (CUDA_VISIBLE_DEVICES, container runtime)")
		return p.unavailable(d, result, CauseNoDeviceVisible, "accelerator support present but no device visible")
	}

	result.Available = true
	result.Cause = CauseNone
	result.Identity = strings.TrimSpace(report.Devices[0].Name)
	p.logger.Info(fmt.Sprintf("accelerator detected: %s", result.Identity),
		logging.String("runtime_version", report.RuntimeVersion),
		logging.Int("device_count", len(report.Devices)),
	)
	return result
}

func (p *Prober) unavailable(d *diagnostics, result Result, cause Cause, reason string) Result {
	result.Available = false
	result.Cause = cause
	result.FailureReason = reason
	logging.WarnWithContext(p.logger, "no usable accelerator; running on CPU", "accelerator_unavailable",
		logging.String("cause", string(cause)),
		logging.String("reason", reason),
		logging.String(logging.FieldErrorHint, "see the accelerator probe block on stderr"),
		logging.String(logging.FieldImpact, "transcription runs on CPU and is slower"),
	)
	return result
}

type diagnostics struct {
	w io.Writer
}

func (d *diagnostics) line(s string) {
	_, _ = io.WriteString(d.w, s+"\n")
}

func (d *diagnostics) linef(format string, args ...any) {
	d.line(fmt.Sprintf(format, args...))
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
