package accel

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/pilebones/go-udev/crawler"
)

type fakeRuntime struct {
	report Report
	err    error
	block  bool
}

func (f fakeRuntime) Inspect(ctx context.Context) (Report, error) {
	if f.block {
		<-ctx.Done()
		return Report{}, ctx.Err()
	}
	return f.report, f.err
}

func noPCI() ([]PCIDevice, error) { return nil, nil }

func newTestProber(rt Runtime, opts ...Option) (*Prober, *bytes.Buffer, *bytes.Buffer) {
	var diag, logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	opts = append([]Option{WithPCIScanner(noPCI)}, opts...)
	return NewProber(rt, &diag, logger, opts...), &diag, &logs
}

func TestProbeAvailable(t *testing.T) {
	p, diag, logs := newTestProber(fakeRuntime{report: Report{
		RuntimeVersion:     "2.3.1+cu121",
		AcceleratorBuilt:   true,
		AcceleratorVersion: "12.1",
		Devices:            []Device{{Index: 0, Name: "NVIDIA GeForce RTX 4090 ", MemoryMB: 24564}},
	}})

	result := p.Probe(context.Background())
	if !result.Available || result.Cause != CauseNone {
		t.Fatalf("expected available result, got %+v", result)
	}
	if result.Identity != "NVIDIA GeForce RTX 4090" {
		t.Fatalf("identity = %q", result.Identity)
	}
	if !strings.Contains(logs.String(), "accelerator detected: NVIDIA GeForce RTX 4090") {
		t.Fatalf("missing info log: %s", logs.String())
	}
	if !strings.Contains(diag.String(), "device 0: NVIDIA GeForce RTX 4090") {
		t.Fatalf("missing device line in diagnostics: %s", diag.String())
	}
}

func TestProbeUnavailableCauses(t *testing.T) {
	tests := []struct {
		name    string
		runtime Runtime
		cause   Cause
		diag    string
	}{
		{
			name:    "cpu only version tag",
			runtime: fakeRuntime{report: Report{RuntimeVersion: "2.3.1+cpu", AcceleratorBuilt: true, Devices: []Device{{Name: "ghost"}}}},
			cause:   CauseCPUOnlyRuntime,
			diag:    "CPU-only build",
		},
		{
			name:    "not built",
			runtime: fakeRuntime{report: Report{RuntimeVersion: "2.3.1"}},
			cause:   CauseCPUOnlyRuntime,
			diag:    "CPU-only build",
		},
		{
			name:    "no device",
			runtime: fakeRuntime{report: Report{RuntimeVersion: "2.3.1+cu121", AcceleratorBuilt: true}},
			cause:   CauseNoDeviceVisible,
			diag:    "possible causes",
		},
		{
			name:    "probe error",
			runtime: fakeRuntime{err: errors.New("ImportError: libcudnn.so.8")},
			cause:   CauseProbeFailed,
			diag:    "libcudnn.so.8",
		},
		{
			name:    "no runtime",
			runtime: nil,
			cause:   CauseProbeFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, diag, logs := newTestProber(tt.runtime)
			result := p.Probe(context.Background())
			if result.Available {
				t.Fatal("expected unavailable result")
			}
			if result.Cause != tt.cause {
				t.Fatalf("cause = %s, want %s", result.Cause, tt.cause)
			}
			if result.FailureReason == "" {
				t.Fatal("expected a failure reason")
			}
			if tt.diag != "" && !strings.Contains(diag.String(), tt.diag) {
				t.Fatalf("diagnostics missing %q: %s", tt.diag, diag.String())
			}
			if !strings.Contains(logs.String(), "level=WARN") {
				t.Fatalf("expected warning log, got %s", logs.String())
			}
		})
	}
}

func TestProbeTimeout(t *testing.T) {
	p, _, _ := newTestProber(fakeRuntime{block: true}, WithTimeout(10*time.Millisecond))
	result := p.Probe(context.Background())
	if result.Available || result.Cause != CauseProbeFailed {
		t.Fatalf("expected probe failure, got %+v", result)
	}
	if !strings.Contains(result.FailureReason, "timed out") {
		t.Fatalf("reason = %q", result.FailureReason)
	}
}

func TestProbeRecordsPCIDevices(t *testing.T) {
	scan := func() ([]PCIDevice, error) {
		return []PCIDevice{{Slot: "0000:01:00.0", PCIID: "10DE:2684", Driver: "nvidia"}}, nil
	}
	p, diag, _ := newTestProber(fakeRuntime{report: Report{AcceleratorBuilt: true}}, WithPCIScanner(scan))
	result := p.Probe(context.Background())
	if len(result.PCIDevices) != 1 || result.PCIDevices[0].Driver != "nvidia" {
		t.Fatalf("unexpected pci devices %+v", result.PCIDevices)
	}
	if !strings.Contains(diag.String(), "NVIDIA PCI devices in sysfs: 1") {
		t.Fatalf("diagnostics missing pci count: %s", diag.String())
	}
}

func TestPCIDeviceFromEnv(t *testing.T) {
	dev := pciDeviceFromEnv("/sys/devices/pci0000:00/0000:00:01.0/0000:01:00.0", map[string]string{
		"PCI_ID": "10de:2684",
		"DRIVER": "nvidia",
	})
	if dev.Slot != "0000:01:00.0" || dev.PCIID != "10DE:2684" || dev.Driver != "nvidia" {
		t.Fatalf("unexpected device %+v", dev)
	}
}

func TestCollectPCIDevicesKeepsWalkError(t *testing.T) {
	queue := make(chan crawler.Device, 2)
	errs := make(chan error, 8)
	queue <- crawler.Device{KObj: "/sys/devices/pci0000:00/0000:02:00.0", Env: map[string]string{"PCI_ID": "10de:1b80"}}
	queue <- crawler.Device{KObj: "/sys/devices/pci0000:00/0000:01:00.0", Env: map[string]string{"PCI_ID": "10de:2684"}}
	errs <- errors.New("open /sys/devices/platform/x/uevent: permission denied")
	close(queue)

	devices, err := collectPCIDevices(queue, errs)
	if len(devices) != 2 || devices[0].Slot != "0000:01:00.0" {
		t.Fatalf("unexpected devices %+v", devices)
	}
	if err == nil || !strings.Contains(err.Error(), "stopped early") {
		t.Fatalf("walk error should be reported, got %v", err)
	}
}

func TestCollectPCIDevicesCleanWalk(t *testing.T) {
	queue := make(chan crawler.Device)
	close(queue)
	devices, err := collectPCIDevices(queue, make(chan error, 8))
	if err != nil || len(devices) != 0 {
		t.Fatalf("collectPCIDevices = %v, %v", devices, err)
	}
}
