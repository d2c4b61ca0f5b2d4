package main

import (
	"strings"
	"testing"

	"subgen/internal/accel"
	"subgen/internal/deps"
)

func TestProbeReportsMissingWorker(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, stderr, err := runCLI(t, []string{"probe"}, env.configPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, out, string(accel.CauseProbeFailed))
	requireContains(t, out, "Transcription worker")
	requireContains(t, out, "ERROR")
	requireContains(t, stderr, "accelerator probe")
}

func TestWriteAccelTableListsPCIDevices(t *testing.T) {
	var b strings.Builder
	writeAccelTable(&b, accel.Result{
		Available: true,
		Identity:  "NVIDIA GeForce RTX 4090",
		Cause:     accel.CauseNone,
		Report: accel.Report{
			RuntimeVersion:   "2.4.0",
			AcceleratorBuilt: true,
			Devices:          []accel.Device{{Index: 0, Name: "NVIDIA GeForce RTX 4090"}},
		},
		PCIDevices: []accel.PCIDevice{{Slot: "0000:01:00.0", PCIID: "10DE:2684"}},
	}, false)

	out := b.String()
	requireContains(t, out, "NVIDIA GeForce RTX 4090")
	requireContains(t, out, "PCI 0000:01:00.0")
	requireContains(t, out, "no driver bound")
	requireContains(t, out, "OK")
}

func TestWriteDepsTableMarksOptionalAsWarning(t *testing.T) {
	var b strings.Builder
	writeDepsTable(&b, []deps.Status{
		{Name: "FFprobe", Command: "ffprobe", Optional: true, Detail: `binary "ffprobe" not found`},
	}, false)
	requireContains(t, b.String(), "WARN")
}

func TestProbeRunsPathChecks(t *testing.T) {
	env := setupCLITestEnv(t, false)
	input := env.input(t)

	out, _, err := runCLI(t, []string{
		"probe", "--input", input, "--model", "large-v3", "--output-dir", env.baseDir,
	}, env.configPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, out, "Input file")
	requireContains(t, out, "model id, resolved by worker")

	_, _, err = runCLI(t, []string{
		"probe", "--input", input, "--model", "large-v3", "--output-dir", env.baseDir + "/missing",
	}, env.configPath)
	if err == nil {
		t.Fatal("expected failing output directory check")
	}
	requireContains(t, err.Error(), "does not exist")
}
