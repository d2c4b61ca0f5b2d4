package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subgen/internal/accel"
	"subgen/internal/deps"
	"subgen/internal/engine/worker"
	"subgen/internal/logging"
	"subgen/internal/preflight"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var inputPath, modelPath, outputDir string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report accelerator availability and external dependencies",
		Long: "Report accelerator availability and external dependencies.\n\n" +
			"With --input, --model, or --output-dir the run's path checks are reported too " +
			"and a failing check exits non-zero.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			diag := cmd.ErrOrStderr()
			logger, err := logging.New(logging.Options{
				Level:      cfg.Logging.Level,
				Format:     cfg.Logging.Format,
				Diagnostic: diag,
			})
			if err != nil {
				return err
			}

			workerCfg := workerConfig(cfg)
			prober := accel.NewProber(worker.NewRuntime(workerCfg), diag, logger, accel.WithTimeout(cfg.ProbeTimeout()))
			result := prober.Probe(cmd.Context())

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			writeAccelTable(out, result, colorize)
			fmt.Fprintln(out)
			writeDepsTable(out, preflight.CheckSystemDeps(cfg), colorize)

			if inputPath == "" && modelPath == "" && outputDir == "" {
				return nil
			}
			results := preflight.RunAll(inputPath, modelPath, outputDir)
			fmt.Fprintln(out)
			writePreflightTable(out, results, colorize)
			return preflight.FirstFailure(results)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Media file to check")
	cmd.Flags().StringVar(&modelPath, "model", "", "Model directory or identifier to check")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory to check")
	return cmd
}

func writePreflightTable(out io.Writer, results []preflight.Result, colorize bool) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		rows = append(rows, []string{r.Name, statusLabel(kind, colorize), r.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil, colorize))
}

func writeAccelTable(out io.Writer, result accel.Result, colorize bool) {
	verdict := statusLabel(statusOK, colorize)
	if !result.Available {
		verdict = statusLabel(statusWarn, colorize)
	}
	rows := [][]string{
		{"Accelerator", verdict},
		{"Identity", valueOr(result.Identity, "-")},
		{"Cause", string(result.Cause)},
		{"Runtime version", valueOr(result.Report.RuntimeVersion, "unknown")},
		{"Accelerator support built", yesNo(result.Report.AcceleratorBuilt)},
		{"Devices visible", strconv.Itoa(len(result.Report.Devices))},
		{"NVIDIA PCI devices", strconv.Itoa(len(result.PCIDevices))},
	}
	if result.FailureReason != "" {
		rows = append(rows, []string{"Reason", result.FailureReason})
	}
	for _, dev := range result.PCIDevices {
		rows = append(rows, []string{"PCI " + dev.Slot, pciSummary(dev)})
	}
	fmt.Fprintln(out, renderTable([]string{"Check", "Value"}, rows, nil, colorize))
}

func pciSummary(dev accel.PCIDevice) string {
	driver := dev.Driver
	if driver == "" {
		driver = "no driver bound"
	}
	return fmt.Sprintf("%s (%s)", dev.PCIID, driver)
}

func writeDepsTable(out io.Writer, statuses []deps.Status, colorize bool) {
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		kind := statusOK
		detail := status.Path
		if !status.Available {
			kind = statusError
			if status.Optional {
				kind = statusWarn
			}
			detail = status.Detail
		}
		rows = append(rows, []string{status.Name, status.Command, statusLabel(kind, colorize), detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Dependency", "Command", "Status", "Detail"}, rows, nil, colorize))
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
