package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"subgen/internal/accel"
	"subgen/internal/config"
	"subgen/internal/deps"
	"subgen/internal/engine/worker"
	"subgen/internal/events"
	"subgen/internal/history"
	"subgen/internal/logging"
	"subgen/internal/media/ffprobe"
	"subgen/internal/pipeline"
	"subgen/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var req pipeline.Request

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe one media file into an SRT subtitle file",
		Long: "Transcribe one media file into an SRT subtitle file.\n\n" +
			"stdout carries one JSON event per line (log, progress, result); " +
			"diagnostics are written to stderr.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := req.Validate(); err != nil {
				return err
			}
			return executeRun(cmd, cfg, req)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.InputPath, "input", "", "Media file to transcribe")
	flags.StringVar(&req.ModelPath, "model", "", "Model directory or identifier")
	flags.StringVar(&req.Device, "device", "auto", "Device preference: auto, accelerated, cuda, or cpu")
	flags.StringVar(&req.OutputDir, "output-dir", "", "Directory for the generated .srt file")
	flags.StringVar(&req.Language, "language", "auto", "Spoken language (ISO code or name), or auto")
	return cmd
}

func executeRun(cmd *cobra.Command, cfg *config.Config, req pipeline.Request) error {
	stream := events.NewWriter(cmd.OutOrStdout())
	diag := cmd.ErrOrStderr()

	logger, err := logging.NewFromConfig(cfg, diag, stream)
	if err != nil {
		return err
	}

	workerCfg := workerConfig(cfg)
	opts := pipeline.Options{
		Engine:          worker.NewEngine(workerCfg),
		Prober:          accel.NewProber(worker.NewRuntime(workerCfg), diag, logger, accel.WithTimeout(cfg.ProbeTimeout())),
		Events:          stream,
		Logger:          logger,
		Duration:        ffprobe.NewProber(cfg.FFprobeBinary()),
		CheckCapability: capabilityCheck(cfg),
		Decode:          cfg.Decode,
	}

	if store := openHistory(cfg, logger); store != nil {
		defer store.Close()
		opts.History = store
	}

	_, err = pipeline.NewRunner(opts).Run(cmd.Context(), req)
	if err == nil {
		return nil
	}
	if pipeline.IsRunFailure(err) {
		return fmt.Errorf("%w: %w", errReported, err)
	}
	return err
}

func workerConfig(cfg *config.Config) worker.Config {
	return worker.Config{
		Command:            deps.ResolveWorker(cfg.Engine.Command),
		Args:               append([]string(nil), cfg.Engine.Args...),
		Env:                worker.DefaultEnv(),
		ProbeTimeout:       cfg.ProbeTimeout(),
		LoadTimeout:        cfg.LoadTimeout(),
		DecodeStartTimeout: cfg.DecodeStartTimeout(),
		ShutdownGrace:      cfg.ShutdownGrace(),
	}
}

// capabilityCheck fails when the worker executable cannot be found.
func capabilityCheck(cfg *config.Config) func() error {
	return func() error {
		statuses := deps.CheckBinaries([]deps.Requirement{preflight.WorkerRequirement(cfg)})
		missing := deps.Missing(statuses)
		if len(missing) == 0 {
			return nil
		}
		details := make([]string, 0, len(missing))
		for _, status := range missing {
			details = append(details, status.Detail)
		}
		return &pipeline.CapabilityMissingError{
			Component: missing[0].Name,
			Detail:    strings.Join(details, "; "),
		}
	}
}

// openHistory returns nil when the ledger is disabled or cannot be opened.
func openHistory(cfg *config.Config, logger *slog.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg)
	if err != nil {
		logger.Debug("history unavailable", logging.Error(err), logging.String("path", cfg.History.Path))
		return nil
	}
	return store
}
