package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"subgen/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent transcription runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("run history is disabled (set [history] enabled = true)")
			}
			if limit < 0 {
				return fmt.Errorf("--limit: must not be negative, got %d", limit)
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistory(runs, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func renderHistory(runs []history.Run, colorize bool) string {
	headers := []string{"Started", "Input", "Status", "Plan", "Language", "Cues", "Media", "Elapsed"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := statusLabel(statusOK, colorize)
		if !run.Success {
			status = statusLabel(statusError, colorize)
		}
		plan := valueOr(run.Plan, "-")
		if run.LoadFallback || run.DecodeRetry {
			plan += " (fallback)"
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			filepath.Base(run.InputPath),
			status,
			plan,
			valueOr(run.Language, "-"),
			strconv.Itoa(run.CueCount),
			formatSeconds(run.DurationSeconds),
			run.Elapsed().Round(time.Second).String(),
		})
	}
	return renderTable(headers, rows, aligns, colorize)
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return (time.Duration(seconds * float64(time.Second))).Round(time.Second).String()
}
