package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"subgen/internal/history"
)

func TestHistoryListsRecordedRuns(t *testing.T) {
	env := setupCLITestEnv(t, true)

	store, err := history.OpenPath(env.historyPath)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []history.Run{
		{
			ID: "a", StartedAt: started, FinishedAt: started.Add(90 * time.Second),
			InputPath: "/media/first.mkv", Plan: "cuda/float16", Success: true,
			Language: "ko", DurationSeconds: 600, CueCount: 42,
		},
		{
			ID: "b", StartedAt: started.Add(time.Hour), FinishedAt: started.Add(time.Hour + time.Minute),
			InputPath: "/media/second.mkv", Plan: "cpu/int8", LoadFallback: true,
			ErrorMessage: "decode failed",
		},
	}
	for _, run := range runs {
		if err := store.Record(context.Background(), run); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "second.mkv")
	requireContains(t, out, "cpu/int8 (fallback)")
	if strings.Contains(out, "first.mkv") {
		t.Fatalf("expected --limit to cap output, got %q", out)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "first.mkv")
	requireContains(t, out, "42")
	requireContains(t, out, "10m0s")
}

func TestHistoryEmptyAndDisabled(t *testing.T) {
	env := setupCLITestEnv(t, true)
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	disabled := setupCLITestEnv(t, false)
	if _, _, err := runCLI(t, []string{"history"}, disabled.configPath); err == nil {
		t.Fatal("expected error when history is disabled")
	}
}

func TestRenderHistoryNoColorWithoutTTY(t *testing.T) {
	out := renderHistory([]history.Run{{InputPath: "x.mkv", Success: true}}, false)
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected ANSI escape in %q", out)
	}
	requireContains(t, out, "OK")
}
