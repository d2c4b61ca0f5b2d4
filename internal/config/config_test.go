package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subgen/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("SUBGEN_ENGINE_COMMAND", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "subgen", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantHistory := filepath.Join(tempHome, ".local", "share", "subgen", "history.db")
	if cfg.History.Path != wantHistory {
		t.Fatalf("unexpected history path: got %q want %q", cfg.History.Path, wantHistory)
	}
	if cfg.Engine.Command != "subgen-worker" {
		t.Fatalf("unexpected engine command %q", cfg.Engine.Command)
	}
	if cfg.Decode.BeamSize != 5 {
		t.Fatalf("expected beam size 5, got %d", cfg.Decode.BeamSize)
	}
	if !cfg.Decode.VADFilter || cfg.Decode.VADMinSilenceMs != 500 || cfg.Decode.VADThreshold != 0.5 {
		t.Fatalf("unexpected VAD defaults: %+v", cfg.Decode)
	}
	if !cfg.Decode.WordTimestamps || !cfg.Decode.ConditionOnPreviousText {
		t.Fatalf("expected word timestamps and prompt conditioning enabled: %+v", cfg.Decode)
	}
	if cfg.Decode.InitialPrompt == "" {
		t.Fatal("expected a default initial prompt")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.LoadTimeout().Seconds() != 600 {
		t.Fatalf("unexpected load timeout %s", cfg.LoadTimeout())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SUBGEN_ENGINE_COMMAND", "")

	configPath := filepath.Join(t.TempDir(), "subgen.toml")
	payload := struct {
		Engine struct {
			Command string   `toml:"command"`
			Args    []string `toml:"args"`
		} `toml:"engine"`
		Decode struct {
			BeamSize int `toml:"beam_size"`
		} `toml:"decode"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
		History struct {
			Path string `toml:"path"`
		} `toml:"history"`
	}{}
	payload.Engine.Command = "  /opt/worker/bin/run  "
	payload.Engine.Args = []string{"--quiet", " "}
	payload.Decode.BeamSize = 3
	payload.Logging.Format = "JSON"
	payload.History.Path = "~/runs/history.db"

	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Engine.Command != "/opt/worker/bin/run" {
		t.Fatalf("expected trimmed engine command, got %q", cfg.Engine.Command)
	}
	if len(cfg.Engine.Args) != 1 || cfg.Engine.Args[0] != "--quiet" {
		t.Fatalf("unexpected engine args %v", cfg.Engine.Args)
	}
	if cfg.Decode.BeamSize != 3 {
		t.Fatalf("expected beam size override, got %d", cfg.Decode.BeamSize)
	}
	if !cfg.Decode.VADFilter {
		t.Fatal("expected unspecified vad_filter to keep its default")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lower-cased log format, got %q", cfg.Logging.Format)
	}
	if cfg.History.Path != filepath.Join(tempHome, "runs", "history.db") {
		t.Fatalf("unexpected history path %q", cfg.History.Path)
	}
}

func TestEngineCommandEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SUBGEN_ENGINE_COMMAND", "custom-worker")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.Command != "custom-worker" {
		t.Fatalf("expected env override, got %q", cfg.Engine.Command)
	}
}

func TestValidateRejectsBadDecodeParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative beam", func(c *config.Config) { c.Decode.BeamSize = -1 }, "decode.beam_size"},
		{"threshold above one", func(c *config.Config) { c.Decode.VADThreshold = 1.5 }, "decode.vad_threshold"},
		{"negative silence", func(c *config.Config) { c.Decode.VADMinSilenceMs = -10 }, "decode.vad_min_silence_ms"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"empty command", func(c *config.Config) { c.Engine.Command = " " }, "engine.command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleWritesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SUBGEN_ENGINE_COMMAND", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Decode.BeamSize != 5 || cfg.Engine.Command != "subgen-worker" {
		t.Fatalf("sample config diverges from defaults: %+v", cfg)
	}
}
