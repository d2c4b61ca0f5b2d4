package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Engine describes how the inference worker executable is launched.
type Engine struct {
	Command                   string   `toml:"command"`
	Args                      []string `toml:"args"`
	ProbeTimeoutSeconds       int      `toml:"probe_timeout_seconds"`
	LoadTimeoutSeconds        int      `toml:"load_timeout_seconds"`
	DecodeStartTimeoutSeconds int      `toml:"decode_start_timeout_seconds"`
	ShutdownGraceSeconds      int      `toml:"shutdown_grace_seconds"`
}

// Decode holds the decoding parameters sent with every transcription request.
type Decode struct {
	BeamSize                int     `toml:"beam_size" validate:"min=1,max=20"`
	VADFilter               bool    `toml:"vad_filter"`
	VADMinSilenceMs         int     `toml:"vad_min_silence_ms" validate:"min=0"`
	VADThreshold            float64 `toml:"vad_threshold" validate:"gte=0,lte=1"`
	WordTimestamps          bool    `toml:"word_timestamps"`
	InitialPrompt           string  `toml:"initial_prompt"`
	ConditionOnPreviousText bool    `toml:"condition_on_previous_text"`
}

// Paths contains external tool locations and storage directories.
type Paths struct {
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Logging contains configuration for the diagnostic log written to stderr.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// History controls the SQLite ledger of completed runs.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config encapsulates all configuration values for subgen.
//
// Configuration sections by subsystem:
//   - Engine: inference worker command and its timeouts
//   - Decode: beam size, voice-activity filter, prompt conditioning
//   - Paths: external tool locations
//   - Logging: diagnostic log format and level
//   - History: run ledger persistence
type Config struct {
	Engine  Engine  `toml:"engine"`
	Decode  Decode  `toml:"decode"`
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
	History History `toml:"history"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subgen.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates directories the run needs before it starts writing.
func (c *Config) EnsureDirectories() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		dir := filepath.Dir(c.History.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable used for duration fallback.
func (c *Config) FFprobeBinary() string {
	if c == nil || strings.TrimSpace(c.Paths.FFprobeBinary) == "" {
		return defaultFFprobeBinary
	}
	return c.Paths.FFprobeBinary
}

// ProbeTimeout bounds the accelerator probe.
func (c *Config) ProbeTimeout() time.Duration {
	return seconds(c.Engine.ProbeTimeoutSeconds)
}

// LoadTimeout bounds a single model load attempt.
func (c *Config) LoadTimeout() time.Duration {
	return seconds(c.Engine.LoadTimeoutSeconds)
}

// DecodeStartTimeout bounds the wait for stream metadata after a decode request.
func (c *Config) DecodeStartTimeout() time.Duration {
	return seconds(c.Engine.DecodeStartTimeoutSeconds)
}

// ShutdownGrace is how long a worker may take to exit after its input is closed.
func (c *Config) ShutdownGrace() time.Duration {
	return seconds(c.Engine.ShutdownGraceSeconds)
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultHistoryPath() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "subgen", "history.db")
	}
	return defaultHistoryPathFallback
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
