package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeEngine()
	c.normalizeDecode()
	c.normalizePaths()
	c.normalizeLogging()
	return c.normalizeHistory()
}

func (c *Config) normalizeEngine() {
	if value, ok := os.LookupEnv("SUBGEN_ENGINE_COMMAND"); ok && strings.TrimSpace(value) != "" {
		c.Engine.Command = value
	}
	c.Engine.Command = strings.TrimSpace(c.Engine.Command)
	if c.Engine.Command == "" {
		c.Engine.Command = defaultEngineCommand
	}
	args := c.Engine.Args[:0]
	for _, arg := range c.Engine.Args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Engine.Args = args
	if c.Engine.ProbeTimeoutSeconds <= 0 {
		c.Engine.ProbeTimeoutSeconds = defaultProbeTimeoutSeconds
	}
	if c.Engine.LoadTimeoutSeconds <= 0 {
		c.Engine.LoadTimeoutSeconds = defaultLoadTimeoutSeconds
	}
	if c.Engine.DecodeStartTimeoutSeconds <= 0 {
		c.Engine.DecodeStartTimeoutSeconds = defaultDecodeStartTimeoutSeconds
	}
	if c.Engine.ShutdownGraceSeconds <= 0 {
		c.Engine.ShutdownGraceSeconds = defaultShutdownGraceSeconds
	}
}

func (c *Config) normalizeDecode() {
	if c.Decode.BeamSize == 0 {
		c.Decode.BeamSize = defaultBeamSize
	}
	c.Decode.InitialPrompt = strings.TrimSpace(c.Decode.InitialPrompt)
}

func (c *Config) normalizePaths() {
	c.Paths.FFprobeBinary = strings.TrimSpace(c.Paths.FFprobeBinary)
	if c.Paths.FFprobeBinary == "" {
		c.Paths.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath()
	}
	var err error
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}
