package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateDecode(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEngine() error {
	if strings.TrimSpace(c.Engine.Command) == "" {
		return errors.New("engine.command must be set")
	}
	return nil
}

func (c *Config) validateDecode() error {
	if err := structValidator.Struct(c.Decode); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("decode.%s: failed %q constraint (value %v)", tomlKey(fe.Field()), fe.Tag()+fe.Param(), fe.Value())
		}
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func tomlKey(field string) string {
	switch field {
	case "BeamSize":
		return "beam_size"
	case "VADMinSilenceMs":
		return "vad_min_silence_ms"
	case "VADThreshold":
		return "vad_threshold"
	default:
		return strings.ToLower(field)
	}
}
