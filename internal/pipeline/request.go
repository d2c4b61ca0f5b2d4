package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"subgen/internal/config"
	"subgen/internal/engine"
	"subgen/internal/language"
	"subgen/internal/plan"
)

// Request describes one transcription run.
type Request struct {
	InputPath string `flag:"input" validate:"required"`
	ModelPath string `flag:"model" validate:"required"`
	OutputDir string `flag:"output-dir" validate:"required"`
	Device    string `flag:"device" validate:"preference"`
	Language  string `flag:"language" validate:"langhint"`
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("flag"); name != "" {
			return "--" + name
		}
		return fld.Name
	})
	_ = v.RegisterValidation("preference", func(fl validator.FieldLevel) bool {
		_, err := plan.ParsePreference(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("langhint", func(fl validator.FieldLevel) bool {
		_, err := language.Hint(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the request before anything is reported.
func (r Request) Validate() error {
	err := requestValidator.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("invalid request: %w", err)
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	default:
		return fmt.Errorf("%s: unsupported value %q", fe.Field(), fe.Value())
	}
}

// Preference returns the parsed device preference; Validate must pass first.
func (r Request) Preference() plan.Preference {
	pref, _ := plan.ParsePreference(r.Device)
	return pref
}

// LanguageHint returns the ISO code to request, or "" for detection.
func (r Request) LanguageHint() string {
	hint, _ := language.Hint(r.Language)
	return hint
}

// OutputPath is "{OutputDir}/{input base name without extension}.srt".
func (r Request) OutputPath() string {
	base := filepath.Base(r.InputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(r.OutputDir, base+".srt")
}

// DecodeRequest builds the engine request for r from the decode settings.
func (r Request) DecodeRequest(settings config.Decode) engine.DecodeRequest {
	req := engine.DefaultDecodeRequest(r.InputPath, r.LanguageHint(), settings.InitialPrompt)
	req.BeamSize = settings.BeamSize
	req.VADFilter = settings.VADFilter
	req.VAD = engine.VADOptions{MinSilenceMs: settings.VADMinSilenceMs, Threshold: settings.VADThreshold}
	req.WordTimestamps = settings.WordTimestamps
	req.ConditionOnPreviousText = settings.ConditionOnPreviousText
	return req
}
