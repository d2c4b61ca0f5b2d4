package preflight

import (
	"fmt"
	"strings"

	"subgen/internal/config"
	"subgen/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Err converts a failed result into an error.
func (r Result) Err() error {
	if r.Passed {
		return nil
	}
	return fmt.Errorf("%s: %s", strings.ToLower(r.Name), r.Detail)
}

// RunAll executes the path checks for one run.
func RunAll(inputPath, modelPath, outputDir string) []Result {
	return []Result{
		CheckInputFile("Input file", inputPath),
		CheckModelPath("Model", modelPath),
		CheckDirectoryAccess("Output directory", outputDir),
	}
}

// FirstFailure returns the first failed result as an error.
func FirstFailure(results []Result) error {
	for _, r := range results {
		if !r.Passed {
			return r.Err()
		}
	}
	return nil
}

// WorkerRequirement describes the transcription worker executable.
func WorkerRequirement(cfg *config.Config) deps.Requirement {
	return deps.Requirement{
		Name:        "Transcription worker",
		Command:     deps.ResolveWorker(cfg.Engine.Command),
		Description: "Required for model loading and decoding",
	}
}

// CheckSystemDeps evaluates all executable dependencies for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		WorkerRequirement(cfg),
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Duration fallback for progress reporting",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}
