// Package plan decides which hardware backend and numeric precision a run
// executes with.
package plan

import (
	"fmt"
	"strings"
)

// Backend is the hardware execution target.
type Backend int

const (
	CPU Backend = iota
	Accelerated
)

// String returns the device name understood by the inference worker.
func (b Backend) String() string {
	if b == Accelerated {
		return "cuda"
	}
	return "cpu"
}

// Precision is the numeric representation used during inference.
type Precision int

const (
	Low Precision = iota
	High
)

// String returns the compute type understood by the inference worker.
func (p Precision) String() string {
	if p == High {
		return "float16"
	}
	return "int8"
}

// Plan pairs a backend with its precision. CPU always runs Low and
// Accelerated always runs High; use the constructors rather than literals.
type Plan struct {
	Backend   Backend
	Precision Precision
}

// CPUPlan is the universal fallback plan.
func CPUPlan() Plan {
	return Plan{Backend: CPU, Precision: Low}
}

// AcceleratedPlan is the plan used when a device is available.
func AcceleratedPlan() Plan {
	return Plan{Backend: Accelerated, Precision: High}
}

// IsAccelerated reports whether the plan targets the accelerator.
func (p Plan) IsAccelerated() bool {
	return p.Backend == Accelerated
}

// Demote returns the CPU plan. Plans are values; the receiver is untouched.
func (p Plan) Demote() Plan {
	return CPUPlan()
}

func (p Plan) String() string {
	return p.Backend.String() + "/" + p.Precision.String()
}

// Preference is the user's requested backend.
type Preference int

const (
	PreferAuto Preference = iota
	PreferAccelerated
	PreferCPU
)

func (p Preference) String() string {
	switch p {
	case PreferAccelerated:
		return "accelerated"
	case PreferCPU:
		return "cpu"
	default:
		return "auto"
	}
}

// ParsePreference accepts auto, accelerated (alias cuda, gpu), and cpu.
func ParsePreference(value string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return PreferAuto, nil
	case "accelerated", "cuda", "gpu":
		return PreferAccelerated, nil
	case "cpu":
		return PreferCPU, nil
	default:
		return PreferAuto, fmt.Errorf("unsupported device %q (want auto, cuda, or cpu)", value)
	}
}

// Select maps a preference and accelerator availability onto a plan.
//
//	auto         + available   -> accelerated/high
//	auto         + unavailable -> cpu/low
//	accelerated  + available   -> accelerated/high
//	accelerated  + unavailable -> cpu/low (see Downgraded)
//	cpu                        -> cpu/low
func Select(pref Preference, acceleratorAvailable bool) Plan {
	if pref == PreferCPU || !acceleratorAvailable {
		return CPUPlan()
	}
	return AcceleratedPlan()
}

// Downgraded reports whether Select overrode an explicit accelerator request.
func Downgraded(pref Preference, acceleratorAvailable bool) bool {
	return pref == PreferAccelerated && !acceleratorAvailable
}
