// params.go defines the immutable simulation parameters and their validation.
//
// Parameters are validated once at construction; Simulate re-checks them so a
// zero-value or hand-built struct is rejected before any randomness is drawn.
package qkd

import (
	qerrors "github.com/pzverkov/qtransfer/internal/errors"
)

// NoiseModel identifies the classical channel noise model.
type NoiseModel int

const (
	// NoiseModelNone disables channel noise.
	NoiseModelNone NoiseModel = iota

	// NoiseModelDepolarizing flips each received bit independently with
	// the configured noise probability.
	NoiseModelDepolarizing
)

// String returns a human-readable name for the noise model.
func (m NoiseModel) String() string {
	switch m {
	case NoiseModelNone:
		return "none"
	case NoiseModelDepolarizing:
		return "depolarizing"
	default:
		return "unknown"
	}
}

// IsSupported returns true if the noise model is supported.
func (m NoiseModel) IsSupported() bool {
	return m == NoiseModelNone || m == NoiseModelDepolarizing
}

// ParseNoiseModel parses a noise model name.
func ParseNoiseModel(s string) (NoiseModel, error) {
	switch s {
	case "none", "":
		return NoiseModelNone, nil
	case "depolarizing":
		return NoiseModelDepolarizing, nil
	default:
		return 0, qerrors.NewValidationError("noise_model", qerrors.ErrUnsupportedNoiseModel)
	}
}

// EveStrategy identifies the eavesdropping strategy.
type EveStrategy int

// EveStrategyInterceptResend is the only supported strategy: Eve measures
// each intercepted qubit in a random basis and resends her result.
const EveStrategyInterceptResend EveStrategy = iota

// String returns a human-readable name for the strategy.
func (s EveStrategy) String() string {
	if s == EveStrategyInterceptResend {
		return "intercept_resend"
	}
	return "unknown"
}

// IsSupported returns true if the strategy is supported.
func (s EveStrategy) IsSupported() bool {
	return s == EveStrategyInterceptResend
}

// ParseEveStrategy parses an eavesdropping strategy name.
func ParseEveStrategy(s string) (EveStrategy, error) {
	switch s {
	case "intercept_resend", "":
		return EveStrategyInterceptResend, nil
	default:
		return 0, qerrors.NewValidationError("eavesdrop_strategy", qerrors.ErrUnsupportedEveStrategy)
	}
}

// SimulationParameters configures one BB84 simulation run. Construct with
// NewSimulationParameters; the struct is treated as immutable afterwards.
type SimulationParameters struct {
	// QubitCount is the number of qubits Alice transmits.
	QubitCount int

	// NoiseModel selects the channel noise model.
	NoiseModel NoiseModel

	// NoiseProbability is the per-qubit bit-flip probability in [0, 1].
	NoiseProbability float64

	// EveFraction is the per-qubit interception probability in [0, 1].
	EveFraction float64

	// EveStrategy selects Eve's strategy when she intercepts.
	EveStrategy EveStrategy
}

// NewSimulationParameters builds and validates simulation parameters.
//
// Returns a ValidationError naming the offending parameter if the qubit count
// is non-positive, either probability falls outside [0, 1], or the noise
// model or eavesdropping strategy is unsupported.
func NewSimulationParameters(qubits int, noise NoiseModel, noiseP, eveFraction float64, strategy EveStrategy) (SimulationParameters, error) {
	p := SimulationParameters{
		QubitCount:       qubits,
		NoiseModel:       noise,
		NoiseProbability: noiseP,
		EveFraction:      eveFraction,
		EveStrategy:      strategy,
	}
	return p, p.Validate()
}

// Validate checks every parameter. It is called by Simulate before any
// randomness is consumed.
func (p SimulationParameters) Validate() error {
	if p.QubitCount <= 0 {
		return qerrors.NewValidationError("qubit_count", qerrors.ErrInvalidQubitCount)
	}
	if p.NoiseProbability < 0 || p.NoiseProbability > 1 {
		return qerrors.NewValidationError("noise_probability", qerrors.ErrInvalidProbability)
	}
	if p.EveFraction < 0 || p.EveFraction > 1 {
		return qerrors.NewValidationError("eavesdrop_fraction", qerrors.ErrInvalidProbability)
	}
	if !p.NoiseModel.IsSupported() {
		return qerrors.NewValidationError("noise_model", qerrors.ErrUnsupportedNoiseModel)
	}
	if !p.EveStrategy.IsSupported() {
		return qerrors.NewValidationError("eavesdrop_strategy", qerrors.ErrUnsupportedEveStrategy)
	}
	return nil
}
