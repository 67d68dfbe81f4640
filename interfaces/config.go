package interfaces

import (
	"errors"
	"fmt"
)

// Engine kinds understood by the factory.
const (
	EngineKindSpectral    = "spectral"
	EngineKindPassthrough = "passthrough"
	EngineKindSimulated   = "simulated"
)

var (
	// ErrUnknownEngineKind indicates an unsupported EngineConfig.Kind
	ErrUnknownEngineKind = errors.New("unknown engine kind")

	// ErrInvalidNoiseEstimateFrames indicates a non-positive estimation window
	ErrInvalidNoiseEstimateFrames = errors.New("noise estimate frames must be positive")

	// ErrInvalidOverSubtraction indicates an over-subtraction factor below 1
	ErrInvalidOverSubtraction = errors.New("over-subtraction factor must be at least 1")
)

// EngineConfig holds configuration for suppression engine implementations
type EngineConfig struct {
	// Kind selects the engine implementation
	Kind string

	// NoiseEstimateFrames is the number of initial frames used to learn the noise floor
	NoiseEstimateFrames int

	// OverSubtraction scales the noise estimate before it is subtracted
	OverSubtraction float64

	// RebindOnFormatChange lets the filter recreate bound channels when the
	// audio format changes instead of keeping the original engine state
	RebindOnFormatChange bool
}

// Validate checks the configuration for values no engine can work with.
func (c *EngineConfig) Validate() error {
	switch c.Kind {
	case EngineKindSpectral, EngineKindPassthrough, EngineKindSimulated:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEngineKind, c.Kind)
	}
	if c.NoiseEstimateFrames <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidNoiseEstimateFrames, c.NoiseEstimateFrames)
	}
	if c.OverSubtraction < 1 {
		return fmt.Errorf("%w: got %f", ErrInvalidOverSubtraction, c.OverSubtraction)
	}
	return nil
}
