// Package interfaces defines the collaborator contracts of the noise
// suppression filter: the external suppression engine, the audio subsystem
// that supplies the stream format, and the settings store.
//
// This package provides the abstractions that let the filter core run against
// the built-in spectral engine in production and against a recording double in
// tests, without either side knowing about the other.
//
// # Core Interfaces
//
// [ISuppressionEngine] allocates per-channel engine state. It is the only
// point at which engine resources are created:
//
//	state, err := engine.Init(480, 48000)
//	if err != nil {
//	    return fmt.Errorf("engine init failed: %w", err)
//	}
//	defer state.Destroy()
//
// [IEngineState] is the opaque per-channel handle. The filter pushes the
// suppression level before every run and hands it one 16-bit segment, which
// the state rewrites in place:
//
//	if err := state.SetControl(interfaces.ControlNoiseSuppress, -30); err != nil {
//	    return err
//	}
//	voice, err := state.Run(segment)
//
// [IAudioSubsystem] reports the process-wide sample rate and channel count,
// queried on every configuration change.
//
// [ISettings] exposes the host's settings object. Only integer values are
// needed by the filter.
//
// # Configuration
//
// [EngineConfig] selects and tunes the engine implementation:
//
//	config := &interfaces.EngineConfig{
//	    Kind:                interfaces.EngineKindSpectral,
//	    NoiseEstimateFrames: 20,
//	    OverSubtraction:     2.0,
//	}
//	if err := config.Validate(); err != nil {
//	    log.Fatalf("invalid config: %v", err)
//	}
//
// # Implementation Selection
//
// The factory package creates implementations based on configuration:
//   - EngineKindSpectral: SpectralEngine from av/audio
//   - EngineKindPassthrough: PassthroughEngine from av/audio
//   - EngineKindSimulated: SimulatedEngine from the testing package
//
// # Thread Safety
//
// Engine states are owned by exactly one filter instance and are driven from
// the host's audio thread only. Implementations need not be safe for
// concurrent use of a single state; distinct states must not share mutable
// data.
package interfaces
