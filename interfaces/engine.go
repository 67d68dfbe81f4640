package interfaces

import "fmt"

// EngineControl identifies a control request accepted by IEngineState.SetControl.
type EngineControl int

const (
	// ControlNoiseSuppress sets the maximum noise attenuation in dB (<= 0).
	ControlNoiseSuppress EngineControl = iota

	// ControlDenoise enables (non-zero) or disables (zero) suppression.
	ControlDenoise
)

// String returns the control name for logging.
func (c EngineControl) String() string {
	switch c {
	case ControlNoiseSuppress:
		return "NOISE_SUPPRESS"
	case ControlDenoise:
		return "DENOISE"
	default:
		return fmt.Sprintf("CONTROL(%d)", int(c))
	}
}

// ISuppressionEngine defines the allocation side of an external suppression engine.
// Each call to Init yields an independent per-channel state.
type ISuppressionEngine interface {
	// Name returns a human-readable engine name
	Name() string

	// Init allocates a state processing segmentFrames samples per run at sampleRate
	Init(segmentFrames, sampleRate int) (IEngineState, error)
}

// IEngineState is an opaque per-channel suppression context.
type IEngineState interface {
	// SetControl applies a control value to the state
	SetControl(control EngineControl, value int) error

	// Run suppresses noise in segment in place and reports voice activity.
	// segment holds exactly the frame count passed to Init.
	Run(segment []int16) (bool, error)

	// Destroy releases the state; it must not be used afterwards
	Destroy() error
}

// IAudioSubsystem reports the process-wide audio output format.
type IAudioSubsystem interface {
	// SampleRate returns the output sample rate in Hz
	SampleRate() uint32

	// Channels returns the number of output channels
	Channels() int
}

// ISettings gives read access to a host settings object.
type ISettings interface {
	// GetInt returns the integer stored under key, or its default
	GetInt(key string) int64
}
