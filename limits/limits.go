// Package limits provides centralized audio format and suppression limits.
// This ensures consistent validation across the engine, filter and host layers.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MinSuppressLevel is the strongest supported suppression in dB.
	MinSuppressLevel = -60

	// MaxSuppressLevel disables suppression (0 dB attenuation).
	MaxSuppressLevel = 0

	// DefaultSuppressLevel is applied to newly created filters.
	DefaultSuppressLevel = -30

	// MaxChannels is the number of channels that receive suppression.
	// Additional channels in a block pass through untouched.
	MaxChannels = 2

	// SegmentsPerSecond fixes the engine segment length at 10 ms.
	SegmentsPerSecond = 100

	// MaxSampleRate bounds the sample rates accepted from the audio subsystem.
	MaxSampleRate = 384000

	// Int16Scale converts normalized float samples to 16-bit PCM.
	Int16Scale = 32767.0

	// Int16Divisor converts 16-bit PCM back to normalized float samples.
	Int16Divisor = 32768.0
)

var (
	// ErrSampleRateInvalid indicates a zero or out of range sample rate
	ErrSampleRateInvalid = errors.New("invalid sample rate")

	// ErrSuppressLevelOutOfRange indicates a level outside [MinSuppressLevel, MaxSuppressLevel]
	ErrSuppressLevelOutOfRange = errors.New("suppress level out of range")
)

// SegmentSize returns the number of frames in one 10 ms segment at sampleRate.
// Integer division is used, matching the host's own block arithmetic.
func SegmentSize(sampleRate uint32) int {
	return int(sampleRate / SegmentsPerSecond)
}

// ValidateSampleRate checks that sampleRate yields a usable segment.
// Returns an error with context if the rate is too small or too large.
func ValidateSampleRate(sampleRate uint32) error {
	if sampleRate < SegmentsPerSecond {
		return fmt.Errorf("%w: %d Hz is below %d Hz", ErrSampleRateInvalid, sampleRate, SegmentsPerSecond)
	}
	if sampleRate > MaxSampleRate {
		return fmt.Errorf("%w: %d Hz exceeds limit %d Hz", ErrSampleRateInvalid, sampleRate, MaxSampleRate)
	}
	return nil
}

// ValidateSuppressLevel checks that level lies in the declared slider range.
func ValidateSuppressLevel(level int) error {
	if level < MinSuppressLevel || level > MaxSuppressLevel {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrSuppressLevelOutOfRange, level, MinSuppressLevel, MaxSuppressLevel)
	}
	return nil
}

// ClampSuppressLevel limits level to the declared slider range.
// The second return value reports whether the level was changed.
func ClampSuppressLevel(level int) (int, bool) {
	if level < MinSuppressLevel {
		return MinSuppressLevel, true
	}
	if level > MaxSuppressLevel {
		return MaxSuppressLevel, true
	}
	return level, false
}
