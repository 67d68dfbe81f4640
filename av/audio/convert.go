// Package audio provides the sample-level building blocks of the noise
// suppression filter.
//
// This file implements the conversion between normalized float samples and
// signed 16-bit PCM used to feed the suppression engine. The conversion is
// intentionally lossy and unclamped so it matches the host's own behavior
// bit for bit.
package audio

import "github.com/opd-ai/micdsp/limits"

// FloatToInt16 converts a normalized float sample to 16-bit PCM.
//
// The sample is scaled by 32767 and truncated toward zero, not rounded.
// No clamping is performed: callers must keep samples within [-1, 1] or
// accept wraparound on out of range input.
func FloatToInt16(f float32) int16 {
	return int16(f * limits.Int16Scale)
}

// Int16ToFloat converts a 16-bit PCM sample back to a normalized float by
// dividing by 32768.
func Int16ToFloat(i int16) float32 {
	return float32(i) / limits.Int16Divisor
}

// FloatsToInt16 converts the first n samples of src into dst, where n is the
// shorter of the two slices. It returns the number of samples converted.
func FloatsToInt16(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = FloatToInt16(src[i])
	}
	return n
}

// Int16ToFloats converts the first n samples of src into dst, where n is the
// shorter of the two slices. It returns the number of samples converted.
func Int16ToFloats(dst []float32, src []int16) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = Int16ToFloat(src[i])
	}
	return n
}
