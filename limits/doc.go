// Package limits provides centralized constants and validation functions for
// the noise suppression filter. It keeps the audio format bounds, the
// suppression level range and the sample scaling factors in one place so the
// engine, the filter core and the host layer agree on them.
//
// # Suppression Level
//
// The suppression level is an attenuation expressed in decibels:
//
//   - MaxSuppressLevel (0 dB): no suppression.
//   - DefaultSuppressLevel (-30 dB): the value new filters start with.
//   - MinSuppressLevel (-60 dB): maximum suppression.
//
// Host settings may carry values outside this range. Use ClampSuppressLevel to
// bring them back into range, or ValidateSuppressLevel to reject them:
//
//	level, clamped := limits.ClampSuppressLevel(raw)
//	if clamped {
//	    // log the adjustment
//	}
//
// # Segment Size
//
// The suppression engine works on 10 ms segments. SegmentSize derives the
// number of frames per segment from the stream sample rate using integer
// division, so 48000 Hz yields 480 frames and 44100 Hz yields 441:
//
//	if err := limits.ValidateSampleRate(rate); err != nil {
//	    return err
//	}
//	frames := limits.SegmentSize(rate)
//
// # Sample Scaling
//
// Float samples are scaled by Int16Scale (32767) on the way into the engine and
// divided by Int16Divisor (32768) on the way back. The asymmetry is deliberate
// and matches the host's own 16-bit conversion, so a round trip may differ
// from the input by up to two quantization steps.
//
// # Error Types
//
//   - ErrSampleRateInvalid: zero or above MaxSampleRate.
//   - ErrSuppressLevelOutOfRange: outside [MinSuppressLevel, MaxSuppressLevel].
package limits
