// Package audio provides the sample-level building blocks of the noise
// suppression filter.
//
// This file implements sample rate conversion for planar float audio. The
// noise suppression filter itself never resamples; the resampler brings
// decoded sources to the audio output rate before blocks reach the filter.
package audio

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/limits"
)

// Resampler provides streaming sample rate conversion for planar float audio.
//
// Each plane runs through its own polyphase FIR resampler from algo-dsp, so
// filter history carries across calls and consecutive chunks join seamlessly.
// Equal input and output rates bypass the filters and copy the planes.
type Resampler struct {
	inputRate  uint32
	outputRate uint32
	channels   int
	planes     []*resample.Resampler // One per channel; nil when rates match
	scratch    []float64
}

// ResamplerConfig holds configuration for creating a resampler.
type ResamplerConfig struct {
	InputRate  uint32 // Input sample rate in Hz
	OutputRate uint32 // Output sample rate in Hz
	Channels   int    // Number of planes (1 or 2)
}

// NewResampler creates a new resampler instance.
//
// Parameters:
//   - config: Resampler configuration
//
// Returns:
//   - *Resampler: New resampler instance
//   - error: Validation error if rates or channel count are invalid
func NewResampler(config ResamplerConfig) (*Resampler, error) {
	logrus.WithFields(logrus.Fields{
		"function":    "NewResampler",
		"input_rate":  config.InputRate,
		"output_rate": config.OutputRate,
		"channels":    config.Channels,
	}).Info("Creating new audio resampler")

	if err := limits.ValidateSampleRate(config.InputRate); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "NewResampler",
			"input_rate": config.InputRate,
			"error":      err.Error(),
		}).Error("Sample rate validation failed")
		return nil, fmt.Errorf("invalid input rate: %w", err)
	}
	if err := limits.ValidateSampleRate(config.OutputRate); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "NewResampler",
			"output_rate": config.OutputRate,
			"error":       err.Error(),
		}).Error("Sample rate validation failed")
		return nil, fmt.Errorf("invalid output rate: %w", err)
	}

	if config.Channels < 1 || config.Channels > limits.MaxChannels {
		logrus.WithFields(logrus.Fields{
			"function": "NewResampler",
			"channels": config.Channels,
			"error":    "unsupported channel count",
		}).Error("Channel count validation failed")
		return nil, fmt.Errorf("unsupported channel count: %d (must be 1 or 2)", config.Channels)
	}

	r := &Resampler{
		inputRate:  config.InputRate,
		outputRate: config.OutputRate,
		channels:   config.Channels,
	}
	if config.InputRate == config.OutputRate {
		return r, nil
	}

	r.planes = make([]*resample.Resampler, config.Channels)
	for ch := range r.planes {
		plane, err := resample.NewForRates(float64(config.InputRate), float64(config.OutputRate),
			resample.WithQuality(resample.QualityBalanced))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "NewResampler",
				"input_rate":  config.InputRate,
				"output_rate": config.OutputRate,
				"error":       err.Error(),
			}).Error("Resampler design failed")
			return nil, fmt.Errorf("failed to design resampler: %w", err)
		}
		r.planes[ch] = plane
	}

	up, down := r.planes[0].Ratio()
	logrus.WithFields(logrus.Fields{
		"function":       "NewResampler",
		"up":             up,
		"down":           down,
		"taps_per_phase": r.planes[0].TapsPerPhase(),
	}).Debug("Polyphase resampler designed")

	return r, nil
}

// validatePlanes checks that planes matches the channel count and that all
// planes carry the same number of frames. Returns the frame count.
func validatePlanes(planes [][]float32, channels int) (int, error) {
	if len(planes) != channels {
		return 0, fmt.Errorf("got %d planes, resampler configured for %d", len(planes), channels)
	}
	frames := len(planes[0])
	for ch, plane := range planes {
		if len(plane) != frames {
			return 0, fmt.Errorf("plane %d holds %d frames, plane 0 holds %d", ch, len(plane), frames)
		}
	}
	return frames, nil
}

// Resample converts one chunk of planar audio from the input to the output rate.
//
// Parameters:
//   - planes: One slice per channel, all of equal length
//
// Returns:
//   - [][]float32: Newly allocated resampled planes
//   - error: Validation error if the planes are malformed
func (r *Resampler) Resample(planes [][]float32) ([][]float32, error) {
	frames, err := validatePlanes(planes, r.channels)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Resampler.Resample",
			"error":    err.Error(),
		}).Error("Input validation failed")
		return nil, err
	}

	out := make([][]float32, r.channels)

	if frames == 0 {
		for ch := range out {
			out[ch] = []float32{}
		}
		return out, nil
	}

	if r.planes == nil {
		for ch, plane := range planes {
			out[ch] = append([]float32(nil), plane...)
		}
		return out, nil
	}

	if cap(r.scratch) < frames {
		r.scratch = make([]float64, frames)
	}
	scratch := r.scratch[:frames]
	for ch, plane := range planes {
		for i, v := range plane {
			scratch[i] = float64(v)
		}
		converted := r.planes[ch].Process(scratch)
		out[ch] = make([]float32, len(converted))
		for i, v := range converted {
			out[ch][i] = float32(v)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":      "Resampler.Resample",
		"input_frames":  frames,
		"output_frames": len(out[0]),
	}).Debug("Resampled audio chunk")

	return out, nil
}

// GetInputRate returns the configured input sample rate.
func (r *Resampler) GetInputRate() uint32 {
	return r.inputRate
}

// GetOutputRate returns the configured output sample rate.
func (r *Resampler) GetOutputRate() uint32 {
	return r.outputRate
}

// GetChannels returns the configured number of channels.
func (r *Resampler) GetChannels() int {
	return r.channels
}

// Reset clears the filter history, for use at stream discontinuities.
func (r *Resampler) Reset() {
	logrus.WithFields(logrus.Fields{
		"function": "Resampler.Reset",
	}).Info("Resetting resampler state")

	for _, plane := range r.planes {
		plane.Reset()
	}
}
