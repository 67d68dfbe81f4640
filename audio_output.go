package micdsp

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/limits"
)

// AudioOutput holds the process-wide audio output format every filter reads
// when it is configured. It is safe for concurrent use.
type AudioOutput struct {
	mu         sync.RWMutex
	sampleRate uint32
	channels   int
}

// NewAudioOutput creates an audio output with the given format.
func NewAudioOutput(sampleRate uint32, channels int) (*AudioOutput, error) {
	out := &AudioOutput{}
	if err := out.SetFormat(sampleRate, channels); err != nil {
		return nil, err
	}
	return out, nil
}

// SetFormat changes the output format. Filters pick the change up on their
// next configuration call.
func (o *AudioOutput) SetFormat(sampleRate uint32, channels int) error {
	if err := limits.ValidateSampleRate(sampleRate); err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	if channels < 1 {
		return fmt.Errorf("audio output: channel count must be positive, got %d", channels)
	}

	o.mu.Lock()
	oldRate, oldChannels := o.sampleRate, o.channels
	o.sampleRate = sampleRate
	o.channels = channels
	o.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":     "AudioOutput.SetFormat",
		"old_rate":     oldRate,
		"new_rate":     sampleRate,
		"old_channels": oldChannels,
		"new_channels": channels,
	}).Info("Audio output format set")
	return nil
}

// SampleRate returns the output sample rate in Hz.
func (o *AudioOutput) SampleRate() uint32 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sampleRate
}

// Channels returns the number of output channels.
func (o *AudioOutput) Channels() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.channels
}
