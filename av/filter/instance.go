package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/av/audio"
	"github.com/opd-ai/micdsp/interfaces"
	"github.com/opd-ai/micdsp/limits"
)

// SettingSuppressLevel is the settings key holding the suppression level in dB.
const SettingSuppressLevel = "suppress_level"

// Options tunes instance behaviour beyond the settings store.
type Options struct {
	// RebindOnFormatChange recreates bound channels whose segment size or
	// sample rate no longer matches the audio subsystem. When false, bound
	// channels keep their creation-time sizing for their whole lifetime.
	RebindOnFormatChange bool
}

// ChannelStats holds per-channel processing counters.
type ChannelStats struct {
	BlocksProcessed uint64
	BlocksSkipped   uint64
	Overruns        uint64
	EngineErrors    uint64
	LastVoice       bool
}

// Stats is a snapshot of an instance's processing counters.
type Stats struct {
	Channels [limits.MaxChannels]ChannelStats
}

// Instance is one attached noise suppression filter.
//
// The host calls ApplyConfiguration and Process sequentially from its audio
// thread; Instance performs no locking of its own.
type Instance struct {
	name     string
	level    int
	audio    interfaces.IAudioSubsystem
	channels *ChannelStateManager
	opts     Options
	stats    Stats

	destroyed bool
	log       *logrus.Entry
}

// New creates an unconfigured filter instance with every channel empty.
// Call ApplyConfiguration to read settings and bind channels.
//
// Parameters:
//   - name: Source name used as log context
//   - engine: Suppression engine allocating per-channel states
//   - output: Audio subsystem reporting the process-wide format
//   - opts: Behaviour options
//
// Returns:
//   - *Instance: The new instance
//   - error: If a collaborator is missing
func New(name string, engine interfaces.ISuppressionEngine, output interfaces.IAudioSubsystem, opts Options) (*Instance, error) {
	if engine == nil {
		return nil, errors.New("suppression engine is required")
	}
	if output == nil {
		return nil, errors.New("audio subsystem is required")
	}

	log := logrus.WithField("source", name)
	log.WithFields(logrus.Fields{
		"function":                "New",
		"engine":                  engine.Name(),
		"rebind_on_format_change": opts.RebindOnFormatChange,
	}).Info("Creating noise suppression filter instance")

	return &Instance{
		name:     name,
		level:    limits.DefaultSuppressLevel,
		audio:    output,
		channels: NewChannelStateManager(engine, log),
		opts:     opts,
		log:      log,
	}, nil
}

// Name returns the source name the instance was created with.
func (f *Instance) Name() string {
	return f.name
}

// SuppressLevel returns the level pushed to the engine on every block.
func (f *Instance) SuppressLevel() int {
	return f.level
}

// Binding returns the binding for channelIndex, or nil when out of range.
func (f *Instance) Binding(channelIndex int) *ChannelBinding {
	return f.channels.Binding(channelIndex)
}

// Stats returns a copy of the processing counters.
func (f *Instance) Stats() Stats {
	return f.stats
}

// ApplyConfiguration refreshes the suppression level and binds the channels
// the current audio format needs.
//
// The level is always refreshed. Channel 0 is ensured unconditionally and
// channel 1 only when the audio subsystem reports more than one channel.
// Bound channels are never resized unless Options.RebindOnFormatChange is set.
//
// A nil settings value applies the default level.
func (f *Instance) ApplyConfiguration(settings interfaces.ISettings) error {
	if f.destroyed {
		return ErrInstanceDestroyed
	}

	f.applyLevel(settings)

	sampleRate := f.audio.SampleRate()
	channelCount := f.audio.Channels()
	if err := limits.ValidateSampleRate(sampleRate); err != nil {
		f.log.WithFields(logrus.Fields{
			"function":    "Instance.ApplyConfiguration",
			"sample_rate": sampleRate,
			"error":       err.Error(),
		}).Error("Audio subsystem reports an unusable sample rate")
		return fmt.Errorf("apply configuration: %w", err)
	}
	segmentSize := limits.SegmentSize(sampleRate)

	wanted := 1
	if channelCount > 1 {
		wanted = limits.MaxChannels
	}

	var errs []error
	for ch := 0; ch < wanted; ch++ {
		if err := f.bindChannel(ch, segmentSize, int(sampleRate)); err != nil {
			errs = append(errs, err)
		}
	}

	f.log.WithFields(logrus.Fields{
		"function":       "Instance.ApplyConfiguration",
		"suppress_level": f.level,
		"sample_rate":    sampleRate,
		"channel_count":  channelCount,
		"segment_size":   segmentSize,
		"bound_channels": f.channels.BoundCount(),
	}).Info("Filter configuration applied")

	return errors.Join(errs...)
}

// applyLevel reads and clamps the suppression level from settings.
func (f *Instance) applyLevel(settings interfaces.ISettings) {
	raw := int64(limits.DefaultSuppressLevel)
	if settings != nil {
		raw = settings.GetInt(SettingSuppressLevel)
	}

	level, clamped := limits.ClampSuppressLevel(int(max(min(raw, math.MaxInt32), math.MinInt32)))
	if clamped {
		f.log.WithFields(logrus.Fields{
			"function":  "Instance.applyLevel",
			"requested": raw,
			"applied":   level,
			"min":       limits.MinSuppressLevel,
			"max":       limits.MaxSuppressLevel,
		}).Warn("Suppress level out of range, clamping")
	}

	if level != f.level {
		f.log.WithFields(logrus.Fields{
			"function":  "Instance.applyLevel",
			"old_level": f.level,
			"new_level": level,
		}).Info("Suppress level changed")
	}
	f.level = level
}

// bindChannel ensures the binding for ch, rebinding first when the option is
// set and the bound sizing no longer matches.
func (f *Instance) bindChannel(ch, segmentSize, sampleRate int) error {
	binding := f.channels.Binding(ch)
	if f.opts.RebindOnFormatChange && binding.IsBound() &&
		(binding.SegmentSize() != segmentSize || binding.SampleRate() != sampleRate) {
		f.log.WithFields(logrus.Fields{
			"function":         "Instance.bindChannel",
			"channel":          ch,
			"old_segment_size": binding.SegmentSize(),
			"new_segment_size": segmentSize,
			"old_sample_rate":  binding.SampleRate(),
			"new_sample_rate":  sampleRate,
		}).Info("Audio format changed, rebinding channel")
		return f.channels.Rebind(ch, segmentSize, sampleRate)
	}

	_, err := f.channels.EnsureBinding(ch, segmentSize, sampleRate)
	return err
}

// Process suppresses noise in block in place and returns the same block.
//
// For every bound channel the level is pushed to the engine, the plane is
// converted to the scratch buffer, the engine runs on the scratch buffer and
// the result is written back over the plane. Empty channels, channels beyond
// the second and channels missing from the block pass through untouched.
//
// A channel whose segment is shorter than block.Frames or whose engine call
// fails is left unmodified and reported in the returned error; the other
// channels are still processed. A zero-frame block is a no-op.
func (f *Instance) Process(block *audio.Block) (*audio.Block, error) {
	if block == nil {
		return nil, errors.New("nil audio block")
	}
	if f.destroyed {
		return block, ErrInstanceDestroyed
	}
	frames := block.Frames
	if frames < 0 {
		return block, fmt.Errorf("negative frame count %d", frames)
	}
	if frames == 0 {
		return block, nil
	}

	var errs []error
	for ch := 0; ch < limits.MaxChannels; ch++ {
		binding := f.channels.Binding(ch)
		if !binding.IsBound() {
			continue
		}
		if err := f.processChannel(ch, binding, block); err != nil {
			errs = append(errs, err)
		}
	}
	return block, errors.Join(errs...)
}

// processChannel runs one bound channel of block through its engine state.
func (f *Instance) processChannel(ch int, binding *ChannelBinding, block *audio.Block) error {
	stats := &f.stats.Channels[ch]

	plane, err := block.Plane(ch)
	if err != nil {
		stats.BlocksSkipped++
		f.log.WithFields(logrus.Fields{
			"function": "Instance.processChannel",
			"channel":  ch,
			"reason":   err.Error(),
		}).Debug("Bound channel not present in block, skipping")
		return nil
	}

	frames := len(plane)
	if frames > binding.SegmentSize() {
		stats.BlocksSkipped++
		stats.Overruns++
		f.log.WithFields(logrus.Fields{
			"function":     "Instance.processChannel",
			"channel":      ch,
			"frames":       frames,
			"segment_size": binding.SegmentSize(),
		}).Warn("Block larger than channel segment, passing through")
		return fmt.Errorf("%w: channel %d: %d frames, segment %d", ErrFrameOverrun, ch, frames, binding.SegmentSize())
	}

	state := binding.EngineState()
	if err := state.SetControl(interfaces.ControlNoiseSuppress, f.level); err != nil {
		return f.engineFailure(ch, "set_control", err)
	}

	scratch := binding.Scratch()
	audio.FloatsToInt16(scratch[:frames], plane)

	voice, err := state.Run(scratch)
	if err != nil {
		return f.engineFailure(ch, "run", err)
	}

	audio.Int16ToFloats(plane, scratch[:frames])

	stats.BlocksProcessed++
	stats.LastVoice = voice

	f.log.WithFields(logrus.Fields{
		"function":       "Instance.processChannel",
		"channel":        ch,
		"frames":         frames,
		"suppress_level": f.level,
		"voice":          voice,
	}).Debug("Channel processed")
	return nil
}

func (f *Instance) engineFailure(ch int, call string, err error) error {
	stats := &f.stats.Channels[ch]
	stats.BlocksSkipped++
	stats.EngineErrors++
	f.log.WithFields(logrus.Fields{
		"function": "Instance.processChannel",
		"channel":  ch,
		"call":     call,
		"error":    err.Error(),
	}).Error("Suppression engine call failed, passing channel through")
	return fmt.Errorf("%w: channel %d %s: %w", ErrEngineRun, ch, call, err)
}

// Destroy releases every bound channel's engine state and scratch buffer.
// Empty channels are skipped. Calling Destroy again is a no-op.
func (f *Instance) Destroy() error {
	if f.destroyed {
		return nil
	}
	f.destroyed = true

	err := f.channels.ReleaseAll()

	f.log.WithFields(logrus.Fields{
		"function": "Instance.Destroy",
		"error":    err,
	}).Info("Noise suppression filter instance destroyed")
	return err
}
