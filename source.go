package micdsp

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/av/audio"
	"github.com/opd-ai/micdsp/av/filter"
	"github.com/opd-ai/micdsp/interfaces"
	"github.com/opd-ai/micdsp/limits"
)

// NoiseSuppressFilterID is the registration id of the noise suppression filter.
const NoiseSuppressFilterID = "noise_suppress_filter"

// SourceType classifies a registered source.
type SourceType int

const (
	SourceTypeInput SourceType = iota
	SourceTypeFilter
	SourceTypeTransition
)

// String returns the source type name for logging.
func (t SourceType) String() string {
	switch t {
	case SourceTypeInput:
		return "input"
	case SourceTypeFilter:
		return "filter"
	case SourceTypeTransition:
		return "transition"
	default:
		return fmt.Sprintf("SourceType(%d)", int(t))
	}
}

// OutputFlags declares what a source produces.
type OutputFlags uint32

const (
	OutputVideo OutputFlags = 1 << iota
	OutputAudio
)

// CreateContext carries the collaborators a source needs at creation.
type CreateContext struct {
	Name    string
	Engine  interfaces.ISuppressionEngine
	Audio   interfaces.IAudioSubsystem
	Options filter.Options
}

// SourceInfo describes a source type and its entry points.
// Data returned by Create is passed back to every other callback.
type SourceInfo struct {
	ID          string
	Type        SourceType
	OutputFlags OutputFlags

	GetName       func() string
	Create        func(settings *Settings, ctx *CreateContext) (any, error)
	Destroy       func(data any)
	Update        func(data any, settings *Settings)
	FilterAudio   func(data any, block *audio.Block) *audio.Block
	GetDefaults   func(settings *Settings)
	GetProperties func(data any) *Properties
}

// Validate checks that the entry points required by the declared type and
// flags are present.
func (i *SourceInfo) Validate() error {
	if i.ID == "" {
		return errors.New("source id is required")
	}
	if i.GetName == nil || i.Create == nil || i.Destroy == nil {
		return fmt.Errorf("source %q: get_name, create and destroy are required", i.ID)
	}
	if i.Type == SourceTypeFilter && i.OutputFlags&OutputAudio != 0 && i.FilterAudio == nil {
		return fmt.Errorf("source %q: audio filter without filter_audio", i.ID)
	}
	return nil
}

// NoiseSuppressFilter is the noise suppression audio filter source.
var NoiseSuppressFilter = SourceInfo{
	ID:            NoiseSuppressFilterID,
	Type:          SourceTypeFilter,
	OutputFlags:   OutputAudio,
	GetName:       noiseSuppressName,
	Create:        noiseSuppressCreate,
	Destroy:       noiseSuppressDestroy,
	Update:        noiseSuppressUpdate,
	FilterAudio:   noiseSuppressFilterAudio,
	GetDefaults:   noiseSuppressDefaults,
	GetProperties: noiseSuppressProperties,
}

func noiseSuppressName() string {
	return "Noise Suppression"
}

func noiseSuppressCreate(settings *Settings, ctx *CreateContext) (any, error) {
	if ctx == nil {
		return nil, errors.New("create context is required")
	}

	inst, err := filter.New(ctx.Name, ctx.Engine, ctx.Audio, ctx.Options)
	if err != nil {
		return nil, fmt.Errorf("create noise suppression filter: %w", err)
	}
	noiseSuppressUpdate(inst, settings)
	return inst, nil
}

func noiseSuppressDestroy(data any) {
	inst, ok := data.(*filter.Instance)
	if !ok {
		return
	}
	if err := inst.Destroy(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "noiseSuppressDestroy",
			"source":   inst.Name(),
			"error":    err.Error(),
		}).Warn("Filter destroy reported an error")
	}
}

func noiseSuppressUpdate(data any, settings *Settings) {
	inst, ok := data.(*filter.Instance)
	if !ok {
		return
	}

	var s interfaces.ISettings
	if settings != nil {
		s = settings
	}
	if err := inst.ApplyConfiguration(s); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "noiseSuppressUpdate",
			"source":   inst.Name(),
			"error":    err.Error(),
		}).Error("Filter configuration incomplete, affected channels pass through")
	}
}

func noiseSuppressFilterAudio(data any, block *audio.Block) *audio.Block {
	inst, ok := data.(*filter.Instance)
	if !ok || block == nil {
		return block
	}
	if _, err := inst.Process(block); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "noiseSuppressFilterAudio",
			"source":   inst.Name(),
			"frames":   block.Frames,
			"error":    err.Error(),
		}).Warn("Block not fully processed")
	}
	return block
}

func noiseSuppressDefaults(settings *Settings) {
	settings.SetDefaultInt(filter.SettingSuppressLevel, limits.DefaultSuppressLevel)
}

func noiseSuppressProperties(data any) *Properties {
	props := NewProperties()
	props.AddIntSlider(filter.SettingSuppressLevel, "Suppression Level (dB)",
		limits.MinSuppressLevel, limits.MaxSuppressLevel, 1)
	return props
}
