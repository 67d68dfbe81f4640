package filter

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/interfaces"
	"github.com/opd-ai/micdsp/limits"
)

// BindingState is the lifecycle state of a ChannelBinding.
type BindingState int

const (
	// BindingEmpty means no engine state or scratch buffer exists.
	BindingEmpty BindingState = iota

	// BindingBound means the engine state and scratch buffer are allocated.
	BindingBound
)

// String returns the state name for logging.
func (s BindingState) String() string {
	if s == BindingBound {
		return "bound"
	}
	return "empty"
}

// ChannelBinding owns one channel's engine state and its int16 scratch buffer.
// Both are created together and sized from the segment size at creation time.
type ChannelBinding struct {
	engineState interfaces.IEngineState
	scratch     []int16
	segmentSize int
	sampleRate  int
}

// State returns the binding's lifecycle state.
func (b *ChannelBinding) State() BindingState {
	if b.engineState == nil {
		return BindingEmpty
	}
	return BindingBound
}

// IsBound reports whether the binding holds an engine state.
func (b *ChannelBinding) IsBound() bool {
	return b.engineState != nil
}

// EngineState returns the engine state, or nil when empty.
func (b *ChannelBinding) EngineState() interfaces.IEngineState {
	return b.engineState
}

// Scratch returns the binding's scratch buffer, or nil when empty.
func (b *ChannelBinding) Scratch() []int16 {
	return b.scratch
}

// SegmentSize returns the frames per engine run fixed at creation.
func (b *ChannelBinding) SegmentSize() int {
	return b.segmentSize
}

// SampleRate returns the sample rate the engine state was created for.
func (b *ChannelBinding) SampleRate() int {
	return b.sampleRate
}

// release destroys the engine state, then drops the scratch buffer.
// Releasing an empty binding is a no-op.
func (b *ChannelBinding) release() error {
	if b.engineState == nil {
		return nil
	}
	err := b.engineState.Destroy()
	b.engineState = nil
	b.scratch = nil
	b.segmentSize = 0
	b.sampleRate = 0
	return err
}

// ChannelStateManager creates and retains one ChannelBinding per channel.
//
// Bindings move from Empty to Bound exactly once. EnsureBinding never
// resizes a bound channel; only Release, Rebind and ReleaseAll return a
// binding to Empty.
type ChannelStateManager struct {
	engine   interfaces.ISuppressionEngine
	bindings [limits.MaxChannels]ChannelBinding
	log      *logrus.Entry
}

// NewChannelStateManager creates a manager with all bindings empty.
func NewChannelStateManager(engine interfaces.ISuppressionEngine, log *logrus.Entry) *ChannelStateManager {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ChannelStateManager{
		engine: engine,
		log:    log,
	}
}

// Binding returns the binding at channelIndex, or nil if the index is out of range.
func (m *ChannelStateManager) Binding(channelIndex int) *ChannelBinding {
	if channelIndex < 0 || channelIndex >= limits.MaxChannels {
		return nil
	}
	return &m.bindings[channelIndex]
}

// BoundCount returns the number of bound channels.
func (m *ChannelStateManager) BoundCount() int {
	count := 0
	for i := range m.bindings {
		if m.bindings[i].IsBound() {
			count++
		}
	}
	return count
}

// EnsureBinding allocates the binding at channelIndex if it is empty.
//
// Parameters:
//   - channelIndex: Channel to bind (0 or 1)
//   - segmentSize: Frames per engine run and scratch buffer length
//   - sampleRate: Sample rate passed to the engine
//
// Returns:
//   - bool: true if a new binding was created, false if one already existed
//   - error: ErrChannelIndex or a wrapped ErrEngineInit; the binding stays empty on error
func (m *ChannelStateManager) EnsureBinding(channelIndex, segmentSize, sampleRate int) (bool, error) {
	binding := m.Binding(channelIndex)
	if binding == nil {
		return false, fmt.Errorf("%w: %d", ErrChannelIndex, channelIndex)
	}
	if binding.IsBound() {
		return false, nil
	}

	if segmentSize <= 0 {
		return false, fmt.Errorf("%w: channel %d: segment size %d", ErrEngineInit, channelIndex, segmentSize)
	}

	state, err := m.engine.Init(segmentSize, sampleRate)
	if err == nil && state == nil {
		err = errors.New("engine returned no state")
	}
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"function":     "ChannelStateManager.EnsureBinding",
			"channel":      channelIndex,
			"segment_size": segmentSize,
			"sample_rate":  sampleRate,
			"engine":       m.engine.Name(),
			"error":        err.Error(),
		}).Error("Failed to allocate suppression engine state")
		return false, fmt.Errorf("%w: channel %d: %w", ErrEngineInit, channelIndex, err)
	}

	binding.engineState = state
	binding.scratch = make([]int16, segmentSize)
	binding.segmentSize = segmentSize
	binding.sampleRate = sampleRate

	m.log.WithFields(logrus.Fields{
		"function":     "ChannelStateManager.EnsureBinding",
		"channel":      channelIndex,
		"segment_size": segmentSize,
		"sample_rate":  sampleRate,
		"engine":       m.engine.Name(),
	}).Info("Channel bound to suppression engine")

	return true, nil
}

// Release returns the binding at channelIndex to Empty.
func (m *ChannelStateManager) Release(channelIndex int) error {
	binding := m.Binding(channelIndex)
	if binding == nil {
		return fmt.Errorf("%w: %d", ErrChannelIndex, channelIndex)
	}
	if !binding.IsBound() {
		return nil
	}

	if err := binding.release(); err != nil {
		m.log.WithFields(logrus.Fields{
			"function": "ChannelStateManager.Release",
			"channel":  channelIndex,
			"error":    err.Error(),
		}).Warn("Engine state destroy reported an error")
		return fmt.Errorf("release channel %d: %w", channelIndex, err)
	}

	m.log.WithFields(logrus.Fields{
		"function": "ChannelStateManager.Release",
		"channel":  channelIndex,
	}).Info("Channel binding released")
	return nil
}

// Rebind releases the binding at channelIndex and creates it again with the
// given sizing.
func (m *ChannelStateManager) Rebind(channelIndex, segmentSize, sampleRate int) error {
	releaseErr := m.Release(channelIndex)
	if errors.Is(releaseErr, ErrChannelIndex) {
		return releaseErr
	}
	_, err := m.EnsureBinding(channelIndex, segmentSize, sampleRate)
	return errors.Join(releaseErr, err)
}

// ReleaseAll releases every bound channel and skips empty ones.
func (m *ChannelStateManager) ReleaseAll() error {
	var errs []error
	for i := range m.bindings {
		if !m.bindings[i].IsBound() {
			continue
		}
		if err := m.Release(i); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
