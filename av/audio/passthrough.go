package audio

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/interfaces"
)

// PassthroughEngine is a suppression engine that leaves every segment untouched.
// It keeps the full binding lifecycle intact while disabling the DSP work.
type PassthroughEngine struct{}

// NewPassthroughEngine creates a new passthrough engine.
func NewPassthroughEngine() *PassthroughEngine {
	logrus.WithFields(logrus.Fields{
		"function": "NewPassthroughEngine",
	}).Info("Creating passthrough suppression engine")
	return &PassthroughEngine{}
}

// Name returns the engine name for logging.
func (e *PassthroughEngine) Name() string {
	return "passthrough"
}

// Init validates the segment geometry and returns a no-op state.
func (e *PassthroughEngine) Init(segmentFrames, sampleRate int) (interfaces.IEngineState, error) {
	if segmentFrames <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid passthrough geometry: segment=%d rate=%d", segmentFrames, sampleRate)
	}
	return &passthroughState{segment: segmentFrames}, nil
}

type passthroughState struct {
	segment   int
	destroyed bool
}

func (s *passthroughState) SetControl(control interfaces.EngineControl, value int) error {
	if s.destroyed {
		return ErrStateDestroyed
	}
	return nil
}

func (s *passthroughState) Run(segment []int16) (bool, error) {
	if s.destroyed {
		return false, ErrStateDestroyed
	}
	if len(segment) != s.segment {
		return false, fmt.Errorf("segment holds %d samples, state expects %d", len(segment), s.segment)
	}
	return false, nil
}

func (s *passthroughState) Destroy() error {
	s.destroyed = true
	return nil
}
