package testing

import (
	"fmt"
	"sync"

	"github.com/opd-ai/micdsp/interfaces"
	"github.com/sirupsen/logrus"
)

// SimulatedEngine implements interfaces.ISuppressionEngine with recorded calls
type SimulatedEngine struct {
	mu         sync.RWMutex
	states     []*SimulatedState
	initErr    error
	runErr     error
	controlErr error
	transform  func([]int16)
	voice      bool
}

// InitRecord captures the arguments of one Init call
type InitRecord struct {
	SegmentFrames int
	SampleRate    int
}

// ControlRecord captures one SetControl call
type ControlRecord struct {
	Control interfaces.EngineControl
	Value   int
}

// RunRecord captures one Run call with a copy of the segment as received.
// Level is the NOISE_SUPPRESS value in effect at the time of the call, or 0
// if none had been set.
type RunRecord struct {
	Input []int16
	Level int
}

// NewSimulatedEngine creates a new simulated engine for testing
func NewSimulatedEngine() *SimulatedEngine {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	logrus.WithFields(logrus.Fields{
		"function": "NewSimulatedEngine",
	}).Info("Creating simulated suppression engine for testing")

	return &SimulatedEngine{
		states: make([]*SimulatedState, 0),
	}
}

// Name implements ISuppressionEngine.Name
func (e *SimulatedEngine) Name() string {
	return "simulated"
}

// FailInit makes subsequent Init calls return err. A nil err clears the failure.
func (e *SimulatedEngine) FailInit(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initErr = err
}

// FailRun makes Run on current and future states return err.
func (e *SimulatedEngine) FailRun(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runErr = err
}

// FailControl makes SetControl on current and future states return err.
func (e *SimulatedEngine) FailControl(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.controlErr = err
}

// SetTransform installs a function applied to every segment in Run.
// A nil transform leaves segments untouched.
func (e *SimulatedEngine) SetTransform(fn func([]int16)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transform = fn
}

// SetVoice sets the voice activity flag reported by Run.
func (e *SimulatedEngine) SetVoice(voice bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voice = voice
}

// Init implements ISuppressionEngine.Init with simulation
func (e *SimulatedEngine) Init(segmentFrames, sampleRate int) (interfaces.IEngineState, error) {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	logrus.WithFields(logrus.Fields{
		"function":       "SimulatedEngine.Init",
		"segment_frames": segmentFrames,
		"sample_rate":    sampleRate,
	}).Info("Simulating engine state allocation")

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initErr != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SimulatedEngine.Init",
			"error":    e.initErr.Error(),
		}).Error("Injected init failure")
		return nil, e.initErr
	}
	if segmentFrames <= 0 {
		return nil, fmt.Errorf("invalid segment size %d", segmentFrames)
	}

	state := &SimulatedState{
		engine: e,
		init:   InitRecord{SegmentFrames: segmentFrames, SampleRate: sampleRate},
	}
	e.states = append(e.states, state)
	return state, nil
}

// States returns every state created so far, in creation order
func (e *SimulatedEngine) States() []*SimulatedState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	states := make([]*SimulatedState, len(e.states))
	copy(states, e.states)
	return states
}

// LiveStates returns the number of created states not yet destroyed
func (e *SimulatedEngine) LiveStates() int {
	e.mu.RLock()
	states := make([]*SimulatedState, len(e.states))
	copy(states, e.states)
	e.mu.RUnlock()

	live := 0
	for _, s := range states {
		if !s.Destroyed() {
			live++
		}
	}
	return live
}

func (e *SimulatedEngine) behaviour() (runErr, controlErr error, transform func([]int16), voice bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runErr, e.controlErr, e.transform, e.voice
}

// SimulatedState implements interfaces.IEngineState and records every call
type SimulatedState struct {
	mu           sync.RWMutex
	engine       *SimulatedEngine
	init         InitRecord
	controls     []ControlRecord
	runs         []RunRecord
	destroyCount int
}

// SetControl implements IEngineState.SetControl with simulation
func (s *SimulatedState) SetControl(control interfaces.EngineControl, value int) error {
	_, controlErr, _, _ := s.engine.behaviour()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyCount > 0 {
		return fmt.Errorf("set %s on destroyed state", control)
	}
	if controlErr != nil {
		return controlErr
	}
	s.controls = append(s.controls, ControlRecord{Control: control, Value: value})
	return nil
}

// Run implements IEngineState.Run with simulation
func (s *SimulatedState) Run(segment []int16) (bool, error) {
	runErr, _, transform, voice := s.engine.behaviour()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyCount > 0 {
		return false, fmt.Errorf("run on destroyed state")
	}
	if len(segment) != s.init.SegmentFrames {
		return false, fmt.Errorf("segment has %d samples, want %d", len(segment), s.init.SegmentFrames)
	}
	if runErr != nil {
		return false, runErr
	}

	level, _ := s.lastLevelLocked()
	s.runs = append(s.runs, RunRecord{Input: append([]int16(nil), segment...), Level: level})
	if transform != nil {
		transform(segment)
	}
	return voice, nil
}

// Destroy implements IEngineState.Destroy with simulation
func (s *SimulatedState) Destroy() error {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	logrus.WithFields(logrus.Fields{
		"function":       "SimulatedState.Destroy",
		"segment_frames": s.init.SegmentFrames,
	}).Debug("Simulating engine state release")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyCount++
	return nil
}

// Init returns the arguments the state was created with
func (s *SimulatedState) Init() InitRecord {
	return s.init
}

// Controls returns a copy of the recorded SetControl calls
func (s *SimulatedState) Controls() []ControlRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	controls := make([]ControlRecord, len(s.controls))
	copy(controls, s.controls)
	return controls
}

// LastLevel returns the most recent NOISE_SUPPRESS value and whether one was set
func (s *SimulatedState) LastLevel() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLevelLocked()
}

func (s *SimulatedState) lastLevelLocked() (int, bool) {
	for i := len(s.controls) - 1; i >= 0; i-- {
		if s.controls[i].Control == interfaces.ControlNoiseSuppress {
			return s.controls[i].Value, true
		}
	}
	return 0, false
}

// Runs returns a copy of the recorded Run calls
func (s *SimulatedState) Runs() []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]RunRecord, len(s.runs))
	copy(runs, s.runs)
	return runs
}

// RunCount returns the number of successful Run calls
func (s *SimulatedState) RunCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Destroyed reports whether Destroy has been called
func (s *SimulatedState) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyCount > 0
}

// DestroyCount returns how many times Destroy has been called
func (s *SimulatedState) DestroyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyCount
}
