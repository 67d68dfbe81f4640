package micdsp

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/av/audio"
	"github.com/opd-ai/micdsp/av/filter"
	"github.com/opd-ai/micdsp/factory"
)

var (
	// ErrSourceNotFound indicates an unregistered source id.
	ErrSourceNotFound = errors.New("source not registered")

	// ErrSourceExists indicates a duplicate registration.
	ErrSourceExists = errors.New("source already registered")
)

// Module is the plugin registry: it owns the registered source types, the
// shared audio output and the engine factory used to create filters.
// It is safe for concurrent use.
type Module struct {
	mu      sync.RWMutex
	sources map[string]SourceInfo
	output  *AudioOutput
	engines *factory.EngineFactory
}

// NewModule creates an empty module.
//
// Parameters:
//   - output: The process-wide audio output read by filters
//   - engines: Engine factory; nil uses a factory configured from the environment
func NewModule(output *AudioOutput, engines *factory.EngineFactory) (*Module, error) {
	if output == nil {
		return nil, errors.New("audio output is required")
	}
	if engines == nil {
		engines = factory.NewEngineFactory()
	}

	return &Module{
		sources: make(map[string]SourceInfo),
		output:  output,
		engines: engines,
	}, nil
}

// Load registers the sources provided by this module.
func (m *Module) Load() error {
	if err := m.RegisterSource(NoiseSuppressFilter); err != nil {
		return fmt.Errorf("load module: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Module.Load",
		"sources":  m.SourceIDs(),
	}).Info("Module loaded")
	return nil
}

// RegisterSource adds a source type to the registry.
func (m *Module) RegisterSource(info SourceInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sources[info.ID]; exists {
		return fmt.Errorf("%w: %s", ErrSourceExists, info.ID)
	}
	m.sources[info.ID] = info

	logrus.WithFields(logrus.Fields{
		"function":     "Module.RegisterSource",
		"id":           info.ID,
		"type":         info.Type.String(),
		"output_flags": uint32(info.OutputFlags),
	}).Info("Source registered")
	return nil
}

// Source returns the registered source type with the given id.
func (m *Module) Source(id string) (SourceInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.sources[id]
	return info, ok
}

// SourceIDs returns the registered ids, sorted.
func (m *Module) SourceIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sources))
	for id := range m.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AudioOutput returns the module's audio output.
func (m *Module) AudioOutput() *AudioOutput {
	return m.output
}

// CreateSource instantiates a registered source.
//
// Parameters:
//   - id: Registered source id
//   - name: Instance name, used as log context
//   - settings: Initial user settings; nil starts from defaults only
//
// Returns:
//   - *FilterSource: The created source
//   - error: ErrSourceNotFound, or an engine or create failure
func (m *Module) CreateSource(id, name string, settings *Settings) (*FilterSource, error) {
	info, ok := m.Source(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}

	if settings == nil {
		settings = NewSettings()
	}
	if info.GetDefaults != nil {
		info.GetDefaults(settings)
	}

	engine, err := m.engines.CreateEngine()
	if err != nil {
		return nil, fmt.Errorf("create source %q: %w", name, err)
	}

	data, err := info.Create(settings, &CreateContext{
		Name:    name,
		Engine:  engine,
		Audio:   m.output,
		Options: filter.Options{RebindOnFormatChange: m.engines.RebindOnFormatChange()},
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Module.CreateSource",
			"id":       id,
			"name":     name,
			"error":    err.Error(),
		}).Error("Source creation failed")
		return nil, fmt.Errorf("create source %q: %w", name, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Module.CreateSource",
		"id":       id,
		"name":     name,
		"engine":   engine.Name(),
	}).Info("Source created")

	return &FilterSource{
		info:     info,
		name:     name,
		settings: settings,
		data:     data,
	}, nil
}

// FilterSource is a created source. Its methods are serialized with an
// internal mutex so hosts may call them from different threads.
type FilterSource struct {
	mu        sync.Mutex
	info      SourceInfo
	name      string
	settings  *Settings
	data      any
	destroyed bool
}

// ID returns the source type id.
func (s *FilterSource) ID() string {
	return s.info.ID
}

// Name returns the instance name.
func (s *FilterSource) Name() string {
	return s.name
}

// DisplayName returns the source type's display name.
func (s *FilterSource) DisplayName() string {
	return s.info.GetName()
}

// Settings returns the source's settings store.
func (s *FilterSource) Settings() *Settings {
	return s.settings
}

// Data returns the value returned by the source's Create callback.
func (s *FilterSource) Data() any {
	return s.data
}

// Update merges settings into the source's settings and reapplies them.
// A nil settings value reapplies the current settings.
func (s *FilterSource) Update(settings *Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed || s.info.Update == nil {
		return
	}
	s.settings.Apply(settings)
	s.info.Update(s.data, s.settings)
}

// FilterAudio runs block through the source and returns the block to pass on.
func (s *FilterSource) FilterAudio(block *audio.Block) *audio.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed || s.info.FilterAudio == nil {
		return block
	}
	return s.info.FilterAudio(s.data, block)
}

// Properties returns the source's property description.
func (s *FilterSource) Properties() *Properties {
	if s.info.GetProperties == nil {
		return NewProperties()
	}
	return s.info.GetProperties(s.data)
}

// Destroy releases the source. Calling Destroy again is a no-op.
func (s *FilterSource) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.destroyed = true
	s.info.Destroy(s.data)

	logrus.WithFields(logrus.Fields{
		"function": "FilterSource.Destroy",
		"id":       s.info.ID,
		"name":     s.name,
	}).Info("Source destroyed")
}
