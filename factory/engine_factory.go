package factory

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/opd-ai/micdsp/av/audio"
	"github.com/opd-ai/micdsp/interfaces"
	"github.com/opd-ai/micdsp/testing"
	"github.com/sirupsen/logrus"
)

// Validation constants for configuration bounds checking.
const (
	// MinNoiseEstimateFrames is the shortest noise learning window.
	MinNoiseEstimateFrames = 1
	// MaxNoiseEstimateFrames is the longest noise learning window (10 seconds of segments).
	MaxNoiseEstimateFrames = 1000
	// MinOverSubtraction is the smallest over-subtraction factor.
	MinOverSubtraction = 1.0
	// MaxOverSubtraction is the largest over-subtraction factor.
	MaxOverSubtraction = 8.0
)

// Environment variables read by NewEngineFactory.
const (
	EnvEngine               = "MICDSP_ENGINE"
	EnvNoiseEstimateFrames  = "MICDSP_NOISE_ESTIMATE_FRAMES"
	EnvOverSubtraction      = "MICDSP_OVER_SUBTRACTION"
	EnvRebindOnFormatChange = "MICDSP_REBIND_ON_FORMAT_CHANGE"
)

// EngineFactory creates suppression engine implementations based on configuration.
// It is safe for concurrent use; all methods are protected by an internal mutex.
type EngineFactory struct {
	mu            sync.RWMutex
	defaultConfig *interfaces.EngineConfig
}

// NewEngineFactory creates a new factory with default configuration
func NewEngineFactory() *EngineFactory {
	defaultConfig := createDefaultConfig()
	applyEnvironmentOverrides(defaultConfig)
	logConfigurationInfo(defaultConfig)

	return &EngineFactory{
		defaultConfig: defaultConfig,
	}
}

// createDefaultConfig initializes the default engine configuration.
//
// Default Value Rationale:
//   - Kind: spectral - the built-in engine is the only one that suppresses noise
//   - NoiseEstimateFrames: 20 - 200ms of audio at 10ms segments
//   - OverSubtraction: 2.0 - removes most musical noise at moderate distortion
//   - RebindOnFormatChange: false - bindings keep their creation-time sizing
func createDefaultConfig() *interfaces.EngineConfig {
	return &interfaces.EngineConfig{
		Kind:                 interfaces.EngineKindSpectral,
		NoiseEstimateFrames:  20,
		OverSubtraction:      2.0,
		RebindOnFormatChange: false,
	}
}

// applyEnvironmentOverrides updates configuration based on MICDSP_* environment variables.
func applyEnvironmentOverrides(config *interfaces.EngineConfig) {
	parseKindSetting(config)
	parseNoiseEstimateSetting(config)
	parseOverSubtractionSetting(config)
	parseRebindSetting(config)
}

// parseKindSetting updates Kind from MICDSP_ENGINE. Unknown kinds keep the default.
func parseKindSetting(config *interfaces.EngineConfig) {
	kindStr := os.Getenv(EnvEngine)
	if kindStr == "" {
		return
	}
	kind := strings.ToLower(strings.TrimSpace(kindStr))
	switch kind {
	case interfaces.EngineKindSpectral, interfaces.EngineKindPassthrough, interfaces.EngineKindSimulated:
		config.Kind = kind
	default:
		logrus.WithFields(logrus.Fields{
			"function":    "parseKindSetting",
			"env_var":     EnvEngine,
			"value":       kindStr,
			"using_value": config.Kind,
		}).Warn("Unknown MICDSP_ENGINE value, using default")
	}
}

// parseNoiseEstimateSetting updates NoiseEstimateFrames from MICDSP_NOISE_ESTIMATE_FRAMES.
// Only updates config if parsing succeeds and the value is within
// [MinNoiseEstimateFrames, MaxNoiseEstimateFrames].
func parseNoiseEstimateSetting(config *interfaces.EngineConfig) {
	framesStr := os.Getenv(EnvNoiseEstimateFrames)
	if framesStr == "" {
		return
	}
	frames, err := strconv.Atoi(framesStr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseNoiseEstimateSetting",
			"env_var":     EnvNoiseEstimateFrames,
			"value":       framesStr,
			"error":       err.Error(),
			"using_value": config.NoiseEstimateFrames,
		}).Warn("Failed to parse MICDSP_NOISE_ESTIMATE_FRAMES environment variable, using default")
		return
	}
	if frames < MinNoiseEstimateFrames || frames > MaxNoiseEstimateFrames {
		logrus.WithFields(logrus.Fields{
			"function":    "parseNoiseEstimateSetting",
			"env_var":     EnvNoiseEstimateFrames,
			"value":       frames,
			"min":         MinNoiseEstimateFrames,
			"max":         MaxNoiseEstimateFrames,
			"using_value": config.NoiseEstimateFrames,
		}).Warn("MICDSP_NOISE_ESTIMATE_FRAMES value out of bounds, using default")
		return
	}
	config.NoiseEstimateFrames = frames
}

// parseOverSubtractionSetting updates OverSubtraction from MICDSP_OVER_SUBTRACTION.
// Only updates config if parsing succeeds and the value is within
// [MinOverSubtraction, MaxOverSubtraction].
func parseOverSubtractionSetting(config *interfaces.EngineConfig) {
	factorStr := os.Getenv(EnvOverSubtraction)
	if factorStr == "" {
		return
	}
	factor, err := strconv.ParseFloat(factorStr, 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseOverSubtractionSetting",
			"env_var":     EnvOverSubtraction,
			"value":       factorStr,
			"error":       err.Error(),
			"using_value": config.OverSubtraction,
		}).Warn("Failed to parse MICDSP_OVER_SUBTRACTION environment variable, using default")
		return
	}
	// NaN fails both comparisons, so test the accepted range instead
	if !(factor >= MinOverSubtraction && factor <= MaxOverSubtraction) {
		logrus.WithFields(logrus.Fields{
			"function":    "parseOverSubtractionSetting",
			"env_var":     EnvOverSubtraction,
			"value":       factor,
			"min":         MinOverSubtraction,
			"max":         MaxOverSubtraction,
			"using_value": config.OverSubtraction,
		}).Warn("MICDSP_OVER_SUBTRACTION value out of bounds, using default")
		return
	}
	config.OverSubtraction = factor
}

// parseRebindSetting updates RebindOnFormatChange from MICDSP_REBIND_ON_FORMAT_CHANGE.
func parseRebindSetting(config *interfaces.EngineConfig) {
	rebindStr := os.Getenv(EnvRebindOnFormatChange)
	if rebindStr == "" {
		return
	}
	rebind, err := strconv.ParseBool(rebindStr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseRebindSetting",
			"env_var":     EnvRebindOnFormatChange,
			"value":       rebindStr,
			"error":       err.Error(),
			"using_value": config.RebindOnFormatChange,
		}).Warn("Failed to parse MICDSP_REBIND_ON_FORMAT_CHANGE environment variable, using default")
		return
	}
	config.RebindOnFormatChange = rebind
}

// logConfigurationInfo logs the effective factory configuration.
func logConfigurationInfo(config *interfaces.EngineConfig) {
	logrus.WithFields(logrus.Fields{
		"function":                "NewEngineFactory",
		"engine":                  config.Kind,
		"noise_estimate_frames":   config.NoiseEstimateFrames,
		"over_subtraction":        config.OverSubtraction,
		"rebind_on_format_change": config.RebindOnFormatChange,
	}).Info("Engine factory initialized")
}

// CreateEngine creates the engine selected by the factory's current configuration.
func (f *EngineFactory) CreateEngine() (interfaces.ISuppressionEngine, error) {
	return f.CreateEngineWithConfig(f.GetCurrentConfig())
}

// CreateEngineForKind creates an engine of the given kind using the factory's
// tuning parameters.
func (f *EngineFactory) CreateEngineForKind(kind string) (interfaces.ISuppressionEngine, error) {
	config := f.GetCurrentConfig()
	config.Kind = kind
	return f.CreateEngineWithConfig(config)
}

// CreateEngineWithConfig creates an engine with an explicit configuration.
//
// Parameters:
//   - config: The engine configuration, validated before use
//
// Returns:
//   - interfaces.ISuppressionEngine: The engine
//   - error: If the configuration is invalid
func (f *EngineFactory) CreateEngineWithConfig(config *interfaces.EngineConfig) (interfaces.ISuppressionEngine, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "CreateEngineWithConfig",
			"engine":   config.Kind,
			"error":    err.Error(),
		}).Error("Invalid engine configuration")
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":              "CreateEngineWithConfig",
		"engine":                config.Kind,
		"noise_estimate_frames": config.NoiseEstimateFrames,
		"over_subtraction":      config.OverSubtraction,
	}).Info("Creating suppression engine")

	switch config.Kind {
	case interfaces.EngineKindPassthrough:
		return audio.NewPassthroughEngine(), nil
	case interfaces.EngineKindSimulated:
		return testing.NewSimulatedEngine(), nil
	default:
		engine, err := audio.NewSpectralEngine(config.NoiseEstimateFrames, config.OverSubtraction)
		if err != nil {
			return nil, fmt.Errorf("create spectral engine: %w", err)
		}
		return engine, nil
	}
}

// CreateSimulationForTesting creates a recording engine specifically for testing.
func (f *EngineFactory) CreateSimulationForTesting() *testing.SimulatedEngine {
	logrus.WithFields(logrus.Fields{
		"function": "CreateSimulationForTesting",
	}).Info("Creating simulation engine for testing")

	return testing.NewSimulatedEngine()
}

// GetCurrentConfig returns a copy of the current default configuration
func (f *EngineFactory) GetCurrentConfig() *interfaces.EngineConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()

	config := *f.defaultConfig
	return &config
}

// RebindOnFormatChange reports whether filters should rebind channels when the
// audio format changes.
func (f *EngineFactory) RebindOnFormatChange() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.defaultConfig.RebindOnFormatChange
}

// UpdateConfig updates the factory's default configuration
func (f *EngineFactory) UpdateConfig(config *interfaces.EngineConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid engine configuration: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "UpdateConfig",
		"old_engine": f.defaultConfig.Kind,
		"new_engine": config.Kind,
	}).Info("Updating factory configuration")

	updated := *config
	f.defaultConfig = &updated
	return nil
}
