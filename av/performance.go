package av

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ProcessingMonitor records per-block processing times of the filter.
//
// Counters are updated atomically; the timing aggregates share one lock.
// The zero value is not usable; create monitors with NewProcessingMonitor.
type ProcessingMonitor struct {
	// Atomic counters for lock-free statistics
	blockCount      int64
	framesProcessed int64
	lateBlocks      int64

	// Fast-path flag: 0 = disabled, 1 = enabled
	enableDetailedLogging int32

	// Timing aggregates
	avgBlockTime  time.Duration
	peakBlockTime time.Duration
	busyTime      time.Duration
	audioTime     time.Duration
	metricsLock   sync.RWMutex

	// Time provider for deterministic testing
	timeProvider TimeProvider
}

// NewProcessingMonitor creates a monitor using the system clock.
func NewProcessingMonitor() *ProcessingMonitor {
	logrus.WithFields(logrus.Fields{
		"function": "NewProcessingMonitor",
	}).Debug("Creating new processing monitor")

	return &ProcessingMonitor{
		timeProvider: DefaultTimeProvider{},
	}
}

// SetTimeProvider sets the time provider for deterministic testing.
// If tp is nil, DefaultTimeProvider is used.
func (pm *ProcessingMonitor) SetTimeProvider(tp TimeProvider) {
	pm.metricsLock.Lock()
	defer pm.metricsLock.Unlock()
	if tp == nil {
		tp = DefaultTimeProvider{}
	}
	pm.timeProvider = tp
}

func (pm *ProcessingMonitor) getTimeProvider() TimeProvider {
	pm.metricsLock.RLock()
	defer pm.metricsLock.RUnlock()
	return pm.timeProvider
}

// EnableDetailedLogging turns per-block trace logging on or off.
func (pm *ProcessingMonitor) EnableDetailedLogging(enabled bool) {
	var value int32
	if enabled {
		value = 1
	}
	atomic.StoreInt32(&pm.enableDetailedLogging, value)
}

// IsDetailedLoggingEnabled reports whether per-block trace logging is on.
func (pm *ProcessingMonitor) IsDetailedLoggingEnabled() bool {
	return atomic.LoadInt32(&pm.enableDetailedLogging) == 1
}

// Track runs process and records its duration against a block of frames at
// sampleRate.
func (pm *ProcessingMonitor) Track(frames int, sampleRate uint32, process func()) {
	tp := pm.getTimeProvider()
	start := tp.Now()
	process()
	pm.Record(frames, sampleRate, tp.Now().Sub(start))
}

// Record adds one processed block to the statistics.
//
// Parameters:
//   - frames: Frames in the block
//   - sampleRate: Sample rate of the block in Hz; 0 records timing only
//   - elapsed: Time spent processing the block
func (pm *ProcessingMonitor) Record(frames int, sampleRate uint32, elapsed time.Duration) {
	if frames < 0 {
		frames = 0
	}
	var blockDuration time.Duration
	if sampleRate > 0 {
		blockDuration = time.Duration(frames) * time.Second / time.Duration(sampleRate)
	}

	atomic.AddInt64(&pm.blockCount, 1)
	atomic.AddInt64(&pm.framesProcessed, int64(frames))
	late := blockDuration > 0 && elapsed > blockDuration
	if late {
		atomic.AddInt64(&pm.lateBlocks, 1)
	}

	pm.metricsLock.Lock()
	// EMA with alpha = 0.1 for smooth averaging
	if pm.avgBlockTime == 0 {
		pm.avgBlockTime = elapsed
	} else {
		pm.avgBlockTime = time.Duration(float64(pm.avgBlockTime)*0.9 + float64(elapsed)*0.1)
	}
	if elapsed > pm.peakBlockTime {
		pm.peakBlockTime = elapsed
	}
	pm.busyTime += elapsed
	pm.audioTime += blockDuration
	pm.metricsLock.Unlock()

	if pm.IsDetailedLoggingEnabled() {
		logrus.WithFields(logrus.Fields{
			"function":   "ProcessingMonitor.Record",
			"frames":     frames,
			"elapsed_ns": elapsed.Nanoseconds(),
			"late":       late,
		}).Trace("Block processed")
	}
}

// GetMetrics returns the current processing statistics.
func (pm *ProcessingMonitor) GetMetrics() ProcessingMetrics {
	pm.metricsLock.RLock()
	defer pm.metricsLock.RUnlock()

	metrics := ProcessingMetrics{
		TotalBlocks:     atomic.LoadInt64(&pm.blockCount),
		TotalFrames:     atomic.LoadInt64(&pm.framesProcessed),
		LateBlocks:      atomic.LoadInt64(&pm.lateBlocks),
		AvgBlockTime:    pm.avgBlockTime,
		PeakBlockTime:   pm.peakBlockTime,
		DetailedLogging: pm.IsDetailedLoggingEnabled(),
	}
	if pm.audioTime > 0 {
		metrics.RealTimeFactor = float64(pm.busyTime) / float64(pm.audioTime)
	}
	return metrics
}

// ResetMetrics clears all counters and timing aggregates.
func (pm *ProcessingMonitor) ResetMetrics() {
	logrus.WithFields(logrus.Fields{
		"function": "ProcessingMonitor.ResetMetrics",
	}).Info("Resetting processing metrics")

	atomic.StoreInt64(&pm.blockCount, 0)
	atomic.StoreInt64(&pm.framesProcessed, 0)
	atomic.StoreInt64(&pm.lateBlocks, 0)

	pm.metricsLock.Lock()
	pm.avgBlockTime = 0
	pm.peakBlockTime = 0
	pm.busyTime = 0
	pm.audioTime = 0
	pm.metricsLock.Unlock()
}

// ProcessingMetrics contains processing-time statistics for the filter.
type ProcessingMetrics struct {
	TotalBlocks     int64         // Blocks recorded
	TotalFrames     int64         // Frames across all recorded blocks
	LateBlocks      int64         // Blocks that took longer than their own duration
	AvgBlockTime    time.Duration // Exponential moving average of block processing time
	PeakBlockTime   time.Duration // Maximum observed block processing time
	RealTimeFactor  float64       // Total processing time divided by total audio time
	DetailedLogging bool          // Whether per-block trace logging is enabled
}
