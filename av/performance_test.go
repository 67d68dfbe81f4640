package av

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// steppingTimeProvider advances by step on every call to Now.
type steppingTimeProvider struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

func (s *steppingTimeProvider) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.current
	s.current = s.current.Add(s.step)
	return now
}

func TestProcessingMonitorCreation(t *testing.T) {
	monitor := NewProcessingMonitor()

	assert.False(t, monitor.IsDetailedLoggingEnabled())
	assert.Equal(t, ProcessingMetrics{}, monitor.GetMetrics())
}

func TestProcessingMonitorTrack(t *testing.T) {
	monitor := NewProcessingMonitor()
	monitor.SetTimeProvider(&steppingTimeProvider{current: time.Unix(0, 0), step: 2 * time.Millisecond})

	calls := 0
	for i := 0; i < 5; i++ {
		monitor.Track(480, 48000, func() { calls++ })
	}

	metrics := monitor.GetMetrics()
	assert.Equal(t, 5, calls)
	assert.Equal(t, int64(5), metrics.TotalBlocks)
	assert.Equal(t, int64(2400), metrics.TotalFrames)
	assert.Equal(t, 2*time.Millisecond, metrics.AvgBlockTime)
	assert.Equal(t, 2*time.Millisecond, metrics.PeakBlockTime)
	assert.InDelta(t, 0.2, metrics.RealTimeFactor, 1e-9)
	assert.Zero(t, metrics.LateBlocks)
}

func TestProcessingMonitorRecord(t *testing.T) {
	tests := []struct {
		name       string
		frames     int
		sampleRate uint32
		elapsed    time.Duration
		wantLate   int64
	}{
		{name: "on time", frames: 480, sampleRate: 48000, elapsed: 5 * time.Millisecond},
		{name: "exactly real time", frames: 480, sampleRate: 48000, elapsed: 10 * time.Millisecond},
		{name: "late", frames: 480, sampleRate: 48000, elapsed: 11 * time.Millisecond, wantLate: 1},
		{name: "unknown rate is never late", frames: 480, sampleRate: 0, elapsed: time.Second},
		{name: "negative frames count as zero", frames: -1, sampleRate: 48000, elapsed: time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := NewProcessingMonitor()
			monitor.Record(tt.frames, tt.sampleRate, tt.elapsed)

			metrics := monitor.GetMetrics()
			assert.Equal(t, int64(1), metrics.TotalBlocks)
			assert.Equal(t, tt.wantLate, metrics.LateBlocks)
			assert.Equal(t, tt.elapsed, metrics.PeakBlockTime)
			assert.GreaterOrEqual(t, metrics.TotalFrames, int64(0))
		})
	}
}

func TestProcessingMonitorAverageAndPeak(t *testing.T) {
	monitor := NewProcessingMonitor()
	monitor.Record(480, 48000, 10*time.Millisecond)
	monitor.Record(480, 48000, 20*time.Millisecond)

	metrics := monitor.GetMetrics()
	assert.Equal(t, 11*time.Millisecond, metrics.AvgBlockTime)
	assert.Equal(t, 20*time.Millisecond, metrics.PeakBlockTime)
	assert.InDelta(t, 1.5, metrics.RealTimeFactor, 1e-9)
	assert.Equal(t, int64(1), metrics.LateBlocks)
}

func TestProcessingMonitorReset(t *testing.T) {
	monitor := NewProcessingMonitor()
	monitor.EnableDetailedLogging(true)
	monitor.Record(480, 48000, time.Millisecond)

	monitor.ResetMetrics()
	metrics := monitor.GetMetrics()
	assert.Zero(t, metrics.TotalBlocks)
	assert.Zero(t, metrics.AvgBlockTime)
	assert.Zero(t, metrics.RealTimeFactor)
	assert.True(t, metrics.DetailedLogging, "reset keeps the logging switch")
}

func TestProcessingMonitorConcurrentRecord(t *testing.T) {
	monitor := NewProcessingMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				monitor.Record(480, 48000, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), monitor.GetMetrics().TotalBlocks)
}

func TestSetTimeProviderNil(t *testing.T) {
	monitor := NewProcessingMonitor()
	monitor.SetTimeProvider(nil)
	assert.Equal(t, DefaultTimeProvider{}, monitor.getTimeProvider())

	monitor.Track(1, 48000, func() {})
	assert.Equal(t, int64(1), monitor.GetMetrics().TotalBlocks)
}
