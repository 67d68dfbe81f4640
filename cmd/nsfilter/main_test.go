package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/micdsp/av"
	"github.com/opd-ai/micdsp/av/audio"
	"github.com/opd-ai/micdsp/av/filter"
	"github.com/opd-ai/micdsp/av/rtp"
)

func validConfig() *CLIConfig {
	return &CLIConfig{
		duration:   time.Second,
		level:      -30,
		sampleRate: 48000,
		channels:   2,
		logLevel:   "WARN",
	}
}

func TestValidateCLIConfig(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*CLIConfig)
		wantErr     bool
		errContains string
	}{
		{name: "valid config with defaults", modify: func(c *CLIConfig) {}},
		{name: "mono input file", modify: func(c *CLIConfig) { c.channels = 1; c.inputPath = "in.ogg"; c.duration = 0 }},
		{name: "passthrough engine", modify: func(c *CLIConfig) { c.engine = "passthrough" }},
		{name: "rtp destination", modify: func(c *CLIConfig) { c.rtpAddress = "127.0.0.1:5004" }},
		{name: "level too low", modify: func(c *CLIConfig) { c.level = -61 }, wantErr: true, errContains: "invalid level"},
		{name: "level positive", modify: func(c *CLIConfig) { c.level = 1 }, wantErr: true, errContains: "invalid level"},
		{name: "zero rate", modify: func(c *CLIConfig) { c.sampleRate = 0 }, wantErr: true, errContains: "invalid sample rate"},
		{name: "rate too high", modify: func(c *CLIConfig) { c.sampleRate = 1 << 33 }, wantErr: true, errContains: "invalid sample rate"},
		{name: "three channels", modify: func(c *CLIConfig) { c.channels = 3 }, wantErr: true, errContains: "invalid channel count"},
		{name: "zero duration without input", modify: func(c *CLIConfig) { c.duration = 0 }, wantErr: true, errContains: "duration must be positive"},
		{name: "unknown engine", modify: func(c *CLIConfig) { c.engine = "rnnoise" }, wantErr: true, errContains: "unknown engine"},
		{name: "simulated engine is test only", modify: func(c *CLIConfig) { c.engine = "simulated" }, wantErr: true, errContains: "unknown engine"},
		{name: "rtp without port", modify: func(c *CLIConfig) { c.rtpAddress = "localhost" }, wantErr: true, errContains: "invalid RTP address"},
		{name: "bad log level", modify: func(c *CLIConfig) { c.logLevel = "LOUD" }, wantErr: true, errContains: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modify(config)
			err := validateCLIConfig(config)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateFilterSource(t *testing.T) {
	config := validConfig()
	config.engine = "passthrough"
	config.level = -45

	source, err := createFilterSource(config)
	require.NoError(t, err)
	defer source.Destroy()

	instance, ok := source.Data().(*filter.Instance)
	require.True(t, ok)
	assert.Equal(t, -45, instance.SuppressLevel())
	assert.True(t, instance.Binding(0).IsBound())
	assert.True(t, instance.Binding(1).IsBound())
	assert.Equal(t, 480, instance.Binding(0).SegmentSize())
}

func TestOpenSourceMissingFile(t *testing.T) {
	config := validConfig()
	config.inputPath = t.TempDir() + "/missing.ogg"

	_, _, err := openSource(config)
	assert.Error(t, err)
}

// udpCapture records packets written by the packetizer.
type udpCapture struct {
	packets [][]byte
}

func (c *udpCapture) Write(p []byte) (int, error) {
	c.packets = append(c.packets, append([]byte(nil), p...))
	return len(p), nil
}

func TestProcessBlockFeedsMeterAndRTP(t *testing.T) {
	config := validConfig()
	config.engine = "passthrough"
	config.channels = 1

	source, err := createFilterSource(config)
	require.NoError(t, err)
	defer source.Destroy()

	capture := &udpCapture{}
	packetizer, err := rtp.NewL16Packetizer(capture, 1)
	require.NoError(t, err)

	var out bytes.Buffer
	meter := newLevelMeter(&out, false)

	block := audio.NewBlock(1, 480)
	for i := range block.Data[0] {
		block.Data[0][i] = 0.5
	}
	monitor := av.NewProcessingMonitor()
	processBlock(source, block, 48000, monitor, meter, packetizer, nil)

	assert.Equal(t, 1, meter.totalSeen)
	assert.Equal(t, int64(1), monitor.GetMetrics().TotalBlocks)
	assert.Len(t, capture.packets, 1)

	instance := source.Data().(*filter.Instance)
	assert.Equal(t, uint64(1), instance.Stats().Channels[0].BlocksProcessed)
}

func TestRunWithSyntheticInput(t *testing.T) {
	config := validConfig()
	config.engine = "passthrough"
	config.duration = 100 * time.Millisecond

	err := run(context.Background(), config)
	assert.NoError(t, err)
}

func TestRunCancelled(t *testing.T) {
	config := validConfig()
	config.engine = "passthrough"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, config)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPrintTimingSkipsEmpty(t *testing.T) {
	printTiming(av.ProcessingMetrics{})
	printTiming(av.ProcessingMetrics{TotalBlocks: 1, AvgBlockTime: time.Millisecond, RealTimeFactor: 0.1})
}

func TestNopCloser(t *testing.T) {
	var c io.Closer = nopCloser{}
	assert.NoError(t, c.Close())
}

func TestSetupSignalHandlingExitsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := setupSignalHandling(ctx, cancel)

	select {
	case <-done:
		t.Fatal("handler stopped before the context was cancelled")
	default:
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("signal handler goroutine did not exit after cancel")
	}
}
