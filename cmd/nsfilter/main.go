package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/opd-ai/micdsp"
	"github.com/opd-ai/micdsp/av"
	"github.com/opd-ai/micdsp/av/audio"
	"github.com/opd-ai/micdsp/av/filter"
	"github.com/opd-ai/micdsp/av/rtp"
	"github.com/opd-ai/micdsp/factory"
	"github.com/opd-ai/micdsp/interfaces"
	"github.com/opd-ai/micdsp/limits"
)

// CLI configuration
type CLIConfig struct {
	inputPath  string
	duration   time.Duration
	level      int
	sampleRate uint
	channels   int
	engine     string
	play       bool
	rtpAddress string
	logLevel   string
	help       bool
}

// parseCLIFlags parses command-line flags and returns the configuration.
func parseCLIFlags() *CLIConfig {
	config := &CLIConfig{}

	// Input configuration
	flag.StringVar(&config.inputPath, "in", "", "Ogg/Opus input file (default: synthetic noisy tone)")
	flag.DurationVar(&config.duration, "duration", 5*time.Second, "Length of the synthetic input")

	// Filter configuration
	flag.IntVar(&config.level, "level", limits.DefaultSuppressLevel, "Suppression level in dB (-60 to 0)")
	flag.UintVar(&config.sampleRate, "rate", 48000, "Audio output sample rate in Hz")
	flag.IntVar(&config.channels, "channels", 2, "Audio output channel count (1 or 2)")
	flag.StringVar(&config.engine, "engine", "", "Suppression engine (spectral, passthrough); overrides MICDSP_ENGINE")

	// Output configuration
	flag.BoolVar(&config.play, "play", false, "Play the filtered audio on the default output device")
	flag.StringVar(&config.rtpAddress, "rtp", "", "Stream the filtered audio as L16 RTP to host:port")

	// Logging configuration
	flag.StringVar(&config.logLevel, "log-level", "WARN", "Log level (DEBUG, INFO, WARN, ERROR)")

	// Help
	flag.BoolVar(&config.help, "help", false, "Show help message")

	flag.Parse()
	return config
}

// printUsage prints the usage information.
func printUsage() {
	fmt.Println("Noise Suppression Filter")
	fmt.Println("========================")
	fmt.Println()
	fmt.Println("Runs audio through the noise suppression filter in 10 ms blocks and")
	fmt.Println("reports input and output levels.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  # Filter a synthetic noisy tone at the default level\n")
	fmt.Printf("  %s\n", os.Args[0])
	fmt.Println()
	fmt.Printf("  # Filter a recording at maximum suppression and listen to it\n")
	fmt.Printf("  %s -in speech.ogg -level -60 -play\n", os.Args[0])
	fmt.Println()
	fmt.Printf("  # Stream mono output to a monitor on another machine\n")
	fmt.Printf("  %s -channels 1 -rtp 192.168.1.20:5004\n", os.Args[0])
}

// validateCLIConfig validates the CLI configuration.
func validateCLIConfig(config *CLIConfig) error {
	if err := limits.ValidateSuppressLevel(config.level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}

	if config.sampleRate > uint(limits.MaxSampleRate) {
		return fmt.Errorf("invalid sample rate: must not exceed %d", limits.MaxSampleRate)
	}
	if err := limits.ValidateSampleRate(uint32(config.sampleRate)); err != nil {
		return fmt.Errorf("invalid sample rate: %w", err)
	}

	if config.channels < 1 || config.channels > limits.MaxChannels {
		return fmt.Errorf("invalid channel count: must be 1 or %d", limits.MaxChannels)
	}

	if config.inputPath == "" && config.duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}

	switch config.engine {
	case "", interfaces.EngineKindSpectral, interfaces.EngineKindPassthrough:
	default:
		return fmt.Errorf("unknown engine %q", config.engine)
	}

	if config.rtpAddress != "" {
		if _, _, err := net.SplitHostPort(config.rtpAddress); err != nil {
			return fmt.Errorf("invalid RTP address: %w", err)
		}
	}

	if _, err := logrus.ParseLevel(strings.ToLower(config.logLevel)); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

// setupSignalHandling sets up graceful shutdown on interrupt signals.
// The returned channel is closed once the handler has stopped listening,
// either after an interrupt or when ctx is done.
func setupSignalHandling(ctx context.Context, cancel context.CancelFunc) <-chan struct{} {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			fmt.Printf("\n🛑 Received signal %v, stopping...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return done
}

// createFilterSource loads the module and creates the noise suppression source.
func createFilterSource(config *CLIConfig) (*micdsp.FilterSource, error) {
	output, err := micdsp.NewAudioOutput(uint32(config.sampleRate), config.channels)
	if err != nil {
		return nil, err
	}

	engines := factory.NewEngineFactory()
	if config.engine != "" {
		engineConfig := engines.GetCurrentConfig()
		engineConfig.Kind = config.engine
		if err := engines.UpdateConfig(engineConfig); err != nil {
			return nil, err
		}
	}

	module, err := micdsp.NewModule(output, engines)
	if err != nil {
		return nil, err
	}
	if err := module.Load(); err != nil {
		return nil, err
	}

	settings := micdsp.NewSettings()
	settings.SetInt(filter.SettingSuppressLevel, int64(config.level))
	return module.CreateSource(micdsp.NoiseSuppressFilterID, "nsfilter", settings)
}

// openSource returns the block source selected by the configuration.
func openSource(config *CLIConfig) (blockSource, io.Closer, error) {
	if config.inputPath == "" {
		frames := int(config.duration.Seconds() * float64(config.sampleRate))
		return newToneSource(uint32(config.sampleRate), config.channels, frames, time.Now().UnixNano()), nopCloser{}, nil
	}

	file, err := os.Open(config.inputPath)
	if err != nil {
		return nil, nil, err
	}
	source, err := newOggOpusSource(file, uint32(config.sampleRate), config.channels)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	return source, file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// run drives the filter until the source is exhausted or ctx is cancelled.
func run(ctx context.Context, config *CLIConfig) error {
	filterSource, err := createFilterSource(config)
	if err != nil {
		return fmt.Errorf("failed to create filter: %w", err)
	}
	defer filterSource.Destroy()

	source, closer, err := openSource(config)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer closer.Close()

	var packetizer *rtp.L16Packetizer
	if config.rtpAddress != "" {
		conn, err := net.Dial("udp", config.rtpAddress)
		if err != nil {
			return fmt.Errorf("failed to open RTP destination: %w", err)
		}
		defer conn.Close()
		if packetizer, err = rtp.NewL16Packetizer(conn, config.channels); err != nil {
			return err
		}
		fmt.Printf("📡 Streaming L16/%d/%d RTP to %s (payload type %d, SSRC %d)\n",
			config.sampleRate, config.channels, config.rtpAddress, rtp.L16PayloadType, packetizer.SSRC())
	}

	var out *player
	if config.play {
		if out, err = newPlayer(int(config.sampleRate), config.channels); err != nil {
			return fmt.Errorf("failed to open audio device: %w", err)
		}
		defer out.Close()
	}

	meter := newLevelMeter(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
	monitor := av.NewProcessingMonitor()
	monitor.EnableDetailedLogging(logrus.IsLevelEnabled(logrus.TraceLevel))
	segment := limits.SegmentSize(uint32(config.sampleRate))

	for ctx.Err() == nil {
		block, err := source.Next(segment)
		if block != nil && block.Frames > 0 {
			processBlock(filterSource, block, uint32(config.sampleRate), monitor, meter, packetizer, out)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
	}

	meter.Finish()
	if out != nil && ctx.Err() == nil {
		out.Drain(ctx)
	}

	if instance, ok := filterSource.Data().(*filter.Instance); ok {
		printStats(instance.Stats(), config.channels)
	}
	printTiming(monitor.GetMetrics())
	return ctx.Err()
}

// processBlock filters one block and hands the result to the meter and outputs.
// Only the filter call is timed.
func processBlock(source *micdsp.FilterSource, block *audio.Block, sampleRate uint32, monitor *av.ProcessingMonitor, meter *levelMeter, packetizer *rtp.L16Packetizer, out *player) {
	inputRMS := blockRMS(block)
	var filtered *audio.Block
	monitor.Track(block.Frames, sampleRate, func() {
		filtered = source.FilterAudio(block)
	})
	meter.Observe(inputRMS, blockRMS(filtered), filtered.Frames)

	if packetizer != nil {
		if err := packetizer.SendBlock(filtered); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "processBlock",
				"error":    err.Error(),
			}).Warn("RTP send failed")
		}
	}
	if out != nil {
		out.Write(filtered)
	}
}

// printStats prints the per-channel filter counters.
func printStats(stats filter.Stats, channels int) {
	for ch := 0; ch < channels; ch++ {
		s := stats.Channels[ch]
		fmt.Printf("📊 Channel %d: %d blocks processed, %d skipped, %d overruns, %d engine errors\n",
			ch, s.BlocksProcessed, s.BlocksSkipped, s.Overruns, s.EngineErrors)
	}
}

// printTiming prints how fast the filter ran compared to the audio clock.
func printTiming(metrics av.ProcessingMetrics) {
	if metrics.TotalBlocks == 0 {
		return
	}
	fmt.Printf("⏱️  %d blocks: avg %v, peak %v, real-time factor %.3f, %d late\n",
		metrics.TotalBlocks, metrics.AvgBlockTime, metrics.PeakBlockTime, metrics.RealTimeFactor, metrics.LateBlocks)
}

// main is the entry point for nsfilter.
func main() {
	cliConfig := parseCLIFlags()

	if cliConfig.help {
		printUsage()
		os.Exit(0)
	}

	if err := validateCLIConfig(cliConfig); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Use -help for usage information.\n")
		os.Exit(1)
	}

	level, _ := logrus.ParseLevel(strings.ToLower(cliConfig.logLevel))
	logrus.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(ctx, cancel)

	fmt.Printf("🚀 Filtering at %d dB (%d Hz, %d channel(s))\n", cliConfig.level, cliConfig.sampleRate, cliConfig.channels)

	err := run(ctx, cliConfig)
	switch {
	case err == nil:
		fmt.Println("🎉 Done")
	case errors.Is(err, context.Canceled):
		fmt.Println("🛑 Interrupted")
	default:
		fmt.Fprintf(os.Stderr, "\n❌ %v\n", err)
		os.Exit(1)
	}
}
