package audio

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/micdsp/interfaces"
	"github.com/opd-ai/micdsp/limits"
)

const (
	// maxSegmentFrames bounds the segment length accepted by Init (85 ms at 96 kHz).
	maxSegmentFrames = 8192

	// vadThreshold is the frame SNR (power ratio) above which a segment counts as speech.
	vadThreshold = 3.0

	// vadSilence is the frame power below which a segment never counts as speech.
	vadSilence = 1e-9

	// powerFloor avoids division by zero on silent bins.
	powerFloor = 1e-20
)

// ErrStateDestroyed is returned when a destroyed engine state is used.
var ErrStateDestroyed = errors.New("engine state destroyed")

// SpectralEngine implements the suppression engine with STFT spectral subtraction.
//
// Each state runs a weighted overlap-add analysis/synthesis over windows of two
// segments with 50% overlap. The noise floor is learned from the first frames
// and tracked slowly afterwards; bins are attenuated by a subtraction gain that
// never drops below the floor derived from the NOISE_SUPPRESS control.
//
// Design decisions:
// - sqrt-Hann analysis and synthesis windows so an all-pass gain reconstructs the input exactly
// - One segment of latency, the price of overlap-add with a hop of one segment
// - Frame-energy VAD returned from Run for diagnostics
type SpectralEngine struct {
	noiseEstimateFrames int
	overSubtraction     float64
}

// NewSpectralEngine creates a new spectral subtraction engine.
//
// Parameters:
//   - noiseEstimateFrames: Number of initial frames used to learn the noise floor
//   - overSubtraction: Factor applied to the noise estimate before subtraction (>= 1)
//
// Returns:
//   - *SpectralEngine: New engine instance
//   - error: Validation error if parameters are invalid
func NewSpectralEngine(noiseEstimateFrames int, overSubtraction float64) (*SpectralEngine, error) {
	logrus.WithFields(logrus.Fields{
		"function":              "NewSpectralEngine",
		"noise_estimate_frames": noiseEstimateFrames,
		"over_subtraction":      overSubtraction,
	}).Info("Creating new spectral suppression engine")

	if noiseEstimateFrames <= 0 {
		logrus.WithFields(logrus.Fields{
			"function":              "NewSpectralEngine",
			"noise_estimate_frames": noiseEstimateFrames,
			"error":                 "noise estimate frames must be positive",
		}).Error("Engine parameter validation failed")
		return nil, fmt.Errorf("noise estimate frames must be positive: %d", noiseEstimateFrames)
	}
	if overSubtraction < 1 || math.IsNaN(overSubtraction) || math.IsInf(overSubtraction, 0) {
		logrus.WithFields(logrus.Fields{
			"function":         "NewSpectralEngine",
			"over_subtraction": overSubtraction,
			"error":            "over-subtraction must be a finite value >= 1",
		}).Error("Engine parameter validation failed")
		return nil, fmt.Errorf("over-subtraction must be a finite value >= 1: %f", overSubtraction)
	}

	return &SpectralEngine{
		noiseEstimateFrames: noiseEstimateFrames,
		overSubtraction:     overSubtraction,
	}, nil
}

// Name returns the engine name for logging.
func (e *SpectralEngine) Name() string {
	return "spectral"
}

// Init allocates a state for segmentFrames samples per run at sampleRate.
//
// The state starts with the default suppression level and denoising enabled.
func (e *SpectralEngine) Init(segmentFrames, sampleRate int) (interfaces.IEngineState, error) {
	logrus.WithFields(logrus.Fields{
		"function":       "SpectralEngine.Init",
		"segment_frames": segmentFrames,
		"sample_rate":    sampleRate,
	}).Debug("Allocating spectral engine state")

	if segmentFrames <= 0 || segmentFrames > maxSegmentFrames {
		return nil, fmt.Errorf("segment frames must be in [1, %d]: %d", maxSegmentFrames, segmentFrames)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}

	windowLen := 2 * segmentFrames
	fftSize := nextPowerOfTwo(windowLen)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectral engine: failed to create FFT plan: %w", err)
	}

	bins := fftSize/2 + 1
	state := &spectralState{
		segment:         segmentFrames,
		sampleRate:      sampleRate,
		windowLen:       windowLen,
		fftSize:         fftSize,
		bins:            bins,
		plan:            plan,
		window:          sqrtHann(windowLen),
		history:         make([]float64, windowLen),
		overlap:         make([]float64, windowLen),
		frame:           make([]float64, windowLen),
		spectrum:        make([]complex128, fftSize),
		timeFrame:       make([]complex128, fftSize),
		re:              make([]float64, bins),
		im:              make([]float64, bins),
		mag:             make([]float64, bins),
		noise:           make([]float64, bins),
		estimateFrames:  e.noiseEstimateFrames,
		overSubtraction: e.overSubtraction,
		denoise:         true,
	}
	state.setLevel(limits.DefaultSuppressLevel)

	logrus.WithFields(logrus.Fields{
		"function":       "SpectralEngine.Init",
		"segment_frames": segmentFrames,
		"sample_rate":    sampleRate,
		"fft_size":       fftSize,
	}).Debug("Spectral engine state allocated")

	return state, nil
}

// spectralState is the per-channel STFT context of SpectralEngine.
type spectralState struct {
	segment    int
	sampleRate int
	windowLen  int
	fftSize    int
	bins       int

	plan   *algofft.Plan[complex128]
	window []float64

	history   []float64 // last windowLen input samples, oldest first
	overlap   []float64 // synthesis accumulator
	frame     []float64
	spectrum  []complex128
	timeFrame []complex128
	re        []float64
	im        []float64
	mag       []float64
	noise     []float64 // noise power per bin

	level           int
	gainFloor       float64
	denoise         bool
	estimateFrames  int
	framesSeen      int
	overSubtraction float64
	destroyed       bool
}

// SetControl applies NOISE_SUPPRESS (dB) or DENOISE (on/off).
//
// NOISE_SUPPRESS is an attenuation, so positive values are taken as their
// negative.
func (s *spectralState) SetControl(control interfaces.EngineControl, value int) error {
	if s.destroyed {
		return ErrStateDestroyed
	}

	switch control {
	case interfaces.ControlNoiseSuppress:
		if value > 0 {
			value = -value
		}
		s.setLevel(value)
	case interfaces.ControlDenoise:
		s.denoise = value != 0
	default:
		return fmt.Errorf("unsupported engine control: %s", control)
	}
	return nil
}

func (s *spectralState) setLevel(level int) {
	s.level = level
	s.gainFloor = math.Pow(10, float64(level)/20)
}

// Run suppresses noise in segment in place and reports voice activity.
func (s *spectralState) Run(segment []int16) (bool, error) {
	if s.destroyed {
		return false, ErrStateDestroyed
	}
	if len(segment) != s.segment {
		return false, fmt.Errorf("segment holds %d samples, state expects %d", len(segment), s.segment)
	}

	s.pushInput(segment)

	vecmath.MulBlock(s.frame, s.history, s.window)
	for i := range s.spectrum {
		if i < s.windowLen {
			s.spectrum[i] = complex(s.frame[i], 0)
		} else {
			s.spectrum[i] = 0
		}
	}

	if err := s.plan.Forward(s.spectrum, s.spectrum); err != nil {
		return false, fmt.Errorf("spectral engine: forward FFT failed: %w", err)
	}

	for k := 0; k < s.bins; k++ {
		s.re[k] = real(s.spectrum[k])
		s.im[k] = imag(s.spectrum[k])
	}
	vecmath.Magnitude(s.mag, s.re, s.im)

	voice := s.updateNoiseEstimate()

	if s.denoise && s.framesSeen >= s.estimateFrames && s.gainFloor < 1 {
		s.applySpectralSubtraction()
	}

	if err := s.plan.Inverse(s.timeFrame, s.spectrum); err != nil {
		return false, fmt.Errorf("spectral engine: inverse FFT failed: %w", err)
	}

	s.overlapAdd(segment)

	return voice, nil
}

// pushInput shifts the analysis history by one segment and appends the new samples.
func (s *spectralState) pushInput(segment []int16) {
	copy(s.history, s.history[s.segment:])
	tail := s.history[s.windowLen-s.segment:]
	for i, v := range segment {
		tail[i] = float64(v) / limits.Int16Divisor
	}
}

// updateNoiseEstimate learns the noise floor as a running mean over the first
// frames. Afterwards the floor follows frames the VAD classifies as noise and
// is frozen during speech. Returns the VAD decision.
func (s *spectralState) updateNoiseEstimate() bool {
	learning := s.framesSeen < s.estimateFrames

	var signalPower, noisePower float64
	for k := 0; k < s.bins; k++ {
		signalPower += s.mag[k] * s.mag[k]
		noisePower += s.noise[k]
	}

	voice := !learning && signalPower > vadSilence && signalPower > vadThreshold*noisePower
	if voice {
		return true
	}

	for k := 0; k < s.bins; k++ {
		p := s.mag[k] * s.mag[k]
		if learning {
			s.noise[k] += (p - s.noise[k]) / float64(s.framesSeen+1)
		} else {
			s.noise[k] = 0.95*s.noise[k] + 0.05*p
		}
	}

	if learning {
		s.framesSeen++
		if s.framesSeen == s.estimateFrames {
			logrus.WithFields(logrus.Fields{
				"function":    "spectralState.updateNoiseEstimate",
				"frames":      s.framesSeen,
				"sample_rate": s.sampleRate,
			}).Debug("Noise floor estimation completed")
		}
	}

	return false
}

// applySpectralSubtraction scales each bin by max(sqrt(1 - a*N/P), floor) and
// mirrors the gain onto the negative frequencies.
func (s *spectralState) applySpectralSubtraction() {
	half := s.fftSize / 2
	for k := 0; k < s.bins; k++ {
		p := s.mag[k] * s.mag[k]
		gain := 1.0
		if p > powerFloor {
			residual := 1 - s.overSubtraction*s.noise[k]/p
			gain = math.Sqrt(math.Max(residual, 0))
		}
		if gain < s.gainFloor {
			gain = s.gainFloor
		}
		if gain >= 1 {
			continue
		}

		s.spectrum[k] *= complex(gain, 0)
		if k > 0 && k < half {
			s.spectrum[s.fftSize-k] *= complex(gain, 0)
		}
	}
}

// overlapAdd accumulates the synthesized frame and writes the completed
// segment back into out with rounding and int16 saturation.
func (s *spectralState) overlapAdd(out []int16) {
	for i := 0; i < s.windowLen; i++ {
		s.overlap[i] += real(s.timeFrame[i]) * s.window[i]
	}

	for i := range out {
		v := math.Round(s.overlap[i] * limits.Int16Divisor)
		switch {
		case v > math.MaxInt16:
			out[i] = math.MaxInt16
		case v < math.MinInt16:
			out[i] = math.MinInt16
		default:
			out[i] = int16(v)
		}
	}

	copy(s.overlap, s.overlap[s.segment:])
	clear(s.overlap[s.windowLen-s.segment:])
}

// Destroy releases the state's buffers. It is safe to call more than once.
func (s *spectralState) Destroy() error {
	if s.destroyed {
		return nil
	}
	s.destroyed = true
	s.plan = nil
	s.window = nil
	s.history = nil
	s.overlap = nil
	s.frame = nil
	s.spectrum = nil
	s.timeFrame = nil
	s.re = nil
	s.im = nil
	s.mag = nil
	s.noise = nil
	return nil
}

// sqrtHann returns a periodic sqrt-Hann window; its square sums to one at 50% overlap.
func sqrtHann(n int) []float64 {
	w := window.Generate(window.TypeHann, n, window.WithPeriodic())
	for i, c := range w {
		// cosine round-off can leave the edge coefficient a hair below zero
		w[i] = math.Sqrt(math.Max(c, 0))
	}
	return w
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
