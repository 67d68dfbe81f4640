// Package audio provides the sample-level building blocks of the noise
// suppression filter.
//
// This package implements everything the filter core needs below the
// channel lifecycle: the float/int16 sample converter, the planar audio
// block, the built-in suppression engines, and the stream helpers used to
// bring sources to the output format.
//
// # Architecture Overview
//
// The per-channel flow for one block is:
//
//	float plane → FloatsToInt16 → engine Run (in place) → Int16ToFloats → float plane
//
// # Core Components
//
// ## Sample Converter
//
// Stateless conversion between normalized floats and 16-bit PCM:
//
//	pcm := audio.FloatToInt16(0.5)    // 16383, truncated
//	f := audio.Int16ToFloat(pcm)      // 0.49997
//
// ## Block
//
// A planar block borrowed from the host; planes are mutated in place:
//
//	block := audio.NewBlock(2, 480)
//	left, err := block.Plane(0)
//
// ## SpectralEngine
//
// The default suppression engine, an STFT spectral subtraction with noise
// floor learning and a frame-energy VAD:
//
//	engine, err := audio.NewSpectralEngine(20, 2.0)
//	state, err := engine.Init(480, 48000)
//	defer state.Destroy()
//
//	state.SetControl(interfaces.ControlNoiseSuppress, -30)
//	voice, err := state.Run(segment)
//
// ## PassthroughEngine
//
// A no-op engine with the same lifecycle, for disabling DSP without
// changing the filter wiring.
//
// ## Resampler and OpusDecoder
//
// Source helpers: OpusDecoder turns Opus packets into planes and Resampler
// converts them to the audio output rate:
//
//	decoder := audio.NewOpusDecoder()
//	planes, rate, err := decoder.Decode(packet, 960)
//
//	resampler, err := audio.NewResampler(audio.ResamplerConfig{
//	    InputRate:  rate,
//	    OutputRate: 44100,
//	    Channels:   len(planes),
//	})
//	converted, err := resampler.Resample(planes)
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use of a single value.
// Engine states, resamplers and decoders belong to one stream each.
//
// # Dependencies
//
//   - github.com/MeKo-Christian/algo-fft: FFT plans for the spectral engine
//   - github.com/cwbudde/algo-vecmath: SIMD block multiply and magnitude
//   - github.com/pion/opus: Pure Go Opus decoder (no CGO)
//   - github.com/sirupsen/logrus: Structured logging
package audio
