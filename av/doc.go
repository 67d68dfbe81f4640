// Package av holds processing-time instrumentation shared by the audio
// pipeline.
//
// The filtering code itself lives in sub-packages:
//
//   - av/audio: sample conversion, audio blocks, suppression engines, Opus
//     decoding and resampling
//   - av/filter: the noise suppression filter instance and its per-channel
//     engine bindings
//   - av/rtp: L16 RTP streaming of filtered audio
//
// # Processing Monitor
//
// ProcessingMonitor measures how long each block takes to filter and relates
// that to the block's duration:
//
//	monitor := av.NewProcessingMonitor()
//	monitor.Track(block.Frames, sampleRate, func() {
//	    block = source.FilterAudio(block)
//	})
//
//	metrics := monitor.GetMetrics()
//	fmt.Printf("real-time factor %.3f\n", metrics.RealTimeFactor)
//
// A real-time factor below 1 means the filter keeps up with the audio clock.
// Blocks whose processing took longer than their own duration are counted as
// late.
//
// # Deterministic Testing
//
// SetTimeProvider replaces the wall clock, so tests can drive elapsed times
// exactly.
package av
