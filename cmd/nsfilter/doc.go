// Package main provides nsfilter, a command-line driver for the noise
// suppression filter.
//
// nsfilter loads the filter module, creates one noise suppression source and
// pushes 10 ms blocks through it from either an Ogg/Opus file or a synthetic
// noisy tone. While running it prints an input/output level meter; the
// filtered audio can be played on the default output device (-play) or
// streamed as L16 RTP to a UDP address (-rtp).
//
// Playback needs the default build; building with -tags headless removes the
// audio device dependency.
package main
