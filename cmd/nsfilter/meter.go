package main

import (
	"fmt"
	"io"
	"math"

	"github.com/opd-ai/micdsp/av/audio"
)

const (
	// silenceFloorDB is reported for blocks with no energy.
	silenceFloorDB = -120.0

	// meterInterval is the number of blocks averaged per meter update.
	meterInterval = 10

	// linesPerUpdate limits non-terminal output to one line per second.
	linesPerUpdate = 10
)

// blockRMS returns the RMS of all present planes of block.
func blockRMS(block *audio.Block) float64 {
	if block == nil || block.Frames <= 0 {
		return 0
	}
	var sum float64
	var count int
	for ch := range block.Data {
		plane, err := block.Plane(ch)
		if err != nil {
			continue
		}
		for _, v := range plane {
			sum += float64(v) * float64(v)
		}
		count += len(plane)
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}

// toDBFS converts a linear RMS value to dB relative to full scale.
func toDBFS(rms float64) float64 {
	if rms <= 0 {
		return silenceFloorDB
	}
	return max(20*math.Log10(rms), silenceFloorDB)
}

// levelMeter prints input and output levels while blocks are filtered.
// On a terminal it rewrites a single line; otherwise it prints one line per
// second of audio.
type levelMeter struct {
	out         io.Writer
	interactive bool

	blocks    int
	updates   int
	frames    int
	inSum     float64
	outSum    float64
	totalIn   float64
	totalOut  float64
	totalSeen int
}

func newLevelMeter(out io.Writer, interactive bool) *levelMeter {
	return &levelMeter{out: out, interactive: interactive}
}

// Observe records the input and output RMS of one block.
func (m *levelMeter) Observe(inputRMS, outputRMS float64, frames int) {
	m.inSum += inputRMS * inputRMS
	m.outSum += outputRMS * outputRMS
	m.totalIn += inputRMS * inputRMS
	m.totalOut += outputRMS * outputRMS
	m.totalSeen++
	m.frames += frames
	m.blocks++

	if m.blocks < meterInterval {
		return
	}

	line := formatLevels(math.Sqrt(m.inSum/float64(m.blocks)), math.Sqrt(m.outSum/float64(m.blocks)))
	m.updates++
	if m.interactive {
		fmt.Fprintf(m.out, "\r%s", line)
	} else if m.updates%linesPerUpdate == 0 {
		fmt.Fprintln(m.out, line)
	}

	m.blocks = 0
	m.inSum = 0
	m.outSum = 0
}

// Finish ends the meter line and prints the overall levels.
func (m *levelMeter) Finish() {
	if m.interactive && m.updates > 0 {
		fmt.Fprintln(m.out)
	}
	if m.totalSeen == 0 {
		fmt.Fprintln(m.out, "no audio processed")
		return
	}
	overallIn := math.Sqrt(m.totalIn / float64(m.totalSeen))
	overallOut := math.Sqrt(m.totalOut / float64(m.totalSeen))
	fmt.Fprintf(m.out, "overall %s over %d frames\n", formatLevels(overallIn, overallOut), m.frames)
}

func formatLevels(inputRMS, outputRMS float64) string {
	in, out := toDBFS(inputRMS), toDBFS(outputRMS)
	return fmt.Sprintf("in %7.1f dBFS  out %7.1f dBFS  reduction %6.1f dB", in, out, in-out)
}
