package main

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opd-ai/micdsp/av/audio"
)

func TestBlockRMS(t *testing.T) {
	tests := []struct {
		name  string
		block *audio.Block
		want  float64
	}{
		{name: "nil block", block: nil, want: 0},
		{name: "empty block", block: &audio.Block{}, want: 0},
		{name: "silence", block: audio.NewBlock(2, 10), want: 0},
		{name: "constant", block: &audio.Block{Data: [][]float32{{0.5, -0.5, 0.5, -0.5}}, Frames: 4}, want: 0.5},
		{name: "missing plane ignored", block: &audio.Block{Data: [][]float32{{1, 1}, nil}, Frames: 2}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, blockRMS(tt.block), 1e-9)
		})
	}
}

func TestToDBFS(t *testing.T) {
	assert.Equal(t, silenceFloorDB, toDBFS(0))
	assert.Equal(t, silenceFloorDB, toDBFS(1e-12))
	assert.InDelta(t, 0, toDBFS(1), 1e-9)
	assert.InDelta(t, -20*math.Log10(2), toDBFS(0.5), 1e-9)
}

func TestLevelMeterInteractive(t *testing.T) {
	var out bytes.Buffer
	meter := newLevelMeter(&out, true)

	for i := 0; i < 2*meterInterval; i++ {
		meter.Observe(1, 0.1, 480)
	}
	meter.Finish()

	text := out.String()
	assert.Equal(t, 2, strings.Count(text, "\r"))
	assert.Contains(t, text, "reduction   20.0 dB")
	assert.Contains(t, text, "overall")
	assert.Contains(t, text, "9600 frames")
}

func TestLevelMeterPlain(t *testing.T) {
	var out bytes.Buffer
	meter := newLevelMeter(&out, false)

	for i := 0; i < meterInterval*linesPerUpdate; i++ {
		meter.Observe(0.5, 0.5, 480)
	}
	meter.Finish()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2, "one periodic line plus the summary")
	assert.NotContains(t, out.String(), "\r")
}

func TestLevelMeterNoAudio(t *testing.T) {
	var out bytes.Buffer
	newLevelMeter(&out, true).Finish()
	assert.Equal(t, "no audio processed\n", out.String())
}
