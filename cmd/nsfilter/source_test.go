package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneSourceBlocks(t *testing.T) {
	source := newToneSource(48000, 2, 1000, 1)

	sizes := []int{}
	for {
		block, err := source.Next(480)
		if block != nil {
			require.Len(t, block.Data, 2)
			sizes = append(sizes, block.Frames)
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, []int{480, 480, 40}, sizes)

	block, err := source.Next(480)
	assert.Nil(t, block)
	assert.Equal(t, io.EOF, err)
}

func TestToneSourceGating(t *testing.T) {
	const rate = 8000
	source := newToneSource(rate, 1, rate, 2)

	var peakOn, peakOff float32
	for frame := 0; ; {
		block, err := source.Next(80)
		for _, v := range block.Data[0] {
			if v < 0 {
				v = -v
			}
			if frame < rate/2 {
				peakOn = max(peakOn, v)
			} else {
				peakOff = max(peakOff, v)
			}
			frame++
		}
		if err == io.EOF {
			break
		}
	}

	assert.Greater(t, peakOn, float32(0.25), "first half second carries the tone")
	assert.Less(t, peakOff, float32(0.25), "second half second is noise only")
	assert.Greater(t, peakOff, float32(0), "noise bed is always present")
}

func TestMapChannels(t *testing.T) {
	mono := [][]float32{{0.5, -0.5}}
	stereo := mapChannels(mono, 2)
	require.Len(t, stereo, 2)
	assert.Equal(t, []float32{0.5, -0.5}, stereo[0])
	assert.Equal(t, []float32{0.5, -0.5}, stereo[1])

	stereo[1][0] = 0
	assert.Equal(t, float32(0.5), mono[0][0], "duplicated planes must not alias")

	down := mapChannels([][]float32{{1, 0}, {0, 1}}, 1)
	require.Len(t, down, 1)
	assert.Equal(t, []float32{0.5, 0.5}, down[0])

	same := [][]float32{{1}, {2}}
	assert.Equal(t, same, mapChannels(same, 2))
}

func TestTruncatePlanes(t *testing.T) {
	planes := truncatePlanes([][]float32{{1, 2, 3}, {4, 5, 6}}, 2)
	assert.Equal(t, [][]float32{{1, 2}, {4, 5}}, planes)

	planes = truncatePlanes([][]float32{{1}}, 5)
	assert.Equal(t, [][]float32{{1}}, planes)
}

func TestNewOggOpusSourceRejectsGarbage(t *testing.T) {
	_, err := newOggOpusSource(bytes.NewReader([]byte("definitely not an ogg stream")), 48000, 2)
	assert.Error(t, err)

	_, err = newOggOpusSource(bytes.NewReader(nil), 48000, 2)
	assert.Error(t, err)
}
