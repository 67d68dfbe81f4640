package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/micdsp/av/filter"
)

func TestDefaultLevel(t *testing.T) {
	assert.Equal(t, -30, int(noise_suppress_default_level()))
}

func TestCreateUpdateDestroy(t *testing.T) {
	id, err := createFilter(-40)
	require.NoError(t, err)
	assert.Greater(t, id, int32(0))

	src, err := lookupFilter(id)
	require.NoError(t, err)
	inst := src.Data().(*filter.Instance)
	assert.Equal(t, -40, inst.SuppressLevel())

	require.NoError(t, updateFilter(id, -10))
	assert.Equal(t, -10, inst.SuppressLevel())

	// out of range levels are clamped by the filter
	require.NoError(t, updateFilter(id, 25))
	assert.Equal(t, 0, inst.SuppressLevel())

	destroyFilter(id)
	_, err = lookupFilter(id)
	assert.ErrorIs(t, err, errUnknownHandle)

	// destroying twice is harmless
	destroyFilter(id)
}

func TestHandlesAreUnique(t *testing.T) {
	a, err := createFilter(-30)
	require.NoError(t, err)
	defer destroyFilter(a)

	b, err := createFilter(-30)
	require.NoError(t, err)
	defer destroyFilter(b)

	assert.NotEqual(t, a, b)
}

func TestFilterPlanes(t *testing.T) {
	id, err := createFilter(-30)
	require.NoError(t, err)
	defer destroyFilter(id)

	src, err := lookupFilter(id)
	require.NoError(t, err)
	segment := src.Data().(*filter.Instance).Binding(0).SegmentSize()
	require.Greater(t, segment, 0)

	left := make([]float32, segment)
	right := make([]float32, segment)
	require.NoError(t, filterPlanes(id, [][]float32{left, right}, segment))

	assert.Error(t, filterPlanes(id, [][]float32{left[:1]}, segment), "short plane must be rejected")
	assert.ErrorIs(t, filterPlanes(9999, [][]float32{left}, segment), errUnknownHandle)
}

func TestExportedFunctionsRejectUnknownHandles(t *testing.T) {
	assert.Equal(t, -1, int(noise_suppress_update(-5, -30)))
	assert.Equal(t, -1, int(noise_suppress_filter_audio(-5, nil, nil, 480)))
	noise_suppress_destroy(-5)
}

func TestSetAudioFormat(t *testing.T) {
	assert.Equal(t, -1, int(micdsp_set_audio_format(0, 2)))
	assert.Equal(t, -1, int(micdsp_set_audio_format(48000, 0)))

	require.Equal(t, 0, int(micdsp_set_audio_format(16000, 1)))
	t.Cleanup(func() { micdsp_set_audio_format(defaultSampleRate, defaultChannels) })

	id, err := createFilter(-30)
	require.NoError(t, err)
	defer destroyFilter(id)

	src, err := lookupFilter(id)
	require.NoError(t, err)
	inst := src.Data().(*filter.Instance)
	assert.Equal(t, 160, inst.Binding(0).SegmentSize())
	assert.False(t, inst.Binding(1).IsBound())
}
