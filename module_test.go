package micdsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/micdsp/av/audio"
	"github.com/opd-ai/micdsp/av/filter"
	"github.com/opd-ai/micdsp/factory"
	"github.com/opd-ai/micdsp/interfaces"
	simtesting "github.com/opd-ai/micdsp/testing"
)

func newSimulatedFactory(t *testing.T, rebind bool) *factory.EngineFactory {
	t.Helper()
	f := factory.NewEngineFactory()
	require.NoError(t, f.UpdateConfig(&interfaces.EngineConfig{
		Kind:                 interfaces.EngineKindSimulated,
		NoiseEstimateFrames:  20,
		OverSubtraction:      2.0,
		RebindOnFormatChange: rebind,
	}))
	return f
}

func newLoadedModule(t *testing.T, rate uint32, channels int) *Module {
	t.Helper()
	output, err := NewAudioOutput(rate, channels)
	require.NoError(t, err)

	m, err := NewModule(output, newSimulatedFactory(t, false))
	require.NoError(t, err)
	require.NoError(t, m.Load())
	return m
}

func simulatedState(t *testing.T, src *FilterSource, ch int) *simtesting.SimulatedState {
	t.Helper()
	inst, ok := src.Data().(*filter.Instance)
	require.True(t, ok)
	state, ok := inst.Binding(ch).EngineState().(*simtesting.SimulatedState)
	require.True(t, ok, "channel %d not bound to a simulated state", ch)
	return state
}

func TestNewModuleRequiresOutput(t *testing.T) {
	_, err := NewModule(nil, nil)
	assert.Error(t, err)
}

func TestModuleLoadRegistersFilter(t *testing.T) {
	m := newLoadedModule(t, 48000, 1)

	assert.Equal(t, []string{NoiseSuppressFilterID}, m.SourceIDs())

	info, ok := m.Source("noise_suppress_filter")
	require.True(t, ok)
	assert.Equal(t, SourceTypeFilter, info.Type)
	assert.NotZero(t, info.OutputFlags&OutputAudio)
	assert.Zero(t, info.OutputFlags&OutputVideo)
	assert.Equal(t, "Noise Suppression", info.GetName())

	assert.ErrorIs(t, m.Load(), ErrSourceExists)
}

func TestRegisterSourceValidation(t *testing.T) {
	m := newLoadedModule(t, 48000, 1)

	tests := []struct {
		name string
		info SourceInfo
	}{
		{name: "empty id", info: SourceInfo{}},
		{name: "no callbacks", info: SourceInfo{ID: "x"}},
		{
			name: "audio filter without filter_audio",
			info: SourceInfo{
				ID:          "y",
				Type:        SourceTypeFilter,
				OutputFlags: OutputAudio,
				GetName:     func() string { return "y" },
				Create:      func(*Settings, *CreateContext) (any, error) { return nil, nil },
				Destroy:     func(any) {},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, m.RegisterSource(tt.info))
		})
	}
}

func TestCreateSourceUnknownID(t *testing.T) {
	m := newLoadedModule(t, 48000, 1)
	_, err := m.CreateSource("gain_filter", "mic", nil)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestCreateSourceAppliesDefaults(t *testing.T) {
	m := newLoadedModule(t, 48000, 1)

	src, err := m.CreateSource(NoiseSuppressFilterID, "mic", nil)
	require.NoError(t, err)
	defer src.Destroy()

	assert.Equal(t, "mic", src.Name())
	assert.Equal(t, NoiseSuppressFilterID, src.ID())
	assert.Equal(t, "Noise Suppression", src.DisplayName())
	assert.Equal(t, int64(-30), src.Settings().GetInt(filter.SettingSuppressLevel))

	inst := src.Data().(*filter.Instance)
	assert.Equal(t, -30, inst.SuppressLevel())
	assert.True(t, inst.Binding(0).IsBound())
	assert.Equal(t, 480, inst.Binding(0).SegmentSize())
	assert.False(t, inst.Binding(1).IsBound())
}

func TestFilterSourceUpdateAndFilterAudio(t *testing.T) {
	m := newLoadedModule(t, 48000, 1)
	src, err := m.CreateSource(NoiseSuppressFilterID, "mic", nil)
	require.NoError(t, err)
	defer src.Destroy()

	update := NewSettings()
	update.SetInt(filter.SettingSuppressLevel, -60)
	src.Update(update)
	assert.Equal(t, int64(-60), src.Settings().GetInt(filter.SettingSuppressLevel))

	block := audio.NewBlock(1, 480)
	for i := range block.Data[0] {
		block.Data[0][i] = 0.5
	}
	out := src.FilterAudio(block)
	assert.Same(t, block, out)

	state := simulatedState(t, src, 0)
	level, ok := state.LastLevel()
	require.True(t, ok)
	assert.Equal(t, -60, level)
	assert.Equal(t, 1, state.RunCount())
}

func TestFilterAudioSwallowsErrors(t *testing.T) {
	m := newLoadedModule(t, 48000, 1)
	src, err := m.CreateSource(NoiseSuppressFilterID, "mic", nil)
	require.NoError(t, err)
	defer src.Destroy()

	block := audio.NewBlock(1, 960)
	block.Data[0][0] = 0.9
	out := src.FilterAudio(block)
	assert.Same(t, block, out)
	assert.Equal(t, float32(0.9), block.Data[0][0], "overrun block passes through")
}

func TestAudioFormatChangeReachesFilterOnUpdate(t *testing.T) {
	m := newLoadedModule(t, 48000, 1)
	src, err := m.CreateSource(NoiseSuppressFilterID, "mic", nil)
	require.NoError(t, err)
	defer src.Destroy()

	first := simulatedState(t, src, 0)

	require.NoError(t, m.AudioOutput().SetFormat(48000, 2))
	src.Update(nil)

	assert.Same(t, first, simulatedState(t, src, 0))
	assert.NotNil(t, simulatedState(t, src, 1))
}

func TestFilterSourceDestroy(t *testing.T) {
	m := newLoadedModule(t, 48000, 2)
	src, err := m.CreateSource(NoiseSuppressFilterID, "mic", nil)
	require.NoError(t, err)

	s0 := simulatedState(t, src, 0)
	s1 := simulatedState(t, src, 1)

	src.Destroy()
	src.Destroy()
	assert.Equal(t, 1, s0.DestroyCount())
	assert.Equal(t, 1, s1.DestroyCount())

	block := audio.NewBlock(2, 480)
	block.Data[0][0] = 0.3
	assert.Same(t, block, src.FilterAudio(block))
	assert.Equal(t, float32(0.3), block.Data[0][0])

	src.Update(nil)
}

func TestFilterProperties(t *testing.T) {
	m := newLoadedModule(t, 48000, 1)
	src, err := m.CreateSource(NoiseSuppressFilterID, "mic", nil)
	require.NoError(t, err)
	defer src.Destroy()

	props := src.Properties()
	slider, ok := props.IntSlider(filter.SettingSuppressLevel)
	require.True(t, ok)
	assert.Equal(t, -60, slider.Min)
	assert.Equal(t, 0, slider.Max)
	assert.Equal(t, 1, slider.Step)
	assert.Equal(t, -60, slider.Clamp(-99))
	assert.Equal(t, 0, slider.Clamp(5))
	assert.Len(t, props.Sliders(), 1)

	_, ok = props.IntSlider("missing")
	assert.False(t, ok)
}

func TestAudioOutputValidation(t *testing.T) {
	_, err := NewAudioOutput(0, 2)
	assert.Error(t, err)

	_, err = NewAudioOutput(48000, 0)
	assert.Error(t, err)

	out, err := NewAudioOutput(44100, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(44100), out.SampleRate())
	assert.Equal(t, 2, out.Channels())

	assert.Error(t, out.SetFormat(1000000, 2))
	assert.Equal(t, uint32(44100), out.SampleRate(), "failed update keeps the old format")
}

func TestModuleWithSpectralEngine(t *testing.T) {
	output, err := NewAudioOutput(16000, 1)
	require.NoError(t, err)

	f := factory.NewEngineFactory()
	require.NoError(t, f.UpdateConfig(&interfaces.EngineConfig{
		Kind:                interfaces.EngineKindSpectral,
		NoiseEstimateFrames: 5,
		OverSubtraction:     2.0,
	}))

	m, err := NewModule(output, f)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	src, err := m.CreateSource(NoiseSuppressFilterID, "mic", nil)
	require.NoError(t, err)
	defer src.Destroy()

	for i := 0; i < 10; i++ {
		block := audio.NewBlock(1, 160)
		out := src.FilterAudio(block)
		for _, v := range out.Data[0] {
			require.Equal(t, float32(0), v, "silence stays silent")
		}
	}
}
