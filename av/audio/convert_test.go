package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatToInt16(t *testing.T) {
	tests := []struct {
		name  string
		input float32
		want  int16
	}{
		{name: "silence", input: 0, want: 0},
		{name: "full scale positive", input: 1.0, want: 32767},
		{name: "full scale negative", input: -1.0, want: -32767},
		{name: "half positive truncates", input: 0.5, want: 16383},
		{name: "half negative truncates toward zero", input: -0.5, want: -16383},
		{name: "below one step", input: 0.00002, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FloatToInt16(tt.input))
		})
	}
}

func TestInt16ToFloat(t *testing.T) {
	tests := []struct {
		input int16
		want  float32
	}{
		{input: 0, want: 0},
		{input: -32768, want: -1.0},
		{input: 16384, want: 0.5},
		{input: 32767, want: 32767.0 / 32768.0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Int16ToFloat(tt.input), "Int16ToFloat(%d)", tt.input)
	}
}

// TestConversionRoundTrip checks that a float survives conversion within the
// quantization error of the asymmetric 32767/32768 scaling.
func TestConversionRoundTrip(t *testing.T) {
	const tolerance = 2.0 / 32768.0

	for i := -1000; i <= 1000; i++ {
		f := float32(i) / 1000
		back := Int16ToFloat(FloatToInt16(f))
		diff := math.Abs(float64(back - f))
		if diff > tolerance {
			t.Fatalf("round trip of %f gave %f (diff %g > %g)", f, back, diff, tolerance)
		}
	}
}

func TestPlaneConversion(t *testing.T) {
	src := []float32{0.25, -0.25, 0.75, 1.0}
	scratch := make([]int16, 3)

	n := FloatsToInt16(scratch, src)
	require.Equal(t, 3, n, "conversion must stop at the shorter slice")
	assert.Equal(t, []int16{8191, -8191, 24575}, scratch)

	out := []float32{9, 9, 9, 9}
	n = Int16ToFloats(out, scratch)
	require.Equal(t, 3, n)
	assert.Equal(t, float32(9), out[3], "samples past the converted range must be untouched")
	assert.InDelta(t, 0.25, out[0], 1.0/32768)
	assert.InDelta(t, -0.25, out[1], 1.0/32768)
}

func TestBlockPlane(t *testing.T) {
	block := NewBlock(2, 4)
	assert.Equal(t, 2, block.Channels())

	plane, err := block.Plane(1)
	require.NoError(t, err)
	assert.Len(t, plane, 4)

	_, err = block.Plane(2)
	assert.Error(t, err)

	block.Data[0] = block.Data[0][:2]
	_, err = block.Plane(0)
	assert.Error(t, err, "short planes must be rejected")
}

func TestBlockClone(t *testing.T) {
	block := NewBlock(1, 3)
	block.Data[0][1] = 0.5

	clone := block.Clone()
	clone.Data[0][1] = -0.5

	assert.Equal(t, float32(0.5), block.Data[0][1])
	assert.Equal(t, 3, clone.Frames)
}
