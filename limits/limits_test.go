package limits

import (
	"errors"
	"testing"
)

// TestSegmentSize verifies the 10 ms segment arithmetic for common rates
func TestSegmentSize(t *testing.T) {
	tests := []struct {
		rate uint32
		want int
	}{
		{rate: 48000, want: 480},
		{rate: 44100, want: 441},
		{rate: 16000, want: 160},
		{rate: 8000, want: 80},
		{rate: 22050, want: 220},
		{rate: 99, want: 0},
	}

	for _, tt := range tests {
		if got := SegmentSize(tt.rate); got != tt.want {
			t.Errorf("SegmentSize(%d) = %d, want %d", tt.rate, got, tt.want)
		}
	}
}

// TestValidateSampleRate tests the sample rate validation function
func TestValidateSampleRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    uint32
		wantErr error
	}{
		{name: "zero rate", rate: 0, wantErr: ErrSampleRateInvalid},
		{name: "below one segment per frame", rate: 99, wantErr: ErrSampleRateInvalid},
		{name: "minimum usable rate", rate: SegmentsPerSecond, wantErr: nil},
		{name: "typical rate", rate: 48000, wantErr: nil},
		{name: "maximum rate", rate: MaxSampleRate, wantErr: nil},
		{name: "rate too high", rate: MaxSampleRate + 1, wantErr: ErrSampleRateInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSampleRate(tt.rate)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSampleRate(%d) error = %v, wantErr %v", tt.rate, err, tt.wantErr)
			}
		})
	}
}

// TestValidateSuppressLevel tests the suppression level validation function
func TestValidateSuppressLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   int
		wantErr error
	}{
		{name: "no suppression", level: MaxSuppressLevel, wantErr: nil},
		{name: "default", level: DefaultSuppressLevel, wantErr: nil},
		{name: "maximum suppression", level: MinSuppressLevel, wantErr: nil},
		{name: "positive level", level: 1, wantErr: ErrSuppressLevelOutOfRange},
		{name: "below range", level: MinSuppressLevel - 1, wantErr: ErrSuppressLevelOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSuppressLevel(tt.level)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSuppressLevel(%d) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
		})
	}
}

func TestClampSuppressLevel(t *testing.T) {
	tests := []struct {
		in          int
		want        int
		wantClamped bool
	}{
		{in: -30, want: -30, wantClamped: false},
		{in: 0, want: 0, wantClamped: false},
		{in: -60, want: -60, wantClamped: false},
		{in: 12, want: 0, wantClamped: true},
		{in: -90, want: -60, wantClamped: true},
	}

	for _, tt := range tests {
		got, clamped := ClampSuppressLevel(tt.in)
		if got != tt.want || clamped != tt.wantClamped {
			t.Errorf("ClampSuppressLevel(%d) = (%d, %v), want (%d, %v)", tt.in, got, clamped, tt.want, tt.wantClamped)
		}
	}
}

// TestDefaultWithinRange guards the relationship between the level constants
func TestDefaultWithinRange(t *testing.T) {
	if err := ValidateSuppressLevel(DefaultSuppressLevel); err != nil {
		t.Errorf("DefaultSuppressLevel %d outside declared range: %v", DefaultSuppressLevel, err)
	}
	if Int16Divisor != Int16Scale+1 {
		t.Errorf("Int16Divisor = %v, want Int16Scale+1 (%v)", Int16Divisor, Int16Scale+1)
	}
}
