package analysis

import (
	"math"
	"testing"
)

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		hz   float64
	}{
		{"slow gait", 0.15},
		{"fast gait", 0.5},
		{"one hertz", 1},
	}

	const dt = 0.01
	const n = 2000

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]float64, n)
			for i := range data {
				data[i] = 3 + math.Sin(2*math.Pi*tt.hz*float64(i)*dt)
			}
			got := DominantFrequency(data, dt)
			resolution := 1 / (n * dt)
			if math.Abs(got-tt.hz) > resolution {
				t.Errorf("expected %.3f Hz, got %.3f Hz", tt.hz, got)
			}
		})
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	data := []float64{2, 2, 2, 2, 2, 2}
	if got := DominantFrequency(data, 0.1); got != 0 {
		t.Errorf("expected 0 for flat series, got %f", got)
	}
	if got := DominantFrequency([]float64{1}, 0.1); got != 0 {
		t.Errorf("expected 0 for single sample, got %f", got)
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 64))
	if len(ps) != 33 {
		t.Errorf("expected 33 bins, got %d", len(ps))
	}
}
