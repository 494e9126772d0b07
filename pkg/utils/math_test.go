package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateVolatility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		prices   []float64
		expected float64
	}{
		{"empty series", nil, 0},
		{"single price", []float64{100}, 0},
		{"constant prices", []float64{5, 5, 5, 5}, 0},
		// Returns are +10% then -10%: mean 0, stddev 0.1.
		{"symmetric swing", []float64{100, 110, 99}, 0.1},
		// A zero price cannot produce a return, the step is skipped.
		{"leading zero is skipped", []float64{0, 10, 20}, 0},
		{"all zeros", []float64{0, 0, 0}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, CalculateVolatility(tc.prices), 1e-9)
		})
	}
}

func TestNormalizeTo(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3.14, NormalizeTo(3.14159, 2))
	assert.Equal(t, 3.1416, NormalizeTo(3.14159, 4))
	assert.Equal(t, 42.0, NormalizeTo(42.0, 2))
	assert.Equal(t, -3.0, NormalizeTo(-2.5, 0))
	assert.Equal(t, 0.0, NormalizeTo(math.NaN(), 2))
	assert.Equal(t, 0.0, NormalizeTo(math.Inf(1), 2))
}

func TestCapValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3.0, CapValue(5, 3))
	assert.Equal(t, -3.0, CapValue(-5, 3))
	assert.Equal(t, 2.0, CapValue(2, 3))
	assert.Equal(t, 0.0, CapValue(math.NaN(), 3))
	assert.Equal(t, 0.0, CapValue(math.Inf(-1), 3))
}
