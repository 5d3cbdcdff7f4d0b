package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelchTTest(t *testing.T) {
	// Reference values from a two-sided unequal-variance t-test.
	tests := []struct {
		name  string
		a, b  []float64
		wantT float64
		wantD float64
		wantP float64
	}{
		{
			name:  "small overlapping samples",
			a:     []float64{1, 2, 3},
			b:     []float64{4, 5, 6, 7},
			wantT: -4.04145188433,
			wantD: 4.95918367347,
			wantP: 0.010076943348,
		},
		{
			name:  "target well above background",
			a:     []float64{10, 12, 11},
			b:     []float64{2, 3, 2.5, 3.5, 2},
			wantT: 12.9872754152,
			wantD: 3.05085894844,
			wantP: 0.000905628081396,
		},
		{
			name:  "large intensities",
			a:     []float64{100, 110, 95},
			b:     []float64{20, 25, 30, 22, 18, 27},
			wantT: 16.3273475642,
			wantD: 2.72234988577,
			wantP: 0.000852495869308,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WelchTTest(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantT, got.T, 1e-6)
			assert.InDelta(t, tt.wantD, got.DF, 1e-6)
			assert.InDelta(t, tt.wantP, got.P, 1e-6)
		})
	}
}

func TestWelchTTestIdenticalMeans(t *testing.T) {
	got, err := WelchTTest([]float64{5, 6, 7}, []float64{5, 6, 7, 5, 6, 7})
	require.NoError(t, err)
	assert.InDelta(t, 0, got.T, 1e-12)
	assert.InDelta(t, 1, got.P, 1e-9)
}

func TestWelchTTestSymmetric(t *testing.T) {
	a := []float64{10, 12, 11}
	b := []float64{2, 3, 2.5, 3.5, 2}

	ab, err := WelchTTest(a, b)
	require.NoError(t, err)
	ba, err := WelchTTest(b, a)
	require.NoError(t, err)

	assert.InDelta(t, -ab.T, ba.T, 1e-12)
	assert.InDelta(t, ab.P, ba.P, 1e-12)
}

func TestWelchTTestErrors(t *testing.T) {
	_, err := WelchTTest([]float64{1}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = WelchTTest([]float64{1, 2}, nil)
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = WelchTTest([]float64{4, 4, 4}, []float64{2, 2, 2})
	assert.ErrorIs(t, err, ErrUndefined)
}

func TestPopStdDev(t *testing.T) {
	assert.Equal(t, 0.0, PopStdDev(nil))
	assert.Equal(t, 0.0, PopStdDev([]float64{42}))
	assert.Equal(t, 0.0, PopStdDev([]float64{3, 3, 3}))
	assert.InDelta(t, 0.816496580927726, PopStdDev([]float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 2, PopStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}
