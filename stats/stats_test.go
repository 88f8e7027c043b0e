package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/nvr-ai/go-motion/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func TestRunningStatEmpty(t *testing.T) {
	var s RunningStat
	_, ok := s.Mean()
	assert.False(t, ok)
	_, ok = s.MinMax()
	assert.False(t, ok)
}

func TestRunningStatBoundsAndMean(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
	}{
		{name: "single", samples: []float64{0.5}},
		{name: "negative", samples: []float64{-3, -1, -2}},
		{name: "zeros", samples: []float64{0, 0, 0, 0}},
		{name: "mixed", samples: []float64{0.196, 0, 1, 0.25, 0.75}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s RunningStat
			for _, x := range tt.samples {
				s.Fold(x)
			}
			assertRunningStat(t, s, tt.samples)
		})
	}
}

func TestRunningStatRandomSequences(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for n := 1; n <= 200; n += 13 {
		samples := make([]float64, n)
		var s RunningStat
		for i := range samples {
			samples[i] = r.NormFloat64() * 10
			s.Fold(samples[i])
		}
		assertRunningStat(t, s, samples)
	}
}

func TestRunningStatMonotone(t *testing.T) {
	var s RunningStat
	samples := []float64{5, 7, 3, 6, 1, 9, 4}
	prev := RunningStat{}
	for i, x := range samples {
		s.Fold(x)
		assert.Equal(t, i+1, s.Count)
		if i > 0 {
			assert.LessOrEqual(t, s.Min, prev.Min)
			assert.GreaterOrEqual(t, s.Max, prev.Max)
		}
		prev = s
	}
}

func assertRunningStat(t *testing.T, s RunningStat, samples []float64) {
	t.Helper()
	require.Equal(t, len(samples), s.Count)
	for _, x := range samples {
		assert.LessOrEqual(t, s.Min, x)
		assert.GreaterOrEqual(t, s.Max, x)
	}
	assert.Equal(t, floats.Min(samples), s.Min)
	assert.Equal(t, floats.Max(samples), s.Max)

	mean, ok := s.Mean()
	require.True(t, ok)
	assert.InDelta(t, stat.Mean(samples, nil), mean, 1e-9)
}

func TestVecMean(t *testing.T) {
	var m VecMean
	_, ok := m.Mean()
	assert.False(t, ok)
	_, ok = m.Angle()
	assert.False(t, ok)

	m.Fold(flow.Vec2{1, 0})
	m.Fold(flow.Vec2{0, 1})
	mean, ok := m.Mean()
	require.True(t, ok)
	assert.Equal(t, flow.Vec2{0.5, 0.5}, mean)

	angle, ok := m.Angle()
	require.True(t, ok)
	assert.InDelta(t, math.Pi/4, angle, 1e-12)
}

func TestVecMeanAngleAcrossWraparound(t *testing.T) {
	// Two vectors pointing just above and just below the negative x axis. Their
	// mean points along -x; averaging the raw angles would give ~0.
	var m VecMean
	m.Fold(flow.Vec2{math.Cos(math.Pi - 0.1), math.Sin(math.Pi - 0.1)})
	m.Fold(flow.Vec2{math.Cos(-math.Pi + 0.1), math.Sin(-math.Pi + 0.1)})

	angle, ok := m.Angle()
	require.True(t, ok)
	assert.InDelta(t, math.Pi, math.Abs(angle), 1e-9)
}
