package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelta(t *testing.T) {
	tests := []struct {
		name     string
		prev     []uint8
		curr     []uint8
		amp      float64
		expected []uint8
	}{
		{
			name:     "identical frames",
			prev:     []uint8{10, 20, 30, 40},
			curr:     []uint8{10, 20, 30, 40},
			amp:      1,
			expected: []uint8{0, 0, 0, 0},
		},
		{
			name:     "absolute difference is symmetric",
			prev:     []uint8{0, 200, 50, 255},
			curr:     []uint8{50, 100, 50, 0},
			amp:      1,
			expected: []uint8{50, 100, 0, 255},
		},
		{
			name:     "amplified and clamped",
			prev:     []uint8{0, 0, 10, 100},
			curr:     []uint8{10, 100, 0, 0},
			amp:      4,
			expected: []uint8{40, 255, 40, 255},
		},
		{
			name:     "zero amplitude",
			prev:     []uint8{0, 0, 0, 0},
			curr:     []uint8{255, 255, 255, 255},
			amp:      0,
			expected: []uint8{0, 0, 0, 0},
		},
		{
			name:     "fractional amplitude truncates",
			prev:     []uint8{0, 0, 0, 0},
			curr:     []uint8{3, 5, 7, 9},
			amp:      0.5,
			expected: []uint8{1, 2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, err := FrameFromPix(2, 2, tt.prev)
			require.NoError(t, err)
			curr, err := FrameFromPix(2, 2, tt.curr)
			require.NoError(t, err)

			out, err := Delta(prev, curr, tt.amp)
			require.NoError(t, err)
			assert.Equal(t, 2, out.Width)
			assert.Equal(t, 2, out.Height)
			assert.Equal(t, tt.expected, out.Pix)

			norm, err := NormalizedDelta(prev, curr, tt.amp)
			require.NoError(t, err)
			assert.InDelta(t, out.Mean()/MaxIntensity, norm, 1e-12)
		})
	}
}

func TestDeltaErrors(t *testing.T) {
	small := NewFrame(4, 4)
	large := NewFrame(8, 8)

	_, err := Delta(small, large, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "expected 4x4, got 8x8")

	_, err = Delta(small, small.Clone(), -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeAmplitude)

	_, err = NormalizedDelta(small, large, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NormalizedDelta(small, small, -0.5)
	assert.ErrorIs(t, err, ErrNegativeAmplitude)
}

func TestNormalizedDeltaUniformFrames(t *testing.T) {
	black := NewUniformFrame(4, 4, 0)
	gray := NewUniformFrame(4, 4, 50)

	d, err := NormalizedDelta(black, gray, 1)
	require.NoError(t, err)
	assert.InDelta(t, 50.0/255.0, d, 1e-12)

	d, err = NormalizedDelta(gray, gray.Clone(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)
}

func TestDeltaIntoReusesBuffer(t *testing.T) {
	prev := NewUniformFrame(3, 3, 10)
	curr := NewUniformFrame(3, 3, 30)
	dst := NewFrame(4, 4)
	backing := &dst.Pix[0]

	require.NoError(t, DeltaInto(dst, prev, curr, 1))
	assert.Equal(t, 3, dst.Width)
	assert.Equal(t, 3, dst.Height)
	assert.Len(t, dst.Pix, 9)
	assert.Same(t, backing, &dst.Pix[0], "a large enough buffer must be reused")
	for _, v := range dst.Pix {
		assert.Equal(t, uint8(20), v)
	}
}

func BenchmarkNormalizedDelta(b *testing.B) {
	prev := NewUniformFrame(640, 640, 10)
	curr := NewUniformFrame(640, 640, 200)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NormalizedDelta(prev, curr, 1); err != nil {
			b.Fatal(err)
		}
	}
}
