package flow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestNewField(t *testing.T) {
	_, err := NewField(0, 4)
	assert.Error(t, err)
	_, err = NewField(3, -1)
	assert.Error(t, err)

	f, err := NewField(3, 4)
	require.NoError(t, err)
	h, w := f.Shape()
	assert.Equal(t, 3, h)
	assert.Equal(t, 4, w)
	assert.Len(t, f.Data(), 24)
	assert.Equal(t, tensor.Shape{3, 4, 2}, f.Tensor().Shape())
}

func TestFieldSetSharesTensorBacking(t *testing.T) {
	f, err := NewField(2, 3)
	require.NoError(t, err)

	f.Set(2, 1, Vec2{1.5, -2})
	assert.Equal(t, Vec2{1.5, -2}, f.At(2, 1))

	dx, err := f.Tensor().At(1, 2, 0)
	require.NoError(t, err)
	dy, err := f.Tensor().At(1, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), dx)
	assert.Equal(t, float32(-2), dy)
}

func TestFieldIntegrate(t *testing.T) {
	f, err := NewField(3, 4)
	require.NoError(t, err)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			f.Set(x, y, Vec2{float64(x), float64(y)})
		}
	}

	tests := []struct {
		name     string
		x0, y0   int
		w, h     int
		expected Vec2
	}{
		{name: "interior block", x0: 1, y0: 1, w: 2, h: 2, expected: Vec2{1 + 2 + 1 + 2, 1 + 1 + 2 + 2}},
		{name: "single cell", x0: 3, y0: 2, w: 1, h: 1, expected: Vec2{3, 2}},
		{name: "single row", x0: 0, y0: 2, w: 4, h: 1, expected: Vec2{0 + 1 + 2 + 3, 8}},
		{name: "single column", x0: 2, y0: 0, w: 1, h: 3, expected: Vec2{6, 0 + 1 + 2}},
		{name: "whole field", x0: 0, y0: 0, w: 4, h: 3, expected: Vec2{18, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := f.Integrate(tt.x0, tt.y0, tt.w, tt.h)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sum)
		})
	}

	mean, err := f.Mean()
	require.NoError(t, err)
	assert.Equal(t, Vec2{1.5, 1}, mean)

	// Integration reads through the tensor, so writes to the backing slice show up.
	require.NoError(t, f.Tensor().SetAt(float32(10), 0, 0, 0))
	sum, err := f.Integrate(0, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, Vec2{10, 0}, sum)

	f.Zero()
	mean, err = f.Mean()
	require.NoError(t, err)
	assert.Equal(t, Vec2{}, mean)
}

func TestFieldIntegrateOutOfRange(t *testing.T) {
	f, err := NewField(3, 4)
	require.NoError(t, err)

	for _, r := range [][4]int{{-1, 0, 1, 1}, {0, 0, 5, 1}, {3, 2, 2, 1}, {0, 0, 0, 1}, {0, 1, 1, 3}} {
		_, err := f.Integrate(r[0], r[1], r[2], r[3])
		assert.Error(t, err, "region %v", r)
	}
}

func TestFieldFromTensor(t *testing.T) {
	good := tensor.New(tensor.WithShape(2, 2, 2), tensor.WithBacking(make([]float32, 8)))
	f, err := FieldFromTensor(good)
	require.NoError(t, err)
	h, w := f.Shape()
	assert.Equal(t, 2, h)
	assert.Equal(t, 2, w)

	_, err = FieldFromTensor(nil)
	assert.Error(t, err)

	wrongType := tensor.New(tensor.WithShape(2, 2, 2), tensor.WithBacking(make([]float64, 8)))
	_, err = FieldFromTensor(wrongType)
	assert.Error(t, err)

	wrongShape := tensor.New(tensor.WithShape(2, 4), tensor.WithBacking(make([]float32, 8)))
	_, err = FieldFromTensor(wrongShape)
	assert.Error(t, err)
}

func TestVec2(t *testing.T) {
	v := Vec2{3, 4}
	assert.Equal(t, 5.0, v.Mag())
	assert.Equal(t, Vec2{4, 6}, v.Add(Vec2{1, 2}))
	assert.Equal(t, Vec2{2, 2}, v.Sub(Vec2{1, 2}))
	assert.Equal(t, Vec2{1.5, 2}, v.Scale(0.5))
	assert.Equal(t, Vec2{2, 2}, v.Mix(Vec2{1, 0}, 0.5))
	assert.InDelta(t, math.Pi/2, Vec2{0, 1}.Heading(), 1e-12)
	assert.Equal(t, 0.0, Vec2{}.Heading())
}
