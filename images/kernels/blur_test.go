package kernels

import (
	"testing"

	"github.com/nvr-ai/go-motion/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxBlurRadiusZeroCopies(t *testing.T) {
	src := images.NewFrame(3, 2)
	copy(src.Pix, []uint8{1, 2, 3, 4, 5, 6})
	dst := images.NewFrame(1, 1)

	out := NewBoxBlur(0).Apply(dst, src)
	assert.Same(t, dst, out)
	assert.Equal(t, src.Pix, out.Pix)
	assert.Equal(t, 3, out.Width)
	assert.Equal(t, 2, out.Height)
}

func TestBoxBlurUniformFrameUnchanged(t *testing.T) {
	for _, edge := range []images.EdgeMode{images.ClampEdgeMode, images.MirrorEdgeMode, images.WrapEdgeMode} {
		t.Run(string(edge), func(t *testing.T) {
			src := images.NewUniformFrame(7, 5, 90)
			b := &BoxBlur{Radius: 2, Edge: edge}
			out := b.Apply(images.NewFrame(7, 5), src)
			for _, v := range out.Pix {
				require.Equal(t, uint8(90), v)
			}
		})
	}
}

func TestBoxBlurEdgeModes(t *testing.T) {
	src := images.NewFrame(3, 1)
	copy(src.Pix, []uint8{0, 255, 0})

	tests := []struct {
		edge images.EdgeMode
		want []uint8
	}{
		// Row windows: clamp [0 0 255] [0 255 0] [255 0 0].
		{images.ClampEdgeMode, []uint8{85, 85, 85}},
		// Mirror reflects without repeating: [0 0 255] [0 255 0] [255 0 0].
		{images.MirrorEdgeMode, []uint8{85, 85, 85}},
		{images.WrapEdgeMode, []uint8{85, 85, 85}},
	}
	for _, tt := range tests {
		t.Run(string(tt.edge), func(t *testing.T) {
			b := &BoxBlur{Radius: 1, Edge: tt.edge}
			out := b.Apply(images.NewFrame(3, 1), src)
			assert.Equal(t, tt.want, out.Pix)
		})
	}

	// A wider frame separates the modes at the border.
	src = images.NewFrame(5, 1)
	copy(src.Pix, []uint8{30, 0, 0, 0, 90})
	clamp := (&BoxBlur{Radius: 1, Edge: images.ClampEdgeMode}).Apply(images.NewFrame(5, 1), src)
	wrap := (&BoxBlur{Radius: 1, Edge: images.WrapEdgeMode}).Apply(images.NewFrame(5, 1), src)
	assert.Equal(t, uint8(20), clamp.Pix[0])
	assert.Equal(t, uint8(40), wrap.Pix[0])
}

func TestBoxBlurInPlace(t *testing.T) {
	src := images.NewFrame(5, 5)
	src.Set(2, 2, 225)

	want := NewBoxBlur(1).Apply(images.NewFrame(5, 5), src.Clone())
	got := NewBoxBlur(1).Apply(src, src)

	assert.Same(t, src, got)
	assert.Equal(t, want.Pix, got.Pix)
	// The impulse spreads evenly over its 3x3 neighbourhood.
	assert.Equal(t, uint8(25), got.At(1, 1))
	assert.Equal(t, uint8(25), got.At(3, 3))
	assert.Equal(t, uint8(0), got.At(0, 0))
}

func TestBoxBlurParallelMatchesSerial(t *testing.T) {
	src := images.NewFrame(97, 71)
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 37 % 251)
	}

	serial := (&BoxBlur{Radius: 3, Edge: images.MirrorEdgeMode}).Apply(images.NewFrame(1, 1), src)
	parallel := (&BoxBlur{Radius: 3, Edge: images.MirrorEdgeMode, Parallel: true}).Apply(images.NewFrame(1, 1), src)
	assert.Equal(t, serial.Pix, parallel.Pix)
}

func BenchmarkBoxBlur(b *testing.B) {
	src := images.NewFrame(1280, 720)
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}
	dst := images.NewFrame(1280, 720)

	for _, parallel := range []bool{false, true} {
		name := "serial"
		if parallel {
			name = "parallel"
		}
		b.Run(name, func(b *testing.B) {
			blur := &BoxBlur{Radius: 4, Edge: images.ClampEdgeMode, Parallel: parallel}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				blur.Apply(dst, src)
			}
		})
	}
}
