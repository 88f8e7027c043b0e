package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameFromImage(t *testing.T) {
	t.Run("gray sub-image keeps its own origin", func(t *testing.T) {
		src := image.NewGray(image.Rect(0, 0, 4, 4))
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				src.SetGray(x, y, color.Gray{Y: uint8(y*4 + x)})
			}
		}
		sub := src.SubImage(image.Rect(1, 1, 3, 3))

		f := FrameFromImage(sub)
		assert.Equal(t, 2, f.Width)
		assert.Equal(t, 2, f.Height)
		assert.Equal(t, []uint8{5, 6, 9, 10}, f.Pix)
	})

	t.Run("color converts through the gray model", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 3, 1))
		src.Set(0, 0, color.RGBA{R: 255, A: 255})
		src.Set(1, 0, color.RGBA{G: 255, A: 255})
		src.Set(2, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

		f := FrameFromImage(src)
		require.Len(t, f.Pix, 3)
		assert.Equal(t, []uint8{76, 150, 255}, f.Pix)
	})

	t.Run("color sub image keeps its origin", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 4, 4))
		src.Set(2, 3, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		sub := src.SubImage(image.Rect(2, 2, 4, 4))

		f := FrameFromImage(sub)
		assert.Equal(t, 2, f.Width)
		assert.Equal(t, 2, f.Height)
		assert.Equal(t, []uint8{0, 0, 255, 0}, f.Pix)
	})

	t.Run("into recycles a larger buffer", func(t *testing.T) {
		dst := NewFrame(10, 10)
		FrameFromImageInto(dst, image.NewGray(image.Rect(0, 0, 2, 3)))
		assert.Equal(t, 2, dst.Width)
		assert.Equal(t, 3, dst.Height)
		assert.Len(t, dst.Pix, 6)
		assert.Equal(t, 100, cap(dst.Pix))
	})
}

func TestFit(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 200, 100))

	out := Fit(src, 50)
	assert.Equal(t, 50, out.Bounds().Dx())
	assert.Equal(t, 25, out.Bounds().Dy())

	assert.Same(t, src, Fit(src, 0))
	assert.Same(t, src, Fit(src, 400))
}

func TestMapCoord(t *testing.T) {
	tests := []struct {
		coord, max int
		mode       EdgeMode
		expected   int
	}{
		{-1, 5, ClampEdgeMode, 0},
		{7, 5, ClampEdgeMode, 4},
		{3, 5, ClampEdgeMode, 3},
		{-1, 5, MirrorEdgeMode, 0},
		{-2, 5, MirrorEdgeMode, 1},
		{5, 5, MirrorEdgeMode, 4},
		{6, 5, MirrorEdgeMode, 3},
		{-1, 5, WrapEdgeMode, 4},
		{5, 5, WrapEdgeMode, 0},
		{-3, 5, EdgeMode("unknown"), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MapCoord(tt.coord, tt.max, tt.mode),
			"MapCoord(%d, %d, %s)", tt.coord, tt.max, tt.mode)
	}
}

func TestComputeFrameChecksum(t *testing.T) {
	a := NewUniformFrame(4, 4, 7)
	b := NewUniformFrame(4, 4, 7)
	c := NewUniformFrame(2, 8, 7)

	assert.Equal(t, ComputeFrameChecksum(a), ComputeFrameChecksum(b))
	assert.NotEqual(t, ComputeFrameChecksum(a), ComputeFrameChecksum(c), "shape is part of the checksum")
	assert.Equal(t, "empty", ComputeFrameChecksum(nil))
}

func TestFormatFromPath(t *testing.T) {
	f, ok := FormatFromPath("/tmp/abc-0001.PNG")
	assert.True(t, ok)
	assert.Equal(t, FormatPNG, f)

	f, ok = FormatFromPath("frame.jpg")
	assert.True(t, ok)
	assert.Equal(t, FormatJPEG, f)

	_, ok = FormatFromPath("clip.mp4")
	assert.False(t, ok)
}
