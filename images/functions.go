// Package images - provides idempotent conversions from decoded images into the
// grayscale frames consumed by the motion analysis pipeline.
package images

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
)

// FrameFromImage converts any image into a grayscale frame.
//
// *image.Gray sources are copied row by row; every other color model goes through
// image/draw and therefore color.GrayModel.
//
// Arguments:
//   - img: The source image to convert.
//
// Returns:
//   - *Frame: A new frame with the same dimensions as img.
//
// @example
// frame := FrameFromImage(decoded)
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	dst := NewFrame(b.Dx(), b.Dy())
	FrameFromImageInto(dst, img)
	return dst
}

// FrameFromImageInto converts img into dst, reshaping dst when the sizes differ.
// This lets frame sources recycle buffers released by the pipeline.
func FrameFromImageInto(dst *Frame, img image.Image) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if dst.Width != width || dst.Height != height || len(dst.Pix) != width*height {
		dst.Reshape(width, height)
	}

	// Fast path: the source already has the right pixel format.
	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			row := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):][:width]
			copy(dst.Pix[y*width:(y+1)*width], row)
		}
		return
	}

	draw.Draw(dst.Gray(), dst.Bounds(), img, b.Min, draw.Src)
}

// ToImage copies the frame into a standalone *image.Gray.
func (f *Frame) ToImage() *image.Gray {
	img := image.NewGray(f.Bounds())
	copy(img.Pix, f.Pix)
	return img
}

// Fit downsizes img so that its longest side equals size, keeping the aspect ratio.
// Images already within the bound, or a size <= 0, are returned unchanged.
//
// Arguments:
//   - img: The source image.
//   - size: The target length of the longest side in pixels.
//
// Returns:
//   - image.Image: The resized image.
//
// @example
// small := Fit(img, 640)
func Fit(img image.Image, size int) image.Image {
	if size <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}
	return resize.Thumbnail(uint(size), uint(size), img, resize.Lanczos3)
}

// Clamp restricts value to [min, max].
//
// @example
// clamped := Clamp(300.5, 0, 255) // Returns 255
// clamped := Clamp(-10.0, 0, 255) // Returns 0
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// EdgeMode defines how to handle coordinates that are out of bounds.
type EdgeMode string

const (
	// ClampEdgeMode clamps the coordinate to the nearest valid value.
	ClampEdgeMode EdgeMode = "clamp"
	// MirrorEdgeMode mirrors the coordinate around the edge.
	MirrorEdgeMode EdgeMode = "mirror"
	// WrapEdgeMode wraps the coordinate around the edge.
	WrapEdgeMode EdgeMode = "wrap"
)

// MapCoord maps a coordinate to a valid index in [0, max) based on the edge mode.
// Unknown modes clamp.
//
// Arguments:
//   - coord: The coordinate to map.
//   - max: The size of the axis, must be > 0.
//   - mode: The edge mode to use.
func MapCoord(coord, max int, mode EdgeMode) int {
	switch mode {
	case MirrorEdgeMode:
		for coord < 0 || coord >= max {
			if coord < 0 {
				coord = -coord - 1
			} else {
				coord = 2*max - coord - 1
			}
		}
		return coord
	case WrapEdgeMode:
		return (coord%max + max) % max
	default:
		if coord < 0 {
			return 0
		} else if coord >= max {
			return max - 1
		}
		return coord
	}
}

// Sample returns the intensity at (x, y) with out-of-range coordinates mapped by mode.
func (f *Frame) Sample(x, y int, mode EdgeMode) uint8 {
	return f.Pix[MapCoord(y, f.Height, mode)*f.Width+MapCoord(x, f.Width, mode)]
}
