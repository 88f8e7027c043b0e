// Package images - Grayscale frame definition for motion analysis.
package images

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
)

// MaxIntensity is the largest sample value a GRAY8 frame can hold.
const MaxIntensity = 255

// ErrDimensionMismatch is returned when two frames that must share a shape do not.
var ErrDimensionMismatch = errors.New("frame dimension mismatch")

// Frame is a single-channel 8-bit intensity grid.
//
// Pixels are stored row-major with no padding, so the sample at (x, y) lives at
// Pix[y*Width+x]. A frame is treated as immutable once it has been handed to the
// analysis pipeline.
type Frame struct {
	// The width of the frame in pixels.
	Width int `json:"width" yaml:"width"`
	// The height of the frame in pixels.
	Height int `json:"height" yaml:"height"`
	// The intensity samples.
	Pix []uint8 `json:"-" yaml:"-"`
}

// NewFrame allocates a zeroed frame with the given dimensions.
//
// Arguments:
//   - width: The width of the frame in pixels.
//   - height: The height of the frame in pixels.
//
// Returns:
//   - *Frame: The allocated frame.
//
// @example
// frame := NewFrame(640, 480)
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// NewUniformFrame allocates a frame where every sample holds the same value.
func NewUniformFrame(width, height int, value uint8) *Frame {
	f := NewFrame(width, height)
	for i := range f.Pix {
		f.Pix[i] = value
	}
	return f
}

// FrameFromPix wraps an existing sample slice without copying it.
//
// Arguments:
//   - width: The width of the frame in pixels.
//   - height: The height of the frame in pixels.
//   - pix: Row-major samples, len(pix) must equal width*height.
//
// Returns:
//   - *Frame: A frame backed by pix.
//   - error: An error if the slice length does not match the dimensions.
func FrameFromPix(width, height int, pix []uint8) (*Frame, error) {
	if width < 0 || height < 0 || len(pix) != width*height {
		return nil, errors.Errorf("pixel buffer of %d samples does not fit %dx%d", len(pix), width, height)
	}
	return &Frame{Width: width, Height: height, Pix: pix}, nil
}

// At returns the sample at (x, y). Coordinates must be inside the frame.
func (f *Frame) At(x, y int) uint8 {
	return f.Pix[y*f.Width+x]
}

// Set writes the sample at (x, y).
func (f *Frame) Set(x, y int, v uint8) {
	f.Pix[y*f.Width+x] = v
}

// Bounds returns the frame rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Size returns the frame dimensions as a point (X = width, Y = height).
func (f *Frame) Size() image.Point {
	return image.Pt(f.Width, f.Height)
}

// SameShape reports whether both frames have identical dimensions.
func (f *Frame) SameShape(o *Frame) bool {
	return f != nil && o != nil && f.Width == o.Width && f.Height == o.Height
}

// Mean returns the arithmetic mean of all samples, or 0 for an empty frame.
func (f *Frame) Mean() float64 {
	if len(f.Pix) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range f.Pix {
		sum += uint64(v)
	}
	return float64(sum) / float64(len(f.Pix))
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{Width: f.Width, Height: f.Height, Pix: make([]uint8, len(f.Pix))}
	copy(c.Pix, f.Pix)
	return c
}

// Reshape resizes the frame in place to the given dimensions, reusing the backing
// array when it is large enough. Sample contents are undefined afterwards.
func (f *Frame) Reshape(width, height int) {
	n := width * height
	if cap(f.Pix) >= n {
		f.Pix = f.Pix[:n]
	} else {
		f.Pix = make([]uint8, n)
	}
	f.Width = width
	f.Height = height
}

// Gray returns an image.Gray view sharing the frame's samples.
func (f *Frame) Gray() *image.Gray {
	return &image.Gray{Pix: f.Pix, Stride: f.Width, Rect: f.Bounds()}
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame(%dx%d)", f.Width, f.Height)
}

// CheckSameShape returns ErrDimensionMismatch, annotated with both shapes, when the
// frames differ in size.
func CheckSameShape(want, got *Frame) error {
	if want.SameShape(got) {
		return nil
	}
	return errors.Wrapf(ErrDimensionMismatch, "expected %dx%d, got %dx%d",
		want.Width, want.Height, got.Width, got.Height)
}
