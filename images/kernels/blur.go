// Package kernels - Separable convolution kernels over grayscale frames.
package kernels

import (
	"sync"

	"github.com/nvr-ai/go-motion/images"
)

// BoxBlur is a separable box filter with a (2*Radius+1)^2 window.
//
// Each pass slides a running sum along one axis, so the cost is O(W*H) regardless of
// the radius. The intermediate buffer is kept between calls; a BoxBlur must not be
// used from several goroutines at once.
type BoxBlur struct {
	// Radius is the half window size, 0 copies the frame.
	Radius int
	// Edge maps samples outside the frame.
	Edge images.EdgeMode
	// Parallel splits both passes across goroutines, worthwhile from ~720p upwards.
	Parallel bool

	tmp *images.Frame
}

// NewBoxBlur returns a clamping box blur with the given radius.
func NewBoxBlur(radius int) *BoxBlur {
	return &BoxBlur{Radius: radius, Edge: images.ClampEdgeMode}
}

// Apply blurs src into dst, reshaping dst to the size of src. dst may be src.
//
// Arguments:
//   - dst: The destination frame.
//   - src: The source frame.
//
// Returns:
//   - *images.Frame: dst.
func (b *BoxBlur) Apply(dst, src *images.Frame) *images.Frame {
	w, h := src.Width, src.Height
	if dst != src {
		dst.Reshape(w, h)
	}
	if b.Radius <= 0 || w == 0 || h == 0 {
		if dst != src {
			copy(dst.Pix, src.Pix)
		}
		return dst
	}

	if b.tmp == nil {
		b.tmp = images.NewFrame(w, h)
	} else {
		b.tmp.Reshape(w, h)
	}

	// src is only read by the first pass, so writing dst in the second is safe even
	// when both are the same frame.
	b.split(h, func(lo, hi int) { b.horizontal(b.tmp, src, lo, hi) })
	b.split(w, func(lo, hi int) { b.vertical(dst, b.tmp, lo, hi) })
	return dst
}

// horizontal blurs rows [y0, y1) of src into dst.
func (b *BoxBlur) horizontal(dst, src *images.Frame, y0, y1 int) {
	r, w := b.Radius, src.Width
	n := 2*r + 1
	for y := y0; y < y1; y++ {
		row := src.Pix[y*w : (y+1)*w]
		out := dst.Pix[y*w : (y+1)*w]
		sum := 0
		for i := -r; i <= r; i++ {
			sum += int(row[images.MapCoord(i, w, b.Edge)])
		}
		for x := 0; x < w; x++ {
			out[x] = uint8((sum + n/2) / n)
			sum += int(row[images.MapCoord(x+r+1, w, b.Edge)]) - int(row[images.MapCoord(x-r, w, b.Edge)])
		}
	}
}

// vertical blurs columns [x0, x1) of src into dst.
func (b *BoxBlur) vertical(dst, src *images.Frame, x0, x1 int) {
	r, w, h := b.Radius, src.Width, src.Height
	n := 2*r + 1
	for x := x0; x < x1; x++ {
		sum := 0
		for i := -r; i <= r; i++ {
			sum += int(src.Pix[images.MapCoord(i, h, b.Edge)*w+x])
		}
		for y := 0; y < h; y++ {
			dst.Pix[y*w+x] = uint8((sum + n/2) / n)
			sum += int(src.Pix[images.MapCoord(y+r+1, h, b.Edge)*w+x]) -
				int(src.Pix[images.MapCoord(y-r, h, b.Edge)*w+x])
		}
	}
}

// split runs fn over [0, n) in chunks, concurrently when Parallel is set.
func (b *BoxBlur) split(n int, fn func(lo, hi int)) {
	if !b.Parallel {
		fn(0, n)
		return
	}
	chunk := chooseChunk(n)
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(lo, hi)
		}()
	}
	wg.Wait()
}

// chooseChunk picks a work chunk size that balances goroutine overhead and cache
// locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
