// Package source - Frame sources feeding the motion analyzer.
//
// Every source yields frames one at a time through Next(ctx) and returns io.EOF when
// the sequence is exhausted. Sources are forward-only and cannot be restarted.
package source

import (
	"context"
	"io"

	"github.com/nvr-ai/go-motion/images"
	"github.com/pkg/errors"
)

// ErrNoFrames is returned when a source is created without any input.
var ErrNoFrames = errors.New("no frames")

// Slice yields frames from memory. The frames are handed out as-is.
type Slice struct {
	frames []*images.Frame
	next   int
}

// NewSlice creates an in-memory source.
func NewSlice(frames ...*images.Frame) *Slice {
	return &Slice{frames: frames}
}

// Next returns the next frame or io.EOF.
func (s *Slice) Next(ctx context.Context) (*images.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	// Drop the reference so consumed frames can be collected.
	s.frames[s.next] = nil
	s.next++
	return f, nil
}

// Len returns the number of frames not yet yielded.
func (s *Slice) Len() int {
	return len(s.frames) - s.next
}
