package motion

import (
	"context"
	"time"

	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/stats"
)

// FrameSource yields a finite, forward-only sequence of same-sized frames.
//
// Next returns io.EOF once the sequence is exhausted. It is the only call of a run
// that may block; implementations should honour ctx while waiting.
type FrameSource interface {
	Next(ctx context.Context) (*images.Frame, error)
}

// Releaser is implemented by sources that can dispose the storage behind the frame
// they yielded last (for example deleting the image file).
type Releaser interface {
	Release() error
}

// Recycler is implemented by sources that reuse frame buffers. The Analyzer hands
// back a frame once it no longer references it.
type Recycler interface {
	Recycle(frame *images.Frame)
}

// Observer receives progress notifications from an Analyzer.
type Observer interface {
	// ObserveFrame is called after each frame transition has been folded. The
	// sample belongs to the observer and may be retained.
	ObserveFrame(runID string, sample stats.Sample, elapsed time.Duration)
	// ObserveRun is called once when the run ends, err is nil on success.
	ObserveRun(runID string, frames int, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveFrame(string, stats.Sample, time.Duration) {}

func (nopObserver) ObserveRun(string, int, time.Duration, error) {}
