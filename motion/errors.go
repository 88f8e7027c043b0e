package motion

import (
	"github.com/nvr-ai/go-motion/images"
	"github.com/pkg/errors"
)

// Error kinds. Every kind aborts the run and no report is produced.
var (
	// ErrConfig marks an invalid configuration, detected before any frame is pulled.
	ErrConfig = errors.New("invalid motion analysis configuration")
	// ErrEmptySequence is returned when the source yields no frames at all.
	ErrEmptySequence = errors.New("empty frame sequence")
	// ErrDimensionMismatch is returned when a frame differs in size from the baseline.
	ErrDimensionMismatch = images.ErrDimensionMismatch
	// ErrUpstreamFrame marks an error returned by the frame source.
	ErrUpstreamFrame = errors.New("frame source error")
	// ErrCancelled is returned when the context is done between two frames.
	ErrCancelled = errors.New("motion analysis cancelled")
	// ErrAlreadyRun is returned when Run is called on an Analyzer a second time.
	ErrAlreadyRun = errors.New("analyzer has already run")
)

// kindError attaches one of the kinds above to an underlying cause, so both
// errors.Is(err, ErrX) and errors.Is(err, cause) hold.
type kindError struct {
	kind  error
	cause error
}

func newError(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &kindError{kind: kind, cause: cause}
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.cause
}

// Cause returns the underlying cause for github.com/pkg/errors.Cause.
func (e *kindError) Cause() error {
	return e.cause
}
