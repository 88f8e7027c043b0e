package flow

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/images/kernels"
	"github.com/pkg/errors"
)

// Result is the output of a single Update.
type Result struct {
	// Field is the (smoothed) dense flow. It is owned by the estimator and only valid
	// until the next Update.
	Field *Field
	// Dir is the mean flow vector over the whole field.
	Dir Vec2
}

// Estimator computes dense flow between the frame it saw last and the given frame.
//
// Implementations hold mutable state and are not safe for concurrent use. Estimators
// holding native resources also implement io.Closer.
type Estimator interface {
	Update(frame *images.Frame) (*Result, error)
}

// Constructor creates an estimator whose internal baseline is the given frame.
type Constructor func(baseline *images.Frame) (Estimator, error)

// NewConstructor validates cfg and returns a constructor for the configured mode.
//
// Arguments:
//   - cfg: The flow configuration.
//
// Returns:
//   - Constructor: Builds one estimator per analysis run.
//   - error: ErrInvalidConfig if cfg is out of range.
//
// @example
// ctor, err := flow.NewConstructor(flow.DefaultConfig())
// est, err := ctor(firstFrame)
// res, err := est.Update(nextFrame)
func NewConstructor(cfg Config) (Constructor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case ModeBlock:
		return func(baseline *images.Frame) (Estimator, error) {
			e, err := NewBlockMatcher(baseline, cfg)
			if err != nil {
				return nil, err
			}
			return e, nil
		}, nil
	case ModeFarneback:
		return func(baseline *images.Frame) (Estimator, error) {
			e, err := NewFarneback(baseline, cfg)
			if err != nil {
				return nil, err
			}
			return e, nil
		}, nil
	case ModeONNX:
		return func(baseline *images.Frame) (Estimator, error) {
			e, err := NewONNX(baseline, cfg)
			if err != nil {
				return nil, err
			}
			return e, nil
		}, nil
	default:
		return func(baseline *images.Frame) (Estimator, error) {
			e, err := NewLucasKanade(baseline, cfg)
			if err != nil {
				return nil, err
			}
			return e, nil
		}, nil
	}
}

// temporal applies the magnitude threshold and exponential smoothing shared by all
// estimators. It owns the field handed out in Result.
type temporal struct {
	smooth    float32
	threshold float32
	field     *Field
	primed    bool
}

func newTemporal(cfg Config, height, width int) (*temporal, error) {
	field, err := NewField(height, width)
	if err != nil {
		return nil, err
	}
	return &temporal{
		smooth:    float32(cfg.Smooth),
		threshold: float32(cfg.Threshold),
		field:     field,
	}, nil
}

// apply folds raw into the smoothed field and returns the result.
func (t *temporal) apply(raw *Field) (*Result, error) {
	src, dst := raw.Data(), t.field.Data()
	keep := t.smooth
	if !t.primed {
		keep = 0
		t.primed = true
	}
	for i := 0; i < len(src); i += 2 {
		dx, dy := src[i], src[i+1]
		if t.threshold > 0 && math32.Hypot(dx, dy) < t.threshold {
			dx, dy = 0, 0
		}
		dst[i] = dst[i]*keep + dx*(1-keep)
		dst[i+1] = dst[i+1]*keep + dy*(1-keep)
	}
	dir, err := t.field.Mean()
	if err != nil {
		return nil, err
	}
	return &Result{Field: t.field, Dir: dir}, nil
}

// baselineCopy validates the baseline frame and returns a private, prefiltered copy
// of it.
func baselineCopy(baseline *images.Frame, pre *prefilter) (*images.Frame, error) {
	if baseline == nil || baseline.Width <= 0 || baseline.Height <= 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "baseline frame must not be empty")
	}
	return pre.apply(baseline).Clone(), nil
}

// prefilter denoises frames before estimation. A nil prefilter passes frames through.
type prefilter struct {
	blur *kernels.BoxBlur
	out  *images.Frame
}

func newPrefilter(cfg Config) *prefilter {
	if cfg.Blur <= 0 {
		return nil
	}
	return &prefilter{blur: kernels.NewBoxBlur(cfg.Blur), out: &images.Frame{}}
}

// apply returns the filtered frame, which stays valid until the next call.
func (p *prefilter) apply(frame *images.Frame) *images.Frame {
	if p == nil {
		return frame
	}
	return p.blur.Apply(p.out, frame)
}

// closeAll runs every release function and returns the first error.
func closeAll(fns ...func() error) error {
	var first error
	for _, fn := range fns {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
