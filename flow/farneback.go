package flow

import (
	"github.com/nvr-ai/go-motion/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Farneback parameters passed to OpenCV besides the window size.
const (
	farnebackPyrScale   = 0.5
	farnebackLevels     = 3
	farnebackIterations = 3
	farnebackPolyN      = 5
	farnebackPolySigma  = 1.2
)

// Farneback wraps OpenCV's dense polynomial-expansion estimator.
//
// OpenCV produces one vector per pixel; the field keeps every WindowStep-th pixel
// along each axis. The estimator keeps its previous frame as a native Mat, so Close
// must be called to release it.
type Farneback struct {
	cfg    Config
	pre    *prefilter
	prev   gocv.Mat
	flow   gocv.Mat
	raw    *Field
	smooth *temporal
}

// NewFarneback creates an OpenCV backed estimator with the given baseline.
//
// Arguments:
//   - baseline: The first frame of the sequence. It is copied into a Mat.
//   - cfg: The flow configuration, WindowSize is the averaging window.
//
// Returns:
//   - *Farneback: The estimator. Always call Close() to release native memory.
//   - error: ErrInvalidConfig if the configuration or baseline is invalid.
//
// @example
// est, err := NewFarneback(first, cfg)
// defer est.Close()
func NewFarneback(baseline *images.Frame, cfg Config) (*Farneback, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pre := newPrefilter(cfg)
	base, err := baselineCopy(baseline, pre)
	if err != nil {
		return nil, err
	}

	fh, fw := cfg.FieldShape(base.Width, base.Height)
	raw, err := NewField(fh, fw)
	if err != nil {
		return nil, err
	}
	smooth, err := newTemporal(cfg, fh, fw)
	if err != nil {
		return nil, err
	}

	// Native memory is allocated last so no error path leaks it.
	prev, err := base.ToMat()
	if err != nil {
		return nil, err
	}

	return &Farneback{
		cfg:    cfg,
		pre:    pre,
		prev:   prev,
		flow:   gocv.NewMat(),
		raw:    raw,
		smooth: smooth,
	}, nil
}

// Update estimates the flow from the previous frame to frame and makes frame the new
// baseline.
func (fb *Farneback) Update(frame *images.Frame) (*Result, error) {
	if fb.prev.Rows() != frame.Height || fb.prev.Cols() != frame.Width {
		return nil, errors.Wrapf(images.ErrDimensionMismatch, "expected %dx%d, got %dx%d",
			fb.prev.Cols(), fb.prev.Rows(), frame.Width, frame.Height)
	}

	curr, err := fb.pre.apply(frame).ToMat()
	if err != nil {
		return nil, err
	}

	gocv.CalcOpticalFlowFarneback(fb.prev, curr, &fb.flow,
		farnebackPyrScale, farnebackLevels, fb.cfg.WindowSize,
		farnebackIterations, farnebackPolyN, farnebackPolySigma, 0)
	if fb.flow.Empty() || fb.flow.Type() != gocv.MatTypeCV32FC2 {
		curr.Close()
		return nil, errors.New("farneback produced no CV_32FC2 flow")
	}

	step := fb.cfg.WindowStep
	fh, fw := fb.raw.Shape()
	for fy := 0; fy < fh; fy++ {
		for fx := 0; fx < fw; fx++ {
			v := fb.flow.GetVecfAt(fy*step, fx*step)
			fb.raw.Set(fx, fy, Vec2{float64(v[0]), float64(v[1])})
		}
	}

	// The current frame becomes the new baseline.
	fb.prev.Close()
	fb.prev = curr
	return fb.smooth.apply(fb.raw)
}

// Close releases all OpenCV native resources used by the estimator.
func (fb *Farneback) Close() error {
	return closeAll(fb.prev.Close, fb.flow.Close)
}
