package flow

import (
	"os"

	"github.com/nvr-ai/go-motion/images"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNX runs a two-frame optical flow network (RAFT style exports) through ONNX
// Runtime.
//
// The model input is a [1, 2, H, W] float32 tensor holding the previous and current
// frame normalized to [0, 1]; the output is a [1, 2, H, W] tensor with the horizontal
// and vertical displacement planes. The previous frame lives in channel 1 of the input
// tensor between calls, so the estimator holds exactly one frame buffer.
type ONNX struct {
	cfg     Config
	pre     *prefilter
	width   int
	height  int
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	raw     *Field
	smooth  *temporal
}

// NewONNX loads the model configured in cfg.ONNX and primes it with the baseline.
//
// Order of operations:
//  1. Library path check and environment setup (once per process).
//  2. Tensor allocation for the fixed frame size.
//  3. Session creation binding the tensors.
//
// Arguments:
//   - baseline: The first frame of the sequence.
//   - cfg: The flow configuration.
//
// Returns:
//   - *ONNX: The estimator. Always call Close() to release native memory.
//   - error: An error if the runtime or model cannot be loaded.
func NewONNX(baseline *images.Frame, cfg Config) (*ONNX, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pre := newPrefilter(cfg)
	base, err := baselineCopy(baseline, pre)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.ONNX.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "flow model not found at %s", cfg.ONNX.ModelPath)
	}

	if !ort.IsInitialized() {
		if cfg.ONNX.SharedLibPath != "" {
			ort.SetSharedLibraryPath(cfg.ONNX.SharedLibPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "error initializing ORT environment")
		}
	}

	w, h := base.Width, base.Height
	fh, fw := cfg.FieldShape(w, h)
	raw, err := NewField(fh, fw)
	if err != nil {
		return nil, err
	}
	smooth, err := newTemporal(cfg, fh, fw)
	if err != nil {
		return nil, err
	}

	shape := ort.NewShape(1, 2, int64(h), int64(w))
	input, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	output, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		_ = input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	session, err := ort.NewAdvancedSession(
		cfg.ONNX.ModelPath,
		[]string{cfg.ONNX.InputName},
		[]string{cfg.ONNX.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		_ = closeAll(input.Destroy, output.Destroy)
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	e := &ONNX{
		cfg:     cfg,
		pre:     pre,
		width:   w,
		height:  h,
		session: session,
		input:   input,
		output:  output,
		raw:     raw,
		smooth:  smooth,
	}
	e.load(1, base)
	return e, nil
}

// load writes a normalized frame into the given input channel.
func (e *ONNX) load(channel int, frame *images.Frame) {
	plane := e.input.GetData()[channel*e.width*e.height : (channel+1)*e.width*e.height]
	for i, v := range frame.Pix {
		plane[i] = float32(v) / images.MaxIntensity
	}
}

// Update estimates the flow from the previous frame to frame and makes frame the new
// baseline.
func (e *ONNX) Update(frame *images.Frame) (*Result, error) {
	if frame.Width != e.width || frame.Height != e.height {
		return nil, errors.Wrapf(images.ErrDimensionMismatch, "expected %dx%d, got %dx%d",
			e.width, e.height, frame.Width, frame.Height)
	}

	n := e.width * e.height
	data := e.input.GetData()
	copy(data[:n], data[n:2*n])
	e.load(1, e.pre.apply(frame))

	if err := e.session.Run(); err != nil {
		return nil, errors.Wrap(err, "error running flow model")
	}

	out := e.output.GetData()
	step := e.cfg.WindowStep
	fh, fw := e.raw.Shape()
	for fy := 0; fy < fh; fy++ {
		for fx := 0; fx < fw; fx++ {
			i := fy*step*e.width + fx*step
			e.raw.Set(fx, fy, Vec2{float64(out[i]), float64(out[n+i])})
		}
	}
	return e.smooth.apply(e.raw)
}

// Close releases the session and its tensors.
func (e *ONNX) Close() error {
	if e.session == nil {
		return nil
	}
	err := closeAll(e.session.Destroy, e.input.Destroy, e.output.Destroy)
	e.session = nil
	if err != nil {
		return errors.Wrap(err, "error destroying ORT session")
	}
	return nil
}
