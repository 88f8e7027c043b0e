package flow

import (
	"github.com/pkg/errors"
)

// ErrInvalidConfig is returned when an estimator configuration is out of range.
var ErrInvalidConfig = errors.New("invalid flow configuration")

// Mode selects the estimation algorithm.
type Mode string

const (
	// ModeGradient estimates flow with windowed Lucas-Kanade least squares.
	ModeGradient Mode = "gradient"
	// ModeBlock estimates flow with exhaustive block matching (sum of absolute differences).
	ModeBlock Mode = "block"
	// ModeFarneback delegates to OpenCV's dense Farneback estimator.
	ModeFarneback Mode = "farneback"
	// ModeONNX runs a two-frame optical flow model through ONNX Runtime.
	ModeONNX Mode = "onnx"
)

// ONNXConfig configures the ONNX Runtime backed estimator.
type ONNXConfig struct {
	// ModelPath is the path to the .onnx flow model.
	ModelPath string `yaml:"modelPath" json:"modelPath" env:"MODEL_PATH"`
	// SharedLibPath overrides the onnxruntime shared library location.
	SharedLibPath string `yaml:"sharedLibPath" json:"sharedLibPath" env:"SHARED_LIB_PATH"`
	// InputName is the model input receiving the [1, 2, H, W] frame pair.
	InputName string `yaml:"inputName" json:"inputName" env:"INPUT_NAME"`
	// OutputName is the model output producing the [1, 2, H, W] flow.
	OutputName string `yaml:"outputName" json:"outputName" env:"OUTPUT_NAME"`
}

// Config contains configuration parameters for flow estimation.
type Config struct {
	// Smooth is the temporal smoothing factor in [0, 1]: the weight kept from the
	// previous field. 0 disables smoothing.
	Smooth float64 `yaml:"smooth" json:"smooth" env:"SMOOTH"`
	// WindowSize is the side length of the matching window in pixels.
	WindowSize int `yaml:"windowSize" json:"windowSize" env:"WINDOW_SIZE"`
	// WindowStep is the pixel distance between neighbouring field cells.
	WindowStep int `yaml:"windowStep" json:"windowStep" env:"WINDOW_STEP"`
	// Displace is the search radius in pixels used by ModeBlock.
	Displace int `yaml:"displace" json:"displace" env:"DISPLACE"`
	// Blur is the radius of the box filter applied to every frame before estimation,
	// 0 disables it.
	Blur int `yaml:"blur" json:"blur" env:"BLUR"`
	// Threshold zeroes vectors whose magnitude is below it.
	Threshold float64 `yaml:"threshold" json:"threshold" env:"THRESHOLD"`
	// Mode selects the algorithm.
	Mode Mode `yaml:"mode" json:"mode" env:"MODE"`
	// ONNX configures ModeONNX.
	ONNX ONNXConfig `yaml:"onnx" json:"onnx" envPrefix:"ONNX_"`
}

// DefaultConfig returns the default flow configuration.
func DefaultConfig() Config {
	return Config{
		Smooth:     0.25,
		WindowSize: 3,
		WindowStep: 1,
		Displace:   4,
		Threshold:  0,
		Mode:       ModeGradient,
		ONNX: ONNXConfig{
			InputName:  "frames",
			OutputName: "flow",
		},
	}
}

// Validate checks every parameter range.
func (c Config) Validate() error {
	switch {
	case c.Smooth < 0 || c.Smooth > 1:
		return errors.Wrapf(ErrInvalidConfig, "smooth must be in [0, 1], got %v", c.Smooth)
	case c.WindowSize < 1:
		return errors.Wrapf(ErrInvalidConfig, "windowSize must be >= 1, got %d", c.WindowSize)
	case c.WindowStep < 1:
		return errors.Wrapf(ErrInvalidConfig, "windowStep must be >= 1, got %d", c.WindowStep)
	case c.Displace < 0:
		return errors.Wrapf(ErrInvalidConfig, "displace must be >= 0, got %d", c.Displace)
	case c.Blur < 0:
		return errors.Wrapf(ErrInvalidConfig, "blur must be >= 0, got %d", c.Blur)
	case c.Threshold < 0:
		return errors.Wrapf(ErrInvalidConfig, "threshold must be >= 0, got %v", c.Threshold)
	}

	switch c.Mode {
	case ModeGradient, ModeBlock, ModeFarneback:
	case ModeONNX:
		if c.ONNX.ModelPath == "" {
			return errors.Wrap(ErrInvalidConfig, "onnx mode requires a model path")
		}
		if c.ONNX.InputName == "" || c.ONNX.OutputName == "" {
			return errors.Wrap(ErrInvalidConfig, "onnx mode requires input and output names")
		}
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown mode %q", c.Mode)
	}
	return nil
}

// FieldShape returns the field dimensions produced for a frame of the given size:
// one cell every WindowStep pixels along each axis.
func (c Config) FieldShape(frameWidth, frameHeight int) (height, width int) {
	step := c.WindowStep
	if step < 1 {
		step = 1
	}
	return (frameHeight + step - 1) / step, (frameWidth + step - 1) / step
}
