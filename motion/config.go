package motion

import (
	"math"

	"github.com/nvr-ai/go-motion/flow"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/regions"
	"github.com/pkg/errors"
)

// Config contains configuration parameters for a motion analysis run.
type Config struct {
	// Regions is the number of regions per axis of the region grid.
	Regions int `yaml:"regions" json:"regions" env:"REGIONS"`
	// Amp amplifies raw frame differences before clamping.
	Amp float64 `yaml:"amp" json:"amp" env:"AMP"`
	// Flow configures the flow estimator.
	Flow flow.Config `yaml:"flow" json:"flow" envPrefix:"FLOW_"`
	// DeleteConsumedFiles asks a Releaser source to dispose each frame's storage once
	// the frame has been consumed.
	DeleteConsumedFiles bool `yaml:"deleteConsumedFiles" json:"deleteConsumedFiles" env:"DELETE_CONSUMED_FILES"`
}

// DefaultConfig returns the default analysis configuration: 6×6 regions, unit
// amplitude and the default flow settings.
func DefaultConfig() Config {
	return Config{
		Regions: 6,
		Amp:     1,
		Flow:    flow.DefaultConfig(),
	}
}

// Validate checks the analysis parameters. Errors carry ErrConfig.
func (c Config) Validate() error {
	if c.Regions <= 0 {
		return newError(ErrConfig, errors.Wrapf(regions.ErrInvalidRegionCount, "got %d", c.Regions))
	}
	if c.Amp < 0 || math.IsNaN(c.Amp) || math.IsInf(c.Amp, 0) {
		return newError(ErrConfig, errors.Wrapf(images.ErrNegativeAmplitude, "got %v", c.Amp))
	}
	if err := c.Flow.Validate(); err != nil {
		return newError(ErrConfig, err)
	}
	return nil
}
