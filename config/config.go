// Package config - Configuration for the motion CLI.
//
// Values are resolved in three layers: defaults, an optional YAML file, then
// environment variables prefixed with MOTION_. Command line flags are applied on top
// by the caller.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/motion"
	"github.com/nvr-ai/go-motion/source"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "MOTION_"

// Config is the complete application configuration.
type Config struct {
	// Motion configures each analysis run.
	Motion motion.Config `yaml:"motion" json:"motion" envPrefix:"ANALYSIS_"`
	// Extract configures ffmpeg frame extraction.
	Extract source.ExtractConfig `yaml:"extract" json:"extract"`
	// FFmpeg is the ffmpeg binary.
	FFmpeg string `yaml:"ffmpeg" json:"ffmpeg" env:"FFMPEG"`
	// AssetDir holds extracted frames named <id>-NNNN.<ext>.
	AssetDir string `yaml:"assetDir" json:"assetDir" env:"ASSET_DIR"`
	// OutDir receives <id>-motion.json reports.
	OutDir string `yaml:"outDir" json:"outDir" env:"OUT_DIR"`
	// Ext is the frame file extension.
	Ext string `yaml:"ext" json:"ext" env:"EXT"`
	// Size is the longest frame side after resizing, 0 keeps the original size.
	Size int `yaml:"size" json:"size" env:"SIZE"`
	// Skip analyzes every n-th frame file.
	Skip int `yaml:"skip" json:"skip" env:"SKIP"`
	// Concurrency is the number of artworks analyzed in parallel.
	Concurrency int `yaml:"concurrency" json:"concurrency" env:"CONCURRENCY"`
	// MetricsAddr serves Prometheus metrics when set, e.g. ":9090".
	MetricsAddr string `yaml:"metricsAddr" json:"metricsAddr" env:"METRICS_ADDR"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel" json:"logLevel" env:"LOG_LEVEL"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Motion:      motion.DefaultConfig(),
		Extract:     source.DefaultExtractConfig(),
		FFmpeg:      "ffmpeg",
		AssetDir:    ".",
		OutDir:      ".",
		Ext:         "png",
		Skip:        1,
		Concurrency: 2,
		LogLevel:    "info",
	}
}

// Load resolves the configuration from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
//
// Arguments:
//   - path: Optional YAML file.
//
// Returns:
//   - *Config: The resolved configuration.
//   - error: An error if the file cannot be read or parsed, or the result is invalid.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(err, "failed to parse config %s", path)
		}
	}

	// Unset variables leave the file and default values untouched.
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the resolved configuration.
func (c Config) Validate() error {
	if err := c.Motion.Validate(); err != nil {
		return err
	}
	switch {
	case c.Concurrency < 1:
		return errors.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	case c.Skip < 1:
		return errors.Errorf("skip must be >= 1, got %d", c.Skip)
	case c.Size < 0:
		return errors.Errorf("size must be >= 0, got %d", c.Size)
	case c.Ext == "":
		return errors.New("ext must not be empty")
	}
	if _, ok := images.FormatFromPath("frame." + strings.TrimPrefix(c.Ext, ".")); !ok {
		return errors.Errorf("unsupported frame format %q", c.Ext)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
