package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-motion/flow"
	"github.com/nvr-ai/go-motion/motion"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motion.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
	assert.Equal(t, 6, cfg.Motion.Regions)
	assert.Equal(t, flow.ModeGradient, cfg.Motion.Flow.Mode)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
motion:
  regions: 4
  amp: 2
  deleteConsumedFiles: true
  flow:
    smooth: 0.5
    windowSize: 5
    mode: block
assetDir: /data/frames
concurrency: 8
extract:
  fps: 24
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Motion.Regions)
	assert.Equal(t, 2.0, cfg.Motion.Amp)
	assert.True(t, cfg.Motion.DeleteConsumedFiles)
	assert.Equal(t, 0.5, cfg.Motion.Flow.Smooth)
	assert.Equal(t, 5, cfg.Motion.Flow.WindowSize)
	assert.Equal(t, flow.ModeBlock, cfg.Motion.Flow.Mode)
	// Unset keys keep their defaults.
	assert.Equal(t, 1, cfg.Motion.Flow.WindowStep)
	assert.Equal(t, "/data/frames", cfg.AssetDir)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 24, cfg.Extract.FPS)
	assert.Equal(t, "png", cfg.Extract.Ext)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "concurrency: 8\nmotion:\n  regions: 4\n")
	t.Setenv("MOTION_CONCURRENCY", "3")
	t.Setenv("MOTION_ANALYSIS_FLOW_MODE", "block")
	t.Setenv("MOTION_ANALYSIS_DELETE_CONSUMED_FILES", "true")
	t.Setenv("MOTION_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 4, cfg.Motion.Regions)
	assert.Equal(t, flow.ModeBlock, cfg.Motion.Flow.Mode)
	assert.True(t, cfg.Motion.DeleteConsumedFiles)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "regionz: 4\n"))
		assert.Error(t, err)
	})

	t.Run("invalid regions", func(t *testing.T) {
		_, err := Load(writeConfig(t, "motion:\n  regions: 0\n"))
		assert.True(t, errors.Is(err, motion.ErrConfig), "got %v", err)
	})

	t.Run("invalid env value", func(t *testing.T) {
		t.Setenv("MOTION_CONCURRENCY", "many")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }},
		{name: "zero skip", modify: func(c *Config) { c.Skip = 0 }},
		{name: "negative size", modify: func(c *Config) { c.Size = -1 }},
		{name: "empty ext", modify: func(c *Config) { c.Ext = "" }},
		{name: "unsupported ext", modify: func(c *Config) { c.Ext = "avi" }},
		{name: "unknown log level", modify: func(c *Config) { c.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
