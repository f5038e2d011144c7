package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haze-obliterator/internal/logger"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Algorithm.DownscaleFactor)
	assert.Equal(t, 15, cfg.Algorithm.WindowSize)
	assert.InDelta(t, 100.0/255.0, cfg.Algorithm.LightFloor, 1e-12)
	assert.Equal(t, 1.25, cfg.Algorithm.Psi)
	assert.Equal(t, "argmax", cfg.Algorithm.LightEstimator)
	assert.Equal(t, "float", cfg.Numeric.Backend)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[algorithm]
window_size = 9

[numeric]
backend = "fixed"
lut_bits = 10

[performance]
workers = 3
erosion = "direct"
`), 0o644))

	cfg, err := Load(path, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Algorithm.WindowSize)
	assert.Equal(t, 2, cfg.Algorithm.DownscaleFactor, "unset keys keep defaults")
	assert.Equal(t, "fixed", cfg.Numeric.Backend)
	assert.Equal(t, 10, cfg.Numeric.LUTBits)
	assert.Equal(t, 3, cfg.Performance.Workers)
	assert.Equal(t, "direct", cfg.Performance.Erosion)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"syntax.toml":  "[algorithm\nwindow_size = 3",
		"unknown.toml": "[algorithm]\nwindow = 3",
		"even.toml":    "[algorithm]\nwindow_size = 4",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := Load(path, logger.NewNop())
		assert.Error(t, err, name)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"factor", func(c *Config) { c.Algorithm.DownscaleFactor = 0 }},
		{"window", func(c *Config) { c.Algorithm.WindowSize = 14 }},
		{"floor", func(c *Config) { c.Algorithm.LightFloor = 1.5 }},
		{"psi", func(c *Config) { c.Algorithm.Psi = 0 }},
		{"epsilon", func(c *Config) { c.Algorithm.Epsilon = 0 }},
		{"transmission", func(c *Config) { c.Algorithm.TransmissionMin = 0.9; c.Algorithm.TransmissionMax = 0.5 }},
		{"estimator", func(c *Config) { c.Algorithm.LightEstimator = "median" }},
		{"fraction", func(c *Config) {
			c.Algorithm.LightEstimator = "top-fraction"
			c.Algorithm.TopFraction = 0
		}},
		{"backend", func(c *Config) { c.Numeric.Backend = "posit" }},
		{"lut", func(c *Config) { c.Numeric.Backend = "fixed"; c.Numeric.LUTBits = 40 }},
		{"workers", func(c *Config) { c.Performance.Workers = -1 }},
		{"erosion", func(c *Config) { c.Performance.Erosion = "separable" }},
		{"decoder", func(c *Config) { c.Performance.Decoder = "libvips" }},
		{"resizer", func(c *Config) { c.Performance.Resizer = "lanczos" }},
		{"format", func(c *Config) { c.Output.Format = "gif" }},
		{"log", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
