// Package config defines the run configuration and loads it from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"

	"haze-obliterator/internal/algorithms/atmospheric"
	"haze-obliterator/internal/logger"
	"haze-obliterator/internal/numeric"
	"haze-obliterator/internal/processing/filters"
	"haze-obliterator/internal/processing/resize"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = "haze-obliterator.toml"

const (
	DecoderGo     = "go"
	DecoderOpenCV = "opencv"

	// ErosionOpenCV and ResizerOpenCV select the gocv-backed implementations.
	ErosionOpenCV = "opencv"
	ResizerOpenCV = "opencv"
)

// AlgorithmConfig holds the numeric design constants of the pipeline.
type AlgorithmConfig struct {
	// DownscaleFactor shrinks the image feeding atmospheric-light estimation.
	DownscaleFactor int `toml:"downscale_factor"`
	// WindowSize is the odd side length K of the dark-channel erosion.
	WindowSize int `toml:"window_size"`
	// LightFloor is the minimum of every atmospheric light channel.
	LightFloor float64 `toml:"light_floor"`
	// Psi weights intensity in the transmission formula.
	Psi float64 `toml:"psi"`
	// Epsilon floors divisors.
	Epsilon         float64 `toml:"epsilon"`
	TransmissionMin float64 `toml:"transmission_min"`
	TransmissionMax float64 `toml:"transmission_max"`
	// LightEstimator is "argmax" or "top-fraction".
	LightEstimator string `toml:"light_estimator"`
	// TopFraction is the share of dark-map cells averaged by "top-fraction".
	TopFraction float64 `toml:"top_fraction"`
}

// NumericConfig selects the division backend.
type NumericConfig struct {
	Backend  string  `toml:"backend"`
	LUTBits  int     `toml:"lut_bits"`
	LUTRange float64 `toml:"lut_range"`
}

// PerformanceConfig selects implementations and parallelism.
type PerformanceConfig struct {
	// Workers caps concurrent row bands; 0 uses GOMAXPROCS.
	Workers int    `toml:"workers"`
	Erosion string `toml:"erosion"`
	Decoder string `toml:"decoder"`
	Resizer string `toml:"resizer"`
}

// OutputConfig names the files the CLI writes.
type OutputConfig struct {
	Restored     string `toml:"restored"`
	Transmission string `toml:"transmission"`
	// Format forces "png" or "jpeg"; empty picks by file extension.
	Format string `toml:"format"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Algorithm   AlgorithmConfig   `toml:"algorithm"`
	Numeric     NumericConfig     `toml:"numeric"`
	Performance PerformanceConfig `toml:"performance"`
	Output      OutputConfig      `toml:"output"`
	Log         LogConfig         `toml:"log"`
}

// Default returns the design values.
func Default() *Config {
	return &Config{
		Algorithm: AlgorithmConfig{
			DownscaleFactor: 2,
			WindowSize:      15,
			LightFloor:      atmospheric.DefaultFloor,
			Psi:             1.25,
			Epsilon:         1e-6,
			TransmissionMin: 0.1,
			TransmissionMax: 1.0,
			LightEstimator:  atmospheric.EstimatorArgmax,
			TopFraction:     0.001,
		},
		Numeric: NumericConfig{
			Backend:  numeric.BackendFloat,
			LUTBits:  12,
			LUTRange: 4.0,
		},
		Performance: PerformanceConfig{
			Workers: 0,
			Erosion: filters.ErosionCascade,
			Decoder: DecoderGo,
			Resizer: resize.ResizerArea,
		},
		Output: OutputConfig{
			Restored:     "dehazed.png",
			Transmission: "",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error: it is
// logged and the defaults are returned. Any other read or parse failure is.
func Load(path string, log logger.Logger) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warning("Config", "config file not found, using default settings", map[string]interface{}{
				"path": path,
			})
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML into cfg, leaving unspecified keys untouched. Unknown
// keys are rejected so typos do not silently fall back to defaults.
func Decode(data string, cfg *Config) error {
	meta, err := toml.Decode(data, cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown config keys: %v", undecoded)
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	a := c.Algorithm
	if a.DownscaleFactor < 1 {
		return fmt.Errorf("downscale_factor must be >= 1, got %d", a.DownscaleFactor)
	}
	if _, err := filters.Radius(a.WindowSize); err != nil {
		return err
	}
	if !(a.LightFloor >= 0 && a.LightFloor <= 1) {
		return fmt.Errorf("light_floor must be in [0, 1], got %v", a.LightFloor)
	}
	if !(a.Psi > 0) {
		return fmt.Errorf("psi must be positive, got %v", a.Psi)
	}
	if !(a.Epsilon > 0) {
		return fmt.Errorf("epsilon must be positive, got %v", a.Epsilon)
	}
	if !(a.TransmissionMin > 0 && a.TransmissionMin <= a.TransmissionMax && a.TransmissionMax <= 1) {
		return fmt.Errorf("transmission range must satisfy 0 < min <= max <= 1, got [%v, %v]", a.TransmissionMin, a.TransmissionMax)
	}
	switch a.LightEstimator {
	case atmospheric.EstimatorArgmax:
	case atmospheric.EstimatorTopFraction:
		if !(a.TopFraction > 0 && a.TopFraction <= 1) {
			return fmt.Errorf("top_fraction must be in (0, 1], got %v", a.TopFraction)
		}
	default:
		return fmt.Errorf("unknown light_estimator %q", a.LightEstimator)
	}

	if _, err := numeric.New(c.Numeric.Backend, c.Numeric.LUTBits, c.Numeric.LUTRange); err != nil {
		return err
	}

	p := c.Performance
	if p.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", p.Workers)
	}
	switch p.Erosion {
	case filters.ErosionCascade, filters.ErosionDirect, ErosionOpenCV:
	default:
		return fmt.Errorf("unknown erosion %q", p.Erosion)
	}
	switch p.Decoder {
	case DecoderGo, DecoderOpenCV:
	default:
		return fmt.Errorf("unknown decoder %q", p.Decoder)
	}
	switch p.Resizer {
	case resize.ResizerArea, ResizerOpenCV:
	default:
		return fmt.Errorf("unknown resizer %q", p.Resizer)
	}

	switch c.Output.Format {
	case "", "png", "jpeg":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}
