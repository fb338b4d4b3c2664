// Package config provides configuration loading and management for mrioverlay.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"mrioverlay/pkg/interpolation"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Resampling parameters
	Resample struct {
		// Method is the interpolation kernel: nearest, linear, cubic or spline
		Method string `yaml:"method"`

		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores"`
	} `yaml:"resample"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`

		// JSONLogs switches the log format to JSON
		JSONLogs bool `yaml:"jsonLogs"`

		// SavePreviews writes overlay slice images next to the result
		SavePreviews bool `yaml:"savePreviews"`

		// PreviewDir is where preview images are written
		PreviewDir string `yaml:"previewDir"`

		// PreviewAxis is the slicing axis for previews: x, y or z
		PreviewAxis string `yaml:"previewAxis"`

		// OverlayHue is the tint of the overlay in degrees on the color wheel
		OverlayHue float64 `yaml:"overlayHue"`

		// OverlayAlpha is the opacity of the overlay, 0 to 1
		OverlayAlpha float64 `yaml:"overlayAlpha"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Resample.Method = interpolation.DefaultMethod.String()
	cfg.Resample.NumCores = runtime.NumCPU() // Use all available cores by default

	cfg.Output.Verbose = false
	cfg.Output.JSONLogs = false
	cfg.Output.SavePreviews = false
	cfg.Output.PreviewDir = "previews"
	cfg.Output.PreviewAxis = "z"
	cfg.Output.OverlayHue = 20
	cfg.Output.OverlayAlpha = 0.5

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "error parsing config file %s", configPath)
	}

	return cfg, nil
}

// Validate checks that every value is usable
func (c *Config) Validate() error {
	if _, err := interpolation.ParseMethod(c.Resample.Method); err != nil {
		return errors.Wrap(err, "resample.method")
	}
	if c.Resample.NumCores < 1 {
		return errors.Newf("resample.numCores must be at least 1, got %d", c.Resample.NumCores)
	}
	switch c.Output.PreviewAxis {
	case "x", "y", "z":
	default:
		return errors.WithHint(
			errors.Newf("output.previewAxis %q is not an axis", c.Output.PreviewAxis),
			"use x, y or z")
	}
	if c.Output.OverlayAlpha < 0 || c.Output.OverlayAlpha > 1 {
		return errors.Newf("output.overlayAlpha must be between 0 and 1, got %g", c.Output.OverlayAlpha)
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "error creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
