// Package config provides configuration loading and management for filmdose.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for the parallel distance transform
		NumCores int `yaml:"numCores"`

		// MaskThreshold is the intensity level at or above which a pixel counts as exposed
		MaskThreshold float64 `yaml:"maskThreshold"`

		// PixelSize is the physical size of a scan pixel in mm
		PixelSize float64 `yaml:"pixelSize"`

		// ErodeMargin is the safety margin in mm stripped from the region of interest
		ErodeMargin float64 `yaml:"erodeMargin"`
	} `yaml:"processing"`

	// Phantom parameters for the demo mode
	Phantom struct {
		// Rows and Cols are the phantom grid dimensions in pixels
		Rows int `yaml:"rows"`
		Cols int `yaml:"cols"`

		// NoiseSigma is the standard deviation of the additive Gaussian noise
		NoiseSigma float64 `yaml:"noiseSigma"`

		// Seed makes phantom noise reproducible
		Seed int64 `yaml:"seed"`
	} `yaml:"phantom"`

	// Output parameters
	Output struct {
		// SaveDistanceMap determines whether the rendered distance map is written to disk
		SaveDistanceMap bool `yaml:"saveDistanceMap"`

		// DistanceMapFile is the output path for the rendered distance map
		DistanceMapFile string `yaml:"distanceMapFile"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.MaskThreshold = 0.5
	cfg.Processing.PixelSize = 0.3528 // 72 dpi flatbed default
	cfg.Processing.ErodeMargin = 1.0

	// Set default phantom parameters
	cfg.Phantom.Rows = 256
	cfg.Phantom.Cols = 256
	cfg.Phantom.NoiseSigma = 0.02
	cfg.Phantom.Seed = 1

	// Set default output parameters
	cfg.Output.SaveDistanceMap = true
	cfg.Output.DistanceMapFile = "distance_map.png"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
