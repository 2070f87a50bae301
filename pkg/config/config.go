// Package config provides configuration loading and management for arrview.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Color generation for new ROIs
	Colors struct {
		// HueStart is the hue of the first ROI color, between 0 and 1
		HueStart float64 `yaml:"hueStart"`

		// Saturation is the fixed HSL saturation, between 0 and 1
		Saturation float64 `yaml:"saturation"`

		// Lightness is the fixed HSL lightness, between 0 and 1
		Lightness float64 `yaml:"lightness"`
	} `yaml:"colors"`

	// ROI file parameters
	Persistence struct {
		// Description is written into every saved ROI file
		Description string `yaml:"description"`

		// CompressionLevel selects the zstd level used for masks (1-4)
		CompressionLevel int `yaml:"compressionLevel"`
	} `yaml:"persistence"`

	// Logging parameters
	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Colors.HueStart = 0
	cfg.Colors.Saturation = 1
	cfg.Colors.Lightness = 0.5

	cfg.Persistence.Description = "A collection of ROIs"
	cfg.Persistence.CompressionLevel = 2

	cfg.Logging.Level = "info"

	return cfg
}

// Validate checks that every value is within its allowed range
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"colors.hueStart":   c.Colors.HueStart,
		"colors.saturation": c.Colors.Saturation,
		"colors.lightness":  c.Colors.Lightness,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}
	if c.Persistence.CompressionLevel < 1 || c.Persistence.CompressionLevel > 4 {
		return fmt.Errorf("persistence.compressionLevel must be between 1 and 4, got %d", c.Persistence.CompressionLevel)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel returns the configured slog level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Logging.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logging.level %q: %w", c.Logging.Level, err)
	}
	return level, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
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

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

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
