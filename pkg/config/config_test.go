package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the default values are valid
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Colors.Saturation != 1 || cfg.Colors.Lightness != 0.5 {
		t.Errorf("Unexpected default colors %+v", cfg.Colors)
	}
	level, err := cfg.LogLevel()
	if err != nil || level != slog.LevelInfo {
		t.Errorf("Expected info level, got %v (%v)", level, err)
	}
}

// TestLoadMissingConfig verifies that a missing file yields the defaults
func TestLoadMissingConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Persistence.Description != DefaultConfig().Persistence.Description {
		t.Errorf("Expected default description, got %q", cfg.Persistence.Description)
	}
}

// TestSaveAndLoadConfig verifies a YAML round trip
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "arrview.yaml")

	cfg := DefaultConfig()
	cfg.Colors.HueStart = 0.3
	cfg.Logging.Level = "debug"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Colors.HueStart != 0.3 {
		t.Errorf("Expected hue start 0.3, got %v", loaded.Colors.HueStart)
	}
	if level, _ := loaded.LogLevel(); level != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", level)
	}
}

// TestLoadInvalidConfig verifies that out of range values are rejected
func TestLoadInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"hue":         "colors:\n  hueStart: 1.5\n",
		"compression": "persistence:\n  compressionLevel: 9\n",
		"level":       "logging:\n  level: loud\n",
		"yaml":        "colors: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

// TestCreateDefaultConfigFile verifies the generated file loads back
func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arrview.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Errorf("Generated config does not load: %v", err)
	}
}
