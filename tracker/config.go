package tracker

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config selects which telemetry categories the controller records.
type Config struct {
	TrackBehaviors bool     `yaml:"track_behaviors"`
	TrackScroll    bool     `yaml:"track_scroll"`
	TrackClicks    bool     `yaml:"track_clicks"`
	ExcludedPaths  []string `yaml:"excluded_paths"`
}

// DefaultExcludedPaths are the route prefixes never tracked unless overridden.
var DefaultExcludedPaths = []string{"/admin", "/settings"}

func DefaultConfig() Config {
	return Config{
		TrackBehaviors: true,
		TrackScroll:    true,
		TrackClicks:    true,
		ExcludedPaths:  append([]string(nil), DefaultExcludedPaths...),
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys missing from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read tracker config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse tracker config %s: %w", path, err)
	}
	return cfg, nil
}
