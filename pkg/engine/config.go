package engine

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional loom.yaml host configuration: the handful of
// knobs a host embedder sets once at startup rather than through the
// widget tree (device scale, the frame's clear color, and the build
// scheduler's cycle budget, spec §4.7's "Cycle budget" addition).
type Config struct {
	DeviceScale    float64 `yaml:"device_scale"`
	BackgroundARGB uint32  `yaml:"background_argb"`
	MaxBuildPasses int     `yaml:"max_build_passes"`
}

// DefaultConfig returns the configuration used when no loom.yaml is
// present or a field is left zero in one that is.
func DefaultConfig() Config {
	return Config{
		DeviceScale:    1,
		BackgroundARGB: 0xff000000,
		MaxBuildPasses: 1000,
	}
}

// LoadConfig reads loom.yaml from dir, returning DefaultConfig unchanged
// if the file does not exist. Present fields override the default;
// zero/absent fields keep the default rather than resetting to zero.
func LoadConfig(dir string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(dir + "/loom.yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, err
	}

	var overrides Config
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return Config{}, err
	}

	if overrides.DeviceScale > 0 {
		cfg.DeviceScale = overrides.DeviceScale
	}
	if overrides.BackgroundARGB != 0 {
		cfg.BackgroundARGB = overrides.BackgroundARGB
	}
	if overrides.MaxBuildPasses > 0 {
		cfg.MaxBuildPasses = overrides.MaxBuildPasses
	}
	return cfg, nil
}
