package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied to zero-valued fields after validation.
const (
	DefaultSeed          uint64  = 1
	DefaultKDEMultiplier float64 = 12
	DefaultResolution    float64 = 1
	DefaultScale         float64 = 1
)

// Load reads, validates and completes the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))

	return cfg, nil
}

// Parse decodes and validates a YAML run description, then fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}
	if cfg.KDEMultiplier == 0 {
		cfg.KDEMultiplier = DefaultKDEMultiplier
	}
	if cfg.Resolution == 0 {
		cfg.Resolution = DefaultResolution
	}
	for i := range cfg.Lines {
		line := &cfg.Lines[i]
		if line.Flow.Scale == 0 {
			line.Flow.Scale = DefaultScale
		}
	}
}

func (cfg *Config) resolvePaths(dir string) {
	resolve := func(path *string) {
		if *path != "" && !filepath.IsAbs(*path) {
			*path = filepath.Join(dir, *path)
		}
	}

	for i := range cfg.Lines {
		line := &cfg.Lines[i]
		resolve(&line.Flow.ODCSV)
		resolve(&line.Flow.LinkLoadCSV)
		resolve(&line.GTFS.Path)
		for j := range line.Stations {
			resolve(&line.Stations[j].Guides)
		}
	}
}
