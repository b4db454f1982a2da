// Package config handles configuration loading and management for the
// fuzzer.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the global configuration for one fuzzing session.
type Config struct {
	Target     TargetConfig     `yaml:"target"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Output     OutputConfig     `yaml:"output"`
}

// TargetConfig names the firmware under test and its emulator parameters.
type TargetConfig struct {
	Name          string `yaml:"name"`
	EmulatorImage string `yaml:"emulator_image"`
	Arch          string `yaml:"arch"`
	Snapshots     bool   `yaml:"snapshots"`
}

// MutationConfig controls the havoc loop's randomness.
type MutationConfig struct {
	Seed              uint64 `yaml:"seed"`
	RandomChanceInput int    `yaml:"random_chance_input"`
}

// CorpusConfig holds corpus settings. Only ImportDir is read (by the fuzz
// command); the threshold fields are not passed to pkg/corpus.
type CorpusConfig struct {
	MinRareFeatures     int     `yaml:"min_rare_features"`
	FeatureFrequencyMax int     `yaml:"feature_frequency_max"`
	MaxMutationFactor   float64 `yaml:"max_mutation_factor"`
	ImportDir           string  `yaml:"import_dir"`
}

// ArchiveConfig controls where accepted inputs and statistics are written.
type ArchiveConfig struct {
	Dir            string `yaml:"dir"`
	Compress       bool   `yaml:"compress"`
	WriteStatistics bool  `yaml:"write_statistics"`
}

// OutputConfig controls how progress is reported.
type OutputConfig struct {
	Verbose   bool `yaml:"verbose"`
	EnableTUI bool `yaml:"enable_tui"`
	QuietMode bool `yaml:"quiet_mode"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Arch:      "cortex-m",
			Snapshots: false,
		},
		Mutation: MutationConfig{
			RandomChanceInput: 4,
		},
		Corpus: CorpusConfig{
			MinRareFeatures:     100,
			FeatureFrequencyMax: 0xff,
			MaxMutationFactor:   20.0,
		},
		Archive: ArchiveConfig{
			Dir:             "archive",
			Compress:        true,
			WriteStatistics: true,
		},
		Output: OutputConfig{
			EnableTUI: true,
		},
	}
}

// Load reads and parses a YAML configuration file, filling unset fields from
// DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
