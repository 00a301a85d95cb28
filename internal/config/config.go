// Package config holds the run configuration: sketching parameters, QC
// thresholds, and file locations. A Config is assembled once at the CLI
// boundary (built-in defaults, then an optional YAML settings file, then
// flags), validated, and threaded as an explicit value into every component.
// Nothing in the core reads ambient state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/avansant/cladecall/internal/schema"
)

// boundsConfidence is the confidence level passed to mash bounds. Not exposed
// on the CLI: changing it invalidates the calibrated thresholds.
const boundsConfidence = 0.99

// Config is the full, immutable configuration for one run.
type Config struct {
	Name             string `yaml:"name"`
	OutputReportPath string `yaml:"output_report_path"`

	ReferenceSketchPath string `yaml:"reference_sketch_path"`
	CladeConfigPath     string `yaml:"clade_config_path"`

	KmerSize        int `yaml:"kmer_size"`
	SketchSize      int `yaml:"sketch_size"`
	MinKmerCoverage int `yaml:"minimal_kmer_coverage"`

	NonCandidaThreshold float64    `yaml:"non_candida_threshold"`
	HighDistThreshold   float64    `yaml:"high_dist_threshold"`
	GenomeSizeRange     [2]float64 `yaml:"expected_genome_size"`

	// NoQC disables the extended QC checks (genome_size,
	// possible_new_subgroup, multiple_hits). The species gate and outgroup
	// classification always run; they decide the clade label itself.
	NoQC bool `yaml:"no_qc"`
}

// Default returns the built-in configuration. Threshold and range defaults
// are calibrated against the published Candida auris reference set; changing
// the sketching parameters requires rebuilding the reference sketch and
// recalibrating.
func Default() Config {
	return Config{
		Name:                "isolate",
		OutputReportPath:    "report.tsv",
		ReferenceSketchPath: "data/Candida_auris_clade_references.msh",
		CladeConfigPath:     "data/clade_config.csv",
		KmerSize:            27,
		SketchSize:          50_000,
		MinKmerCoverage:     3,
		NonCandidaThreshold: 0.01,
		HighDistThreshold:   0.003,
		GenomeSizeRange:     [2]float64{11_400_000, 14_900_000},
	}
}

// BoundsConfidence returns the fixed confidence level for mash bounds.
func (c Config) BoundsConfidence() float64 { return boundsConfidence }

// LoadFile overlays settings from a YAML file onto c and returns the result.
func LoadFile(c Config, path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

// Validate checks every numeric domain and returns a ConfigurationError on
// the first violation. It must run before any classification is attempted.
//
// It deliberately does not enforce HighDistThreshold <= NonCandidaThreshold:
// the calibrated defaults satisfy it, and an operator overriding one
// threshold should not be blocked on the other.
func (c Config) Validate() error {
	if c.NonCandidaThreshold <= 0 || c.NonCandidaThreshold >= 1 {
		return fmt.Errorf("config: non_candida_threshold %v outside (0,1): %w",
			c.NonCandidaThreshold, schema.ErrConfiguration)
	}
	if c.HighDistThreshold <= 0 || c.HighDistThreshold >= 1 {
		return fmt.Errorf("config: high_dist_threshold %v outside (0,1): %w",
			c.HighDistThreshold, schema.ErrConfiguration)
	}
	if c.GenomeSizeRange[0] <= 0 || c.GenomeSizeRange[1] <= 0 {
		return fmt.Errorf("config: expected genome size bounds %v must be positive: %w",
			c.GenomeSizeRange, schema.ErrConfiguration)
	}
	if c.GenomeSizeRange[0] > c.GenomeSizeRange[1] {
		return fmt.Errorf("config: expected genome size range %v inverted: %w",
			c.GenomeSizeRange, schema.ErrConfiguration)
	}
	if c.KmerSize < 1 || c.KmerSize > 32 {
		return fmt.Errorf("config: kmer_size %d outside [1,32]: %w",
			c.KmerSize, schema.ErrConfiguration)
	}
	if c.SketchSize < 1000 || c.SketchSize > 1_000_000 {
		return fmt.Errorf("config: sketch_size %d outside [1000,1000000]: %w",
			c.SketchSize, schema.ErrConfiguration)
	}
	if c.MinKmerCoverage < 1 || c.MinKmerCoverage > 100 {
		return fmt.Errorf("config: minimal_kmer_coverage %d outside [1,100]: %w",
			c.MinKmerCoverage, schema.ErrConfiguration)
	}
	return nil
}

// NormalizeGenomeSizeRange converts a range given in Mbp to bp. Operators
// habitually type "11.4 14.9"; when both bounds are below 100 they are taken
// as Mbp and scaled. Returns the adjusted config and whether scaling applied
// so the caller can log it.
func NormalizeGenomeSizeRange(c Config) (Config, bool) {
	if c.GenomeSizeRange[0] < 100 && c.GenomeSizeRange[1] < 100 {
		c.GenomeSizeRange[0] *= 1_000_000
		c.GenomeSizeRange[1] *= 1_000_000
		return c, true
	}
	return c, false
}
