package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/avansant/cladecall/internal/schema"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-candida threshold zero", func(c *Config) { c.NonCandidaThreshold = 0 }},
		{"non-candida threshold one", func(c *Config) { c.NonCandidaThreshold = 1 }},
		{"high-dist threshold negative", func(c *Config) { c.HighDistThreshold = -0.1 }},
		{"genome size lower bound negative", func(c *Config) { c.GenomeSizeRange[0] = -1 }},
		{"genome size range inverted", func(c *Config) { c.GenomeSizeRange = [2]float64{15e6, 11e6} }},
		{"kmer size zero", func(c *Config) { c.KmerSize = 0 }},
		{"kmer size too large", func(c *Config) { c.KmerSize = 33 }},
		{"sketch size too small", func(c *Config) { c.SketchSize = 10 }},
		{"coverage zero", func(c *Config) { c.MinKmerCoverage = 0 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, schema.ErrConfiguration) {
				t.Errorf("Validate = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestValidateDoesNotEnforceThresholdOrdering(t *testing.T) {
	cfg := Default()
	cfg.HighDistThreshold = 0.02 // above NonCandidaThreshold
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate = %v, want nil (ordering is advisory)", err)
	}
}

func TestNormalizeGenomeSizeRange(t *testing.T) {
	cfg := Default()
	cfg.GenomeSizeRange = [2]float64{11.4, 14.9}
	got, scaled := NormalizeGenomeSizeRange(cfg)
	if !scaled {
		t.Fatal("expected Mbp scaling to apply")
	}
	if got.GenomeSizeRange != [2]float64{11_400_000, 14_900_000} {
		t.Errorf("scaled range = %v", got.GenomeSizeRange)
	}

	// Ranges already in bp pass through untouched.
	got, scaled = NormalizeGenomeSizeRange(Default())
	if scaled {
		t.Error("bp range should not be rescaled")
	}
	if got.GenomeSizeRange != Default().GenomeSizeRange {
		t.Errorf("range changed: %v", got.GenomeSizeRange)
	}

	// Mixed magnitudes are left alone rather than guessed at.
	cfg = Default()
	cfg.GenomeSizeRange = [2]float64{50, 14_900_000}
	if _, scaled = NormalizeGenomeSizeRange(cfg); scaled {
		t.Error("mixed-unit range should not be rescaled")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	content := []byte("kmer_size: 21\nnon_candida_threshold: 0.02\nno_qc: true\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(Default(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.KmerSize != 21 {
		t.Errorf("kmer size = %d, want 21", cfg.KmerSize)
	}
	if cfg.NonCandidaThreshold != 0.02 {
		t.Errorf("non-candida threshold = %v, want 0.02", cfg.NonCandidaThreshold)
	}
	if !cfg.NoQC {
		t.Error("no_qc not applied")
	}
	// Untouched settings keep their defaults.
	if cfg.SketchSize != Default().SketchSize {
		t.Errorf("sketch size = %d, want default %d", cfg.SketchSize, Default().SketchSize)
	}

	if _, err := LoadFile(Default(), filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing settings file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("kmer_size: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(Default(), bad); err == nil {
		t.Error("expected error for unparseable settings file")
	}
}

func TestBoundsConfidenceFixed(t *testing.T) {
	if got := Default().BoundsConfidence(); got != 0.99 {
		t.Errorf("BoundsConfidence = %v, want 0.99", got)
	}
}
