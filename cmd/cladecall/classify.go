package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avansant/cladecall/internal/catalog"
	"github.com/avansant/cladecall/internal/classify"
	"github.com/avansant/cladecall/internal/config"
	"github.com/avansant/cladecall/internal/mash"
	"github.com/avansant/cladecall/internal/report"
	"github.com/avansant/cladecall/internal/schema"
	"github.com/avansant/cladecall/internal/seqfile"
)

// configFlags binds the shared run-configuration flags. Precedence:
// built-in defaults < settings file < flags.
type configFlags struct {
	settingsPath string

	referenceSketch string
	cladeConfig     string
	kmerSize        int
	sketchSize      int
	minKmerCoverage int

	nonCandidaThreshold float64
	highDistThreshold   float64
	expectedGenomeSize  []float64
	noQC                bool
}

func (cf *configFlags) register(cmd *cobra.Command) {
	def := config.Default()
	f := cmd.Flags()
	f.StringVar(&cf.settingsPath, "settings", "", "path to a YAML settings file")
	f.StringVarP(&cf.referenceSketch, "reference-sketch", "r", def.ReferenceSketchPath, "path to the reference sketch")
	f.StringVarP(&cf.cladeConfig, "clade-config", "c", def.CladeConfigPath, "path to the clade config CSV")
	f.IntVarP(&cf.kmerSize, "kmer-size", "k", def.KmerSize, "k-mer size")
	f.IntVarP(&cf.sketchSize, "sketch-size", "s", def.SketchSize, "sketch size")
	f.IntVarP(&cf.minKmerCoverage, "min-kmer-coverage", "m", def.MinKmerCoverage, "minimal k-mer coverage (read input)")
	f.Float64Var(&cf.nonCandidaThreshold, "non-candida-threshold", def.NonCandidaThreshold,
		"distances above this threshold fail the species check")
	f.Float64Var(&cf.highDistThreshold, "high-dist-threshold", def.HighDistThreshold,
		"distances above this threshold may indicate a new clade")
	f.Float64SliceVar(&cf.expectedGenomeSize, "expected-genome-size", nil,
		"expected genome size range as min,max (values below 100 are read as Mbp)")
	f.BoolVar(&cf.noQC, "no-qc", def.NoQC, "skip extended QC checks")
}

// build assembles and validates the run configuration.
func (cf *configFlags) build(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if cf.settingsPath != "" {
		var err error
		cfg, err = config.LoadFile(cfg, cf.settingsPath)
		if err != nil {
			return cfg, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("reference-sketch") {
		cfg.ReferenceSketchPath = cf.referenceSketch
	}
	if changed("clade-config") {
		cfg.CladeConfigPath = cf.cladeConfig
	}
	if changed("kmer-size") {
		cfg.KmerSize = cf.kmerSize
	}
	if changed("sketch-size") {
		cfg.SketchSize = cf.sketchSize
	}
	if changed("min-kmer-coverage") {
		cfg.MinKmerCoverage = cf.minKmerCoverage
	}
	if changed("non-candida-threshold") {
		cfg.NonCandidaThreshold = cf.nonCandidaThreshold
	}
	if changed("high-dist-threshold") {
		cfg.HighDistThreshold = cf.highDistThreshold
	}
	if changed("expected-genome-size") {
		if len(cf.expectedGenomeSize) != 2 {
			return cfg, fmt.Errorf("--expected-genome-size wants exactly two values: %w", schema.ErrConfiguration)
		}
		cfg.GenomeSizeRange = [2]float64{cf.expectedGenomeSize[0], cf.expectedGenomeSize[1]}
	}
	if changed("no-qc") {
		cfg.NoQC = cf.noQC
	}

	var scaled bool
	cfg, scaled = config.NormalizeGenomeSizeRange(cfg)
	if scaled {
		logger.Warn("expected genome size bounds below 100, treating as Mbp",
			zap.Float64s("range", cfg.GenomeSizeRange[:]))
	}
	return cfg, cfg.Validate()
}

// newEngine wires the mash runner and catalog for a validated config.
func newEngine(cfg config.Config) (*classify.Engine, error) {
	runner := &mash.ExecRunner{Logger: logger}
	if err := runner.CheckInstalled(); err != nil {
		return nil, err
	}
	cat, err := catalog.Load(cfg.CladeConfigPath)
	if err != nil {
		return nil, err
	}
	return &classify.Engine{Runner: runner, Catalog: cat, Config: cfg, Logger: logger}, nil
}

func formatOverride(forceFastq, forceFasta bool) (seqfile.Format, error) {
	if forceFastq && forceFasta {
		return "", fmt.Errorf("--fastq and --fasta are mutually exclusive: %w", schema.ErrConfiguration)
	}
	if forceFastq {
		return seqfile.FormatFastq, nil
	}
	if forceFasta {
		return seqfile.FormatFasta, nil
	}
	return "", nil
}

func newClassifyCmd() *cobra.Command {
	var (
		cf         configFlags
		name       string
		outputPath string
		forceFastq bool
		forceFasta bool
	)

	cmd := &cobra.Command{
		Use:   "classify [flags] read-file...",
		Short: "Classify one isolate against the reference catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cf.build(cmd)
			if err != nil {
				return err
			}
			format, err := formatOverride(forceFastq, forceFasta)
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := engine.Classify(ctx, classify.Sample{Name: name, Paths: args, Format: format})
			if err != nil {
				return err
			}
			if err := report.WriteFile(outputPath, []schema.ClassificationResult{res}); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.RenderTSV([]schema.ClassificationResult{res}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "isolate", "name of the isolate")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "report.tsv", "path to the output report")
	cmd.Flags().BoolVar(&forceFastq, "fastq", false, "treat input files as fastq")
	cmd.Flags().BoolVar(&forceFasta, "fasta", false, "treat input files as fasta")
	cf.register(cmd)
	return cmd
}
