package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avansant/cladecall/internal/classify"
	"github.com/avansant/cladecall/internal/report"
	"github.com/avansant/cladecall/internal/schema"
	"github.com/avansant/cladecall/internal/seqfile"
)

func newBatchCmd() *cobra.Command {
	var (
		cf         configFlags
		outputPath string
		workers    int
		forceFastq bool
		forceFasta bool
	)

	cmd := &cobra.Command{
		Use:   "batch [flags] samplesheet.tsv",
		Short: "Classify every sample in a samplesheet",
		Long: `Classifies every sample in a tab-separated samplesheet and writes one
combined report. Each samplesheet row is a sample name followed by one or
more sequence file paths. Samples are classified concurrently; each one is
an independent run against the same reference catalog.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cf.build(cmd)
			if err != nil {
				return err
			}
			format, err := formatOverride(forceFastq, forceFasta)
			if err != nil {
				return err
			}
			samples, err := readSamplesheet(args[0], format)
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("classifying batch",
				zap.Int("samples", len(samples)), zap.Int("workers", workers))
			results, err := engine.ClassifyAll(ctx, samples, workers)
			if err != nil {
				return err
			}
			return report.WriteFile(outputPath, results)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "batch_report.tsv", "path to the combined output report")
	cmd.Flags().IntVarP(&workers, "threads", "t", 4, "number of samples to classify concurrently")
	cmd.Flags().BoolVar(&forceFastq, "fastq", false, "treat input files as fastq")
	cmd.Flags().BoolVar(&forceFasta, "fasta", false, "treat input files as fasta")
	cf.register(cmd)
	return cmd
}

// readSamplesheet parses a TSV of sample name plus sequence file paths.
// Blank lines and #-comments are skipped. Duplicate sample names are
// rejected; they would collapse into one report row.
func readSamplesheet(path string, format seqfile.Format) ([]classify.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("samplesheet: open %s: %w", path, err)
	}
	defer f.Close()

	var samples []classify.Sample
	seen := map[string]bool{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("samplesheet: line %d has no file paths: %w", lineNo, schema.ErrMalformedInput)
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			return nil, fmt.Errorf("samplesheet: line %d has an empty sample name: %w", lineNo, schema.ErrMalformedInput)
		}
		if seen[name] {
			return nil, fmt.Errorf("samplesheet: duplicate sample name %q: %w", name, schema.ErrMalformedInput)
		}
		seen[name] = true

		var paths []string
		for _, p := range fields[1:] {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("samplesheet: line %d has no file paths: %w", lineNo, schema.ErrMalformedInput)
		}
		samples = append(samples, classify.Sample{Name: name, Paths: paths, Format: format})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("samplesheet: read %s: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("samplesheet: %s has no samples: %w", path, schema.ErrMalformedInput)
	}
	return samples, nil
}
