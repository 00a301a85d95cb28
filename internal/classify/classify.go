// Package classify orchestrates one classification run: sketch the query,
// compute distances against the reference catalog, rank neighbors, run the QC
// pipeline and assemble the result. Each sample is classified independently
// from its own inputs; the batch driver is plain fan-out with no shared
// mutable state.
package classify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/avansant/cladecall/internal/catalog"
	"github.com/avansant/cladecall/internal/config"
	"github.com/avansant/cladecall/internal/mash"
	"github.com/avansant/cladecall/internal/neighbor"
	"github.com/avansant/cladecall/internal/qc"
	"github.com/avansant/cladecall/internal/schema"
	"github.com/avansant/cladecall/internal/seqfile"
)

// Sample is one query isolate: a name and its sequence files. Format may be
// set from a --fastq/--fasta override; when empty it is sniffed from the
// files.
type Sample struct {
	Name   string
	Paths  []string
	Format seqfile.Format
}

// Engine classifies samples against a fixed reference catalog.
type Engine struct {
	Runner  mash.Runner
	Catalog *catalog.Catalog
	Config  config.Config
	Logger  *zap.Logger
}

// Classify runs the full pipeline for one sample.
func (e *Engine) Classify(ctx context.Context, s Sample) (schema.ClassificationResult, error) {
	var zero schema.ClassificationResult
	log := e.Logger.With(zap.String("sample", s.Name))

	if err := seqfile.ValidateExist(s.Paths); err != nil {
		return zero, err
	}

	format := s.Format
	if format == "" {
		var err error
		format, err = seqfile.Guess(s.Paths)
		if err != nil {
			return zero, err
		}
		log.Debug("resolved input format", zap.String("format", string(format)))
	} else {
		for _, p := range seqfile.Confirm(s.Paths, format) {
			log.Warn("input file does not parse as the forced format",
				zap.String("file", p), zap.String("format", string(format)))
		}
	}

	tmpDir, err := os.MkdirTemp("", "cladecall-*")
	if err != nil {
		return zero, fmt.Errorf("classify: temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)
	querySketch := filepath.Join(tmpDir, "query.msh")

	genomeSize, err := e.Runner.Sketch(ctx, querySketch, s.Paths, mash.SketchOptions{
		KmerSize:        e.Config.KmerSize,
		SketchSize:      e.Config.SketchSize,
		Reads:           format == seqfile.FormatFastq,
		MinKmerCoverage: e.Config.MinKmerCoverage,
	})
	if err != nil {
		return zero, err
	}
	if format == seqfile.FormatFasta && !e.Config.NoQC {
		genomeSize, err = seqfile.FastaTotalBases(s.Paths)
		if err != nil {
			return zero, err
		}
	}

	records, err := e.Runner.Dist(ctx, e.Config.ReferenceSketchPath, querySketch)
	if err != nil {
		return zero, err
	}

	ranked, err := neighbor.Rank(records, e.Catalog)
	if err != nil {
		return zero, err
	}
	log.Debug("ranked neighbors",
		zap.String("closest", ranked.Closest.ID),
		zap.Float64("distance", ranked.Closest.Distance),
		zap.String("clade", ranked.Closest.Clade))

	sig := qc.Signals{
		Neighbors:  ranked,
		Distances:  records,
		GenomeSize: genomeSize,
	}

	// The bounds lookup is a mash call; skip it when no verdict can use it
	// (extended QC off, or the species gate is about to trip).
	if !e.Config.NoQC && ranked.Closest.Distance <= e.Config.NonCandidaThreshold {
		bound, err := e.Runner.Bounds(ctx, e.Config.KmerSize, e.Config.BoundsConfidence(),
			e.Config.SketchSize, ranked.Closest.Distance)
		if err != nil {
			return zero, err
		}
		sig.ErrorBound = bound
	}

	res := qc.BuildResult(s.Name, sig, e.Config)
	logVerdicts(log, res)
	return res, nil
}

// ClassifyAll classifies samples concurrently with at most workers in
// flight. The first failing sample cancels the rest; per-sample skip
// policies belong to the caller.
func (e *Engine) ClassifyAll(ctx context.Context, samples []Sample, workers int) ([]schema.ClassificationResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]schema.ClassificationResult, len(samples))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range samples {
		i, s := i, s
		g.Go(func() error {
			res, err := e.Classify(ctx, s)
			if err != nil {
				return fmt.Errorf("sample %s: %w", s.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func logVerdicts(log *zap.Logger, res schema.ClassificationResult) {
	for _, name := range schema.CheckOrder {
		cr := res.Checks[name]
		switch cr.Verdict {
		case schema.VerdictFail, schema.VerdictWarn:
			log.Warn("qc check flagged",
				zap.String("check", string(name)),
				zap.String("verdict", string(cr.Verdict)),
				zap.String("detail", cr.Detail))
		default:
			log.Debug("qc check",
				zap.String("check", string(name)),
				zap.String("verdict", string(cr.Verdict)))
		}
	}
	log.Info("classification complete",
		zap.String("clade", res.PredictedClade),
		zap.Float64("distance", res.ClosestDistance),
		zap.String("decision", string(res.Overall)))
}
