// Package qc runs the staged quality-control pipeline and folds the stage
// verdicts into the final classification decision.
//
// Stages are declared in a fixed, ordered table and evaluated by a small
// driver. Each stage is a pure function over the ranked neighbors, auxiliary
// signals and thresholds; the only coupling between stages is the species
// gate, tracked explicitly by the driver:
//
//  1. species — FAIL when the closest distance exceeds the non-Candida
//     threshold. A FAIL trips the gate: every later stage records SKIPPED.
//  2. genome_size — WARN when the estimated genome size falls outside the
//     expected range (inclusive bounds).
//  3. other_taxon_group — WARN when the closest reference is an outgroup.
//  4. possible_new_subgroup — WARN when the closest reference is Candida
//     auris but its distance exceeds the high-distance threshold.
//  5. multiple_hits — WARN when another reference sits within the mash error
//     bound of the closest hit.
//
// All distance thresholds are inclusive on the pass side: a distance exactly
// equal to a threshold passes, only strictly greater values trip the check.
// The multiple_hits boundary mirrors this as inclusive-warn: a gap exactly
// equal to the error bound warns. These boundaries are calibrated; do not
// change them.
//
// When extended QC is disabled, stages 2, 4 and 5 are forced to SKIPPED.
// Stages 1 and 3 still run: they decide the clade label itself.
package qc

import (
	"fmt"

	"github.com/avansant/cladecall/internal/config"
	"github.com/avansant/cladecall/internal/schema"
)

// Signals carries everything the pipeline consumes for one sample.
type Signals struct {
	Neighbors schema.RankedNeighbors

	// Distances is the full distance set, used by multiple_hits to count
	// references within the error bound of the closest hit.
	Distances []schema.DistanceRecord

	// GenomeSize is the externally estimated genome size in bases.
	GenomeSize float64

	// ErrorBound is the mash distance error bound for the configured k-mer
	// size at 99% confidence.
	ErrorBound float64
}

type stage struct {
	name schema.CheckName
	// extended stages are forced to SKIPPED when extended QC is disabled.
	extended bool
	run      func(Signals, config.Config) schema.CheckResult
}

// stages is the pipeline, in evaluation order. Must agree with
// schema.CheckOrder.
var stages = []stage{
	{schema.CheckSpecies, false, checkSpecies},
	{schema.CheckGenomeSize, true, checkGenomeSize},
	{schema.CheckOtherTaxonGroup, false, checkOtherTaxonGroup},
	{schema.CheckPossibleNewSubgroup, true, checkPossibleNewSubgroup},
	{schema.CheckMultipleHits, true, checkMultipleHits},
}

// Run evaluates the pipeline over sig and returns one verdict per check.
func Run(sig Signals, cfg config.Config) map[schema.CheckName]schema.CheckResult {
	checks := make(map[schema.CheckName]schema.CheckResult, len(stages))
	gateTripped := false
	for _, st := range stages {
		switch {
		case gateTripped:
			checks[st.name] = schema.CheckResult{Verdict: schema.VerdictSkipped}
		case cfg.NoQC && st.extended:
			checks[st.name] = schema.CheckResult{Verdict: schema.VerdictSkipped}
		default:
			res := st.run(sig, cfg)
			checks[st.name] = res
			if st.name == schema.CheckSpecies && res.Verdict == schema.VerdictFail {
				gateTripped = true
			}
		}
	}
	return checks
}

func checkSpecies(sig Signals, cfg config.Config) schema.CheckResult {
	d := sig.Neighbors.Closest.Distance
	if d > cfg.NonCandidaThreshold {
		return schema.CheckResult{
			Verdict: schema.VerdictFail,
			Detail:  fmt.Sprintf("distance %v to closest sample is above threshold", d),
		}
	}
	return schema.CheckResult{Verdict: schema.VerdictPass}
}

func checkGenomeSize(sig Signals, cfg config.Config) schema.CheckResult {
	if sig.GenomeSize < cfg.GenomeSizeRange[0] || sig.GenomeSize > cfg.GenomeSizeRange[1] {
		return schema.CheckResult{
			Verdict: schema.VerdictWarn,
			Detail:  "genome size outside expected range",
		}
	}
	return schema.CheckResult{Verdict: schema.VerdictPass}
}

func checkOtherTaxonGroup(sig Signals, _ config.Config) schema.CheckResult {
	if sig.Neighbors.Closest.Clade == schema.CladeOutgroup {
		return schema.CheckResult{
			Verdict: schema.VerdictWarn,
			Detail:  fmt.Sprintf("outgroup reference %s as closest sample", sig.Neighbors.Closest.ID),
		}
	}
	return schema.CheckResult{Verdict: schema.VerdictPass}
}

func checkPossibleNewSubgroup(sig Signals, cfg config.Config) schema.CheckResult {
	n := sig.Neighbors.Closest
	if n.Clade != schema.CladeOutgroup && n.Distance > cfg.HighDistThreshold {
		return schema.CheckResult{
			Verdict: schema.VerdictWarn,
			Detail:  fmt.Sprintf("distance %v to closest sample is above threshold", n.Distance),
		}
	}
	return schema.CheckResult{Verdict: schema.VerdictPass}
}

func checkMultipleHits(sig Signals, _ config.Config) schema.CheckResult {
	n := WithinErrorBound(sig)
	if n > 0 {
		return schema.CheckResult{
			Verdict: schema.VerdictWarn,
			Detail:  fmt.Sprintf("%d sample(s) within error bound", n),
		}
	}
	return schema.CheckResult{Verdict: schema.VerdictPass}
}

// WithinErrorBound counts references other than the closest hit whose
// distance gap to the closest hit is within the error bound, inclusive.
// A nonzero count means the top hits are statistically indistinguishable:
// the second-closest reference always has the smallest gap, so this is
// equivalent to the gap test on the ranked pair.
func WithinErrorBound(sig Signals) int {
	count := 0
	for _, rec := range sig.Distances {
		if rec.ReferenceID == sig.Neighbors.Closest.ID {
			continue
		}
		if rec.Distance-sig.Neighbors.Closest.Distance <= sig.ErrorBound {
			count++
		}
	}
	return count
}

// AssignClade derives the predicted clade from the species gate, the outgroup
// check and the closest reference. Runs alongside the pipeline; it is not a
// QC stage.
func AssignClade(checks map[schema.CheckName]schema.CheckResult, neighbors schema.RankedNeighbors) string {
	if checks[schema.CheckSpecies].Verdict == schema.VerdictFail {
		return schema.LabelNotTargetTaxon
	}
	if checks[schema.CheckOtherTaxonGroup].Verdict == schema.VerdictWarn {
		return schema.LabelOtherSpecies
	}
	return neighbors.Closest.Clade
}

// Aggregate folds the per-check verdicts into the overall decision:
// FAIL if any check failed, else WARN if any warned, else PASS. SKIPPED
// checks are ignored. One FAIL always dominates any number of WARNs.
func Aggregate(checks map[schema.CheckName]schema.CheckResult) schema.Verdict {
	overall := schema.VerdictPass
	for _, res := range checks {
		switch res.Verdict {
		case schema.VerdictFail:
			return schema.VerdictFail
		case schema.VerdictWarn:
			overall = schema.VerdictWarn
		}
	}
	return overall
}

// BuildResult assembles the immutable ClassificationResult for one sample.
func BuildResult(sampleName string, sig Signals, cfg config.Config) schema.ClassificationResult {
	checks := Run(sig, cfg)

	res := schema.ClassificationResult{
		SampleName:      sampleName,
		PredictedClade:  AssignClade(checks, sig.Neighbors),
		ClosestRef:      sig.Neighbors.Closest.ID,
		ClosestDistance: sig.Neighbors.Closest.Distance,
		Checks:          checks,
		Overall:         Aggregate(checks),
	}
	if checks[schema.CheckGenomeSize].Verdict != schema.VerdictSkipped {
		res.EstimatedGenomeSize = sig.GenomeSize
	}
	if checks[schema.CheckMultipleHits].Verdict != schema.VerdictSkipped {
		res.ErrorBound = sig.ErrorBound
		res.WithinErrorBound = WithinErrorBound(sig)
	}
	return res
}
