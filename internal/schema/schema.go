// Package schema defines the canonical data types shared by all cladecall
// components: verdicts, check names, catalog and distance records, the final
// classification result, and the error taxonomy.
package schema

import "errors"

// Verdict is the outcome of a single QC check, or of the aggregated decision.
type Verdict string

const (
	VerdictPass    Verdict = "PASS"
	VerdictWarn    Verdict = "WARN"
	VerdictFail    Verdict = "FAIL"
	VerdictSkipped Verdict = "SKIPPED"
)

// CheckName identifies one QC pipeline stage.
type CheckName string

const (
	CheckSpecies             CheckName = "species"
	CheckGenomeSize          CheckName = "genome_size"
	CheckOtherTaxonGroup     CheckName = "other_taxon_group"
	CheckPossibleNewSubgroup CheckName = "possible_new_subgroup"
	CheckMultipleHits        CheckName = "multiple_hits"
)

// CheckOrder is the fixed evaluation order of the QC pipeline. The species
// gate runs first; a FAIL there short-circuits everything after it.
var CheckOrder = []CheckName{
	CheckSpecies,
	CheckGenomeSize,
	CheckOtherTaxonGroup,
	CheckPossibleNewSubgroup,
	CheckMultipleHits,
}

// CladeOutgroup is the sentinel clade label for catalog entries that are not
// Candida auris.
const CladeOutgroup = "outgroup"

// Predicted-clade sentinels. LabelNotTargetTaxon is emitted when the species
// gate fails; LabelOtherSpecies when the closest reference is an outgroup.
const (
	LabelNotTargetTaxon = "not Candida auris"
	LabelOtherSpecies   = "other Candida/CUG-Ser1 clade sp."
)

// Placeholder is rendered for any report field that would otherwise be empty.
const Placeholder = "-"

// ReferenceEntry is one catalog entry: a reference identifier and its clade.
type ReferenceEntry struct {
	ID    string
	Clade string
}

// DistanceRecord is one mash distance measurement between the query sample and
// a catalog reference. Distance is bounded in [0, 1].
type DistanceRecord struct {
	ReferenceID string
	Distance    float64
}

// Neighbor is a distance record joined with the clade of its reference.
type Neighbor struct {
	ID       string
	Clade    string
	Distance float64
}

// RankedNeighbors holds the closest and second-closest references for one
// query. Invariant: Closest.Distance <= SecondClosest.Distance; ties resolve
// to the record appearing earliest in catalog order.
type RankedNeighbors struct {
	Closest       Neighbor
	SecondClosest Neighbor
}

// CheckResult is the verdict of one QC check plus an optional human-readable
// detail (e.g. "genome size outside expected range"). Detail is empty for
// PASS and SKIPPED.
type CheckResult struct {
	Verdict Verdict
	Detail  string
}

// ClassificationResult is the final output for one sample. It is constructed
// once by the aggregator and never mutated afterwards.
type ClassificationResult struct {
	SampleName      string
	PredictedClade  string
	ClosestRef      string
	ClosestDistance float64

	// EstimatedGenomeSize is in bases; zero when extended QC is disabled.
	EstimatedGenomeSize float64
	// ErrorBound is the mash distance error bound used by the multiple_hits
	// check; zero when that check was skipped.
	ErrorBound float64
	// WithinErrorBound counts references whose distance gap to the closest
	// hit is within ErrorBound.
	WithinErrorBound int

	Checks  map[CheckName]CheckResult
	Overall Verdict
}

// Error taxonomy. Wrap these with fmt.Errorf("...: %w", Err...) so callers
// can classify failures with errors.Is.
var (
	// ErrConfiguration marks invalid thresholds or ranges. Fatal for the run,
	// surfaced before any classification is attempted.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMalformedInput marks distance-engine output that does not cover the
	// catalog or contains out-of-range values. Fatal for the current sample.
	ErrMalformedInput = errors.New("malformed input")

	// ErrDependencyUnavailable marks an external collaborator (mash) that
	// cannot be invoked. Fatal for the current sample.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
