// Package report renders classification results as the tab-separated report
// consumed by downstream surveillance pipelines. The column set and verdict
// wording are a stable contract; no cell is ever rendered empty.
package report

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/avansant/cladecall/internal/schema"
)

// TSVHeader is the canonical report header.
const TSVHeader = "Sample\tClade\tMash_distance_from_closest_reference\tQC_decision\t" +
	"QC_species\tQC_other_Candida\tQC_genome_size\tQC_multiple_hits\tQC_high_distance"

// checkColumns maps report columns (after the decision column) to pipeline
// checks, in header order.
var checkColumns = []schema.CheckName{
	schema.CheckSpecies,
	schema.CheckOtherTaxonGroup,
	schema.CheckGenomeSize,
	schema.CheckMultipleHits,
	schema.CheckPossibleNewSubgroup,
}

// RenderTSV renders a header plus one row per result.
func RenderTSV(results []schema.ClassificationResult) string {
	var sb strings.Builder
	sb.WriteString(TSVHeader)
	sb.WriteByte('\n')
	for _, res := range results {
		sb.WriteString(renderRow(res))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func renderRow(res schema.ClassificationResult) string {
	cols := []string{
		cell(res.SampleName),
		cell(res.PredictedClade),
		cell(strconv.FormatFloat(res.ClosestDistance, 'g', -1, 64)),
		cell(string(res.Overall)),
	}
	for _, name := range checkColumns {
		cols = append(cols, renderCheck(res.Checks[name]))
	}
	return strings.Join(cols, "\t")
}

// renderCheck renders a verdict cell, e.g. "PASS" or
// "WARN: genome size outside expected range".
func renderCheck(cr schema.CheckResult) string {
	if cr.Verdict == "" {
		return schema.Placeholder
	}
	if cr.Detail == "" {
		return string(cr.Verdict)
	}
	return fmt.Sprintf("%s: %s", cr.Verdict, cr.Detail)
}

// cell substitutes the placeholder for empty values. Downstream parsers
// treat an empty field as a column-count error.
func cell(s string) string {
	if s == "" {
		return schema.Placeholder
	}
	return s
}

// WriteFile writes the TSV report for results to path.
func WriteFile(path string, results []schema.ClassificationResult) error {
	if err := os.WriteFile(path, []byte(RenderTSV(results)), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
