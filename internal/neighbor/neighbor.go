// Package neighbor selects the closest and second-closest references from a
// distance set. The selection is a single pass over the catalog with a
// deterministic tie-break, so repeated runs over the same input always pick
// the same reference even when floating-point distances collide exactly.
package neighbor

import (
	"fmt"

	"github.com/avansant/cladecall/internal/catalog"
	"github.com/avansant/cladecall/internal/schema"
)

// Rank validates the distance set against the catalog and returns the ranked
// closest and second-closest neighbors.
//
// The distance set must contain exactly one in-range record per catalog
// entry; anything else is malformed engine output. Ties on the minimum
// distance resolve to the reference earliest in catalog order, regardless of
// the order records arrive in.
//
// A single-entry catalog has no runner-up; SecondClosest is then a
// maximal-distance sentinel so the gap check stays well defined.
func Rank(records []schema.DistanceRecord, cat *catalog.Catalog) (schema.RankedNeighbors, error) {
	var ranked schema.RankedNeighbors

	if len(records) == 0 {
		return ranked, fmt.Errorf("neighbor: empty distance set: %w", schema.ErrMalformedInput)
	}
	if len(records) != cat.Len() {
		return ranked, fmt.Errorf("neighbor: distance set has %d records for %d catalog entries: %w",
			len(records), cat.Len(), schema.ErrMalformedInput)
	}

	// Index records by reference, rejecting strays, duplicates and
	// out-of-range distances.
	dists := make(map[string]float64, len(records))
	for _, rec := range records {
		if _, ok := cat.Index(rec.ReferenceID); !ok {
			return ranked, fmt.Errorf("neighbor: distance record for unknown reference %q: %w",
				rec.ReferenceID, schema.ErrMalformedInput)
		}
		if _, dup := dists[rec.ReferenceID]; dup {
			return ranked, fmt.Errorf("neighbor: duplicate distance record for reference %q: %w",
				rec.ReferenceID, schema.ErrMalformedInput)
		}
		if rec.Distance < 0 || rec.Distance > 1 {
			return ranked, fmt.Errorf("neighbor: distance %v for reference %q outside [0,1]: %w",
				rec.Distance, rec.ReferenceID, schema.ErrMalformedInput)
		}
		dists[rec.ReferenceID] = rec.Distance
	}

	// Scan in catalog order. Strict less-than keeps the first-seen record on
	// ties, which is the reproducibility contract.
	bestIdx, secondIdx := -1, -1
	for i := 0; i < cat.Len(); i++ {
		d := dists[cat.Entry(i).ID]
		switch {
		case bestIdx == -1 || d < dists[cat.Entry(bestIdx).ID]:
			secondIdx = bestIdx
			bestIdx = i
		case secondIdx == -1 || d < dists[cat.Entry(secondIdx).ID]:
			secondIdx = i
		}
	}

	ranked.Closest = toNeighbor(cat.Entry(bestIdx), dists)
	if secondIdx >= 0 {
		ranked.SecondClosest = toNeighbor(cat.Entry(secondIdx), dists)
	} else {
		ranked.SecondClosest = schema.Neighbor{Distance: 1}
	}
	return ranked, nil
}

func toNeighbor(e schema.ReferenceEntry, dists map[string]float64) schema.Neighbor {
	return schema.Neighbor{ID: e.ID, Clade: e.Clade, Distance: dists[e.ID]}
}
