package schema

import (
	"errors"
	"fmt"
	"testing"
)

func TestCheckOrderComplete(t *testing.T) {
	want := map[CheckName]bool{
		CheckSpecies:             false,
		CheckGenomeSize:          false,
		CheckOtherTaxonGroup:     false,
		CheckPossibleNewSubgroup: false,
		CheckMultipleHits:        false,
	}
	for _, name := range CheckOrder {
		seen, ok := want[name]
		if !ok {
			t.Errorf("CheckOrder contains unknown check %q", name)
		}
		if seen {
			t.Errorf("CheckOrder lists %q twice", name)
		}
		want[name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("CheckOrder is missing %q", name)
		}
	}
	if CheckOrder[0] != CheckSpecies {
		t.Errorf("species gate must run first, got %q", CheckOrder[0])
	}
}

func TestErrorSentinelsDistinguishable(t *testing.T) {
	wrapped := fmt.Errorf("loading thresholds: %w", ErrConfiguration)
	if !errors.Is(wrapped, ErrConfiguration) {
		t.Error("wrapped ErrConfiguration not matched by errors.Is")
	}
	if errors.Is(wrapped, ErrMalformedInput) || errors.Is(wrapped, ErrDependencyUnavailable) {
		t.Error("error sentinels are not distinct")
	}
}

func TestSentinelLabelsNonEmpty(t *testing.T) {
	for _, s := range []string{CladeOutgroup, LabelNotTargetTaxon, LabelOtherSpecies, Placeholder} {
		if s == "" {
			t.Error("sentinel label is empty")
		}
	}
}
