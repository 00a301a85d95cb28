// Package catalog loads the reference clade configuration: an immutable,
// ordered mapping from reference identifier to clade label. The catalog order
// is the order of the config file, which is also the row order of mash dist
// output against the reference sketch; the nearest-neighbor tie-break depends
// on it.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avansant/cladecall/internal/schema"
)

// Catalog is the reference catalog for one run. Immutable after Load.
type Catalog struct {
	entries []schema.ReferenceEntry
	byID    map[string]int
}

// Load reads a clade config CSV from path. The file has a header row and two
// columns: reference identifier and clade label. Clade may be the "outgroup"
// sentinel for references outside Candida auris.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Parse reads clade config CSV content from r. Exposed so tests can build
// catalogs without files on disk.
func Parse(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("clade config has no data rows: %w", schema.ErrMalformedInput)
	}

	// First row is the header; only column count is checked, names vary
	// between builds of the reference set.
	if len(rows[0]) < 2 {
		return nil, fmt.Errorf("clade config header has %d columns, want at least 2: %w",
			len(rows[0]), schema.ErrMalformedInput)
	}

	c := &Catalog{byID: make(map[string]int)}
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, fmt.Errorf("clade config row %d has %d columns, want at least 2: %w",
				i+2, len(row), schema.ErrMalformedInput)
		}
		id := strings.TrimSpace(row[0])
		clade := strings.TrimSpace(row[1])
		if id == "" || clade == "" {
			return nil, fmt.Errorf("clade config row %d has an empty field: %w",
				i+2, schema.ErrMalformedInput)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("clade config lists reference %q twice: %w",
				id, schema.ErrMalformedInput)
		}
		c.byID[id] = len(c.entries)
		c.entries = append(c.entries, schema.ReferenceEntry{ID: id, Clade: clade})
	}
	return c, nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entry returns the catalog entry at position i in catalog order.
func (c *Catalog) Entry(i int) schema.ReferenceEntry { return c.entries[i] }

// Clade returns the clade label for a reference identifier.
func (c *Catalog) Clade(id string) (string, bool) {
	i, ok := c.byID[id]
	if !ok {
		return "", false
	}
	return c.entries[i].Clade, true
}

// Index returns the catalog-order position of a reference identifier.
func (c *Catalog) Index(id string) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}
