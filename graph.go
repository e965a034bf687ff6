// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package rowgraph

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/canonical/rowgraph/internal/assemble"
	"github.com/canonical/rowgraph/rowset"
)

// Relationship links table Child into table Parent. The elements of Child
// whose ChildKey equals the ParentKey of a parent element are stored in that
// element's Collection. Keys and collections are named by field or column
// name for structs and by column or collection name for records. Parent and
// Child index the tables passed to Assemble or the row sets passed to Graph.
type Relationship = assemble.Relationship

// Assemble fills the collection fields of the parent tables from their
// child tables. Each table is a []S, []*S or []*Record. Nothing is modified
// when an error is returned. Names on the side of an empty []*Record table
// are not checked, as such a table has no layout.
func Assemble(r *Registry, tables []any, rels []Relationship) error {
	if err := assemble.Assemble(r.models, tables, rels); err != nil {
		return fmt.Errorf("cannot assemble: %w", err)
	}
	r.logger.Debug("assembled tables", zap.Int("tables", len(tables)), zap.Int("relationships", len(rels)))
	return nil
}

// Graph materializes every row set as records and assembles them. Each
// parent row set gets a collection for each relationship it is the parent
// of. The records of sets[i] are returned at index i.
func (r *Registry) Graph(sets []*RowSet, rels []Relationship) ([][]*Record, error) {
	// Out of range and repeated collections are left for Assemble to
	// report.
	type declared struct {
		table      int
		collection string
	}
	collections := make([][]string, len(sets))
	seen := make(map[declared]bool)
	for _, rel := range rels {
		if rel.Parent < 0 || rel.Parent >= len(sets) || rel.Collection == "" {
			continue
		}
		key := declared{rel.Parent, rowset.CanonicalName(rel.Collection)}
		if seen[key] {
			continue
		}
		seen[key] = true
		collections[rel.Parent] = append(collections[rel.Parent], rel.Collection)
	}

	records := make([][]*Record, len(sets))
	tables := make([]any, len(sets))
	for i, rs := range sets {
		recs, err := r.Records(rs, collections[i]...)
		if err != nil {
			return nil, err
		}
		records[i] = recs
		tables[i] = recs
	}
	if err := Assemble(r, tables, rels); err != nil {
		return nil, err
	}
	return records, nil
}
