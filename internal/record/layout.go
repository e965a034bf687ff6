// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package record

import (
	"fmt"

	"github.com/canonical/rowgraph/internal/convert"
	"github.com/canonical/rowgraph/internal/errs"
	"github.com/canonical/rowgraph/rowset"
)

// Field is one column of a record layout.
type Field struct {
	Name     string
	Key      string
	Type     rowset.TypeID
	Nullable bool
}

// Layout describes the shape shared by records materialized from row sets
// with the same columns. Layouts are immutable and are shared between
// goroutines.
type Layout struct {
	key         Key
	table       string
	fields      []Field
	collections []string

	byKey     map[string]int
	collByKey map[string]int
}

func newLayout(key Key, columns []rowset.Column, table string, collections []string) *Layout {
	l := &Layout{
		key:         key,
		table:       table,
		fields:      make([]Field, len(columns)),
		collections: append([]string(nil), collections...),
		byKey:       make(map[string]int, len(columns)),
		collByKey:   make(map[string]int, len(collections)),
	}
	for i, col := range columns {
		k := rowset.CanonicalName(col.Name)
		l.fields[i] = Field{Name: col.Name, Key: k, Type: col.Type, Nullable: col.Nullable}
		l.byKey[k] = i
	}
	for i, name := range collections {
		l.collByKey[rowset.CanonicalName(name)] = i
	}
	return l
}

// validate checks the inputs of a layout before it is built.
func validate(columns []rowset.Column, table string, collections []string) error {
	shape := shapeName(table)
	if len(columns) == 0 {
		return &errs.MetadataError{Shape: shape, Reason: "no columns"}
	}
	seen := make(map[string]string, len(columns)+len(collections))
	for i, col := range columns {
		if col.Name == "" {
			return &errs.MetadataError{Shape: shape, Reason: fmt.Sprintf("column %d has no name", i)}
		}
		k := rowset.CanonicalName(col.Name)
		if prev, ok := seen[k]; ok {
			return &errs.MetadataError{Shape: shape, Property: col.Name, Reason: fmt.Sprintf("name conflicts with %q", prev)}
		}
		seen[k] = col.Name
	}
	for _, name := range collections {
		if name == "" {
			return &errs.MetadataError{Shape: shape, Reason: "empty collection name"}
		}
		k := rowset.CanonicalName(name)
		if prev, ok := seen[k]; ok {
			return &errs.MetadataError{Shape: shape, Property: name, Reason: fmt.Sprintf("name conflicts with %q", prev)}
		}
		seen[k] = name
	}
	return nil
}

func shapeName(table string) string {
	if table == "" {
		return "record"
	}
	return table
}

// Key returns the fingerprint the layout was built from.
func (l *Layout) Key() Key {
	return l.key
}

// Name returns the name used for the layout in error messages.
func (l *Layout) Name() string {
	return shapeName(l.table)
}

func (l *Layout) Table() string {
	return l.table
}

// Fields returns the fields of the layout in column order. The returned
// slice must not be modified.
func (l *Layout) Fields() []Field {
	return l.fields
}

// Field returns the ordinal of the named field.
func (l *Layout) Field(name string) (int, bool) {
	i, ok := l.byKey[rowset.CanonicalName(name)]
	return i, ok
}

// Collections returns the names of the child collections of the layout.
func (l *Layout) Collections() []string {
	return l.collections
}

// Collection returns the ordinal of the named child collection.
func (l *Layout) Collection(name string) (int, bool) {
	i, ok := l.collByKey[rowset.CanonicalName(name)]
	return i, ok
}

// Populate is the default population routine of the layout. It converts
// every row of rs into a Record, coercing each value to the canonical Go
// representation of its field type. The columns of rs must be those the
// layout was synthesized from.
func (l *Layout) Populate(rs *rowset.RowSet) ([]*Record, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	if len(rs.Columns) != len(l.fields) {
		return nil, &errs.MetadataError{Shape: l.Name(),
			Reason: fmt.Sprintf("layout has %d fields, row set has %d columns", len(l.fields), len(rs.Columns))}
	}
	for i, col := range rs.Columns {
		if rowset.CanonicalName(col.Name) != l.fields[i].Key {
			return nil, &errs.MetadataError{Shape: l.Name(), Property: l.fields[i].Name,
				Reason: fmt.Sprintf("row set has column %q in its place", col.Name)}
		}
	}

	records := make([]*Record, len(rs.Rows))
	for r, row := range rs.Rows {
		rec := l.newRecord()
		for i, raw := range row {
			f := &l.fields[i]
			if rowset.IsNull(raw) {
				if !f.Nullable {
					return nil, &errs.NullAssignmentError{Shape: l.Name(), Property: f.Name, Column: f.Name, Row: r}
				}
				rec.values[i] = Null(f.Type)
				continue
			}
			v, err := convert.Value(raw, f.Type)
			if err != nil {
				return nil, &errs.TypeMismatchError{
					Shape:    l.Name(),
					Property: f.Name,
					Column:   f.Name,
					Row:      r,
					Want:     f.Type.String(),
					Got:      fmt.Sprintf("%T", raw),
					Err:      err,
				}
			}
			rec.values[i] = Value{typ: f.Type, v: v}
		}
		records[r] = rec
	}
	return records, nil
}

func (l *Layout) newRecord() *Record {
	return &Record{
		layout:   l,
		values:   make([]Value, len(l.fields)),
		children: make([][]*Record, len(l.collections)),
	}
}

// Sample returns a copy of the columns of rs in which every column holding
// a null or absent value in some row is marked nullable.
func Sample(rs *rowset.RowSet) []rowset.Column {
	columns := append([]rowset.Column(nil), rs.Columns...)
	for i := range columns {
		if columns[i].Nullable {
			continue
		}
		for _, row := range rs.Rows {
			if i < len(row) && rowset.IsNull(row[i]) {
				columns[i].Nullable = true
				break
			}
		}
	}
	return columns
}
