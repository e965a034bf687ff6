// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package rowgraph

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/canonical/rowgraph/internal/errs"
	"github.com/canonical/rowgraph/internal/record"
	"github.com/canonical/rowgraph/rowset"
)

// PopulateFunc builds the values of a result from its raw rows. ordinals
// maps the canonical name of every column to its index in a row.
type PopulateFunc[T any] func(rows [][]any, ordinals map[string]int) ([]T, error)

// Populator is implemented by types that read themselves from a row. When
// a pointer to the destination type implements Populator, no metadata is
// built for it and PopulateRow is called once per row on a new value.
type Populator interface {
	PopulateRow(row []any, ordinals map[string]int) error
}

var populatorInterface = reflect.TypeOf((*Populator)(nil)).Elem()

// Materialize returns one T per row of rs, in row order. T is a struct or a
// pointer to a struct. On error no values are returned.
func Materialize[T any](r *Registry, rs *RowSet) ([]T, error) {
	v, err := r.materialize(rs, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return v.Interface().([]T), nil
}

// MaterializeFunc returns the values built by populate from the rows of
// rs. No Registry is involved.
func MaterializeFunc[T any](rs *RowSet, populate PopulateFunc[T]) ([]T, error) {
	if err := validate(rs); err != nil {
		return nil, err
	}
	out, err := populate(rs.Rows, rs.Ordinals())
	if err != nil {
		return nil, fmt.Errorf("cannot materialize %s: %w", tableName(rs), err)
	}
	return out, nil
}

// MaterializeType is the untyped form of Materialize. It returns a []T as
// an any, where T is typ. When typ is nil it returns the []*Record of
// Records.
func (r *Registry) MaterializeType(rs *RowSet, typ reflect.Type) (any, error) {
	if typ == nil {
		records, err := r.Records(rs)
		if err != nil {
			return nil, err
		}
		return records, nil
	}
	v, err := r.materialize(rs, typ)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Records returns one Record per row of rs, with a child collection for each
// name in collections. A column is nullable in the record layout if it is
// declared nullable or holds a NULL in any row.
func (r *Registry) Records(rs *RowSet, collections ...string) ([]*Record, error) {
	if err := validate(rs); err != nil {
		return nil, err
	}
	layout, err := r.layouts.Synthesize(record.Sample(rs), rs.Table, collections)
	if err != nil {
		return nil, fmt.Errorf("cannot materialize %s: %w", tableName(rs), err)
	}
	records, err := layout.Populate(rs)
	if err != nil {
		return nil, fmt.Errorf("cannot materialize %s: %w", tableName(rs), err)
	}
	r.logger.Debug("materialized records",
		zap.String("table", rs.Table),
		zap.Stringer("layout", layout.Key()),
		zap.Int("rows", len(records)),
	)
	return records, nil
}

// materialize returns a []typ holding one value per row of rs.
func (r *Registry) materialize(rs *RowSet, typ reflect.Type) (reflect.Value, error) {
	if err := validate(rs); err != nil {
		return reflect.Value{}, err
	}
	shape := typ
	if shape.Kind() == reflect.Pointer {
		shape = shape.Elem()
	}
	if shape.Kind() == reflect.Pointer {
		err := &errs.MetadataError{Shape: typ.String(), Reason: "need struct or pointer to struct"}
		return reflect.Value{}, fmt.Errorf("cannot materialize %s: %w", tableName(rs), err)
	}

	var out reflect.Value
	var err error
	if reflect.PointerTo(shape).Implements(populatorInterface) {
		out, err = populateRows(rs, typ, shape)
	} else {
		out, err = r.assignRows(rs, typ, shape)
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("cannot materialize %s: %w", tableName(rs), err)
	}
	r.logger.Debug("materialized rows",
		zap.String("table", rs.Table),
		zap.Stringer("type", typ),
		zap.Int("rows", out.Len()),
	)
	return out, nil
}

// instance returns a pointer to element i of out, allocating it first if
// the elements of out are pointers.
func instance(out reflect.Value, i int, pointers bool, shape reflect.Type) reflect.Value {
	if pointers {
		p := reflect.New(shape)
		out.Index(i).Set(p)
		return p
	}
	return out.Index(i).Addr()
}

func populateRows(rs *RowSet, typ, shape reflect.Type) (reflect.Value, error) {
	ordinals := rs.Ordinals()
	out := reflect.MakeSlice(reflect.SliceOf(typ), len(rs.Rows), len(rs.Rows))
	for i, row := range rs.Rows {
		p := instance(out, i, typ != shape, shape)
		if err := p.Interface().(Populator).PopulateRow(row, ordinals); err != nil {
			return reflect.Value{}, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

// assignRows sets the fields of a new value per row from the columns they
// bind to.
func (r *Registry) assignRows(rs *RowSet, typ, shape reflect.Type) (reflect.Value, error) {
	model, err := r.models.Get(shape)
	if err != nil {
		return reflect.Value{}, err
	}
	binding := model.Bind(rs.Columns)
	accessor := model.Accessor()

	out := reflect.MakeSlice(reflect.SliceOf(typ), len(rs.Rows), len(rs.Rows))
	for i, row := range rs.Rows {
		p := instance(out, i, typ != shape, shape)
		for ord, col := range binding {
			if col < 0 {
				continue
			}
			prop := model.Properties[ord]
			value := row[col]
			if rowset.IsNull(value) {
				if !prop.Nullable {
					return reflect.Value{}, &errs.NullAssignmentError{
						Shape:    model.Name(),
						Property: prop.Name,
						Column:   rs.Columns[col].Name,
						Row:      i,
					}
				}
				value = nil
			}
			if err := accessor.Set(p, ord, value); err != nil {
				return reflect.Value{}, &errs.TypeMismatchError{
					Shape:    model.Name(),
					Property: prop.Name,
					Column:   rs.Columns[col].Name,
					Row:      i,
					Want:     prop.GoType.String(),
					Got:      fmt.Sprintf("%T", value),
					Err:      err,
				}
			}
		}
	}
	return out, nil
}

func validate(rs *RowSet) error {
	if rs == nil {
		return fmt.Errorf("cannot materialize: nil row set")
	}
	if err := rs.Validate(); err != nil {
		return fmt.Errorf("cannot materialize: %w", err)
	}
	return nil
}

func tableName(rs *RowSet) string {
	if rs.Table == "" {
		return "rows"
	}
	return fmt.Sprintf("%q", rs.Table)
}
