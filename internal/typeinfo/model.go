// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"reflect"

	"github.com/canonical/rowgraph/internal/convert"
	"github.com/canonical/rowgraph/internal/errs"
	"github.com/canonical/rowgraph/internal/record"
	"github.com/canonical/rowgraph/rowset"
)

var recordPtrType = reflect.TypeOf((*record.Record)(nil))

// Property describes a single participating field of a struct type.
type Property struct {
	// Name is the name of the struct field.
	Name string

	// Key is the canonical form of Name.
	Key string

	// Column is the name of the column the property binds to. It is empty
	// for collection properties.
	Column string

	// ColumnKey is the canonical form of Column.
	ColumnKey string

	// Type is the column type the property holds. It is TypeUnknown for
	// interfaces, unrecognised scalars and collections.
	Type rowset.TypeID

	GoType   reflect.Type
	Nullable bool
	Gettable bool
	Settable bool

	// Format is the format string from the field's "format" tag.
	Format string

	// Collection is true for slices of nested shapes, which are filled by
	// the relationship assembler rather than from a column.
	Collection bool

	// Elem is the element type of a collection property.
	Elem reflect.Type

	index int
}

// Model is the reflected description of a struct type used as a
// materialization destination. It is immutable once built.
type Model struct {
	Type       reflect.Type
	Properties []*Property

	byKey    map[string]int
	byColumn map[string]int
	accessor *Accessor
}

// Name returns the name used for the type in error messages.
func (m *Model) Name() string {
	return m.Type.String()
}

// Accessor returns the ordinal indexed accessor for the type.
func (m *Model) Accessor() *Accessor {
	return m.accessor
}

// Ordinal returns the ordinal of the property with the given field or
// column name. Field names take precedence.
func (m *Model) Ordinal(name string) (int, bool) {
	key := rowset.CanonicalName(name)
	if i, ok := m.byKey[key]; ok {
		return i, true
	}
	i, ok := m.byColumn[key]
	return i, ok
}

// ColumnOrdinal returns the ordinal of the property bound to the column.
func (m *Model) ColumnOrdinal(column string) (int, bool) {
	i, ok := m.byColumn[rowset.CanonicalName(column)]
	return i, ok
}

// Bind returns, for each column-bound property in ordinal order, the index
// of its column in columns, or -1 if there is no such column.
func (m *Model) Bind(columns []rowset.Column) []int {
	ords := make(map[string]int, len(columns))
	for i, col := range columns {
		key := rowset.CanonicalName(col.Name)
		if _, ok := ords[key]; !ok {
			ords[key] = i
		}
	}
	binding := make([]int, len(m.Properties))
	for i, p := range m.Properties {
		binding[i] = -1
		if p.Collection {
			continue
		}
		if col, ok := ords[p.ColumnKey]; ok {
			binding[i] = col
		}
	}
	return binding
}

// generate produces the Model of the struct type t.
func generate(t reflect.Type) (*Model, error) {
	if t.Kind() != reflect.Struct {
		return nil, &errs.MetadataError{Shape: t.String(), Reason: fmt.Sprintf("need struct, got %s", t.Kind())}
	}
	shape := t.String()
	model := &Model{
		Type:     t,
		byKey:    make(map[string]int),
		byColumn: make(map[string]int),
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, tagged := f.Tag.Lookup("db")
		if tag == "-" {
			continue
		}
		if !f.IsExported() {
			if tagged {
				return nil, &errs.MetadataError{Shape: shape, Property: f.Name, Reason: "field not exported"}
			}
			continue
		}
		if f.Anonymous {
			return nil, &errs.MetadataError{Shape: shape, Property: f.Name, Reason: "embedded fields are not supported"}
		}

		p := &Property{
			Name:     f.Name,
			Key:      rowset.CanonicalName(f.Name),
			GoType:   f.Type,
			Gettable: true,
			Settable: true,
			index:    i,
		}
		if err := classify(p, f); err != nil {
			return nil, &errs.MetadataError{Shape: shape, Property: f.Name, Reason: err.Error()}
		}
		if !p.Collection {
			p.Column = f.Name
			if tagged {
				name, err := parseTag(tag)
				if err != nil {
					return nil, &errs.MetadataError{Shape: shape, Property: f.Name, Reason: err.Error()}
				}
				p.Column = name
			}
			p.ColumnKey = rowset.CanonicalName(p.Column)
		} else if tagged {
			return nil, &errs.MetadataError{Shape: shape, Property: f.Name, Reason: "collection fields cannot bind to a column"}
		}

		if j, ok := model.byKey[p.Key]; ok {
			return nil, &errs.MetadataError{Shape: shape, Property: f.Name,
				Reason: fmt.Sprintf("name conflicts with field %q", model.Properties[j].Name)}
		}
		if p.ColumnKey != "" {
			if j, ok := model.byColumn[p.ColumnKey]; ok {
				return nil, &errs.MetadataError{Shape: shape, Property: f.Name,
					Reason: fmt.Sprintf("column %q is already bound to field %q", p.Column, model.Properties[j].Name)}
			}
			model.byColumn[p.ColumnKey] = len(model.Properties)
		}
		model.byKey[p.Key] = len(model.Properties)
		model.Properties = append(model.Properties, p)
	}

	model.accessor = newAccessor(model.Properties)
	return model, nil
}

// classify fills in the type information of p from the field f, or returns
// why the field cannot participate.
func classify(p *Property, f reflect.StructField) error {
	t := f.Type
	p.Format = f.Tag.Get("format")

	if t.Kind() == reflect.Slice && isShape(t.Elem()) {
		if p.Format != "" {
			return fmt.Errorf("format cannot be applied to a collection")
		}
		p.Collection = true
		p.Elem = t.Elem()
		p.Nullable = true
		return nil
	}

	switch t.Kind() {
	case reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Errorf("unsupported type %s", t)
	case reflect.Slice:
		elem := t.Elem()
		if elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		if !convert.IsScalar(t) && !convert.IsScalar(elem) {
			return fmt.Errorf("unsupported collection type %s", t)
		}
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Pointer || !convert.IsScalar(t.Elem()) {
			return fmt.Errorf("unsupported type %s", t)
		}
	default:
		if !convert.IsScalar(t) {
			return fmt.Errorf("unsupported type %s", t)
		}
	}

	if p.Format != "" && !convert.Formattable(t) {
		return fmt.Errorf("format cannot be applied to %s", t)
	}
	p.Type = convert.TypeOf(t)
	p.Nullable = convert.Nullable(t)
	return nil
}

// isShape reports whether t can be the element type of a collection
// property.
func isShape(t reflect.Type) bool {
	if t == recordPtrType {
		return true
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && !convert.IsScalar(t)
}
