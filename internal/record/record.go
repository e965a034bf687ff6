// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package record

import (
	"fmt"
)

// Record is a row materialized without a static destination type. It holds
// one Value per field of its Layout and one child list per collection.
type Record struct {
	layout   *Layout
	values   []Value
	children [][]*Record
}

func (r *Record) Layout() *Layout {
	return r.layout
}

// Len returns the number of fields in the record.
func (r *Record) Len() int {
	return len(r.values)
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (Value, bool) {
	i, ok := r.layout.Field(name)
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// At returns the value of the field at ordinal i.
func (r *Record) At(i int) Value {
	return r.values[i]
}

// Children returns the records attached to the named collection. The list
// is nil until the collection has been assembled.
func (r *Record) Children(name string) ([]*Record, bool) {
	i, ok := r.layout.Collection(name)
	if !ok {
		return nil, false
	}
	return r.children[i], true
}

// SetChildren replaces the records of the named collection.
func (r *Record) SetChildren(name string, children []*Record) error {
	i, ok := r.layout.Collection(name)
	if !ok {
		return fmt.Errorf("%s has no collection %q", r.layout.Name(), name)
	}
	r.children[i] = children
	return nil
}

// SetChildrenAt replaces the records of the collection at ordinal i of the
// layout's collections.
func (r *Record) SetChildrenAt(i int, children []*Record) {
	r.children[i] = children
}

// Map returns the record as a map from field name to value, with child
// collections as lists of maps. Null values are nil.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values)+len(r.children))
	for i, f := range r.layout.fields {
		m[f.Name] = r.values[i].Interface()
	}
	for i, name := range r.layout.collections {
		children := make([]map[string]any, len(r.children[i]))
		for j, child := range r.children[i] {
			children[j] = child.Map()
		}
		m[name] = children
	}
	return m
}
