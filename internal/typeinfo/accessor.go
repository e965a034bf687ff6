// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"reflect"

	"github.com/canonical/rowgraph/internal/convert"
	"github.com/canonical/rowgraph/rowset"
)

// Accessor gets and sets the properties of a struct type by ordinal. The
// ordinals are the indexes of Model.Properties. Name resolution happens
// once, when the Accessor is built.
type Accessor struct {
	fields  []int
	setters []setter
}

type setter func(field reflect.Value, value any) error

func newAccessor(props []*Property) *Accessor {
	a := &Accessor{
		fields:  make([]int, len(props)),
		setters: make([]setter, len(props)),
	}
	for i, p := range props {
		a.fields[i] = p.index
		a.setters[i] = newSetter(p)
	}
	return a
}

func newSetter(p *Property) setter {
	if p.Collection {
		return func(field reflect.Value, value any) error {
			v := reflect.ValueOf(value)
			if !v.IsValid() {
				field.Set(reflect.Zero(field.Type()))
				return nil
			}
			if !v.Type().AssignableTo(field.Type()) {
				return fmt.Errorf("cannot assign %s to %s", v.Type(), field.Type())
			}
			field.Set(v)
			return nil
		}
	}
	format := p.Format
	return func(field reflect.Value, value any) error {
		if rowset.IsNull(value) {
			return convert.SetNull(field)
		}
		return convert.Assign(field, value, format)
	}
}

// Len returns the number of properties reachable through the accessor.
func (a *Accessor) Len() int {
	return len(a.fields)
}

// Get returns the value of the property at ordinal in instance, which is a
// struct or a pointer to one.
func (a *Accessor) Get(instance reflect.Value, ordinal int) any {
	return reflect.Indirect(instance).Field(a.fields[ordinal]).Interface()
}

// Field returns the settable field of the property at ordinal in instance.
// instance must be addressable or a pointer.
func (a *Accessor) Field(instance reflect.Value, ordinal int) reflect.Value {
	return reflect.Indirect(instance).Field(a.fields[ordinal])
}

// Set coerces value to the type of the property at ordinal and stores it in
// instance, which must be addressable or a pointer. Null values are stored
// as the null representation of the property's type.
func (a *Accessor) Set(instance reflect.Value, ordinal int, value any) error {
	field := reflect.Indirect(instance).Field(a.fields[ordinal])
	if !field.CanSet() {
		return fmt.Errorf("internal error: cannot set field %d of %s", a.fields[ordinal], instance.Type())
	}
	return a.setters[ordinal](field, value)
}

// SetNull stores the null representation of the property at ordinal.
func (a *Accessor) SetNull(instance reflect.Value, ordinal int) error {
	return a.Set(instance, ordinal, nil)
}
