// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package assemble

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/canonical/rowgraph/internal/convert"
	"github.com/canonical/rowgraph/internal/errs"
	"github.com/canonical/rowgraph/internal/record"
	"github.com/canonical/rowgraph/internal/typeinfo"
	"github.com/canonical/rowgraph/rowset"
)

var (
	recordPtrType   = reflect.TypeOf((*record.Record)(nil))
	recordsType     = reflect.TypeOf([]*record.Record(nil))
	valuerInterface = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	bytesType       = reflect.TypeOf([]byte(nil))
)

// table is one materialized list taking part in assembly. It is either a
// slice of structs (or pointers to structs) described by a Model, or a
// slice of records sharing a Layout.
type table struct {
	index int
	value reflect.Value

	// Struct tables.
	model *typeinfo.Model
	elem  reflect.Type

	// Record tables. layout is nil when there are no records.
	records []*record.Record
	layout  *record.Layout
}

func newTable(cache *typeinfo.Cache, index int, list any) (*table, error) {
	v := reflect.ValueOf(list)
	if v.Kind() != reflect.Slice {
		return nil, &errs.MetadataError{Shape: fmt.Sprintf("%T", list),
			Reason: fmt.Sprintf("table %d: need slice of structs or records", index)}
	}
	t := &table{index: index, value: v, elem: v.Type().Elem()}

	if v.Type() == recordsType {
		t.records = list.([]*record.Record)
		for i, r := range t.records {
			if r == nil {
				return nil, fmt.Errorf("table %d: record %d is nil", index, i)
			}
			if t.layout == nil {
				t.layout = r.Layout()
			} else if r.Layout() != t.layout {
				return nil, &errs.MetadataError{Shape: t.layout.Name(),
					Reason: fmt.Sprintf("table %d: record %d has a different layout", index, i)}
			}
		}
		return t, nil
	}

	shape := t.elem
	if shape.Kind() == reflect.Pointer {
		shape = shape.Elem()
		for i := 0; i < v.Len(); i++ {
			if v.Index(i).IsNil() {
				return nil, fmt.Errorf("table %d: element %d is nil", index, i)
			}
		}
	}
	model, err := cache.Get(shape)
	if err != nil {
		return nil, err
	}
	t.model = model
	return t, nil
}

func (t *table) isRecords() bool {
	return t.model == nil
}

func (t *table) len() int {
	return t.value.Len()
}

func (t *table) name() string {
	if t.isRecords() {
		if t.layout == nil {
			return fmt.Sprintf("table %d", t.index)
		}
		return t.layout.Name()
	}
	return t.model.Name()
}

// shape returns the struct type of a struct table.
func (t *table) shape() reflect.Type {
	return t.model.Type
}

// joinKey locates the named join property of the table.
type joinKey struct {
	ordinal int
	goType  reflect.Type
	id      rowset.TypeID

	// normalize is set when keys must be converted to the canonical
	// representation of id before comparison.
	normalize bool
}

func (t *table) joinKey(name string) (joinKey, string, bool) {
	if t.isRecords() {
		i, ok := t.layout.Field(name)
		if !ok {
			return joinKey{}, fmt.Sprintf("%s has no field %q", t.name(), name), false
		}
		return joinKey{ordinal: i, id: t.layout.Fields()[i].Type}, "", true
	}
	i, ok := t.model.Ordinal(name)
	if !ok {
		return joinKey{}, fmt.Sprintf("%s has no property %q", t.name(), name), false
	}
	p := t.model.Properties[i]
	if p.Collection {
		return joinKey{}, fmt.Sprintf("property %q of %s is a collection", name, t.name()), false
	}
	goType := p.GoType
	if goType.Kind() == reflect.Pointer {
		goType = goType.Elem()
	}
	if !goType.Comparable() && goType != bytesType && !goType.Implements(valuerInterface) {
		return joinKey{}, fmt.Sprintf("property %q of %s is not comparable", name, t.name()), false
	}
	return joinKey{ordinal: i, goType: goType, id: p.Type}, "", true
}

// typeName describes the type of a join key for error messages.
func (k joinKey) typeName() string {
	if k.goType != nil {
		return k.goType.String()
	}
	return k.id.String()
}

// keyAt returns the join key of element i. ok is false for null keys,
// which never match. Decimals are compared by their string form and times
// by their instant.
func (t *table) keyAt(k joinKey, i int) (key any, ok bool, err error) {
	var v any
	if t.isRecords() {
		v = t.records[i].At(k.ordinal).Interface()
	} else {
		v = t.model.Accessor().Get(t.value.Index(i), k.ordinal)
		if valuer, isValuer := v.(driver.Valuer); isValuer {
			if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil, false, nil
			}
			if v, err = valuer.Value(); err != nil {
				return nil, false, err
			}
		}
	}
	if rowset.IsNull(v) {
		return nil, false, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		v = rv.Elem().Interface()
	}
	if k.normalize {
		if v, err = convert.Value(v, k.id); err != nil {
			return nil, false, err
		}
	}
	switch x := v.(type) {
	case []byte:
		if x == nil {
			return nil, false, nil
		}
		return string(x), true, nil
	case decimal.Decimal:
		return x.String(), true, nil
	case time.Time:
		return x.Round(0).UTC(), true, nil
	}
	if !reflect.TypeOf(v).Comparable() {
		return nil, false, fmt.Errorf("key of type %T is not comparable", v)
	}
	return v, true, nil
}

// element returns element i of a struct table as a value of type want,
// taking its address or dereferencing it as needed.
func (t *table) element(i int, want reflect.Type) reflect.Value {
	v := t.value.Index(i)
	switch {
	case v.Type() == want:
		return v
	case want.Kind() == reflect.Pointer:
		return v.Addr()
	default:
		return v.Elem()
	}
}
