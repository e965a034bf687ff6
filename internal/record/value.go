// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/canonical/rowgraph/rowset"
)

// Value is a single field of a Record: a column type, and either null or a
// value in the Go representation of that type. Values of TypeUnknown hold
// whatever the driver returned.
type Value struct {
	typ  rowset.TypeID
	v    any
	null bool
}

// Null returns a null Value of type t.
func Null(t rowset.TypeID) Value {
	return Value{typ: t, null: true}
}

// Type returns the column type of the value.
func (v Value) Type() rowset.TypeID {
	return v.typ
}

func (v Value) IsNull() bool {
	return v.null
}

// Interface returns the value, or nil if it is null.
func (v Value) Interface() any {
	if v.null {
		return nil
	}
	return v.v
}

func (v Value) Bool() bool {
	b, _ := v.v.(bool)
	return b
}

func (v Value) Int64() int64 {
	n, _ := v.v.(int64)
	return n
}

func (v Value) Float64() float64 {
	f, _ := v.v.(float64)
	return f
}

func (v Value) Bytes() []byte {
	b, _ := v.v.([]byte)
	return b
}

func (v Value) Time() time.Time {
	t, _ := v.v.(time.Time)
	return t
}

func (v Value) Decimal() decimal.Decimal {
	d, _ := v.v.(decimal.Decimal)
	return d
}

func (v Value) UUID() uuid.UUID {
	u, _ := v.v.(uuid.UUID)
	return u
}

// String returns the value formatted for display. Null values are shown as
// NULL.
func (v Value) String() string {
	if v.null {
		return "NULL"
	}
	switch x := v.v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v.v)
}
