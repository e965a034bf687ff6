// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package rowset holds the tabular form in which query results are handed to
// rowgraph: ordered column metadata plus ordered rows of raw values. It also
// contains adapters that read a RowSet from database/sql and pgx cursors.
package rowset

import (
	"fmt"
	"reflect"
	"strings"
)

//go:generate stringer -type=TypeID -trimprefix=Type

// TypeID identifies the declared type of a column or property.
type TypeID int

const (
	TypeUnknown TypeID = iota
	TypeBool
	TypeInt64
	TypeFloat64
	TypeString
	TypeBytes
	TypeTime
	TypeDecimal
	TypeUUID
)

// Column describes a single result column.
type Column struct {
	Name     string
	Type     TypeID
	Nullable bool
}

// RowSet is a single table of query results. Every row holds exactly one
// value per column, in column order. SQL NULL is represented by nil and a
// missing value by Absent.
type RowSet struct {
	Table   string
	Columns []Column
	Rows    [][]any
}

// New returns a validated RowSet.
func New(table string, columns []Column, rows [][]any) (*RowSet, error) {
	rs := &RowSet{Table: table, Columns: columns, Rows: rows}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Validate checks that every column is named and that every row has one
// value per column.
func (rs *RowSet) Validate() error {
	if rs == nil {
		return fmt.Errorf("invalid row set: nil")
	}
	for i, col := range rs.Columns {
		if CanonicalName(col.Name) == "" {
			return fmt.Errorf("invalid row set %q: column %d has no name", rs.Table, i)
		}
	}
	for i, row := range rs.Rows {
		if len(row) != len(rs.Columns) {
			return fmt.Errorf("invalid row set %q: row %d has %d values, expected %d",
				rs.Table, i, len(row), len(rs.Columns))
		}
	}
	return nil
}

// Len returns the number of rows.
func (rs *RowSet) Len() int {
	return len(rs.Rows)
}

// Ordinals maps each canonical column name to its position. When a name is
// repeated the first column wins.
func (rs *RowSet) Ordinals() map[string]int {
	ordinals := make(map[string]int, len(rs.Columns))
	for i, col := range rs.Columns {
		name := CanonicalName(col.Name)
		if _, ok := ordinals[name]; !ok {
			ordinals[name] = i
		}
	}
	return ordinals
}

type absent struct{}

func (absent) String() string { return "<absent>" }

// Absent marks a value that was not supplied at all, as opposed to a SQL
// NULL which is represented by nil.
var Absent any = absent{}

// IsNull reports whether v is a SQL NULL, Absent, or a nil pointer.
func IsNull(v any) bool {
	switch v.(type) {
	case nil, absent:
		return true
	case int64, float64, string, bool, []byte:
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// CanonicalName returns the form in which column and property names are
// compared: surrounding quotes removed and lower case.
func CanonicalName(name string) string {
	name = strings.TrimSpace(name)
	if l := len(name); l >= 2 {
		switch name[0] {
		case '"':
			if name[l-1] == '"' {
				name = name[1 : l-1]
			}
		case '`':
			if name[l-1] == '`' {
				name = name[1 : l-1]
			}
		case '[':
			if name[l-1] == ']' {
				name = name[1 : l-1]
			}
		}
	}
	return strings.ToLower(name)
}

// ParseTypeName maps a database type name, as reported by a driver, to a
// TypeID. Size and precision modifiers are ignored. Unrecognised names map
// to TypeUnknown.
func ParseTypeName(name string) TypeID {
	name = strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.TrimPrefix(name, "UNSIGNED ")
	switch name {
	case "BOOL", "BOOLEAN", "BIT":
		return TypeBool
	case "INT", "INTEGER", "INT2", "INT4", "INT8", "TINYINT", "SMALLINT",
		"MEDIUMINT", "BIGINT", "BIG INT", "SERIAL", "BIGSERIAL":
		return TypeInt64
	case "REAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION":
		return TypeFloat64
	case "TEXT", "VARCHAR", "CHAR", "BPCHAR", "NCHAR", "NVARCHAR", "CHARACTER",
		"CHARACTER VARYING", "CLOB", "STRING", "NAME", "CITEXT", "JSON", "JSONB":
		return TypeString
	case "BLOB", "BYTEA", "BINARY", "VARBINARY":
		return TypeBytes
	case "DATE", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return TypeTime
	case "NUMERIC", "DECIMAL", "MONEY":
		return TypeDecimal
	case "UUID":
		return TypeUUID
	}
	return TypeUnknown
}
