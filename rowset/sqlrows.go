// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package rowset

import (
	"database/sql"
	"fmt"
)

// FromRows reads all remaining rows of a database/sql cursor into a RowSet.
// Column types come from the driver's database type names. A driver that
// cannot report nullability is taken to allow NULL. The cursor is always
// closed.
func FromRows(rows *sql.Rows, table string) (rs *RowSet, err error) {
	if rows == nil {
		return nil, fmt.Errorf("cannot read rows: nil cursor")
	}
	defer func() {
		cerr := rows.Close()
		if err == nil {
			err = cerr
		}
		if err != nil {
			rs = nil
			err = fmt.Errorf("cannot read rows of %q: %w", table, err)
		}
	}()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	columns := make([]Column, len(colTypes))
	for i, ct := range colTypes {
		nullable, ok := ct.Nullable()
		columns[i] = Column{
			Name:     ct.Name(),
			Type:     ParseTypeName(ct.DatabaseTypeName()),
			Nullable: nullable || !ok,
		}
	}

	rs = &RowSet{Table: table, Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, rs.Validate()
}
