// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package rowset

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// FromPgxRows reads all remaining rows of a pgx cursor into a RowSet. The
// PostgreSQL wire protocol carries no nullability, so every column is
// nullable. Numeric and uuid values are converted to decimal.Decimal and
// uuid.UUID. The cursor is always closed.
func FromPgxRows(rows pgx.Rows, table string) (*RowSet, error) {
	if rows == nil {
		return nil, fmt.Errorf("cannot read rows: nil cursor")
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]Column, len(fields))
	for i, fd := range fields {
		columns[i] = Column{
			Name:     fd.Name,
			Type:     typeFromOID(fd.DataTypeOID),
			Nullable: true,
		}
	}

	rs := &RowSet{Table: table, Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("cannot read rows of %q: %w", table, err)
		}
		for i, v := range values {
			values[i] = fromPgxValue(v)
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot read rows of %q: %w", table, err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func typeFromOID(oid uint32) TypeID {
	switch oid {
	case pgtype.BoolOID:
		return TypeBool
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID:
		return TypeInt64
	case pgtype.Float4OID, pgtype.Float8OID:
		return TypeFloat64
	case pgtype.TextOID, pgtype.VarcharOID, pgtype.BPCharOID, pgtype.NameOID,
		pgtype.JSONOID, pgtype.JSONBOID:
		return TypeString
	case pgtype.ByteaOID:
		return TypeBytes
	case pgtype.DateOID, pgtype.TimestampOID, pgtype.TimestamptzOID:
		return TypeTime
	case pgtype.NumericOID:
		return TypeDecimal
	case pgtype.UUIDOID:
		return TypeUUID
	}
	return TypeUnknown
}

// fromPgxValue converts the pgx decoded forms that have no direct
// equivalent in rowgraph.
func fromPgxValue(v any) any {
	switch v := v.(type) {
	case pgtype.Numeric:
		if !v.Valid {
			return nil
		}
		if v.NaN || v.InfinityModifier != pgtype.Finite || v.Int == nil {
			return v
		}
		return decimal.NewFromBigInt(v.Int, v.Exp)
	case [16]byte:
		return uuid.UUID(v)
	}
	return v
}
