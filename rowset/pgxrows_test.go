// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package rowset

import (
	"errors"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	. "gopkg.in/check.v1"
)

// fakePgxRows replays fixed values through the pgx.Rows interface.
type fakePgxRows struct {
	fields []pgconn.FieldDescription
	values [][]any
	pos    int
	err    error
	closed bool
}

var _ pgx.Rows = (*fakePgxRows)(nil)

func (r *fakePgxRows) Close()                                       { r.closed = true }
func (r *fakePgxRows) Err() error                                   { return r.err }
func (r *fakePgxRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakePgxRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakePgxRows) RawValues() [][]byte                          { return nil }
func (r *fakePgxRows) Conn() *pgx.Conn                              { return nil }
func (r *fakePgxRows) Scan(dest ...any) error                       { return errors.New("not supported") }

func (r *fakePgxRows) Next() bool {
	if r.err != nil || r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakePgxRows) Values() ([]any, error) {
	row := r.values[r.pos-1]
	out := make([]any, len(row))
	copy(out, row)
	return out, nil
}

type pgxRowsSuite struct{}

var _ = Suite(&pgxRowsSuite{})

func (s *pgxRowsSuite) TestFromPgxRows(c *C) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	rows := &fakePgxRows{
		fields: []pgconn.FieldDescription{
			{Name: "id", DataTypeOID: pgtype.UUIDOID},
			{Name: "qty", DataTypeOID: pgtype.Int4OID},
			{Name: "price", DataTypeOID: pgtype.NumericOID},
			{Name: "label", DataTypeOID: pgtype.TextOID},
			{Name: "shape", DataTypeOID: 600},
		},
		values: [][]any{
			{[16]byte(id), int32(3), pgtype.Numeric{Int: big.NewInt(1999), Exp: -2, Valid: true}, "spanner", "(1,2)"},
			{[16]byte(id), nil, pgtype.Numeric{}, nil, nil},
		},
	}

	rs, err := FromPgxRows(rows, "stock")
	c.Assert(err, IsNil)
	c.Check(rows.closed, Equals, true)
	c.Check(rs.Columns, DeepEquals, []Column{
		{Name: "id", Type: TypeUUID, Nullable: true},
		{Name: "qty", Type: TypeInt64, Nullable: true},
		{Name: "price", Type: TypeDecimal, Nullable: true},
		{Name: "label", Type: TypeString, Nullable: true},
		{Name: "shape", Type: TypeUnknown, Nullable: true},
	})
	c.Assert(rs.Rows, HasLen, 2)
	c.Check(rs.Rows[0][0], Equals, id)
	c.Check(rs.Rows[0][1], Equals, int32(3))
	price, ok := rs.Rows[0][2].(decimal.Decimal)
	c.Assert(ok, Equals, true)
	c.Check(price.Equal(decimal.RequireFromString("19.99")), Equals, true)
	c.Check(rs.Rows[1][2], IsNil)
}

func (s *pgxRowsSuite) TestFromPgxRowsError(c *C) {
	rows := &fakePgxRows{
		fields: []pgconn.FieldDescription{{Name: "id", DataTypeOID: pgtype.Int8OID}},
		err:    errors.New("broken pipe"),
	}
	rs, err := FromPgxRows(rows, "t")
	c.Check(err, ErrorMatches, `cannot read rows of "t": broken pipe`)
	c.Check(rs, IsNil)
	c.Check(rows.closed, Equals, true)
}
