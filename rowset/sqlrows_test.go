// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package rowset

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	. "gopkg.in/check.v1"
)

type sqlRowsSuite struct{}

var _ = Suite(&sqlRowsSuite{})

func (s *sqlRowsSuite) TestFromRowsColumnDefinitions(c *C) {
	db, mock, err := sqlmock.New()
	c.Assert(err, IsNil)
	defer db.Close()

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INTEGER", int64(0)).Nullable(false),
		sqlmock.NewColumn("name").OfType("VARCHAR", "").Nullable(true),
		sqlmock.NewColumn("price").OfType("NUMERIC", "").Nullable(true),
	).AddRow(int64(1), "widget", "9.99").AddRow(int64(2), nil, nil)
	mock.ExpectQuery("SELECT id, name, price FROM products").WillReturnRows(rows)

	sqlRows, err := db.Query("SELECT id, name, price FROM products")
	c.Assert(err, IsNil)

	rs, err := FromRows(sqlRows, "products")
	c.Assert(err, IsNil)
	c.Check(rs.Table, Equals, "products")
	c.Check(rs.Columns, DeepEquals, []Column{
		{Name: "id", Type: TypeInt64, Nullable: false},
		{Name: "name", Type: TypeString, Nullable: true},
		{Name: "price", Type: TypeDecimal, Nullable: true},
	})
	c.Check(rs.Rows, DeepEquals, [][]any{
		{int64(1), "widget", "9.99"},
		{int64(2), nil, nil},
	})
	c.Check(mock.ExpectationsWereMet(), IsNil)
}

func (s *sqlRowsSuite) TestFromRowsNoMetadata(c *C) {
	db, mock, err := sqlmock.New()
	c.Assert(err, IsNil)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRowsWithColumnDefinition(sqlmock.NewColumn("a")))
	sqlRows, err := db.Query("SELECT a FROM t")
	c.Assert(err, IsNil)

	rs, err := FromRows(sqlRows, "t")
	c.Assert(err, IsNil)
	c.Check(rs.Columns, DeepEquals, []Column{{Name: "a", Type: TypeUnknown, Nullable: true}})
	c.Check(rs.Rows, HasLen, 0)
}

func (s *sqlRowsSuite) TestFromRowsIterationError(c *C) {
	db, mock, err := sqlmock.New()
	c.Assert(err, IsNil)
	defer db.Close()

	rows := sqlmock.NewRowsWithColumnDefinition(sqlmock.NewColumn("a")).
		AddRow(int64(1)).
		AddRow(int64(2)).
		RowError(1, errors.New("connection lost"))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)
	sqlRows, err := db.Query("SELECT a FROM t")
	c.Assert(err, IsNil)

	rs, err := FromRows(sqlRows, "t")
	c.Check(err, ErrorMatches, `cannot read rows of "t": connection lost`)
	c.Check(rs, IsNil)
}

func (s *sqlRowsSuite) TestFromRowsNil(c *C) {
	_, err := FromRows(nil, "t")
	c.Check(err, ErrorMatches, "cannot read rows: nil cursor")
}

func (s *sqlRowsSuite) TestFromRowsSQLite(c *C) {
	db, err := sql.Open("sqlite3", ":memory:")
	c.Assert(err, IsNil)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
CREATE TABLE person (
	id integer,
	name text,
	height real
);
INSERT INTO person VALUES (1, 'Fred', 1.8);
INSERT INTO person VALUES (2, NULL, NULL);
`)
	c.Assert(err, IsNil)

	sqlRows, err := db.Query("SELECT id, name, height FROM person ORDER BY id")
	c.Assert(err, IsNil)
	rs, err := FromRows(sqlRows, "person")
	c.Assert(err, IsNil)

	c.Assert(rs.Columns, HasLen, 3)
	c.Check(rs.Columns[0].Type, Equals, TypeInt64)
	c.Check(rs.Columns[1].Type, Equals, TypeString)
	c.Check(rs.Columns[2].Type, Equals, TypeFloat64)
	c.Assert(rs.Rows, HasLen, 2)
	c.Check(rs.Rows[0][0], Equals, int64(1))
	c.Check(fmt.Sprintf("%s", rs.Rows[0][1]), Equals, "Fred")
	c.Check(rs.Rows[0][2], Equals, 1.8)
	c.Check(rs.Rows[1][1], IsNil)
	c.Check(rs.Rows[1][2], IsNil)
}
