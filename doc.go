// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package rowgraph turns tabular query results into Go values and stitches
several related results together into an object graph.

It does not talk to a database. A driver (or the adapters in the rowset
package) hands it a RowSet: ordered column descriptors and rows of raw
values. rowgraph hands back typed values, or an error naming the shape,
column and row that failed.

# Basics

To read rows into a struct, the columns are matched against the `db` tags
of its exported fields. Fields without a tag bind to the column named like
the field. Matching ignores case and surrounding quotes.
For example, given the following tagged struct "Person":

	type Person struct {
		ID       int64   `db:"id"`
		Name     string  `db:"full_name"`
		Nickname *string `db:"nickname"`
		Joined   string  `db:"joined" format:"2006-01-02"`
		Pets     []*Pet
	}

Materialize produces one Person per row:

	people, err := rowgraph.Materialize[Person](registry, rs)

Columns with no matching field are ignored and fields with no matching
column keep their zero value. A NULL can only be stored in a field that can
represent it: pointers, interfaces, slices and types implementing
sql.Scanner such as sql.NullString. NULL in any other field is a
NullAssignmentError.

The optional `format` tag applies a format when the field is a string
(time layouts for time values, fmt verbs for everything else) and is the
parse layout when the field is a time.Time. A `db:"-"` tag excludes a field.

# Records

When there is no Go type for a result, Registry.Records returns Records.
A Record holds one typed Value per column, in column order, and any number
of named child collections. Records with the same columns share a Layout,
which is synthesized once and cached under a fingerprint of the columns, the
table name and the collection names.

# Relationships

Slices of structs, of pointers to structs, or of *Record are collection
fields. Assemble fills them from other materialized tables:

	err := rowgraph.Assemble(registry, []any{people, pets}, []rowgraph.Relationship{{
		Parent: 0, Child: 1, ParentKey: "id", ChildKey: "owner_id", Collection: "Pets",
	}})

Join keys must have the same type on both sides. NULL keys never match.
Every parent receives a non-nil collection, empty when nothing matches.
Relationships are validated in full before any parent is modified, and are
applied so that a table receives its own children before it is attached to
a parent.

# Registry

The Registry owns the caches of struct metadata and record layouts. It is
safe for concurrent use. Default returns a process wide Registry; tests and
long running programs with many ad hoc result shapes can create their own
with NewRegistry and bound the number of cached layouts.
*/
package rowgraph
