// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package errs defines the error kinds reported by rowgraph. They are
// re-exported by the root package.
package errs

import (
	"fmt"
	"strings"
)

// MetadataError reports a destination shape that cannot be used for
// materialization.
type MetadataError struct {
	Shape    string
	Property string
	Reason   string
}

func (e *MetadataError) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("invalid shape %q: %s", e.Shape, e.Reason)
	}
	return fmt.Sprintf("invalid shape %q: property %q: %s", e.Shape, e.Property, e.Reason)
}

// TypeMismatchError reports a value that cannot be converted to the type
// expected at its destination. Row is -1 when no row is involved.
type TypeMismatchError struct {
	Shape    string
	Property string
	Column   string
	Row      int
	Want     string
	Got      string
	Err      error
}

func (e *TypeMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("type mismatch")
	if e.Shape != "" {
		fmt.Fprintf(&b, " in %q", e.Shape)
	}
	if e.Row >= 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if e.Property != "" {
		fmt.Fprintf(&b, ": property %q", e.Property)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " (column %q)", e.Column)
	}
	fmt.Fprintf(&b, ": want %s, got %s", e.Want, e.Got)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %s", e.Err)
	}
	return b.String()
}

func (e *TypeMismatchError) Unwrap() error {
	return e.Err
}

// NullAssignmentError reports a NULL or absent value for a property that
// cannot hold one.
type NullAssignmentError struct {
	Shape    string
	Property string
	Column   string
	Row      int
}

func (e *NullAssignmentError) Error() string {
	return fmt.Sprintf("cannot assign null from column %q at row %d to non-nullable property %q of %q",
		e.Column, e.Row, e.Property, e.Shape)
}

// RelationshipConfigError reports an invalid or conflicting relationship
// descriptor. Index is the position of the descriptor in the caller's list.
type RelationshipConfigError struct {
	Index  int
	Reason string
}

func (e *RelationshipConfigError) Error() string {
	return fmt.Sprintf("invalid relationship %d: %s", e.Index, e.Reason)
}
