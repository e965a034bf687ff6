// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package rowgraph

import "github.com/canonical/rowgraph/internal/errs"

// The errors returned by rowgraph wrap one of these types. Use errors.As to
// inspect them.
type (
	// MetadataError reports a destination type or record layout that
	// cannot be used.
	MetadataError = errs.MetadataError

	// TypeMismatchError reports a value, join key or collection element
	// of the wrong type.
	TypeMismatchError = errs.TypeMismatchError

	// NullAssignmentError reports a NULL or absent value for a field that
	// cannot hold one.
	NullAssignmentError = errs.NullAssignmentError

	// RelationshipConfigError reports an invalid relationship.
	RelationshipConfigError = errs.RelationshipConfigError
)
