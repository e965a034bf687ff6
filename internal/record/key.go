// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package record

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/canonical/rowgraph/rowset"
)

// Key identifies a record layout. Equal inputs to Fingerprint always yield
// equal keys.
type Key uint64

func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

// Fingerprint returns the Key of the layout described by the columns, in
// order, the table name and the child collection names, in order. Names are
// compared in their canonical form.
func Fingerprint(columns []rowset.Column, table string, collections []string) Key {
	d := xxhash.New()
	for _, col := range columns {
		d.WriteString(rowset.CanonicalName(col.Name))
		nullable := byte(0)
		if col.Nullable {
			nullable = 1
		}
		d.Write([]byte{0, byte(col.Type), nullable})
	}
	d.Write([]byte{0xff})
	d.WriteString(rowset.CanonicalName(table))
	for _, name := range collections {
		d.Write([]byte{0})
		d.WriteString(rowset.CanonicalName(name))
	}
	return Key(d.Sum64())
}
