// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package assemble links materialized child tables into the collection
// properties of their parents.
package assemble

import (
	"fmt"
	"reflect"

	"github.com/canonical/rowgraph/internal/errs"
	"github.com/canonical/rowgraph/internal/record"
	"github.com/canonical/rowgraph/internal/typeinfo"
	"github.com/canonical/rowgraph/rowset"
)

// Relationship declares that the elements of table Child belong to the
// elements of table Parent whose ParentKey property equals their ChildKey
// property, and are stored in the Collection property of the parent.
type Relationship struct {
	Parent     int
	Child      int
	ParentKey  string
	ChildKey   string
	Collection string
}

// link is a validated relationship.
type link struct {
	index      int
	rel        Relationship
	parent     *table
	child      *table
	collection int

	// keyed is false when either table is an empty record table, in which
	// case the join keys cannot be resolved and no parent has children.
	keyed  bool
	pk, ck joinKey

	parentKeys []any
	hasKey     []bool
	groups     map[any][]int
}

// Assemble attaches the elements of each child table to the collection
// property of the matching parents. Each table is a []S, []*S or
// []*record.Record. Every relationship is validated and every key computed
// before any parent is modified, so an error leaves the tables untouched.
// An empty []*record.Record carries no layout, so keys and collections
// naming it are not checked; there is nothing to attach to or take from it.
func Assemble(cache *typeinfo.Cache, tables []any, rels []Relationship) error {
	ts := make([]*table, len(tables))
	for i, list := range tables {
		t, err := newTable(cache, i, list)
		if err != nil {
			return err
		}
		ts[i] = t
	}

	type target struct {
		table      int
		collection string
	}
	links := make([]*link, len(rels))
	targets := make(map[target]int)
	for i, rel := range rels {
		l, err := resolve(ts, i, rel)
		if err != nil {
			return err
		}
		t := target{table: rel.Parent, collection: rowset.CanonicalName(rel.Collection)}
		if prev, ok := targets[t]; ok {
			return &errs.RelationshipConfigError{Index: i,
				Reason: fmt.Sprintf("collection %q of table %d is already assembled by relationship %d", rel.Collection, rel.Parent, prev)}
		}
		targets[t] = i
		links[i] = l
	}

	order, err := sortLinks(links)
	if err != nil {
		return err
	}

	for _, l := range links {
		if err := l.computeKeys(); err != nil {
			return err
		}
	}
	for _, l := range order {
		l.apply()
	}
	return nil
}

// resolve validates rel against the tables.
func resolve(ts []*table, i int, rel Relationship) (*link, error) {
	configErr := func(format string, a ...any) error {
		return &errs.RelationshipConfigError{Index: i, Reason: fmt.Sprintf(format, a...)}
	}
	if rel.Parent < 0 || rel.Parent >= len(ts) {
		return nil, configErr("parent table %d out of range", rel.Parent)
	}
	if rel.Child < 0 || rel.Child >= len(ts) {
		return nil, configErr("child table %d out of range", rel.Child)
	}
	if rel.Parent == rel.Child {
		return nil, configErr("parent and child are both table %d", rel.Parent)
	}
	parent, child := ts[rel.Parent], ts[rel.Child]
	l := &link{index: i, rel: rel, parent: parent, child: child}

	// Record tables with no records have no layout to check against.
	if parent.isRecords() && parent.layout == nil {
		return l, nil
	}

	if parent.isRecords() {
		ord, ok := parent.layout.Collection(rel.Collection)
		if !ok {
			return nil, configErr("%s has no collection %q", parent.name(), rel.Collection)
		}
		if !child.isRecords() {
			return nil, configErr("collection %q of %s holds records, child table %d holds %s",
				rel.Collection, parent.name(), rel.Child, child.elem)
		}
		l.collection = ord
	} else {
		ord, ok := parent.model.Ordinal(rel.Collection)
		if !ok || !parent.model.Properties[ord].Collection {
			return nil, configErr("%s has no collection %q", parent.name(), rel.Collection)
		}
		elem := parent.model.Properties[ord].Elem
		var matches bool
		if elem == recordPtrType {
			matches = child.isRecords()
		} else if !child.isRecords() {
			shape := elem
			if shape.Kind() == reflect.Pointer {
				shape = shape.Elem()
			}
			matches = shape == child.shape()
		}
		if !matches {
			return nil, configErr("collection %q of %s holds %s, child table %d holds %s",
				rel.Collection, parent.name(), elem, rel.Child, child.elem)
		}
		l.collection = ord
	}

	if child.isRecords() && child.layout == nil {
		return l, nil
	}

	pk, reason, ok := parent.joinKey(rel.ParentKey)
	if !ok {
		return nil, configErr("%s", reason)
	}
	ck, reason, ok := child.joinKey(rel.ChildKey)
	if !ok {
		return nil, configErr("%s", reason)
	}
	mismatch := &errs.TypeMismatchError{
		Shape:    child.name(),
		Property: rel.ChildKey,
		Row:      -1,
		Want:     pk.typeName(),
		Got:      ck.typeName(),
		Err:      fmt.Errorf("join key of relationship %d", i),
	}
	switch {
	case !parent.isRecords() && !child.isRecords():
		if pk.goType != ck.goType {
			return nil, mismatch
		}
	case parent.isRecords() && child.isRecords():
		if pk.id != ck.id {
			return nil, mismatch
		}
	default:
		// A struct parent holding a collection of records.
		if pk.id != ck.id {
			mismatch.Want = pk.id.String()
			return nil, mismatch
		}
		pk.normalize = pk.id != rowset.TypeUnknown
	}
	l.pk, l.ck, l.keyed = pk, ck, true
	return l, nil
}

// computeKeys computes the key of every parent and groups the children by
// their key.
func (l *link) computeKeys() error {
	n := l.parent.len()
	l.parentKeys = make([]any, n)
	l.hasKey = make([]bool, n)
	l.groups = make(map[any][]int)
	if !l.keyed {
		return nil
	}
	for i := 0; i < n; i++ {
		key, ok, err := l.parent.keyAt(l.pk, i)
		if err != nil {
			return keyError(l.parent, l.rel.ParentKey, l.pk, i, err)
		}
		l.parentKeys[i], l.hasKey[i] = key, ok
	}
	for j := 0; j < l.child.len(); j++ {
		key, ok, err := l.child.keyAt(l.ck, j)
		if err != nil {
			return keyError(l.child, l.rel.ChildKey, l.ck, j, err)
		}
		if ok {
			l.groups[key] = append(l.groups[key], j)
		}
	}
	return nil
}

func keyError(t *table, property string, k joinKey, row int, err error) error {
	return &errs.TypeMismatchError{
		Shape:    t.name(),
		Property: property,
		Row:      row,
		Want:     k.typeName(),
		Got:      "unusable join key",
		Err:      err,
	}
}

// apply sets the collection of every parent to its matching children, or
// to an empty collection when there are none.
func (l *link) apply() {
	matches := func(i int) []int {
		if !l.hasKey[i] {
			return nil
		}
		return l.groups[l.parentKeys[i]]
	}

	if l.parent.isRecords() {
		for i, parent := range l.parent.records {
			m := matches(i)
			children := make([]*record.Record, len(m))
			for j, c := range m {
				children[j] = l.child.records[c]
			}
			parent.SetChildrenAt(l.collection, children)
		}
		return
	}

	prop := l.parent.model.Properties[l.collection]
	accessor := l.parent.model.Accessor()
	for i := 0; i < l.parent.len(); i++ {
		m := matches(i)
		coll := reflect.MakeSlice(prop.GoType, len(m), len(m))
		for j, c := range m {
			if l.child.isRecords() {
				coll.Index(j).Set(reflect.ValueOf(l.child.records[c]))
			} else {
				coll.Index(j).Set(l.child.element(c, prop.Elem))
			}
		}
		accessor.Field(l.parent.value.Index(i), l.collection).Set(coll)
	}
}
