// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package assemble

import (
	"fmt"

	"github.com/canonical/rowgraph/internal/errs"
)

// sortLinks orders the links so that every table has received its own
// children before it is attached to a parent. Links that are ready at the
// same time keep the caller's order.
func sortLinks(links []*link) ([]*link, error) {
	// pending[i] counts the unprocessed links that attach children to the
	// child table of links[i].
	pending := make([]int, len(links))
	for _, a := range links {
		for _, b := range links {
			if b.rel.Parent == a.rel.Child {
				pending[a.index]++
			}
		}
	}

	done := make([]bool, len(links))
	order := make([]*link, 0, len(links))
	for len(order) < len(links) {
		next := -1
		for i := range links {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			for i, l := range links {
				if !done[i] {
					return nil, &errs.RelationshipConfigError{Index: i,
						Reason: fmt.Sprintf("relationships form a cycle through table %d", l.rel.Child)}
				}
			}
		}
		done[next] = true
		order = append(order, links[next])
		for i, b := range links {
			if !done[i] && b.rel.Child == links[next].rel.Parent {
				pending[i]--
			}
		}
	}
	return order, nil
}
