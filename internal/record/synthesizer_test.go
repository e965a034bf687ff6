// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package record

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	. "gopkg.in/check.v1"

	"github.com/canonical/rowgraph/internal/errs"
	"github.com/canonical/rowgraph/rowset"
)

type synthesizerSuite struct{}

var _ = Suite(&synthesizerSuite{})

func (s *synthesizerSuite) TestSynthesizeIsIdempotent(c *C) {
	synth := NewSynthesizer(0, nil)
	cols := []rowset.Column{{Name: "Id", Type: rowset.TypeInt64}, {Name: "Name", Type: rowset.TypeString}}

	l1, err := synth.Synthesize(cols, "", nil)
	c.Assert(err, IsNil)
	l2, err := synth.Synthesize(cols, "", nil)
	c.Assert(err, IsNil)
	c.Check(l1 == l2, Equals, true)
	c.Check(l1.Key(), Equals, l2.Key())
	c.Check(synth.Builds(), Equals, int64(1))
	c.Check(synth.Len(), Equals, 1)

	reordered := []rowset.Column{cols[1], cols[0]}
	l3, err := synth.Synthesize(reordered, "", nil)
	c.Assert(err, IsNil)
	c.Check(l3 == l1, Equals, false)
	c.Check(l3.Key(), Not(Equals), l1.Key())

	retyped := []rowset.Column{cols[0], {Name: "Name", Type: rowset.TypeBytes}}
	l4, err := synth.Synthesize(retyped, "", nil)
	c.Assert(err, IsNil)
	c.Check(l4 == l1, Equals, false)
	c.Check(synth.Builds(), Equals, int64(3))
}

func (s *synthesizerSuite) TestSynthesizeConcurrent(c *C) {
	synth := NewSynthesizer(0, nil)
	cols := []rowset.Column{{Name: "a", Type: rowset.TypeInt64}}
	layouts := make([]*Layout, 16)

	var wg sync.WaitGroup
	for i := range layouts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := synth.Synthesize(cols, "t", nil)
			if err == nil {
				layouts[i] = l
			}
		}(i)
	}
	wg.Wait()

	for _, l := range layouts {
		c.Assert(l, NotNil)
		c.Check(l == layouts[0], Equals, true)
	}
	c.Check(synth.Builds(), Equals, int64(1))
}

func (s *synthesizerSuite) TestSynthesizeErrors(c *C) {
	synth := NewSynthesizer(0, nil)
	var tests = []struct {
		summary     string
		columns     []rowset.Column
		table       string
		collections []string
		err         string
	}{{
		summary: "no columns",
		table:   "t",
		err:     `invalid shape "t": no columns`,
	}, {
		summary: "empty column name",
		columns: []rowset.Column{{Name: "a"}, {Name: ""}},
		err:     `invalid shape "record": column 1 has no name`,
	}, {
		summary: "case-insensitive duplicate columns",
		columns: []rowset.Column{{Name: "Id"}, {Name: "ID"}},
		err:     `invalid shape "record": property "ID": name conflicts with "Id"`,
	}, {
		summary:     "collection named like a column",
		columns:     []rowset.Column{{Name: "Id"}},
		collections: []string{"id"},
		err:         `invalid shape "record": property "id": name conflicts with "Id"`,
	}, {
		summary:     "empty collection name",
		columns:     []rowset.Column{{Name: "Id"}},
		collections: []string{""},
		err:         `invalid shape "record": empty collection name`,
	}}
	for i, test := range tests {
		c.Logf("test %d: %s", i, test.summary)
		_, err := synth.Synthesize(test.columns, test.table, test.collections)
		c.Check(err, ErrorMatches, test.err)
		var metaErr *errs.MetadataError
		c.Check(errors.As(err, &metaErr), Equals, true)
	}
	c.Check(synth.Len(), Equals, 0)
}

func (s *synthesizerSuite) TestBoundedEviction(c *C) {
	core, logs := observer.New(zap.DebugLevel)
	synth := NewSynthesizer(2, zap.New(core))

	colsA := []rowset.Column{{Name: "a"}}
	colsB := []rowset.Column{{Name: "b"}}
	colsC := []rowset.Column{{Name: "c"}}

	a1, err := synth.Synthesize(colsA, "", nil)
	c.Assert(err, IsNil)
	_, err = synth.Synthesize(colsB, "", nil)
	c.Assert(err, IsNil)
	_, err = synth.Synthesize(colsC, "", nil)
	c.Assert(err, IsNil)
	c.Check(synth.Len(), Equals, 2)
	c.Check(logs.FilterMessage("evicted record layout").Len(), Equals, 1)

	// The layout for colsA was the least recently used.
	a2, err := synth.Synthesize(colsA, "", nil)
	c.Assert(err, IsNil)
	c.Check(a1 == a2, Equals, false)
	c.Check(a1.Key(), Equals, a2.Key())
	c.Check(synth.Builds(), Equals, int64(4))
}

func (s *synthesizerSuite) TestReset(c *C) {
	for _, capacity := range []int{0, 8} {
		synth := NewSynthesizer(capacity, nil)
		_, err := synth.Synthesize([]rowset.Column{{Name: "a"}}, "", nil)
		c.Assert(err, IsNil)
		c.Check(synth.Len(), Equals, 1)
		synth.Reset()
		c.Check(synth.Len(), Equals, 0)
	}
}
