// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	. "gopkg.in/check.v1"
)

type cacheSuite struct{}

var _ = Suite(&cacheSuite{})

func (s *cacheSuite) TestGetIsIdempotent(c *C) {
	cache := NewCache(nil)

	m1, err := cache.Get(reflect.TypeOf(Address{}))
	c.Assert(err, IsNil)
	m2, err := cache.Get(reflect.TypeOf(&Address{}))
	c.Assert(err, IsNil)

	c.Check(m1 == m2, Equals, true)
	c.Check(cache.Builds(), Equals, int64(1))
	c.Check(cache.Len(), Equals, 1)
}

func (s *cacheSuite) TestGetConcurrent(c *C) {
	cache := NewCache(nil)
	models := make([]*Model, 20)

	var wg sync.WaitGroup
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := cache.Get(reflect.TypeOf(Person{}))
			if err == nil {
				models[i] = m
			}
		}(i)
	}
	wg.Wait()

	for _, m := range models {
		c.Assert(m, NotNil)
		c.Check(m == models[0], Equals, true)
	}
	c.Check(cache.Builds(), Equals, int64(1))
}

func (s *cacheSuite) TestGetErrorNotCached(c *C) {
	type bad struct {
		M map[string]string
	}
	cache := NewCache(nil)
	_, err := cache.Get(reflect.TypeOf(bad{}))
	c.Check(err, ErrorMatches, `invalid shape "typeinfo.bad": property "M": unsupported type map\[string\]string`)
	c.Check(cache.Len(), Equals, 0)

	_, err = cache.Get(nil)
	c.Check(err, ErrorMatches, `invalid shape "<nil>": need struct, got nil`)
}

func (s *cacheSuite) TestReset(c *C) {
	core, logs := observer.New(zap.DebugLevel)
	cache := NewCache(zap.New(core))

	m1, err := cache.Get(reflect.TypeOf(Address{}))
	c.Assert(err, IsNil)
	cache.Reset()
	c.Check(cache.Len(), Equals, 0)

	m2, err := cache.Get(reflect.TypeOf(Address{}))
	c.Assert(err, IsNil)
	c.Check(m1 == m2, Equals, false)
	c.Check(cache.Builds(), Equals, int64(2))
	c.Check(logs.FilterMessage("built model").Len(), Equals, 2)
}
