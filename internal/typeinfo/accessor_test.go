// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	. "gopkg.in/check.v1"
)

func (s *typeInfoSuite) TestAccessorSetGet(c *C) {
	model, err := generate(reflect.TypeOf(Person{}))
	c.Assert(err, IsNil)
	a := model.Accessor()
	c.Assert(a.Len(), Equals, len(model.Properties))

	p := &Person{}
	v := reflect.ValueOf(p)

	ord := func(name string) int {
		i, ok := model.Ordinal(name)
		c.Assert(ok, Equals, true, Commentf("no property %s", name))
		return i
	}

	c.Assert(a.Set(v, ord("id"), "7"), IsNil)
	c.Assert(a.Set(v, ord("full_name"), []byte("Alastair")), IsNil)
	c.Assert(a.Set(v, ord("nickname"), "Al"), IsNil)
	c.Assert(a.Set(v, ord("born"), "1990-05-04"), IsNil)
	c.Assert(a.Set(v, ord("balance"), "100.25"), IsNil)
	c.Assert(a.Set(v, ord("email"), "al@example.com"), IsNil)
	c.Assert(a.Set(v, ord("joined"), time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)), IsNil)
	c.Assert(a.Set(v, ord("tags"), []any{"a", "b"}), IsNil)

	c.Check(p.ID, Equals, int64(7))
	c.Check(p.Name, Equals, "Alastair")
	c.Assert(p.Nickname, NotNil)
	c.Check(*p.Nickname, Equals, "Al")
	c.Check(p.Born.Equal(time.Date(1990, 5, 4, 0, 0, 0, 0, time.UTC)), Equals, true)
	c.Check(p.Balance.Equal(decimal.RequireFromString("100.25")), Equals, true)
	c.Check(p.Email.Valid, Equals, true)
	c.Check(p.Email.String, Equals, "al@example.com")
	c.Check(p.Joined, Equals, "2020-01-02")
	c.Check(p.Tags, DeepEquals, []string{"a", "b"})

	c.Check(a.Get(v, ord("id")), Equals, int64(7))
	c.Check(a.Get(reflect.ValueOf(*p), ord("full_name")), Equals, "Alastair")

	c.Assert(a.SetNull(v, ord("nickname")), IsNil)
	c.Check(p.Nickname, IsNil)
	c.Assert(a.SetNull(v, ord("email")), IsNil)
	c.Check(p.Email.Valid, Equals, false)
	c.Check(a.SetNull(v, ord("id")), ErrorMatches, "int64 cannot hold null")
}

func (s *typeInfoSuite) TestAccessorCollection(c *C) {
	model, err := generate(reflect.TypeOf(Person{}))
	c.Assert(err, IsNil)
	a := model.Accessor()
	i, ok := model.Ordinal("Addresses")
	c.Assert(ok, Equals, true)

	p := &Person{}
	v := reflect.ValueOf(p)
	addresses := []*Address{{ID: 1, Street: "Main"}}
	c.Assert(a.Set(v, i, addresses), IsNil)
	c.Check(p.Addresses, DeepEquals, addresses)

	c.Check(a.Set(v, i, []Address{}), ErrorMatches, `cannot assign \[\]typeinfo.Address to \[\]\*typeinfo.Address`)

	c.Assert(a.SetNull(v, i), IsNil)
	c.Check(p.Addresses, IsNil)
}

func (s *typeInfoSuite) TestAccessorTypeMismatch(c *C) {
	model, err := generate(reflect.TypeOf(Address{}))
	c.Assert(err, IsNil)

	addr := &Address{}
	err = model.Accessor().Set(reflect.ValueOf(addr), 0, "not a number")
	c.Check(err, ErrorMatches, `strconv.ParseInt: parsing "not a number": invalid syntax`)
	c.Check(addr.ID, Equals, 0)
}
