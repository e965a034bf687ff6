// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package typeinfo contains code relating to Go destination types and their
processing in rowgraph. As much as possible, reflection code is limited to
this package and to internal/convert. It contains the logic for validating
struct types, extracting their column bindings, and setting and getting
their fields by ordinal.
*/
package typeinfo
