// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package rowgraph

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/canonical/rowgraph/internal/record"
	"github.com/canonical/rowgraph/internal/typeinfo"
	"github.com/canonical/rowgraph/rowset"
)

type (
	RowSet = rowset.RowSet
	Column = rowset.Column

	// Model is the cached description of a struct type.
	Model    = typeinfo.Model
	Property = typeinfo.Property

	Record = record.Record
	Layout = record.Layout
	Value  = record.Value
)

// Registry holds the struct metadata and record layouts built while
// materializing. Entries are built on first use and reused by every later
// call. A Registry is safe for concurrent use.
type Registry struct {
	models  *typeinfo.Cache
	layouts *record.Synthesizer
	logger  *zap.Logger
}

type options struct {
	logger         *zap.Logger
	layoutCapacity int
}

// Option configures a Registry.
type Option func(*options)

// WithLogger sets the logger the registry reports cache activity to. By
// default nothing is logged.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLayoutCapacity bounds the number of cached record layouts. When the
// bound is reached the least recently used layout is evicted and is
// synthesized again on its next use. Zero, the default, means no bound.
func WithLayoutCapacity(n int) Option {
	return func(o *options) {
		o.layoutCapacity = n
	}
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Registry{
		models:  typeinfo.NewCache(o.logger.Named("models")),
		layouts: record.NewSynthesizer(o.layoutCapacity, o.logger.Named("layouts")),
		logger:  o.logger,
	}
}

var once sync.Once
var defaultRegistry *Registry

// Default returns the process wide Registry. Its layout cache is unbounded.
func Default() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Model returns the metadata of the struct type of sample, which may be a
// struct or a pointer to one. The same *Model is returned for every call with
// the same type.
func (r *Registry) Model(sample any) (*Model, error) {
	return r.models.Get(reflect.TypeOf(sample))
}

// Layout returns the record layout for the given columns, table name and
// child collection names. The same *Layout is returned for every call with
// equal arguments while it remains cached.
func (r *Registry) Layout(columns []Column, table string, collections ...string) (*Layout, error) {
	return r.layouts.Synthesize(columns, table, collections)
}

// Stats describes the content of a Registry.
type Stats struct {
	// Models and Layouts are the number of cached entries.
	Models  int
	Layouts int

	// ModelBuilds and LayoutBuilds count every entry built since the
	// Registry was created, including those since dropped.
	ModelBuilds  int64
	LayoutBuilds int64
}

func (r *Registry) Stats() Stats {
	return Stats{
		Models:       r.models.Len(),
		Layouts:      r.layouts.Len(),
		ModelBuilds:  r.models.Builds(),
		LayoutBuilds: r.layouts.Builds(),
	}
}

// Reset drops every cached model and layout. Values materialized earlier
// keep working.
func (r *Registry) Reset() {
	r.models.Reset()
	r.layouts.Reset()
	r.logger.Debug("registry reset")
}
