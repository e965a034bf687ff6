// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/canonical/rowgraph/internal/errs"
)

// Cache builds and stores the Model of each struct type it is asked about.
// Reads do not lock. The first build of a type is serialized so concurrent
// callers receive the same *Model.
type Cache struct {
	models sync.Map // reflect.Type -> *Model

	mutex  sync.Mutex
	builds atomic.Int64
	logger *zap.Logger
}

// NewCache returns an empty Cache. A nil logger disables logging.
func NewCache(logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{logger: logger}
}

// Get returns the Model of t, which must be a struct or a pointer to a
// struct, generating and caching it as required.
func (c *Cache) Get(t reflect.Type) (*Model, error) {
	if t == nil {
		return nil, &errs.MetadataError{Shape: "<nil>", Reason: "need struct, got nil"}
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if m, ok := c.models.Load(t); ok {
		return m.(*Model), nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if m, ok := c.models.Load(t); ok {
		return m.(*Model), nil
	}
	model, err := generate(t)
	if err != nil {
		c.logger.Debug("cannot build model", zap.Stringer("type", t), zap.Error(err))
		return nil, err
	}
	c.builds.Add(1)
	c.models.Store(t, model)
	c.logger.Debug("built model", zap.Stringer("type", t), zap.Int("properties", len(model.Properties)))
	return model, nil
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	n := 0
	c.models.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Builds returns how many models have been generated since the cache was
// created.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}

// Reset drops every cached model.
func (c *Cache) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.models.Clear()
}
