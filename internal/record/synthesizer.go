// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package record

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/canonical/rowgraph/rowset"
)

// Synthesizer builds record layouts and memoizes them by Key. Without a
// capacity the cache grows without bound. With one, the least recently
// used layout is evicted once the capacity is reached.
type Synthesizer struct {
	layouts sync.Map // Key -> *Layout, when unbounded
	bounded *lru.Cache

	mutex  sync.Mutex
	builds atomic.Int64
	logger *zap.Logger
}

// NewSynthesizer returns a Synthesizer holding at most capacity layouts. A
// capacity of zero or less means no bound. A nil logger disables logging.
func NewSynthesizer(capacity int, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Synthesizer{logger: logger}
	if capacity > 0 {
		cache, err := lru.NewWithEvict(capacity, s.evicted)
		if err != nil {
			// lru only fails for a non-positive size.
			panic(err)
		}
		s.bounded = cache
	}
	return s
}

func (s *Synthesizer) evicted(key, value any) {
	s.logger.Debug("evicted record layout", zap.Stringer("key", key.(Key)), zap.String("table", value.(*Layout).table))
}

func (s *Synthesizer) load(key Key) (*Layout, bool) {
	var v any
	var ok bool
	if s.bounded != nil {
		v, ok = s.bounded.Get(key)
	} else {
		v, ok = s.layouts.Load(key)
	}
	if !ok {
		return nil, false
	}
	return v.(*Layout), true
}

func (s *Synthesizer) store(key Key, l *Layout) {
	if s.bounded != nil {
		s.bounded.Add(key, l)
		return
	}
	s.layouts.Store(key, l)
}

// Synthesize returns the layout for the given columns, table name and child
// collection names, building it on first use. Identical inputs return the
// same *Layout for as long as it stays cached.
func (s *Synthesizer) Synthesize(columns []rowset.Column, table string, collections []string) (*Layout, error) {
	if err := validate(columns, table, collections); err != nil {
		return nil, err
	}
	key := Fingerprint(columns, table, collections)
	if l, ok := s.load(key); ok {
		return l, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if l, ok := s.load(key); ok {
		return l, nil
	}
	l := newLayout(key, columns, table, collections)
	s.store(key, l)
	s.builds.Add(1)
	s.logger.Debug("synthesized record layout",
		zap.Stringer("key", key),
		zap.String("table", table),
		zap.Int("fields", len(columns)),
		zap.Strings("collections", collections),
	)
	return l, nil
}

// Len returns the number of cached layouts.
func (s *Synthesizer) Len() int {
	if s.bounded != nil {
		return s.bounded.Len()
	}
	n := 0
	s.layouts.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Builds returns how many layouts have been built since the synthesizer
// was created.
func (s *Synthesizer) Builds() int64 {
	return s.builds.Load()
}

// Reset drops every cached layout.
func (s *Synthesizer) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.bounded != nil {
		s.bounded.Purge()
		return
	}
	s.layouts.Clear()
}
