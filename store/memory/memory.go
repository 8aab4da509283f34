// Package memory is the in-process batchcache.Store: values are kept as-is,
// never serialized and never expired.
package memory

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// Store holds values in a go-cache instance with no expiration and no janitor.
type Store[U any] struct {
	c *gocache.Cache
}

func New[U any]() *Store[U] {
	return &Store[U]{c: gocache.New(gocache.NoExpiration, 0)}
}

// From seeds a store with existing entries, e.g. results loaded at startup.
func From[U any](items map[string]U) *Store[U] {
	s := New[U]()
	for k, v := range items {
		s.c.Set(k, v, gocache.NoExpiration)
	}
	return s
}

func (s *Store[U]) Has(_ context.Context, key string) (bool, error) {
	_, ok := s.c.Get(key)
	return ok, nil
}

func (s *Store[U]) Get(_ context.Context, key string) (U, bool, error) {
	var zero U
	v, ok := s.c.Get(key)
	if !ok {
		return zero, false, nil
	}
	if v == nil {
		return zero, true, nil // nil stored for an interface U
	}
	u, ok := v.(U)
	if !ok {
		return zero, false, nil
	}
	return u, true, nil
}

func (s *Store[U]) Set(_ context.Context, key string, value U) error {
	s.c.Set(key, value, gocache.NoExpiration)
	return nil
}

func (s *Store[U]) Len() int { return s.c.ItemCount() }

// Snapshot copies all entries.
func (s *Store[U]) Snapshot() map[string]U {
	items := s.c.Items()
	out := make(map[string]U, len(items))
	for k, it := range items {
		if u, ok := it.Object.(U); ok {
			out[k] = u
		}
	}
	return out
}
