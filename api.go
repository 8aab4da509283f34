package batchcache

import (
	"context"
)

// Hasher maps one item to its cache key.
// Must be deterministic: equal items (by the hasher's own notion of equality)
// always produce the same key. Collisions are not detected.
type Hasher[T any] func(item T) (string, error)

// BatchFunc computes one result per item. The returned slice must have
// exactly len(items) entries, result[i] belonging to items[i].
type BatchFunc[T, U any] func(ctx context.Context, items []T) ([]U, error)

// Store is the key/value mapping the merger reads from and inserts into.
// Persistence, compression and locking are the store's concern.
type Store[U any] interface {
	// Has reports whether key is present right now.
	Has(ctx context.Context, key string) (bool, error)
	// Get returns (value, true, nil) on hit and (zero, false, nil) on miss.
	Get(ctx context.Context, key string) (U, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value U) error
}

// Options configure a Merger. Store and Func are required.
type Options[T, U any] struct {
	// Required
	Store Store[U]
	Func  BatchFunc[T, U]

	Name   string    // label for logs, hooks and metrics; "" => "batchcache"
	Hasher Hasher[T] // nil => DefaultHasher[T]()
	Logger Logger    // nil => NopLogger
	Hooks  Hooks     // nil => NopHooks
}

// New builds a Merger from opts; a nil Store or Func yields a *ConfigError.
func New[T, U any](opts Options[T, U]) (*Merger[T, U], error) {
	return newMerger[T, U](opts)
}

// Wrap is shorthand for New followed by (*Merger).Wrap. A nil hasher selects
// DefaultHasher.
func Wrap[T, U any](store Store[U], hasher Hasher[T], fn BatchFunc[T, U]) (BatchFunc[T, U], error) {
	m, err := New[T, U](Options[T, U]{Store: store, Hasher: hasher, Func: fn})
	if err != nil {
		return nil, err
	}
	return m.Wrap(), nil
}
