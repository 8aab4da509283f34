package batchcache

import (
	"errors"
	"fmt"
)

var (
	ErrNoStore = errors.New("batchcache: store is required")
	ErrNoFunc  = errors.New("batchcache: batch func is required")

	// ErrMissing is wrapped in a *StoreError when a key reported present by
	// Has could not be read back.
	ErrMissing = errors.New("batchcache: key vanished from store")
)

// ConfigError reports a Merger that cannot be built.
type ConfigError struct {
	Name string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("batchcache: invalid config for %q: %v", e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ResultCountError reports a batch func that returned the wrong number of
// results. Nothing from that call is cached.
type ResultCountError struct {
	Want int
	Got  int
}

func (e *ResultCountError) Error() string {
	return fmt.Sprintf("batchcache: batch func returned %d results for %d items", e.Got, e.Want)
}

// HashError reports a hasher failure for the item at Index of the input.
type HashError struct {
	Index int
	Err   error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("batchcache: hash item %d: %v", e.Index, e.Err)
}

func (e *HashError) Unwrap() error { return e.Err }

// StoreError wraps a failure of the underlying store.
// Op is one of "has", "get", "set".
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("batchcache: store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
