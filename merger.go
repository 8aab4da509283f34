package batchcache

import (
	"context"
)

// Merger memoizes a BatchFunc per item. Each Invoke hashes the items, calls
// the batch func only for keys the store does not have, writes the new
// results back and returns one result per input position.
//
// A Merger holds no mutable state of its own. Concurrent Invoke calls are
// safe when the store is, but two callers missing the same key will both
// compute it (last write wins). Use the inflight package for at-most-once
// computation of in-flight keys.
type Merger[T, U any] struct {
	name   string
	store  Store[U]
	fn     BatchFunc[T, U]
	hasher Hasher[T]
	log    Logger
	hooks  Hooks
}

func newMerger[T, U any](opts Options[T, U]) (*Merger[T, U], error) {
	name := coalesce(opts.Name, defaultName)
	if opts.Store == nil {
		return nil, &ConfigError{Name: name, Err: ErrNoStore}
	}
	if opts.Func == nil {
		return nil, &ConfigError{Name: name, Err: ErrNoFunc}
	}

	m := &Merger[T, U]{
		name:  name,
		store: opts.Store,
		fn:    opts.Func,
	}
	if opts.Hasher != nil {
		m.hasher = opts.Hasher
	} else {
		m.hasher = DefaultHasher[T]()
	}
	m.log = coalesce[Logger](opts.Logger, NopLogger{})
	m.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return m, nil
}

// Name returns the label used in logs and hooks.
func (m *Merger[T, U]) Name() string { return m.name }

// Wrap returns Invoke as a BatchFunc so the merger can stand in for the
// function it wraps.
func (m *Merger[T, U]) Wrap() BatchFunc[T, U] { return m.Invoke }

// Invoke returns one result per item, in input order. Duplicate items share
// a single computation and receive the same cached result.
//
// Cached values are read before any write, so a bounded store evicting them
// to make room for fresh results does not fail the call. Errors from the
// batch func are returned unchanged and nothing from that call is written.
// Store failures are returned as *StoreError; results already written before
// the failure stay cached.
func (m *Merger[T, U]) Invoke(ctx context.Context, items []T) ([]U, error) {
	if len(items) == 0 {
		return []U{}, nil
	}

	// 1. hash; keys keep first-seen order, the representative is the last item seen
	keys := make([]string, 0, len(items))
	slot := make([]int, len(items)) // input position -> index into keys
	rep := make(map[string]T, len(items))
	index := make(map[string]int, len(items))
	for i, it := range items {
		k, err := m.hasher(it)
		if err != nil {
			return nil, &HashError{Index: i, Err: err}
		}
		j, seen := index[k]
		if !seen {
			j = len(keys)
			index[k] = j
			keys = append(keys, k)
		}
		slot[i] = j
		rep[k] = it
	}

	// 2. partition against the store. Cached values are read now, before this
	// call's writes can evict them from a bounded store.
	values := make([]U, len(keys))
	var toCalc []int // indexes into keys
	for j, k := range keys {
		ok, err := m.store.Has(ctx, k)
		if err != nil {
			return nil, m.storeErr("has", k, err)
		}
		if !ok {
			toCalc = append(toCalc, j)
			continue
		}
		v, ok, err := m.store.Get(ctx, k)
		if err != nil {
			return nil, m.storeErr("get", k, err)
		}
		if !ok {
			return nil, m.storeErr("get", k, ErrMissing)
		}
		values[j] = v
	}
	m.hooks.BatchPartitioned(m.name, len(items), len(keys), len(toCalc))
	m.log.Debug("batch partitioned", Fields{
		"name":     m.name,
		"items":    len(items),
		"distinct": len(keys),
		"uncached": len(toCalc),
	})

	// 3. compute the uncached subset once, then persist
	if len(toCalc) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inputs := make([]T, len(toCalc))
		for i, j := range toCalc {
			inputs[i] = rep[keys[j]]
		}
		results, err := m.fn(ctx, inputs)
		if err != nil {
			m.hooks.ComputeFailed(m.name, len(toCalc), err)
			return nil, err
		}
		if len(results) != len(inputs) {
			rerr := &ResultCountError{Want: len(inputs), Got: len(results)}
			m.hooks.ComputeFailed(m.name, len(toCalc), rerr)
			return nil, rerr
		}
		for i, j := range toCalc {
			if err := m.store.Set(ctx, keys[j], results[i]); err != nil {
				return nil, m.storeErr("set", keys[j], err)
			}
		}

		// 4. serve fresh keys from the store; a write the store already
		// dropped falls back to the computed value
		for i, j := range toCalc {
			k := keys[j]
			v, ok, err := m.store.Get(ctx, k)
			if err != nil {
				return nil, m.storeErr("get", k, err)
			}
			if !ok {
				m.hooks.FreshWriteDropped(m.name, k)
				m.log.Warn("fresh result missing on read-back", Fields{"name": m.name, "key": k})
				v = results[i]
			}
			values[j] = v
		}
	}

	out := make([]U, len(items))
	for i, j := range slot {
		out[i] = values[j]
	}
	return out, nil
}

func (m *Merger[T, U]) storeErr(op, key string, err error) error {
	m.hooks.StoreFailed(m.name, op, err)
	return &StoreError{Op: op, Key: key, Err: err}
}
