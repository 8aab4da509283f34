// Package inflight coalesces concurrent batch calls per key.
//
// A Merger alone lets two callers that both miss a key compute it twice.
// Placing a Group between the Merger and the real batch func removes that:
// while a key is being computed, other callers wait for that result instead
// of recomputing it. Nothing is remembered once a call finishes; caching
// stays the Merger's job.
//
//	g := inflight.New[Req, Resp](nil, embed)
//	m, _ := batchcache.New(batchcache.Options[Req, Resp]{Store: st, Func: g.Do})
package inflight

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/batchcache"
)

type call[U any] struct {
	done chan struct{}
	val  U
	err  error
}

// Group tracks keys currently being computed.
type Group[T, U any] struct {
	hasher batchcache.Hasher[T]
	fn     batchcache.BatchFunc[T, U]

	mu      sync.Mutex
	calls   map[string]*call[U]
	waiting atomic.Int64
}

// New returns a Group around fn. The hasher should match the Merger's so
// both agree on key identity; nil selects batchcache.DefaultHasher.
func New[T, U any](hasher batchcache.Hasher[T], fn batchcache.BatchFunc[T, U]) *Group[T, U] {
	if hasher == nil {
		hasher = batchcache.DefaultHasher[T]()
	}
	return &Group[T, U]{hasher: hasher, fn: fn, calls: make(map[string]*call[U])}
}

// Wrap is New(hasher, fn).Do.
func Wrap[T, U any](hasher batchcache.Hasher[T], fn batchcache.BatchFunc[T, U]) batchcache.BatchFunc[T, U] {
	return New(hasher, fn).Do
}

// InFlight returns the number of keys currently being computed.
func (g *Group[T, U]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// Waiting returns the number of callers blocked on keys owned by others.
func (g *Group[T, U]) Waiting() int { return int(g.waiting.Load()) }

// Do has the BatchFunc shape. Keys nobody is computing are passed to fn in
// a single call; keys another caller is computing are awaited.
//
// Waiters receive the owner's error when the owner's call fails, including
// the owner's context cancellation. A waiter whose own ctx ends stops
// waiting with ctx.Err().
func (g *Group[T, U]) Do(ctx context.Context, items []T) ([]U, error) {
	if len(items) == 0 {
		return []U{}, nil
	}

	keys := make([]string, 0, len(items))
	slot := make([]int, len(items))
	rep := make(map[string]T, len(items))
	index := make(map[string]int, len(items))
	for i, it := range items {
		k, err := g.hasher(it)
		if err != nil {
			return nil, &batchcache.HashError{Index: i, Err: err}
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

	calls := make([]*call[U], len(keys))
	var own []int // indexes into keys this caller computes

	g.mu.Lock()
	for j, k := range keys {
		if cl, ok := g.calls[k]; ok {
			calls[j] = cl
			continue
		}
		cl := &call[U]{done: make(chan struct{})}
		g.calls[k] = cl
		calls[j] = cl
		own = append(own, j)
	}
	g.mu.Unlock()

	if len(own) > 0 {
		if err := g.compute(ctx, keys, rep, calls, own); err != nil {
			return nil, err
		}
	}

	if len(own) < len(keys) {
		g.waiting.Add(1)
		defer g.waiting.Add(-1)
	}
	for _, cl := range calls {
		select {
		case <-cl.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if cl.err != nil {
			return nil, cl.err
		}
	}

	out := make([]U, len(items))
	for i, j := range slot {
		out[i] = calls[j].val
	}
	return out, nil
}

func (g *Group[T, U]) compute(ctx context.Context, keys []string, rep map[string]T, calls []*call[U], own []int) (err error) {
	// always release owned keys, even if fn panics
	defer func() {
		if r := recover(); r != nil {
			g.finish(keys, calls, own, errPanic{r})
			panic(r)
		}
		g.finish(keys, calls, own, err)
	}()

	inputs := make([]T, len(own))
	for i, j := range own {
		inputs[i] = rep[keys[j]]
	}
	results, err := g.fn(ctx, inputs)
	if err != nil {
		return err
	}
	if len(results) != len(inputs) {
		return &batchcache.ResultCountError{Want: len(inputs), Got: len(results)}
	}
	for i, j := range own {
		calls[j].val = results[i]
	}
	return nil
}

func (g *Group[T, U]) finish(keys []string, calls []*call[U], own []int, err error) {
	g.mu.Lock()
	for _, j := range own {
		delete(g.calls, keys[j])
	}
	g.mu.Unlock()
	for _, j := range own {
		calls[j].err = err
		close(calls[j].done)
	}
}
