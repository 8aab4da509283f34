// Package asynchook moves hook delivery off the Invoke path. Events are
// queued to a fixed set of workers and dropped when the queue is full, so a
// slow sink (logging over the network, a remote metrics push) never delays a
// batch.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{PartitionEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	m, _ := batchcache.New(batchcache.Options[Req, Resp]{
//	    Store: st,
//	    Func:  embed,
//	    Hooks: hooks, // or raw for synchronous delivery
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/batchcache"
)

type Hooks struct {
	inner   batchcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ batchcache.Hooks = (*Hooks)(nil)

// New starts workers goroutines draining a queue of qlen events.
// workers <= 0 => 1; qlen <= 0 => 1024.
func New(inner batchcache.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = batchcache.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close stops accepting events and waits for queued ones to be delivered.
// Events raised after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded because the queue was full
// or the hooks were closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) BatchPartitioned(name string, items, distinct, uncached int) {
	h.try(func() { h.inner.BatchPartitioned(name, items, distinct, uncached) })
}

func (h *Hooks) ComputeFailed(name string, uncached int, err error) {
	h.try(func() { h.inner.ComputeFailed(name, uncached, err) })
}

func (h *Hooks) StoreFailed(name, op string, err error) {
	h.try(func() { h.inner.StoreFailed(name, op, err) })
}

func (h *Hooks) FreshWriteDropped(name, key string) {
	h.try(func() { h.inner.FreshWriteDropped(name, key) })
}
