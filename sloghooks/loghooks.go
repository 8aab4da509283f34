// Package sloghooks reports merger events through log/slog.
// Partition events fire on every Invoke and are sampled; failures are
// always logged.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/batchcache"
	"github.com/unkn0wn-root/batchcache/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	PartitionEvery uint64
	DroppedEvery   uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	partitionCtr atomic.Uint64
	droppedCtr   atomic.Uint64
}

var _ batchcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.Redact(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) BatchPartitioned(name string, items, distinct, uncached int) {
	if h.l == nil || !sample(h.opts.PartitionEvery, &h.partitionCtr) {
		return
	}
	h.l.Debug("batchcache.partitioned",
		"name", name,
		"items", items,
		"distinct", distinct,
		"uncached", uncached)
}

func (h *Hooks) ComputeFailed(name string, uncached int, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("batchcache.compute_failed",
		"name", name,
		"uncached", uncached,
		"err", err)
}

func (h *Hooks) StoreFailed(name, op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("batchcache.store_failed",
		"name", name,
		"op", op,
		"err", err)
}

func (h *Hooks) FreshWriteDropped(name, key string) {
	if h.l == nil || !sample(h.opts.DroppedEvery, &h.droppedCtr) {
		return
	}
	h.l.Warn("batchcache.fresh_write_dropped",
		"name", name,
		"key", h.redact(key))
}
