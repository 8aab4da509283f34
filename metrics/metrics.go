// Package metrics exports merger activity to Prometheus.
//
// Hooks counts items, hits and computations per merger name. Store wraps a
// batchcache.Store and records per-operation latency split by hit and miss.
//
//	reg := prometheus.NewRegistry()
//	hooks, _ := metrics.NewHooks("app", reg)
//	st, _ := metrics.WrapStore[Resp]("app", "embed", reg, inner)
//	m, _ := batchcache.New(batchcache.Options[Req, Resp]{Name: "embed", Store: st, Func: embed, Hooks: hooks})
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/batchcache"
)

var batchBuckets = []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}

// Hooks implements batchcache.Hooks with Prometheus collectors labelled by
// merger name. It never blocks and can be shared by many mergers.
type Hooks struct {
	items         *prometheus.CounterVec
	hits          *prometheus.CounterVec
	computed      *prometheus.CounterVec
	computeErrors *prometheus.CounterVec
	storeErrors   *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	batchSize     *prometheus.HistogramVec
}

var _ batchcache.Hooks = (*Hooks)(nil)

// NewHooks registers the collectors on reg under namespace.
func NewHooks(namespace string, reg prometheus.Registerer) (*Hooks, error) {
	h := &Hooks{
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batchcache",
			Name:      "items_total",
			Help:      "items passed to Invoke",
		}, []string{"name"}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batchcache",
			Name:      "hits_total",
			Help:      "distinct keys served from the store without computing",
		}, []string{"name"}),
		computed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batchcache",
			Name:      "computed_total",
			Help:      "distinct keys passed to the batch func",
		}, []string{"name"}),
		computeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batchcache",
			Name:      "compute_errors_total",
			Help:      "failed batch func calls",
		}, []string{"name"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batchcache",
			Name:      "store_errors_total",
			Help:      "store failures by operation",
		}, []string{"name", "op"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batchcache",
			Name:      "fresh_writes_dropped_total",
			Help:      "computed results missing on read-back",
		}, []string{"name"}),
		batchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batchcache",
			Name:      "compute_batch_size",
			Help:      "distinct keys per batch func call",
			Buckets:   batchBuckets,
		}, []string{"name"}),
	}
	err := registerAll(reg,
		h.items,
		h.hits,
		h.computed,
		h.computeErrors,
		h.storeErrors,
		h.dropped,
		h.batchSize,
	)
	return h, err
}

func (h *Hooks) BatchPartitioned(name string, items, distinct, uncached int) {
	h.items.WithLabelValues(name).Add(float64(items))
	h.hits.WithLabelValues(name).Add(float64(distinct - uncached))
	if uncached > 0 {
		h.computed.WithLabelValues(name).Add(float64(uncached))
		h.batchSize.WithLabelValues(name).Observe(float64(uncached))
	}
}

func (h *Hooks) ComputeFailed(name string, _ int, _ error) {
	h.computeErrors.WithLabelValues(name).Inc()
}

func (h *Hooks) StoreFailed(name, op string, _ error) {
	h.storeErrors.WithLabelValues(name, op).Inc()
}

func (h *Hooks) FreshWriteDropped(name, _ string) {
	h.dropped.WithLabelValues(name).Inc()
}

func registerAll(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	if reg == nil {
		return nil
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
