package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/batchcache"
)

type storeMetrics struct {
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// Store wraps a batchcache.Store and times every call.
type Store[U any] struct {
	batchcache.Store[U]
	m *storeMetrics
}

var _ batchcache.Store[struct{}] = (*Store[struct{}])(nil)

// WrapStore registers per-store collectors labelled with name.
func WrapStore[U any](namespace, name string, reg prometheus.Registerer, s batchcache.Store[U]) (*Store[U], error) {
	constLabels := prometheus.Labels{"name": name}
	m := &storeMetrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "batchcache_store",
			Name:        "ops_total",
			Help:        "store calls by operation and result",
			ConstLabels: constLabels,
		}, []string{"op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "batchcache_store",
			Name:        "op_duration_seconds",
			Help:        "store call latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op", "result"}),
	}
	err := registerAll(reg, m.ops, m.latency)
	return &Store[U]{Store: s, m: m}, err
}

func (s *Store[U]) observe(op string, start time.Time, result string) {
	s.m.ops.WithLabelValues(op, result).Inc()
	s.m.latency.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}

func (s *Store[U]) Has(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := s.Store.Has(ctx, key)
	s.observe("has", start, outcome(ok, err))
	return ok, err
}

func (s *Store[U]) Get(ctx context.Context, key string) (U, bool, error) {
	start := time.Now()
	v, ok, err := s.Store.Get(ctx, key)
	s.observe("get", start, outcome(ok, err))
	return v, ok, err
}

func (s *Store[U]) Set(ctx context.Context, key string, value U) error {
	start := time.Now()
	err := s.Store.Set(ctx, key, value)
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.observe("set", start, result)
	return err
}

func outcome(ok bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case ok:
		return "hit"
	default:
		return "miss"
	}
}
