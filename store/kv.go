// Package store provides batchcache.Store implementations.
//
// KV adapts any provider.Provider (bigcache, ristretto, redis, bolt) by
// encoding results with a codec.Codec and framing them with a small header.
// The memory subpackage keeps values as-is without serialization.
package store

import (
	"context"
	"errors"
	"fmt"

	c "github.com/unkn0wn-root/batchcache/codec"
	"github.com/unkn0wn-root/batchcache/internal/util"
	"github.com/unkn0wn-root/batchcache/internal/wire"
	pr "github.com/unkn0wn-root/batchcache/provider"
)

var ErrRejected = errors.New("store: provider rejected write")

// Options for KV. Namespace, Provider and Codec are required.
type Options[U any] struct {
	Namespace string // e.g. "embed-v1"; non-empty, no ':'
	Provider  pr.Provider
	Codec     c.Codec[U]

	// Compress stores payloads xz compressed. Reads handle both forms, so
	// the flag can be flipped on a live store.
	Compress bool

	// IgnoreRejected makes Set succeed when the provider refuses a write
	// under pressure. The merger then serves the computed value and the key
	// is recomputed next time. Default false returns ErrRejected.
	IgnoreRejected bool
}

// KV is a batchcache.Store over a byte provider.
type KV[U any] struct {
	ns             string
	provider       pr.Provider
	codec          c.Codec[U]
	compress       bool
	ignoreRejected bool
}

func NewKV[U any](opts Options[U]) (*KV[U], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("store: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("store: codec is required")
	}
	if !util.ValidNamespace(opts.Namespace) {
		return nil, fmt.Errorf("store: invalid namespace %q", opts.Namespace)
	}
	return &KV[U]{
		ns:             opts.Namespace,
		provider:       opts.Provider,
		codec:          opts.Codec,
		compress:       opts.Compress,
		ignoreRejected: opts.IgnoreRejected,
	}, nil
}

func (s *KV[U]) Has(ctx context.Context, key string) (bool, error) {
	return s.provider.Has(ctx, s.storageKey(key))
}

// Get decodes a hit. Frames or payloads that fail to decode are errors: a
// key the merger saw as present must yield a value.
func (s *KV[U]) Get(ctx context.Context, key string) (U, bool, error) {
	var zero U
	raw, ok, err := s.provider.Get(ctx, s.storageKey(key))
	if err != nil || !ok {
		return zero, false, err
	}
	payload, err := wire.Decode(raw)
	if err != nil {
		return zero, false, fmt.Errorf("store: decode %q: %w", key, err)
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		return zero, false, fmt.Errorf("store: decode %q: %w", key, err)
	}
	return v, true, nil
}

func (s *KV[U]) Set(ctx context.Context, key string, value U) error {
	payload, err := s.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}
	b, err := wire.Encode(payload, s.compress)
	if err != nil {
		return err
	}
	ok, err := s.provider.Set(ctx, s.storageKey(key), b)
	if err != nil {
		return err
	}
	if !ok && !s.ignoreRejected {
		return ErrRejected
	}
	return nil
}

// Close closes the provider.
func (s *KV[U]) Close(ctx context.Context) error {
	return s.provider.Close(ctx)
}

func (s *KV[U]) storageKey(key string) string {
	return util.StorageKey(s.ns, key)
}
