// Package provider defines the byte store behind store.KV.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). If a store performs internal transforms
// (e.g., compression), they MUST be fully reversed.
//
// Important: the keyspace "bc:<ns>:" is owned by store.KV. External code MUST NOT
// write values under that prefix; foreign bytes fail wire validation and surface
// as read errors.
//
// No expiry is applied by batchcache. Providers that evict under memory pressure
// (bigcache, ristretto) are allowed: the merger reads cached values before
// writing fresh ones, falls back to the computed value for a fresh write that
// is gone on read-back, and recomputes evicted keys on a later call.
package provider

import (
	"context"
)

// Provider is a minimal byte store.
// Must be safe for concurrent use.
type Provider interface {
	// Has reports presence without requiring the caller to read the value.
	Has(ctx context.Context, key string) (bool, error)

	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with no expiry.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte) (ok bool, err error)

	// Close releases resources.
	Close(ctx context.Context) error
}
