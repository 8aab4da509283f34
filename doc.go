// Package batchcache memoizes batch functions per item.
//
// A batch function takes a slice of items and returns one result per item,
// in order (an embedding endpoint, a bulk lookup, a model scoring call). A
// Merger sits in front of it: every Invoke hashes the items, asks the store
// which keys it already holds, sends only the missing items to the batch
// function in one call, writes those results back and returns one result
// per input position.
//
// Components:
//   - Store[U]: the key/value mapping (store/memory, or store.KV over any
//     byte provider: bbolt, Redis, BigCache, Ristretto).
//   - Hasher[T]: item -> key. DefaultHasher is SHA-256 over deterministic CBOR;
//     keyhash builds others from any codec and digest.
//   - Logger and Hooks: optional observability (log/*, sloghooks, hooks/async,
//     metrics).
//
// Entries are never evicted or invalidated by the merger. Duplicate items in
// one call are computed once; every position receives the result.
//
//	st := memory.New[[]float32]()
//	embed, _ := batchcache.Wrap[string, []float32](st, nil, callModel)
//	vecs, err := embed(ctx, []string{"a", "b", "a"})
//
// Concurrent callers that miss the same key each compute it; place an
// inflight.Group between the Merger and the batch func to share in-flight
// work.
package batchcache
