package batchcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The merger calls them on every invocation.
type Hooks interface {
	// An invocation was split into cached and uncached keys.
	// items is the input length, distinct the number of distinct keys and
	// uncached the number of keys passed to the batch func.
	BatchPartitioned(name string, items, distinct, uncached int)

	// The batch func failed for uncached keys; nothing was written.
	ComputeFailed(name string, uncached int, err error)

	// The store returned an error. op ∈ {"has", "get", "set"}.
	StoreFailed(name, op string, err error)

	// A key written during this invocation was missing on read-back
	// (store rejected or evicted it); the computed value was returned instead.
	FreshWriteDropped(name, key string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) BatchPartitioned(string, int, int, int) {}
func (NopHooks) ComputeFailed(string, int, error)       {}
func (NopHooks) StoreFailed(string, string, error)      {}
func (NopHooks) FreshWriteDropped(string, string)       {}
