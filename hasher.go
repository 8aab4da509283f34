package batchcache

import (
	"github.com/unkn0wn-root/batchcache/codec"
	"github.com/unkn0wn-root/batchcache/keyhash"
)

// DefaultHasher serializes items as deterministic CBOR (RFC 8949 core
// deterministic encoding, so map order does not matter) and returns the
// hex SHA-256 of the bytes.
//
// Items that CBOR cannot encode (channels, funcs) make the hasher fail;
// supply a custom Hasher for those.
func DefaultHasher[T any]() Hasher[T] {
	return Hasher[T](keyhash.New[T](codec.MustCBOR[T](true), keyhash.SHA256))
}
