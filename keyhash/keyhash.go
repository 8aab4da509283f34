// Package keyhash builds item hashers: serialize with a codec, then digest.
//
// SHA256 is the default and the only digest fit for keys that must never
// collide. XXHash64 and Murmur3 are much faster but not collision resistant;
// use them only when the key space is small or a collision is harmless.
package keyhash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"

	"github.com/unkn0wn-root/batchcache/codec"
)

type Digest int

const (
	SHA256   Digest = iota // 64 hex chars
	XXHash64               // 16 hex chars
	Murmur3                // 128-bit, 32 hex chars
)

func (d Digest) String() string {
	switch d {
	case SHA256:
		return "sha256"
	case XXHash64:
		return "xxhash64"
	case Murmur3:
		return "murmur3"
	default:
		return fmt.Sprintf("digest(%d)", int(d))
	}
}

// Sum returns the hex digest of b.
func (d Digest) Sum(b []byte) string {
	switch d {
	case XXHash64:
		var out [8]byte
		binary.BigEndian.PutUint64(out[:], xxhash.Sum64(b))
		return hex.EncodeToString(out[:])
	case Murmur3:
		h1, h2 := murmur3.Sum128(b)
		var out [16]byte
		binary.BigEndian.PutUint64(out[:8], h1)
		binary.BigEndian.PutUint64(out[8:], h2)
		return hex.EncodeToString(out[:])
	default:
		sum := sha256.Sum256(b)
		return hex.EncodeToString(sum[:])
	}
}

// New returns a hasher that encodes an item with c and digests the bytes.
// c must be deterministic (codec.CBOR with deterministic=true, codec.JSON,
// codec.Msgpack{Sorted: true}, codec.Protobuf).
func New[T any](c codec.Codec[T], d Digest) func(T) (string, error) {
	return func(item T) (string, error) {
		b, err := c.Encode(item)
		if err != nil {
			return "", fmt.Errorf("keyhash: encode item: %w", err)
		}
		return d.Sum(b), nil
	}
}

// String hashes string items directly.
func String(d Digest) func(string) (string, error) {
	return New[string](codec.String{}, d)
}

// Prefixed prepends prefix + ":" to every key produced by h. Bump the prefix
// (e.g. "v2") when the batch func changes meaning so old results stop matching.
func Prefixed[T any](prefix string, h func(T) (string, error)) func(T) (string, error) {
	return func(item T) (string, error) {
		k, err := h(item)
		if err != nil {
			return "", err
		}
		return prefix + ":" + k, nil
	}
}
