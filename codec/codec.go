// Package codec converts values to and from bytes. Byte-backed stores use a
// Codec for cached results; keyhash uses one to serialize items before
// digesting them, which is why hashing codecs must be deterministic.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
