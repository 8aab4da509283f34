package codec

import "encoding/json"

// JSON uses encoding/json. The zero value is ready to use.
// encoding/json sorts map keys, so it is deterministic for hashing as long
// as V has no custom MarshalJSON with unstable output.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
