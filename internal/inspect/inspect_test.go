package inspect

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/batchcache/codec"
	"github.com/unkn0wn-root/batchcache/internal/wire"
	"github.com/unkn0wn-root/batchcache/keyhash"
	"github.com/unkn0wn-root/batchcache/provider/bolt"
	"github.com/unkn0wn-root/batchcache/store"
)

func seed(t *testing.T) *bolt.Provider {
	t.Helper()
	ctx := context.Background()

	p, err := bolt.New(bolt.Config{Path: filepath.Join(t.TempDir(), "c.db"), NoSync: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })

	plain, err := store.NewKV(store.Options[string]{Namespace: "embed-v1", Provider: p, Codec: codec.String{}})
	require.NoError(t, err)
	packed, err := store.NewKV(store.Options[string]{Namespace: "rank", Provider: p, Codec: codec.String{}, Compress: true})
	require.NoError(t, err)

	require.NoError(t, plain.Set(ctx, "a", "alpha"))
	require.NoError(t, plain.Set(ctx, "b", "beta"))
	require.NoError(t, packed.Set(ctx, "c", "gamma"))

	_, err = p.Set(ctx, "bc:embed-v1:broken", []byte("not a frame"))
	require.NoError(t, err)
	_, err = p.Set(ctx, "unrelated", []byte("x"))
	require.NoError(t, err)
	return p
}

func TestScanAll(t *testing.T) {
	require := require.New(t)

	st, entries, err := Scan(seed(t), "")
	require.NoError(err)
	require.Equal(4, st.Entries)
	require.Equal(1, st.Compressed)
	require.Equal(1, st.Corrupt)
	require.Equal(1, st.Foreign)
	require.Equal([]string{"embed-v1", "rank"}, st.SortedNamespaces())
	require.Equal(3, st.Namespaces["embed-v1"])
	require.Len(entries, 4)

	var total int64
	for _, e := range entries {
		total += int64(e.Size)
	}
	require.Equal(total, st.Bytes)
}

func TestScanNamespace(t *testing.T) {
	require := require.New(t)

	st, entries, err := Scan(seed(t), "rank")
	require.NoError(err)
	require.Equal(1, st.Entries)
	require.Len(entries, 1)
	require.Equal("c", entries[0].Key)
	require.True(entries[0].Compressed)
}

func TestPayload(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	p := seed(t)

	b, err := Payload(ctx, p, "rank", "c")
	require.NoError(err)
	require.Equal("gamma", string(b))

	_, err = Payload(ctx, p, "rank", "zzz")
	require.ErrorIs(err, ErrNotFound)

	_, err = Payload(ctx, p, "embed-v1", "broken")
	require.True(errors.Is(err, wire.ErrCorrupt))
}

func TestScanPrefixedKeysStayInNamespace(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	p := seed(t)

	kv, err := store.NewKV(store.Options[string]{Namespace: "embed-v1", Provider: p, Codec: codec.String{}})
	require.NoError(err)
	k, err := keyhash.Prefixed("v2", keyhash.String(keyhash.SHA256))("hello")
	require.NoError(err)
	require.NoError(kv.Set(ctx, k, "vec"))

	st, entries, err := Scan(p, "embed-v1")
	require.NoError(err)
	require.Equal(4, st.Entries)
	require.Equal([]string{"embed-v1"}, st.SortedNamespaces())

	var found bool
	for _, e := range entries {
		found = found || e.Key == k
	}
	require.True(found, "prefixed key missing from namespace listing")

	b, err := Payload(ctx, p, "embed-v1", k)
	require.NoError(err)
	require.Equal("vec", string(b))
}
