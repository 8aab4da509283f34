// Package inspect reads batchcache entries straight from a byte provider
// without knowing the value type. It backs the bcinspect command.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/unkn0wn-root/batchcache/internal/util"
	"github.com/unkn0wn-root/batchcache/internal/wire"
	pr "github.com/unkn0wn-root/batchcache/provider"
)

var ErrNotFound = errors.New("inspect: entry not found")

// Walker is implemented by providers that can enumerate their contents
// (provider/bolt).
type Walker interface {
	Walk(fn func(key string, value []byte) error) error
}

type Entry struct {
	Namespace  string
	Key        string
	Size       int // bytes as stored, header included
	Compressed bool
	Corrupt    bool
}

type Stats struct {
	Entries    int
	Bytes      int64
	Compressed int
	Corrupt    int
	Foreign    int            // keys not written by store.KV
	Namespaces map[string]int // entries per namespace
}

// SortedNamespaces returns the namespaces in Stats in lexical order.
func (s Stats) SortedNamespaces() []string {
	out := make([]string, 0, len(s.Namespaces))
	for ns := range s.Namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Scan walks every entry. A non-empty ns restricts entries (and Stats) to
// that namespace; foreign keys are counted but never listed.
func Scan(w Walker, ns string) (Stats, []Entry, error) {
	st := Stats{Namespaces: map[string]int{}}
	var entries []Entry
	err := w.Walk(func(sk string, v []byte) error {
		n, k, ok := util.SplitStorageKey(sk)
		if !ok {
			st.Foreign++
			return nil
		}
		if ns != "" && n != ns {
			return nil
		}
		e := Entry{Namespace: n, Key: k, Size: len(v)}
		if h, err := wire.Peek(v); err != nil {
			e.Corrupt = true
			st.Corrupt++
		} else if h.Compressed {
			e.Compressed = true
			st.Compressed++
		}
		st.Entries++
		st.Bytes += int64(len(v))
		st.Namespaces[n]++
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return Stats{}, nil, err
	}
	return st, entries, nil
}

// Payload returns the decoded (decompressed) codec bytes for one entry.
func Payload(ctx context.Context, p pr.Provider, ns, key string) ([]byte, error) {
	b, ok, err := p.Get(ctx, util.StorageKey(ns, key))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", ErrNotFound, ns, key)
	}
	return wire.Decode(b)
}
