// Package bolt is a durable provider backed by a single bbolt file.
// Results survive process restarts, which makes it the usual choice for
// caching expensive remote calls during local development and batch jobs.
package bolt

import (
	"context"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"

	pr "github.com/unkn0wn-root/batchcache/provider"
)

const defaultBucket = "batchcache"

var ErrNoPath = errors.New("bolt provider: path or DB is required")

type Provider struct {
	db      *bolt.DB
	bucket  []byte
	closeDB bool
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Path    string        // file to open (created with 0600); ignored when DB is set
	DB      *bolt.DB      // optional: share an already opened database
	Bucket  string        // "" => "batchcache"
	Timeout time.Duration // file lock wait; 0 => 1s
	NoSync  bool          // skip fsync per write; faster, loses the tail on crash
}

func New(cfg Config) (*Provider, error) {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = defaultBucket
	}

	db, owned := cfg.DB, false
	if db == nil {
		if cfg.Path == "" {
			return nil, ErrNoPath
		}
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = time.Second
		}
		var err error
		db, err = bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: timeout, NoSync: cfg.NoSync})
		if err != nil {
			return nil, err
		}
		owned = true
	}

	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		if owned {
			_ = db.Close()
		}
		return nil, err
	}
	return &Provider{db: db, bucket: []byte(bucket), closeDB: owned}, nil
}

func (p *Provider) Has(_ context.Context, key string) (bool, error) {
	var ok bool
	err := p.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(p.bucket).Get([]byte(key)) != nil
		return nil
	})
	return ok, err
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := p.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(p.bucket).Get([]byte(key))
		if v != nil {
			// v is only valid inside the transaction
			out = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte) (bool, error) {
	err := p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Put([]byte(key), value)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Walk calls fn for every entry in key order. value is only valid during
// the call. Returning an error from fn stops the walk.
func (p *Provider) Walk(fn func(key string, value []byte) error) error {
	return p.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}

// Close closes the database only when this provider opened it.
func (p *Provider) Close(_ context.Context) error {
	if p.closeDB {
		return p.db.Close()
	}
	return nil
}
