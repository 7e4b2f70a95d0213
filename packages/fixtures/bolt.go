package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps fixtures in a bbolt file, one bucket per collection.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (and creates if needed) the bbolt file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create fixture directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Save writes every collection in r in one update transaction.
func (b *BoltStore) Save(r *Registry) error {
	entries, err := snapshot(r)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		for _, e := range entries {
			bucket, err := tx.CreateBucketIfNotExists([]byte(e.collection))
			if err != nil {
				return fmt.Errorf("create bucket %q: %w", e.collection, err)
			}
			if err := bucket.Put([]byte(e.key), e.value); err != nil {
				return fmt.Errorf("save %s[%q]: %w", e.collection, e.key, err)
			}
		}
		return nil
	})
}

// Load sets every stored fixture into r. Keys come back in byte order.
func (b *BoltStore) Load(r *Registry) error {
	return b.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, bucket *bolt.Bucket) error {
			return bucket.ForEach(func(k, v []byte) error {
				return restore(r, entry{
					collection: string(name),
					key:        string(k),
					value:      append([]byte(nil), v...),
				})
			})
		})
	})
}

// Close closes the bbolt file.
func (b *BoltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
