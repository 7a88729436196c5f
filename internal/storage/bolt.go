package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// BucketAppState holds one document per application id.
const BucketAppState = "app_state"

// BoltStore is a BlobStore backed by a bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database and its bucket.
func NewBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(BucketAppState)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", BucketAppState, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Get implements BlobStore. The returned slice is a copy; bbolt memory is
// only valid inside the transaction.
func (s *BoltStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketAppState))
		if b == nil {
			return fmt.Errorf("bucket %s not found", BucketAppState)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), data...)
		return nil
	})
	return out, err
}

// Put implements BlobStore
func (s *BoltStore) Put(_ context.Context, key string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketAppState))
		if b == nil {
			return fmt.Errorf("bucket %s not found", BucketAppState)
		}
		return b.Put([]byte(key), data)
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
