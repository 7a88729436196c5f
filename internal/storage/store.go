// Package storage persists the application aggregate as a single document
// keyed by an application identifier.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hiace/internal/core"
)

// ErrNotFound is returned when no document exists for a key.
var ErrNotFound = errors.New("document not found")

// BlobStore stores opaque documents by key.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Close() error
}

// AppDataStore serializes the aggregate as JSON into a BlobStore.
type AppDataStore struct {
	blobs BlobStore
	key   string
}

func NewAppDataStore(blobs BlobStore, key string) *AppDataStore {
	return &AppDataStore{blobs: blobs, key: key}
}

// Load returns the stored aggregate. found is false when nothing was saved.
func (s *AppDataStore) Load(ctx context.Context) (core.AppData, bool, error) {
	raw, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return core.AppData{}, false, nil
	}
	if err != nil {
		return core.AppData{}, false, fmt.Errorf("load %s: %w", s.key, err)
	}

	data := core.NewAppData()
	if err := json.Unmarshal(raw, &data); err != nil {
		return core.AppData{}, false, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return data, true, nil
}

// Save rewrites the whole aggregate.
func (s *AppDataStore) Save(ctx context.Context, data core.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.blobs.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("save %s: %w", s.key, err)
	}
	return nil
}

// Close releases the underlying store.
func (s *AppDataStore) Close() error {
	return s.blobs.Close()
}
