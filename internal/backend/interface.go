package backend

import (
	"context"

	"hiace/internal/amqp"
	"hiace/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the persistence for the ledger and, when configured,
// the transport to the shared document store.
type BackendResult struct {
	Store     *storage.AppDataStore
	Transport *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Key of the persisted aggregate
	AppID string

	SQLiteDBPath string
	BoltDBPath   string

	// AMQP is optional; an empty URL runs offline
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	SyncOrigin   string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	BoltBackend   BackendType = "bolt"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, BoltBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
