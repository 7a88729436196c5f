package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hiace/internal/amqp"
	"hiace/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend. A broker that cannot be
// reached is logged and the backend runs offline.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	blobs, err := f.createBlobStore(config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{
		Store: storage.NewAppDataStore(blobs, config.AppID),
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.QueueName())
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			result.Transport = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.QueueName())
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if result.Transport != nil {
			errs = append(errs, result.Transport.Close())
		}
		errs = append(errs, result.Store.Close())
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		"backend", config.Type,
		"app_id", config.AppID,
		"amqp_enabled", result.Transport != nil)

	return result, nil
}

func (f *DefaultFactory) createBlobStore(config Config) (storage.BlobStore, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite storage",
			"db_path", config.SQLiteDBPath,
			"schema_version", repo.SchemaVersion())
		return repo, nil
	case BoltBackend:
		store, err := storage.NewBoltStore(config.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
		}
		f.logger.Info("Initialized bolt storage", "db_path", config.BoltDBPath)
		return store, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory storage")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
