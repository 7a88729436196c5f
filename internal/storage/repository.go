package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// historyDepth is how many previous versions of a blob are retained.
const historyDepth = 20

// SQLiteRepository keeps blobs in SQLite, with the last historyDepth
// versions of each key in app_state_history.
type SQLiteRepository struct {
	db     *sql.DB
	schema uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &SQLiteRepository{db: db, schema: schema}, nil
}

// SchemaVersion is the migration version the database was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schema
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements BlobStore
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM app_state WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select app state: %w", err)
	}
	return data, nil
}

// Put implements BlobStore. The replaced version is moved to the history
// table and old history is pruned in the same transaction.
func (r *SQLiteRepository) Put(ctx context.Context, key string, data []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO app_state_history (key, data) SELECT key, data FROM app_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("archive app state: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM app_state_history WHERE key = ? AND id NOT IN (
			SELECT id FROM app_state_history WHERE key = ? ORDER BY id DESC LIMIT ?)`,
		key, key, historyDepth); err != nil {
		return fmt.Errorf("prune app state history: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO app_state (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		key, data); err != nil {
		return fmt.Errorf("upsert app state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit app state: %w", err)
	}
	return nil
}

// HistoryCount returns how many archived versions exist for key.
func (r *SQLiteRepository) HistoryCount(ctx context.Context, key string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM app_state_history WHERE key = ?`, key).Scan(&n); err != nil {
		return 0, fmt.Errorf("count app state history: %w", err)
	}
	return n, nil
}
