package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiace/internal/core"
)

func blobStores(t *testing.T) map[string]BlobStore {
	t.Helper()
	dir := t.TempDir()

	sqliteRepo, err := NewSQLiteRepository(filepath.Join(dir, "sqlite", "hiace.db"))
	require.NoError(t, err)
	boltStore, err := NewBoltStore(filepath.Join(dir, "bolt", "hiace.bolt"))
	require.NoError(t, err)

	stores := map[string]BlobStore{
		"memory": NewMemoryStore(),
		"sqlite": sqliteRepo,
		"bolt":   boltStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestBlobStores_GetPut(t *testing.T) {
	ctx := context.Background()
	for name, s := range blobStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "app", []byte(`{"a":1}`)))
			require.NoError(t, s.Put(ctx, "app", []byte(`{"a":2}`)))

			got, err := s.Get(ctx, "app")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, string(got))
		})
	}
}

func TestMemoryStore_CopiesData(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", buf))
	buf[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLiteRepository_KeepsBoundedHistory(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "hiace.db"))
	require.NoError(t, err)
	defer repo.Close()

	for i := 0; i < historyDepth+5; i++ {
		require.NoError(t, repo.Put(ctx, "app", []byte{byte(i)}))
	}
	n, err := repo.HistoryCount(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, historyDepth, n)
}

func TestRunMigrations_ReportsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hiace.db")

	v, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)

	// Already current.
	v, err = RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	assert.Equal(t, uint(2), repo.SchemaVersion())
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hiace.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, "app", []byte("state")))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.Get(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, "state", string(got))
}

func TestAppDataStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewAppDataStore(NewMemoryStore(), "hiace-app")

	_, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	data := core.NewAppData()
	data.CashBalance = decimal.NewFromInt(12500)
	data.DailyEntries = append(data.DailyEntries, core.DailyEntry{
		ID:         "e1",
		Date:       core.NewDate(2024, 3, 4),
		DayType:    core.DayNormal,
		Revenue:    decimal.NewFromInt(20000),
		NetRevenue: decimal.NewFromInt(20000),
		Expenses:   []core.ExpenseItem{},
		Breakdowns: []core.BreakdownItem{},
	})
	require.NoError(t, store.Save(ctx, data))

	got, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.CashBalance.Equal(decimal.NewFromInt(12500)))
	require.Len(t, got.DailyEntries, 1)
	assert.Equal(t, "e1", got.DailyEntries[0].ID)
	assert.True(t, got.DailyEntries[0].Date.Equal(core.NewDate(2024, 3, 4)))
}

func TestAppDataStore_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryStore()
	require.NoError(t, blobs.Put(ctx, "hiace-app", []byte("{not json")))

	_, _, err := NewAppDataStore(blobs, "hiace-app").Load(ctx)
	assert.Error(t, err)
}
