package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiace/internal/config"
	"hiace/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFactory_CreateBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
	}{
		{"memory", Config{Type: MemoryBackend, AppID: "app"}},
		{"sqlite", Config{Type: SQLiteBackend, AppID: "app", SQLiteDBPath: filepath.Join(dir, "hiace.db")}},
		{"bolt", Config{Type: BoltBackend, AppID: "app", BoltDBPath: filepath.Join(dir, "hiace.bolt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(discardLogger()).CreateBackend(ctx, tt.config)
			require.NoError(t, err)
			defer func() { assert.NoError(t, res.Cleanup()) }()

			assert.Nil(t, res.Transport)

			data := core.NewAppData()
			data.CashBalance = decimal.NewFromInt(900)
			require.NoError(t, res.Store.Save(ctx, data))

			got, found, err := res.Store.Load(ctx)
			require.NoError(t, err)
			require.True(t, found)
			assert.True(t, got.CashBalance.Equal(decimal.NewFromInt(900)))
		})
	}
}

func TestFactory_InvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, AppID: "app"})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid memory", Config{Type: MemoryBackend, AppID: "a"}, false},
		{"invalid type", Config{Type: "sheets", AppID: "a"}, true},
		{"missing app id", Config{Type: MemoryBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend, AppID: "a"}, true},
		{"bolt without path", Config{Type: BoltBackend, AppID: "a"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AppID: "a", AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg := &config.Config{
		DataBackend:  "bolt",
		AppID:        "hiace-manager-store",
		BoltDBPath:   "/tmp/x.bolt",
		AMQPQueue:    "hiace-sync",
		SyncOrigin:   "van-1",
		AMQPExchange: "hiace",
	}
	bc, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, BoltBackend, bc.Type)
	assert.Equal(t, "/tmp/x.bolt", bc.BoltDBPath)
	assert.Equal(t, "hiace-sync.van-1", bc.QueueName())

	cfg.DataBackend = "sheets"
	_, err = FromAppConfig(cfg)
	assert.Error(t, err)
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"sqlite", "bolt", "memory"}, GetBackendTypeStrings())
}
