package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiace/internal/backend"
	"hiace/internal/core"
	"hiace/internal/ledger"
	"hiace/internal/storage"
)

var testNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

// sharedFactory hands every command the same in-memory blob store, so state
// seeded by a test is visible to the command under test.
type sharedFactory struct {
	blobs *storage.MemoryStore
}

func (f sharedFactory) CreateBackend(_ context.Context, cfg backend.Config) (*backend.BackendResult, error) {
	return &backend.BackendResult{
		Store:   storage.NewAppDataStore(f.blobs, cfg.AppID),
		Cleanup: func() error { return nil },
	}, nil
}

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("APP_ID", "cli-test")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("LOG_LEVEL", "error")
}

func seed(t *testing.T, blobs *storage.MemoryStore, fn func(ctx context.Context, l *ledger.Ledger)) {
	t.Helper()
	ctx := context.Background()
	l := ledger.New(ledger.WithPersister(storage.NewAppDataStore(blobs, "cli-test")))
	require.NoError(t, l.Load(ctx))
	fn(ctx, l)
	require.NoError(t, l.Close(ctx))
}

func run(t *testing.T, blobs *storage.MemoryStore, args ...string) (string, error) {
	t.Helper()
	setupEnv(t)
	cmd := newRootCommand(&RootOptions{
		Factory: sharedFactory{blobs: blobs},
		Now:     func() time.Time { return testNow },
	})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	for _, path := range [][]string{
		{"serve"},
		{"report"},
		{"automations", "run"},
		{"automations", "draft"},
		{"objectives", "check"},
		{"export", "sheets"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, "find %v", path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("env-file"))
	report, _, err := root.Find([]string{"report"})
	require.NoError(t, err)
	for _, name := range []string{"month", "days", "all", "format"} {
		assert.NotNil(t, report.Flags().Lookup(name), "report flag %s", name)
	}
}

func TestReportOptions_Period(t *testing.T) {
	tests := []struct {
		name     string
		opts     reportOptions
		wantFrom string
		wantTo   string
		wantErr  bool
	}{
		{name: "default month", opts: reportOptions{}, wantFrom: "2024-03-01", wantTo: "2024-03-31"},
		{name: "explicit month", opts: reportOptions{month: "2024-02"}, wantFrom: "2024-02-01", wantTo: "2024-02-29"},
		{name: "bad month", opts: reportOptions{month: "02/2024"}, wantErr: true},
		{name: "negative days", opts: reportOptions{days: -3}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.opts.period(testNow)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, p.From.String())
			assert.Equal(t, tt.wantTo, p.To.String())
		})
	}
}

func TestReportCommand_JSON(t *testing.T) {
	blobs := storage.NewMemoryStore()
	seed(t, blobs, func(ctx context.Context, l *ledger.Ledger) {
		l.AddDailyEntry(ctx, core.DailyEntry{
			Date:    core.DateOf(testNow),
			DayType: core.DayNormal,
			Revenue: decimal.NewFromInt(30000),
		})
	})

	out, err := run(t, blobs, "report", "--format", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got)
	assert.Contains(t, out, "30000")
}

func TestReportCommand_ExclusiveFlags(t *testing.T) {
	_, err := run(t, storage.NewMemoryStore(), "report", "--all", "--days", "7")
	require.Error(t, err)
}

func TestObjectivesCheck(t *testing.T) {
	blobs := storage.NewMemoryStore()
	seed(t, blobs, func(ctx context.Context, l *ledger.Ledger) {
		l.AddObjective(ctx, core.Objective{
			Title:      "Insurance",
			TargetDate: core.DateOf(testNow.AddDate(0, 0, -2)),
		})
		l.AddObjective(ctx, core.Objective{
			Title:      "Tyres",
			TargetDate: core.DateOf(testNow.AddDate(0, 0, 3)),
		})
	})

	out, err := run(t, blobs, "objectives", "check")
	require.NoError(t, err)
	assert.Equal(t, "1 objective(s) marked late, 1 reminder(s) created\n", out)

	out, err = run(t, blobs, "objectives", "check")
	require.NoError(t, err)
	assert.Equal(t, "0 objective(s) marked late, 0 reminder(s) created\n", out)
}

func TestAutomationsDraft(t *testing.T) {
	blobs := storage.NewMemoryStore()
	seed(t, blobs, func(ctx context.Context, l *ledger.Ledger) {
		l.AddAutomation(ctx, core.AutomationTask{
			Name:      "Parking",
			Category:  "Parking",
			Amount:    decimal.NewFromInt(1500),
			Frequency: core.Daily,
			IsActive:  true,
		})
	})

	out, err := run(t, blobs, "automations", "draft", "--date", "2024-03-16")
	require.NoError(t, err)
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "Parking")
	assert.Contains(t, out, "TOTAL")

	_, err = run(t, blobs, "automations", "draft", "--date", "16/03/2024")
	require.Error(t, err)
}

func TestAutomationsDraft_Empty(t *testing.T) {
	out, err := run(t, storage.NewMemoryStore(), "automations", "draft")
	require.NoError(t, err)
	assert.Equal(t, "No automations due\n", out)
}

func TestAutomationsRun(t *testing.T) {
	blobs := storage.NewMemoryStore()
	seed(t, blobs, func(ctx context.Context, l *ledger.Ledger) {
		l.AddAutomation(ctx, core.AutomationTask{
			Name:      "Insurance",
			Category:  "Insurance",
			Amount:    decimal.NewFromInt(9000),
			Frequency: core.Monthly,
			IsActive:  true,
		})
	})

	out, err := run(t, blobs, "automations", "run")
	require.NoError(t, err)
	assert.Equal(t, "1 automated expense(s) booked on 2024-03-15\n", out)

	// Stamped as triggered, so a second run books nothing.
	out, err = run(t, blobs, "automations", "run")
	require.NoError(t, err)
	assert.Equal(t, "0 automated expense(s) booked on 2024-03-15\n", out)
}

func TestExportSheets_DryRun(t *testing.T) {
	blobs := storage.NewMemoryStore()
	seed(t, blobs, func(ctx context.Context, l *ledger.Ledger) {
		l.AddDailyEntry(ctx, core.DailyEntry{
			Date:    core.DateOf(testNow),
			DayType: core.DayNormal,
			Revenue: decimal.NewFromInt(30000),
		})
	})

	out, err := run(t, blobs, "export", "sheets", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "row(s) exported")
}

func TestExportSheets_Disabled(t *testing.T) {
	_, err := run(t, storage.NewMemoryStore(), "export", "sheets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets export is disabled")
}
