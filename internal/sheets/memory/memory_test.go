package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"hiace/internal/core"
	"hiace/internal/sheets"
)

func TestExporter_ExportEntries(t *testing.T) {
	e := New()
	entries := []core.DailyEntry{
		{ID: "2", Date: core.NewDate(2024, 3, 2), DayType: core.DayNormal, NetRevenue: decimal.NewFromInt(10)},
		{ID: "1", Date: core.NewDate(2024, 3, 1), DayType: core.DayMaintenance, NetRevenue: decimal.NewFromInt(-5)},
	}

	n, err := e.ExportEntries(context.Background(), entries)
	if err != nil {
		t.Fatalf("ExportEntries() error = %v", err)
	}
	if n != 2 {
		t.Errorf("ExportEntries() = %d, want 2", n)
	}

	rows := e.Rows()
	if len(rows) != 3 {
		t.Fatalf("Rows() len = %d, want 3", len(rows))
	}
	if rows[0][0] != sheets.JournalHeader[0] {
		t.Errorf("first row = %v, want header", rows[0])
	}
	if rows[1][0] != "2024-03-01" || rows[1][1] != "maintenance" {
		t.Errorf("oldest row = %v", rows[1])
	}

	// A second export replaces the first.
	if _, err := e.ExportEntries(context.Background(), entries[:1]); err != nil {
		t.Fatalf("ExportEntries() error = %v", err)
	}
	if got := len(e.Rows()); got != 2 {
		t.Errorf("Rows() after re-export = %d, want 2", got)
	}
	if e.Exports() != 2 {
		t.Errorf("Exports() = %d, want 2", e.Exports())
	}
}

func TestExporter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().ExportEntries(ctx, nil); err == nil {
		t.Fatal("expected context error")
	}
}
