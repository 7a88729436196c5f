package memory

import (
	"context"
	"sync"

	"hiace/internal/core"
	"hiace/internal/sheets"
)

// Exporter keeps the last exported journal in memory.
type Exporter struct {
	mu      sync.Mutex
	rows    [][]any
	exports int
}

var _ sheets.EntryExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// ExportEntries implements sheets.EntryExporter
func (e *Exporter) ExportEntries(ctx context.Context, entries []core.DailyEntry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rows := sheets.JournalRows(entries)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = rows
	e.exports++
	return len(rows) - 1, nil
}

// Rows returns the journal as last exported, header included.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]any(nil), e.rows...)
}

// Exports returns how many exports ran.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
