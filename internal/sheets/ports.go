// Package sheets defines the spreadsheet export port and the journal layout
// shared by its adapters.
package sheets

import (
	"context"
	"sort"

	"hiace/internal/core"
)

// EntryExporter replaces the journal sheet with the given entries and
// returns the number of rows written, header excluded.
type EntryExporter interface {
	ExportEntries(ctx context.Context, entries []core.DailyEntry) (int, error)
}

// JournalHeader is the first row of the journal sheet.
var JournalHeader = []any{"Date", "Type", "Revenue", "Expenses", "Breakdowns", "Net", "Comment"}

// JournalRows renders entries oldest first, header included. Entries on the
// same date keep their relative order.
func JournalRows(entries []core.DailyEntry) [][]any {
	sorted := append([]core.DailyEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date.Time)
	})

	rows := make([][]any, 0, len(sorted)+1)
	rows = append(rows, JournalHeader)
	for _, e := range sorted {
		rows = append(rows, []any{
			e.Date.String(),
			string(e.DayType),
			e.Revenue.InexactFloat64(),
			core.SumExpenses(e.Expenses).InexactFloat64(),
			core.SumBreakdowns(e.Breakdowns).InexactFloat64(),
			e.NetRevenue.InexactFloat64(),
			e.Comment,
		})
	}
	return rows
}
