package ledger

import (
	"context"

	"hiace/internal/core"
	"hiace/internal/log"
)

// Persister stores the whole aggregate as one document. Load reports
// found=false when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (data core.AppData, found bool, err error)
	Save(ctx context.Context, data core.AppData) error
}

// Load replaces the in-memory state with the persisted aggregate. A missing
// document yields an empty ledger with default settings.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.persister == nil {
		l.data = core.NewAppData()
		return nil
	}

	data, found, err := l.persister.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		l.data = core.NewAppData()
		l.logger.InfoContext(ctx, "No persisted ledger found, starting empty", log.FieldOperation, log.OpLoad)
		return nil
	}

	normalizeAppData(&data)
	l.data = data
	l.version++
	l.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldOperation, log.OpLoad,
		"entries", len(data.DailyEntries),
		log.FieldCashBalance, data.CashBalance.String())
	return nil
}

// Flush writes the current aggregate through the persister.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.persister == nil {
		return nil
	}
	return l.persister.Save(ctx, l.data.Clone())
}

// Close flushes the ledger. The persister's own resources are owned by the
// caller that created it.
func (l *Ledger) Close(ctx context.Context) error {
	return l.Flush(ctx)
}

// persistLocked rewrites the aggregate after a mutation. Failures are logged,
// the mutation stands.
func (l *Ledger) persistLocked(ctx context.Context) {
	if l.persister == nil {
		return
	}
	if err := l.persister.Save(ctx, l.data.Clone()); err != nil {
		l.logger.ErrorContext(ctx, "Failed to persist ledger",
			log.FieldOperation, log.OpPersist,
			log.FieldError, err)
	}
}

func normalizeAppData(d *core.AppData) {
	if d.DailyEntries == nil {
		d.DailyEntries = []core.DailyEntry{}
	}
	for i := range d.DailyEntries {
		normalizeEntry(&d.DailyEntries[i])
	}
	if d.Debts == nil {
		d.Debts = []core.Debt{}
	}
	if d.ProvisionalDebts == nil {
		d.ProvisionalDebts = []core.ProvisionalDebt{}
	}
	if d.Automations == nil {
		d.Automations = []core.AutomationTask{}
	}
	if d.Objectives == nil {
		d.Objectives = []core.Objective{}
	}
	if d.Notifications == nil {
		d.Notifications = []core.Notification{}
	}
	if d.Settings.Currency == "" {
		d.Settings.Currency = core.DefaultSettings().Currency
	}
}

func normalizeEntry(e *core.DailyEntry) {
	if e.Expenses == nil {
		e.Expenses = []core.ExpenseItem{}
	}
	if e.Breakdowns == nil {
		e.Breakdowns = []core.BreakdownItem{}
	}
	if e.DayType == "" {
		e.DayType = core.DayNormal
	}
}
