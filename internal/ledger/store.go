// Package ledger holds the entity collections and the cash balance of one
// vehicle, and keeps the balance consistent with daily net revenue.
//
// Every operation runs under one mutex, so a concurrent caller never observes
// a partially applied mutation. Operations addressing an unknown id are
// no-ops. After a mutation the whole aggregate is persisted and the change is
// handed to the Syncer once the lock is released.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hiace/internal/core"
	"hiace/internal/log"
)

// Ledger is the in-process store of the application data.
type Ledger struct {
	mu        sync.Mutex
	data      core.AppData
	version   uint64
	persister Persister
	syncer    Syncer
	logger    *log.Logger
	now       func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithPersister(p Persister) Option {
	return func(l *Ledger) { l.persister = p }
}

func WithSyncer(s Syncer) Option {
	return func(l *Ledger) {
		if s != nil {
			l.syncer = s
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger.WithComponent(log.ComponentLedger)
		}
	}
}

// WithClock overrides the time source used to date notifications.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithData seeds the ledger, mostly for tests and imports.
func WithData(data core.AppData) Option {
	return func(l *Ledger) {
		normalizeAppData(&data)
		l.data = data.Clone()
	}
}

// New creates an empty ledger. Call Load to restore persisted state.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		data:   core.NewAppData(),
		syncer: nopSyncer{},
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetSyncer swaps the sync port. The remote adapter needs the ledger to exist
// before it can be built, so it is attached after construction.
func (l *Ledger) SetSyncer(s Syncer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s == nil {
		s = nopSyncer{}
	}
	l.syncer = s
}

type push func(ctx context.Context, s Syncer)

func pushEntity(coll Collection, id string, doc any) push {
	return func(ctx context.Context, s Syncer) { s.PushEntity(ctx, coll, id, doc) }
}

func pushRemoval(coll Collection, id string) push {
	return func(ctx context.Context, s Syncer) { s.PushRemoval(ctx, coll, id) }
}

func pushCash(balance decimal.Decimal) push {
	return func(ctx context.Context, s Syncer) { s.PushCashBalance(ctx, balance) }
}

func pushSettings(settings core.Settings) push {
	return func(ctx context.Context, s Syncer) { s.PushSettings(ctx, settings) }
}

// commit applies fn under the lock. When fn reports a change the aggregate is
// persisted and the returned pushes run after unlocking.
func (l *Ledger) commit(ctx context.Context, fn func(d *core.AppData) (bool, []push)) bool {
	l.mu.Lock()
	changed, pushes := fn(&l.data)
	if !changed {
		l.mu.Unlock()
		return false
	}
	l.version++
	l.persistLocked(ctx)
	syncer := l.syncer
	l.mu.Unlock()

	for _, p := range pushes {
		p(ctx, syncer)
	}
	return true
}

func indexByID[T any](items []T, id string, idOf func(*T) string) int {
	for i := range items {
		if idOf(&items[i]) == id {
			return i
		}
	}
	return -1
}

func prepend[T any](items []T, v T) []T {
	return append([]T{v}, items...)
}

func removeAt[T any](items []T, i int) []T {
	return append(items[:i:i], items[i+1:]...)
}

func entryID(e *core.DailyEntry) string { return e.ID }
func debtID(d *core.Debt) string { return d.ID }
func provisionalID(p *core.ProvisionalDebt) string { return p.ID }
func automationID(a *core.AutomationTask) string { return a.ID }
func objectiveID(o *core.Objective) string { return o.ID }
func notificationID(n *core.Notification) string { return n.ID }

// Daily entries

// AddDailyEntry stores e at the head of the journal and credits its net
// revenue to the cash balance. The net revenue is recomputed from the entry's
// own fields.
func (l *Ledger) AddDailyEntry(ctx context.Context, e core.DailyEntry) core.DailyEntry {
	if e.ID == "" {
		e.ID = core.NewID()
	}
	e = e.Clone()
	normalizeEntry(&e)
	e.Recompute()

	var balance decimal.Decimal
	l.commit(ctx, func(d *core.AppData) (bool, []push) {
		d.DailyEntries = prepend(d.DailyEntries, e)
		d.CashBalance = d.CashBalance.Add(e.NetRevenue)
		balance = d.CashBalance
		return true, []push{pushEntity(DailyEntries, e.ID, e.Clone()), pushCash(balance)}
	})

	l.logger.InfoContext(ctx, "Daily entry added",
		log.NewFields().
			WithEntry(e.ID, e.Date.String(), e.NetRevenue.String()).
			WithOperation(log.OpCreate).
			ToSlice()...)
	return e
}

// UpdateDailyEntry merges patch into the entry, recomputes its net revenue
// and applies the difference to the cash balance.
func (l *Ledger) UpdateDailyEntry(ctx context.Context, id string, patch core.DailyEntryPatch) (core.DailyEntry, bool) {
	var updated core.DailyEntry
	ok := l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.DailyEntries, id, entryID)
		if i < 0 {
			return false, nil
		}
		old := d.DailyEntries[i]
		updated = patch.Apply(old)
		updated.ID = old.ID
		normalizeEntry(&updated)
		updated.Recompute()
		d.DailyEntries[i] = updated

		pushes := []push{pushEntity(DailyEntries, id, updated.Clone())}
		if delta := updated.NetRevenue.Sub(old.NetRevenue); !delta.IsZero() {
			d.CashBalance = d.CashBalance.Add(delta)
			pushes = append(pushes, pushCash(d.CashBalance))
		}
		return true, pushes
	})
	return updated, ok
}

// DeleteDailyEntry removes the entry and debits its net revenue from the
// cash balance.
func (l *Ledger) DeleteDailyEntry(ctx context.Context, id string) bool {
	var removed core.DailyEntry
	ok := l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.DailyEntries, id, entryID)
		if i < 0 {
			return false, nil
		}
		removed = d.DailyEntries[i]
		d.DailyEntries = removeAt(d.DailyEntries, i)
		d.CashBalance = d.CashBalance.Sub(removed.NetRevenue)
		return true, []push{pushRemoval(DailyEntries, id), pushCash(d.CashBalance)}
	})
	if ok {
		l.logger.InfoContext(ctx, "Daily entry deleted",
			log.NewFields().
				WithEntry(removed.ID, removed.Date.String(), removed.NetRevenue.String()).
				WithOperation(log.OpDelete).
				ToSlice()...)
	}
	return ok
}

// Debts

func (l *Ledger) AddDebt(ctx context.Context, debt core.Debt) core.Debt {
	if debt.ID == "" {
		debt.ID = core.NewID()
	}
	if debt.Status == "" {
		debt.Status = core.DebtPending
	}
	l.commit(ctx, func(d *core.AppData) (bool, []push) {
		d.Debts = prepend(d.Debts, debt)
		return true, []push{pushEntity(Debts, debt.ID, debt)}
	})
	return debt
}

// UpdateDebt merges patch into the debt. Status is taken as given; use
// PayDebt or core.DeriveDebtStatus for a derived status.
func (l *Ledger) UpdateDebt(ctx context.Context, id string, patch core.DebtPatch) (core.Debt, bool) {
	var updated core.Debt
	ok := l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Debts, id, debtID)
		if i < 0 {
			return false, nil
		}
		updated = patch.Apply(d.Debts[i])
		updated.ID = id
		d.Debts[i] = updated
		return true, []push{pushEntity(Debts, id, updated)}
	})
	return updated, ok
}

func (l *Ledger) DeleteDebt(ctx context.Context, id string) bool {
	return l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Debts, id, debtID)
		if i < 0 {
			return false, nil
		}
		d.Debts = removeAt(d.Debts, i)
		return true, []push{pushRemoval(Debts, id)}
	})
}

// PayDebt records a payment: the outstanding amount is reduced and clamped
// and the status derived from it. With fromCash the payment is also debited
// from the cash balance.
func (l *Ledger) PayDebt(ctx context.Context, id string, amount decimal.Decimal, fromCash bool) (core.Debt, bool) {
	var updated core.Debt
	ok := l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Debts, id, debtID)
		if i < 0 {
			return false, nil
		}
		updated = d.Debts[i]
		updated.ApplyPayment(amount)
		d.Debts[i] = updated
		pushes := []push{pushEntity(Debts, id, updated)}
		if fromCash {
			d.CashBalance = d.CashBalance.Sub(amount)
			pushes = append(pushes, pushCash(d.CashBalance))
		}
		return true, pushes
	})
	return updated, ok
}

// Provisional debts

func (l *Ledger) AddProvisionalDebt(ctx context.Context, p core.ProvisionalDebt) core.ProvisionalDebt {
	if p.ID == "" {
		p.ID = core.NewID()
	}
	if p.Status == "" {
		p.Status = core.ProvisionalPending
	}
	l.commit(ctx, func(d *core.AppData) (bool, []push) {
		d.ProvisionalDebts = prepend(d.ProvisionalDebts, p)
		return true, []push{pushEntity(ProvisionalDebts, p.ID, p)}
	})
	return p
}

func (l *Ledger) UpdateProvisionalDebt(ctx context.Context, id string, patch core.ProvisionalDebtPatch) (core.ProvisionalDebt, bool) {
	var updated core.ProvisionalDebt
	ok := l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.ProvisionalDebts, id, provisionalID)
		if i < 0 {
			return false, nil
		}
		updated = patch.Apply(d.ProvisionalDebts[i])
		updated.ID = id
		d.ProvisionalDebts[i] = updated
		return true, []push{pushEntity(ProvisionalDebts, id, updated)}
	})
	return updated, ok
}

func (l *Ledger) DeleteProvisionalDebt(ctx context.Context, id string) bool {
	return l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.ProvisionalDebts, id, provisionalID)
		if i < 0 {
			return false, nil
		}
		d.ProvisionalDebts = removeAt(d.ProvisionalDebts, i)
		return true, []push{pushRemoval(ProvisionalDebts, id)}
	})
}

// ConfirmProvisionalDebt promotes a provisional debt to confirmed. It stays
// in its own collection.
func (l *Ledger) ConfirmProvisionalDebt(ctx context.Context, id string) (core.ProvisionalDebt, bool) {
	status := core.ProvisionalConfirmed
	return l.UpdateProvisionalDebt(ctx, id, core.ProvisionalDebtPatch{Status: &status})
}

// Automations

func (l *Ledger) AddAutomation(ctx context.Context, a core.AutomationTask) core.AutomationTask {
	if a.ID == "" {
		a.ID = core.NewID()
	}
	l.commit(ctx, func(d *core.AppData) (bool, []push) {
		d.Automations = prepend(d.Automations, a)
		return true, []push{pushEntity(Automations, a.ID, a)}
	})
	return a
}

func (l *Ledger) UpdateAutomation(ctx context.Context, id string, patch core.AutomationPatch) (core.AutomationTask, bool) {
	var updated core.AutomationTask
	ok := l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Automations, id, automationID)
		if i < 0 {
			return false, nil
		}
		updated = patch.Apply(d.Automations[i])
		updated.ID = id
		d.Automations[i] = updated
		return true, []push{pushEntity(Automations, id, updated)}
	})
	return updated, ok
}

func (l *Ledger) DeleteAutomation(ctx context.Context, id string) bool {
	return l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Automations, id, automationID)
		if i < 0 {
			return false, nil
		}
		d.Automations = removeAt(d.Automations, i)
		return true, []push{pushRemoval(Automations, id)}
	})
}

// ToggleAutomation flips IsActive and nothing else.
func (l *Ledger) ToggleAutomation(ctx context.Context, id string) (core.AutomationTask, bool) {
	var updated core.AutomationTask
	ok := l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Automations, id, automationID)
		if i < 0 {
			return false, nil
		}
		d.Automations[i].IsActive = !d.Automations[i].IsActive
		updated = d.Automations[i]
		return true, []push{pushEntity(Automations, id, updated)}
	})
	return updated, ok
}

// MarkAutomationTriggered records the date a task last materialized.
func (l *Ledger) MarkAutomationTriggered(ctx context.Context, id string, date core.Date) bool {
	return l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Automations, id, automationID)
		if i < 0 {
			return false, nil
		}
		d.Automations[i].LastTriggered = date
		return true, []push{pushEntity(Automations, id, d.Automations[i])}
	})
}

// Objectives

func (l *Ledger) AddObjective(ctx context.Context, o core.Objective) core.Objective {
	if o.ID == "" {
		o.ID = core.NewID()
	}
	if o.Status == "" {
		o.Status = core.ObjectivePending
	}
	l.commit(ctx, func(d *core.AppData) (bool, []push) {
		d.Objectives = prepend(d.Objectives, o)
		return true, []push{pushEntity(Objectives, o.ID, o)}
	})
	return o
}

func (l *Ledger) UpdateObjective(ctx context.Context, id string, patch core.ObjectivePatch) (core.Objective, bool) {
	var updated core.Objective
	ok := l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Objectives, id, objectiveID)
		if i < 0 {
			return false, nil
		}
		updated = patch.Apply(d.Objectives[i])
		updated.ID = id
		d.Objectives[i] = updated
		return true, []push{pushEntity(Objectives, id, updated)}
	})
	return updated, ok
}

func (l *Ledger) DeleteObjective(ctx context.Context, id string) bool {
	return l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Objectives, id, objectiveID)
		if i < 0 {
			return false, nil
		}
		d.Objectives = removeAt(d.Objectives, i)
		return true, []push{pushRemoval(Objectives, id)}
	})
}

// MarkObjectiveLate moves a pending objective to late. Objectives that are
// already late or done are left alone, so a concurrent completion is never
// overwritten.
func (l *Ledger) MarkObjectiveLate(ctx context.Context, id string) bool {
	return l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Objectives, id, objectiveID)
		if i < 0 {
			return false, nil
		}
		o := &d.Objectives[i]
		if o.Status == core.ObjectiveDone || o.Status == core.ObjectiveLate {
			return false, nil
		}
		o.Status = core.ObjectiveLate
		return true, []push{pushEntity(Objectives, id, *o)}
	})
}

// Notifications

func (l *Ledger) AddNotification(ctx context.Context, n core.Notification) core.Notification {
	n = l.prepareNotification(n)
	l.commit(ctx, func(d *core.AppData) (bool, []push) {
		d.Notifications = prepend(d.Notifications, n)
		return true, []push{pushEntity(Notifications, n.ID, n)}
	})
	return n
}

// AddNotificationUnless inserts n only when no stored notification satisfies
// exists. The check and the insert form one step.
func (l *Ledger) AddNotificationUnless(ctx context.Context, n core.Notification, exists func(core.Notification) bool) (core.Notification, bool) {
	n = l.prepareNotification(n)
	ok := l.commit(ctx, func(d *core.AppData) (bool, []push) {
		for _, existing := range d.Notifications {
			if exists(existing) {
				return false, nil
			}
		}
		d.Notifications = prepend(d.Notifications, n)
		return true, []push{pushEntity(Notifications, n.ID, n)}
	})
	return n, ok
}

func (l *Ledger) prepareNotification(n core.Notification) core.Notification {
	if n.ID == "" {
		n.ID = core.NewID()
	}
	if n.Date.IsZero() {
		n.Date = l.now()
	}
	return n
}

func (l *Ledger) MarkNotificationRead(ctx context.Context, id string) bool {
	return l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Notifications, id, notificationID)
		if i < 0 {
			return false, nil
		}
		d.Notifications[i].Read = true
		return true, []push{pushEntity(Notifications, id, d.Notifications[i])}
	})
}

func (l *Ledger) DeleteNotification(ctx context.Context, id string) bool {
	return l.commit(ctx, func(d *core.AppData) (bool, []push) {
		i := indexByID(d.Notifications, id, notificationID)
		if i < 0 {
			return false, nil
		}
		d.Notifications = removeAt(d.Notifications, i)
		return true, []push{pushRemoval(Notifications, id)}
	})
}

// ClearNotifications removes every notification and returns how many there were.
func (l *Ledger) ClearNotifications(ctx context.Context) int {
	var n int
	l.commit(ctx, func(d *core.AppData) (bool, []push) {
		n = len(d.Notifications)
		if n == 0 {
			return false, nil
		}
		pushes := make([]push, 0, n)
		for _, note := range d.Notifications {
			pushes = append(pushes, pushRemoval(Notifications, note.ID))
		}
		d.Notifications = []core.Notification{}
		return true, pushes
	})
	return n
}

// Settings and cash

// UpdateSettings shallow-merges patch into the settings.
func (l *Ledger) UpdateSettings(ctx context.Context, patch core.SettingsPatch) core.Settings {
	var updated core.Settings
	l.commit(ctx, func(d *core.AppData) (bool, []push) {
		d.Settings = patch.Apply(d.Settings)
		updated = d.Settings
		return true, []push{pushSettings(updated)}
	})
	return updated
}

// UpdateCashBalance sets the balance to amount. This is the manual
// correction path.
func (l *Ledger) UpdateCashBalance(ctx context.Context, amount decimal.Decimal) decimal.Decimal {
	return l.adjustCash(ctx, func(decimal.Decimal) decimal.Decimal { return amount })
}

func (l *Ledger) AddToCash(ctx context.Context, amount decimal.Decimal) decimal.Decimal {
	return l.adjustCash(ctx, func(b decimal.Decimal) decimal.Decimal { return b.Add(amount) })
}

func (l *Ledger) RemoveFromCash(ctx context.Context, amount decimal.Decimal) decimal.Decimal {
	return l.adjustCash(ctx, func(b decimal.Decimal) decimal.Decimal { return b.Sub(amount) })
}

func (l *Ledger) adjustCash(ctx context.Context, fn func(decimal.Decimal) decimal.Decimal) decimal.Decimal {
	var balance decimal.Decimal
	l.commit(ctx, func(d *core.AppData) (bool, []push) {
		d.CashBalance = fn(d.CashBalance)
		balance = d.CashBalance
		return true, []push{pushCash(balance)}
	})
	l.logger.InfoContext(ctx, "Cash balance adjusted", log.FieldCashBalance, balance.String())
	return balance
}

// Reads

// Snapshot returns a deep copy of the aggregate.
func (l *Ledger) Snapshot() core.AppData {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.Clone()
}

// Version increases with every applied change, local or remote.
func (l *Ledger) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

func (l *Ledger) CashBalance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.CashBalance
}

func (l *Ledger) Settings() core.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.Settings
}

func (l *Ledger) DailyEntry(id string) (core.DailyEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := indexByID(l.data.DailyEntries, id, entryID); i >= 0 {
		return l.data.DailyEntries[i].Clone(), true
	}
	return core.DailyEntry{}, false
}

// EntryForDate returns the first entry recorded for date.
func (l *Ledger) EntryForDate(date core.Date) (core.DailyEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.data.DailyEntries {
		if e.Date.Equal(date) {
			return e.Clone(), true
		}
	}
	return core.DailyEntry{}, false
}

func (l *Ledger) DailyEntries() []core.DailyEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.DailyEntry, len(l.data.DailyEntries))
	for i, e := range l.data.DailyEntries {
		out[i] = e.Clone()
	}
	return out
}

func (l *Ledger) Debts() []core.Debt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Debt{}, l.data.Debts...)
}

func (l *Ledger) ProvisionalDebts() []core.ProvisionalDebt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.ProvisionalDebt{}, l.data.ProvisionalDebts...)
}

func (l *Ledger) Automations() []core.AutomationTask {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.AutomationTask{}, l.data.Automations...)
}

func (l *Ledger) Objectives() []core.Objective {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Objective{}, l.data.Objectives...)
}

func (l *Ledger) Notifications() []core.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Notification{}, l.data.Notifications...)
}
