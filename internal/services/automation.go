package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"hiace/internal/core"
)

// AutomationStore is the part of the ledger the automation engine works on.
type AutomationStore interface {
	Automations() []core.AutomationTask
	MarkAutomationTriggered(ctx context.Context, id string, date core.Date) bool
	EntryForDate(date core.Date) (core.DailyEntry, bool)
	AddDailyEntry(ctx context.Context, e core.DailyEntry) core.DailyEntry
	UpdateDailyEntry(ctx context.Context, id string, patch core.DailyEntryPatch) (core.DailyEntry, bool)
}

// AutomationEngine materializes recurring charges as expense items.
type AutomationEngine struct {
	store AutomationStore

	// serializes trigger runs so a task is never judged due twice
	mu sync.Mutex
}

// NewAutomationEngine creates an automation engine over the given store.
func NewAutomationEngine(store AutomationStore) *AutomationEngine {
	return &AutomationEngine{store: store}
}

// TriggerDueAutomations returns one expense item per active task that is due
// at now. Weekly and monthly tasks get lastTriggered set to the date of now;
// daily tasks are not stamped.
func (e *AutomationEngine) TriggerDueAutomations(ctx context.Context, now time.Time) []core.ExpenseItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	today := core.DateOf(now)
	var items []core.ExpenseItem

	for _, task := range e.store.Automations() {
		if !task.IsActive {
			continue
		}
		checker, err := GetDuenessChecker(task.Frequency)
		if err != nil {
			slog.WarnContext(ctx, "Skipping automation with unknown frequency",
				"automation_id", task.ID,
				"frequency", task.Frequency)
			continue
		}
		if !checker.IsDue(task.LastTriggered, now) {
			continue
		}

		items = append(items, ExpenseFromAutomation(task))
		if checker.Stamps() {
			e.store.MarkAutomationTriggered(ctx, task.ID, today)
		}
	}

	if len(items) > 0 {
		slog.InfoContext(ctx, "Automations triggered",
			"count", len(items),
			"date", today.String())
	}
	return items
}

// DraftDailyExpenses proposes every active daily task for a draft entry on
// any date. Nothing is written back.
func (e *AutomationEngine) DraftDailyExpenses(_ context.Context, _ core.Date) []core.ExpenseItem {
	var items []core.ExpenseItem
	for _, task := range e.store.Automations() {
		if task.IsActive && task.Frequency == core.Daily {
			items = append(items, ExpenseFromAutomation(task))
		}
	}
	return items
}

// ApplyDueAutomations triggers due automations and books them on the entry
// for the date of now. Items whose automation is already on that entry are
// skipped. When no entry exists a normal day with zero revenue is created.
// Returns the number of items booked.
func (e *AutomationEngine) ApplyDueAutomations(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	items := e.TriggerDueAutomations(ctx, now)
	if len(items) == 0 {
		return 0, nil
	}

	today := core.DateOf(now)
	entry, exists := e.store.EntryForDate(today)
	if !exists {
		e.store.AddDailyEntry(ctx, core.DailyEntry{
			Date:     today,
			DayType:  core.DayNormal,
			Expenses: items,
			Comment:  "",
		})
		slog.InfoContext(ctx, "Created entry for automated expenses",
			"date", today.String(),
			"count", len(items))
		return len(items), nil
	}

	present := make(map[string]bool, len(entry.Expenses))
	for _, x := range entry.Expenses {
		if x.AutomationID != "" {
			present[x.AutomationID] = true
		}
	}
	expenses := append([]core.ExpenseItem{}, entry.Expenses...)
	added := 0
	for _, item := range items {
		if present[item.AutomationID] {
			continue
		}
		expenses = append(expenses, item)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	e.store.UpdateDailyEntry(ctx, entry.ID, core.DailyEntryPatch{Expenses: &expenses})
	slog.InfoContext(ctx, "Booked automated expenses",
		"entry_id", entry.ID,
		"date", today.String(),
		"count", added)
	return added, nil
}

// ExpenseFromAutomation builds the expense item a task materializes as. The
// comment falls back to the task name.
func ExpenseFromAutomation(task core.AutomationTask) core.ExpenseItem {
	comment := task.Comment
	if strings.TrimSpace(comment) == "" {
		comment = task.Name
	}
	return core.ExpenseItem{
		ID:           core.NewID(),
		Category:     task.Category,
		Subcategory:  task.Subcategory,
		Amount:       task.Amount,
		Liters:       task.Liters,
		Comment:      comment,
		IsAutomated:  true,
		AutomationID: task.ID,
	}
}
