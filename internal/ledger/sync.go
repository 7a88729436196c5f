package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"hiace/internal/core"
	"hiace/internal/log"
)

// Collection names a synchronized entity collection.
type Collection string

const (
	DailyEntries     Collection = "dailyEntries"
	Debts            Collection = "debts"
	ProvisionalDebts Collection = "provisionalDebts"
	Automations      Collection = "automations"
	Objectives       Collection = "objectives"
	Notifications    Collection = "notifications"
)

// Singleton documents synchronized next to the collections.
const (
	MetaSettings = "settings"
	MetaCash     = "cash"
)

// Collections lists every synchronized collection.
func Collections() []Collection {
	return []Collection{DailyEntries, Debts, ProvisionalDebts, Automations, Objectives, Notifications}
}

func (c Collection) Valid() bool {
	switch c {
	case DailyEntries, Debts, ProvisionalDebts, Automations, Objectives, Notifications:
		return true
	}
	return false
}

// CashDocument is the remote layout of the cash balance singleton.
type CashDocument struct {
	CashBalance decimal.Decimal `json:"cashBalance"`
}

// Syncer receives every local mutation. Calls are fire-and-forget: an
// implementation handles its own failures and must not call back into the
// ledger synchronously.
type Syncer interface {
	PushEntity(ctx context.Context, coll Collection, id string, doc any)
	PushRemoval(ctx context.Context, coll Collection, id string)
	PushSettings(ctx context.Context, settings core.Settings)
	PushCashBalance(ctx context.Context, balance decimal.Decimal)
}

type nopSyncer struct{}

func (nopSyncer) PushEntity(context.Context, Collection, string, any) {}
func (nopSyncer) PushRemoval(context.Context, Collection, string) {}
func (nopSyncer) PushSettings(context.Context, core.Settings) {}
func (nopSyncer) PushCashBalance(context.Context, decimal.Decimal) {}

// ApplyCollectionSnapshot replaces a collection wholesale with the remote
// documents. The change is persisted locally and never pushed back.
func (l *Ledger) ApplyCollectionSnapshot(ctx context.Context, coll Collection, docs []json.RawMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	switch coll {
	case DailyEntries:
		var entries []core.DailyEntry
		if entries, err = decodeAll[core.DailyEntry](docs); err == nil {
			for i := range entries {
				normalizeEntry(&entries[i])
			}
			sort.SliceStable(entries, func(i, j int) bool {
				return entries[i].Date.After(entries[j].Date.Time)
			})
			l.data.DailyEntries = entries
		}
	case Debts:
		var debts []core.Debt
		if debts, err = decodeAll[core.Debt](docs); err == nil {
			l.data.Debts = debts
		}
	case ProvisionalDebts:
		var prov []core.ProvisionalDebt
		if prov, err = decodeAll[core.ProvisionalDebt](docs); err == nil {
			l.data.ProvisionalDebts = prov
		}
	case Automations:
		var tasks []core.AutomationTask
		if tasks, err = decodeAll[core.AutomationTask](docs); err == nil {
			l.data.Automations = tasks
		}
	case Objectives:
		var objs []core.Objective
		if objs, err = decodeAll[core.Objective](docs); err == nil {
			l.data.Objectives = objs
		}
	case Notifications:
		var notes []core.Notification
		if notes, err = decodeAll[core.Notification](docs); err == nil {
			sort.SliceStable(notes, func(i, j int) bool {
				return notes[i].Date.After(notes[j].Date)
			})
			l.data.Notifications = notes
		}
	default:
		return fmt.Errorf("unknown collection %q", coll)
	}
	if err != nil {
		return fmt.Errorf("decode %s snapshot: %w", coll, err)
	}

	l.version++
	l.persistLocked(ctx)
	l.logger.DebugContext(ctx, "Applied remote collection snapshot",
		log.FieldCollection, string(coll),
		log.FieldCount, len(docs))
	return nil
}

// ApplyMetaSnapshot replaces the settings or cash singleton. A null document
// is ignored.
func (l *Ledger) ApplyMetaSnapshot(ctx context.Context, name string, doc json.RawMessage) error {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch name {
	case MetaSettings:
		settings := core.DefaultSettings()
		if err := json.Unmarshal(trimmed, &settings); err != nil {
			return fmt.Errorf("decode settings: %w", err)
		}
		l.data.Settings = settings
	case MetaCash:
		var cash CashDocument
		if err := json.Unmarshal(trimmed, &cash); err != nil {
			return fmt.Errorf("decode cash: %w", err)
		}
		l.data.CashBalance = cash.CashBalance
	default:
		return fmt.Errorf("unknown meta document %q", name)
	}

	l.version++
	l.persistLocked(ctx)
	l.logger.DebugContext(ctx, "Applied remote meta document", log.FieldCollection, name)
	return nil
}

func decodeAll[T any](docs []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(docs))
	for i, raw := range docs {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
