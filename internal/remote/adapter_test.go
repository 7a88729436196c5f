package remote

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiace/internal/amqp"
	"hiace/internal/core"
	"hiace/internal/ledger"
	"hiace/internal/log"
)

// bus delivers every published message to all attached adapters, including
// the sender, the way a fanout exchange does.
type bus struct {
	mu       sync.Mutex
	adapters []*Adapter
	sent     []*amqp.DocumentMessage
	fail     error
}

func (b *bus) Publish(ctx context.Context, msg *amqp.DocumentMessage) error {
	b.mu.Lock()
	if b.fail != nil {
		b.mu.Unlock()
		return b.fail
	}
	b.sent = append(b.sent, msg)
	targets := append([]*Adapter(nil), b.adapters...)
	b.mu.Unlock()

	for _, a := range targets {
		if err := a.HandleMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *bus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

func newNode(t *testing.T, b *bus, origin string) (*ledger.Ledger, *Adapter) {
	t.Helper()
	l := ledger.New(ledger.WithLogger(log.Discard()))
	a := NewAdapter(origin, b, l, log.Discard())
	require.NoError(t, a.Seed(l.Snapshot()))
	l.SetSyncer(a)
	b.mu.Lock()
	b.adapters = append(b.adapters, a)
	b.mu.Unlock()
	return l, a
}

func TestAdapter_PropagatesEntries(t *testing.T) {
	ctx := context.Background()
	b := &bus{}
	left, _ := newNode(t, b, "left")
	right, _ := newNode(t, b, "right")

	e := left.AddDailyEntry(ctx, core.DailyEntry{
		Date:    core.NewDate(2024, 3, 4),
		DayType: core.DayNormal,
		Revenue: decimal.NewFromInt(20000),
		Expenses: []core.ExpenseItem{
			{ID: "x1", Category: "carburant", Amount: decimal.NewFromInt(5000)},
		},
	})

	got, ok := right.DailyEntry(e.ID)
	require.True(t, ok)
	assert.True(t, got.NetRevenue.Equal(decimal.NewFromInt(15000)))
	assert.True(t, right.CashBalance().Equal(decimal.NewFromInt(15000)))

	left.DeleteDailyEntry(ctx, e.ID)
	_, ok = right.DailyEntry(e.ID)
	assert.False(t, ok)
	assert.True(t, right.CashBalance().IsZero())
}

func TestAdapter_InboundSnapshotDoesNotEcho(t *testing.T) {
	ctx := context.Background()
	b := &bus{}
	left, _ := newNode(t, b, "left")
	newNode(t, b, "right")

	left.AddDebt(ctx, core.Debt{Supplier: "Garage", Amount: decimal.NewFromInt(300)})

	// One entity push, nothing sent back by the receiver.
	assert.Equal(t, 1, b.count())
}

func TestAdapter_IgnoresOwnOrigin(t *testing.T) {
	ctx := context.Background()
	sink := ledger.New(ledger.WithLogger(log.Discard()))
	a := NewAdapter("self", nil, sink, log.Discard())

	msg := amqp.NewPutMessage("self", string(ledger.Debts), "d1", json.RawMessage(`{"id":"d1","supplier":"x"}`))
	require.NoError(t, a.HandleMessage(ctx, msg))

	assert.Empty(t, sink.Debts())
	assert.Equal(t, 0, a.Mirror().Len(ledger.Debts))
}

func TestAdapter_SettingsAndCash(t *testing.T) {
	ctx := context.Background()
	b := &bus{}
	left, _ := newNode(t, b, "left")
	right, _ := newNode(t, b, "right")

	name := "Hiace 2"
	left.UpdateSettings(ctx, core.SettingsPatch{VehicleName: &name})
	left.UpdateCashBalance(ctx, decimal.NewFromInt(7000))

	assert.Equal(t, "Hiace 2", right.Settings().VehicleName)
	assert.True(t, right.CashBalance().Equal(decimal.NewFromInt(7000)))
}

func TestAdapter_RejectedDocumentRolledBack(t *testing.T) {
	ctx := context.Background()
	sink := ledger.New(ledger.WithLogger(log.Discard()))
	a := NewAdapter("self", nil, sink, log.Discard())

	good := amqp.NewPutMessage("peer", string(ledger.DailyEntries), "e1",
		json.RawMessage(`{"id":"e1","date":"2024-03-04","dayType":"normal","revenue":1000,"expenses":[],"breakdowns":[],"comment":"","netRevenue":1000}`))
	bad := amqp.NewPutMessage("peer", string(ledger.DailyEntries), "e2",
		json.RawMessage(`{"id":"e2","date":"not a date"}`))

	require.NoError(t, a.HandleMessage(ctx, good))
	require.NoError(t, a.HandleMessage(ctx, bad))

	assert.Equal(t, 1, a.Mirror().Len(ledger.DailyEntries))
	assert.Len(t, sink.DailyEntries(), 1)

	// The collection keeps accepting valid documents after a rejection.
	del := amqp.NewDeleteMessage("peer", string(ledger.DailyEntries), "e1")
	require.NoError(t, a.HandleMessage(ctx, del))
	assert.Empty(t, sink.DailyEntries())
}

func TestAdapter_UnknownCollectionDropped(t *testing.T) {
	sink := ledger.New(ledger.WithLogger(log.Discard()))
	a := NewAdapter("self", nil, sink, log.Discard())

	msg := amqp.NewPutMessage("peer", "vehicles", "v1", json.RawMessage(`{}`))
	assert.NoError(t, a.HandleMessage(context.Background(), msg))
}

func TestAdapter_PublishFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	b := &bus{fail: errors.New("broker down")}
	l, a := newNode(t, b, "left")

	l.AddDebt(ctx, core.Debt{Supplier: "Garage", Amount: decimal.NewFromInt(300)})

	// The local mutation and the mirror stand.
	assert.Len(t, l.Debts(), 1)
	assert.Equal(t, 1, a.Mirror().Len(ledger.Debts))
}

func TestMirror_SeedAndSnapshotOrder(t *testing.T) {
	data := core.NewAppData()
	data.Debts = []core.Debt{{ID: "b"}, {ID: "c"}, {ID: "a"}}
	data.CashBalance = decimal.NewFromInt(42)

	m := NewMirror()
	require.NoError(t, m.Seed(data))

	snap := m.Snapshot(ledger.Debts)
	require.Len(t, snap, 3)
	var first core.Debt
	require.NoError(t, json.Unmarshal(snap[0], &first))
	assert.Equal(t, "a", first.ID)

	cash, ok := m.Meta(ledger.MetaCash)
	require.True(t, ok)
	assert.JSONEq(t, `{"cashBalance":42}`, string(cash))
}

func TestMirror_Restore(t *testing.T) {
	m := NewMirror()
	prev, had := m.Put(ledger.Objectives, "o1", json.RawMessage(`{"v":1}`))
	assert.False(t, had)
	m.Restore(ledger.Objectives, "o1", prev, had)
	assert.Equal(t, 0, m.Len(ledger.Objectives))

	m.Put(ledger.Objectives, "o1", json.RawMessage(`{"v":1}`))
	prev, had = m.Put(ledger.Objectives, "o1", json.RawMessage(`{"v":2}`))
	m.Restore(ledger.Objectives, "o1", prev, had)
	assert.JSONEq(t, `{"v":1}`, string(m.Snapshot(ledger.Objectives)[0]))
}
