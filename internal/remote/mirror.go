package remote

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"hiace/internal/core"
	"hiace/internal/ledger"
)

// Mirror is this process's copy of the shared document store: one map of
// raw documents per collection plus the singleton meta documents. Writes
// are last-writer-wins in arrival order.
type Mirror struct {
	mu          sync.RWMutex
	collections map[ledger.Collection]map[string]json.RawMessage
	meta        map[string]json.RawMessage
}

func NewMirror() *Mirror {
	m := &Mirror{
		collections: make(map[ledger.Collection]map[string]json.RawMessage),
		meta:        make(map[string]json.RawMessage),
	}
	for _, c := range ledger.Collections() {
		m.collections[c] = make(map[string]json.RawMessage)
	}
	return m
}

// Seed replaces the mirror contents with the documents of data.
func (m *Mirror) Seed(data core.AppData) error {
	fresh := NewMirror()
	var err error
	add := func(coll ledger.Collection, id string, v any) {
		if err != nil {
			return
		}
		var raw []byte
		if raw, err = json.Marshal(v); err != nil {
			err = fmt.Errorf("seed %s/%s: %w", coll, id, err)
			return
		}
		fresh.collections[coll][id] = raw
	}

	for _, e := range data.DailyEntries {
		add(ledger.DailyEntries, e.ID, e)
	}
	for _, d := range data.Debts {
		add(ledger.Debts, d.ID, d)
	}
	for _, p := range data.ProvisionalDebts {
		add(ledger.ProvisionalDebts, p.ID, p)
	}
	for _, a := range data.Automations {
		add(ledger.Automations, a.ID, a)
	}
	for _, o := range data.Objectives {
		add(ledger.Objectives, o.ID, o)
	}
	for _, n := range data.Notifications {
		add(ledger.Notifications, n.ID, n)
	}
	if err != nil {
		return err
	}

	settings, err := json.Marshal(data.Settings)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	cash, err := json.Marshal(ledger.CashDocument{CashBalance: data.CashBalance})
	if err != nil {
		return fmt.Errorf("seed cash: %w", err)
	}
	fresh.meta[ledger.MetaSettings] = settings
	fresh.meta[ledger.MetaCash] = cash

	m.mu.Lock()
	m.collections = fresh.collections
	m.meta = fresh.meta
	m.mu.Unlock()
	return nil
}

// Put stores doc and returns the document it replaced, if any.
func (m *Mirror) Put(coll ledger.Collection, id string, doc json.RawMessage) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.docs(coll)
	prev, had := docs[id]
	docs[id] = doc
	return prev, had
}

// Remove deletes a document and returns it, if present.
func (m *Mirror) Remove(coll ledger.Collection, id string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.docs(coll)
	prev, had := docs[id]
	delete(docs, id)
	return prev, had
}

// Restore undoes a Put or Remove using the values they returned.
func (m *Mirror) Restore(coll ledger.Collection, id string, prev json.RawMessage, had bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if had {
		m.docs(coll)[id] = prev
	} else {
		delete(m.docs(coll), id)
	}
}

func (m *Mirror) docs(coll ledger.Collection) map[string]json.RawMessage {
	docs, ok := m.collections[coll]
	if !ok {
		docs = make(map[string]json.RawMessage)
		m.collections[coll] = docs
	}
	return docs
}

// SetMeta stores a singleton document.
func (m *Mirror) SetMeta(name string, doc json.RawMessage) {
	m.mu.Lock()
	m.meta[name] = doc
	m.mu.Unlock()
}

// Meta returns a singleton document.
func (m *Mirror) Meta(name string) (json.RawMessage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.meta[name]
	return doc, ok
}

// Snapshot returns every document of a collection ordered by id.
func (m *Mirror) Snapshot(coll ledger.Collection) []json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.collections[coll]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, docs[id])
	}
	return out
}

// Len returns the number of documents in a collection.
func (m *Mirror) Len(coll ledger.Collection) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[coll])
}
