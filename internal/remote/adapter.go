// Package remote keeps the local ledger and the shared document store in
// step. Local mutations are published as whole documents; inbound documents
// are folded into a mirror and delivered to the ledger as collection
// snapshots.
package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"hiace/internal/amqp"
	"hiace/internal/core"
	"hiace/internal/ledger"
	"hiace/internal/log"
)

// Publisher sends document messages to the other processes.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.DocumentMessage) error
}

// SnapshotSink receives remote state. Implemented by *ledger.Ledger.
type SnapshotSink interface {
	ApplyCollectionSnapshot(ctx context.Context, coll ledger.Collection, docs []json.RawMessage) error
	ApplyMetaSnapshot(ctx context.Context, name string, doc json.RawMessage) error
}

// Adapter implements ledger.Syncer over a Publisher and handles inbound
// messages for a SnapshotSink.
type Adapter struct {
	origin string
	mirror *Mirror
	pub    Publisher
	sink   SnapshotSink
	logger *log.Logger
}

var _ ledger.Syncer = (*Adapter)(nil)

// NewAdapter creates an adapter. pub may be nil, in which case changes only
// reach the mirror.
func NewAdapter(origin string, pub Publisher, sink SnapshotSink, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Adapter{
		origin: origin,
		mirror: NewMirror(),
		pub:    pub,
		sink:   sink,
		logger: logger.WithComponent(log.ComponentRemote),
	}
}

// Seed initializes the mirror from local state.
func (a *Adapter) Seed(data core.AppData) error {
	return a.mirror.Seed(data)
}

// Mirror exposes the document mirror.
func (a *Adapter) Mirror() *Mirror {
	return a.mirror
}

func (a *Adapter) PushEntity(ctx context.Context, coll ledger.Collection, id string, doc any) {
	raw, err := json.Marshal(doc)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to encode document",
			log.FieldCollection, coll,
			log.FieldDocumentID, id,
			log.FieldError, err)
		return
	}
	a.mirror.Put(coll, id, raw)
	a.publish(ctx, amqp.NewPutMessage(a.origin, string(coll), id, raw))
}

func (a *Adapter) PushRemoval(ctx context.Context, coll ledger.Collection, id string) {
	a.mirror.Remove(coll, id)
	a.publish(ctx, amqp.NewDeleteMessage(a.origin, string(coll), id))
}

func (a *Adapter) PushSettings(ctx context.Context, settings core.Settings) {
	a.pushMeta(ctx, ledger.MetaSettings, settings)
}

func (a *Adapter) PushCashBalance(ctx context.Context, balance decimal.Decimal) {
	a.pushMeta(ctx, ledger.MetaCash, ledger.CashDocument{CashBalance: balance})
}

func (a *Adapter) pushMeta(ctx context.Context, name string, doc any) {
	raw, err := json.Marshal(doc)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to encode meta document",
			log.FieldDocumentID, name,
			log.FieldError, err)
		return
	}
	a.mirror.SetMeta(name, raw)
	a.publish(ctx, amqp.NewPutMessage(a.origin, amqp.MetaCollection, name, raw))
}

func (a *Adapter) publish(ctx context.Context, msg *amqp.DocumentMessage) {
	if a.pub == nil {
		return
	}
	if err := a.pub.Publish(ctx, msg); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish document",
			log.FieldOperation, log.OpSync,
			log.FieldCollection, msg.Collection,
			log.FieldDocumentID, msg.ID,
			log.FieldError, err)
	}
}

// HandleMessage folds an inbound change into the mirror and hands the
// resulting state to the sink. Messages from this process are ignored. A
// change the sink rejects is rolled back from the mirror and dropped so one
// bad document cannot block its collection.
func (a *Adapter) HandleMessage(ctx context.Context, msg *amqp.DocumentMessage) error {
	if msg.Origin == a.origin {
		return nil
	}
	if a.sink == nil {
		return fmt.Errorf("no snapshot sink attached")
	}

	if msg.Collection == amqp.MetaCollection {
		if msg.Op != amqp.OpPut {
			return nil
		}
		if err := a.sink.ApplyMetaSnapshot(ctx, msg.ID, msg.Doc); err != nil {
			a.logger.WarnContext(ctx, "Dropped meta document",
				log.FieldDocumentID, msg.ID,
				log.FieldOrigin, msg.Origin,
				log.FieldError, err)
			return nil
		}
		a.mirror.SetMeta(msg.ID, msg.Doc)
		return nil
	}

	coll := ledger.Collection(msg.Collection)
	if !coll.Valid() {
		a.logger.WarnContext(ctx, "Dropped document for unknown collection",
			log.FieldCollection, msg.Collection,
			log.FieldOrigin, msg.Origin)
		return nil
	}

	var prev json.RawMessage
	var had bool
	if msg.Op == amqp.OpDelete {
		prev, had = a.mirror.Remove(coll, msg.ID)
	} else {
		prev, had = a.mirror.Put(coll, msg.ID, msg.Doc)
	}

	if err := a.sink.ApplyCollectionSnapshot(ctx, coll, a.mirror.Snapshot(coll)); err != nil {
		a.mirror.Restore(coll, msg.ID, prev, had)
		a.logger.WarnContext(ctx, "Dropped remote document",
			log.FieldCollection, coll,
			log.FieldDocumentID, msg.ID,
			log.FieldOrigin, msg.Origin,
			log.FieldError, err)
		return nil
	}

	a.logger.DebugContext(ctx, "Applied remote document",
		log.FieldCollection, coll,
		log.FieldDocumentID, msg.ID,
		"op", msg.Op,
		log.FieldCount, a.mirror.Len(coll))
	return nil
}
