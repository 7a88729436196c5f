package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Op is the kind of change a document message carries.
type Op string

const (
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

// MetaCollection carries singleton documents (settings, cash) keyed by name.
const MetaCollection = "meta"

// DocumentMessage is one whole-document change on the shared store. Put
// messages carry the full document, delete messages only the address.
type DocumentMessage struct {
	Origin     string          `json:"origin"`
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Op         Op              `json:"op"`
	Doc        json.RawMessage `json:"doc,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewPutMessage creates a put message for the given document.
func NewPutMessage(origin, collection, id string, doc json.RawMessage) *DocumentMessage {
	return &DocumentMessage{
		Origin:     origin,
		Collection: collection,
		ID:         id,
		Op:         OpPut,
		Doc:        doc,
		Timestamp:  time.Now(),
	}
}

// NewDeleteMessage creates a delete message for the given address.
func NewDeleteMessage(origin, collection, id string) *DocumentMessage {
	return &DocumentMessage{
		Origin:     origin,
		Collection: collection,
		ID:         id,
		Op:         OpDelete,
		Timestamp:  time.Now(),
	}
}

// Validate checks the message is addressable and its op is known.
func (m *DocumentMessage) Validate() error {
	if m.Collection == "" || m.ID == "" {
		return errors.New("message without collection or id")
	}
	switch m.Op {
	case OpPut:
		if len(m.Doc) == 0 {
			return errors.New("put message without document")
		}
	case OpDelete:
	default:
		return errors.New("unknown message op " + string(m.Op))
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *DocumentMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DocumentMessageFromJSON decodes and validates a message.
func DocumentMessageFromJSON(data []byte) (*DocumentMessage, error) {
	var msg DocumentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
