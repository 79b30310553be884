package amqp

import (
	"encoding/json"
	"time"

	"bumdes/internal/store"
)

// LedgerChangedMessage announces that the mirrored ledger has a new revision.
// It carries no ledger content; consumers read the mirror themselves.
type LedgerChangedMessage struct {
	Op            string    `json:"op"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Revision      uint64    `json:"revision"`
	Count         int       `json:"count"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(c store.Change) *LedgerChangedMessage {
	ts := c.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &LedgerChangedMessage{
		Op:            c.Op,
		TransactionID: c.TransactionID,
		Revision:      c.Revision,
		Count:         c.Count,
		Timestamp:     ts,
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
