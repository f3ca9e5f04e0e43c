package amqp

import (
	"encoding/json"
	"time"
)

// TransactionCreatedMessage announces a transaction the materialization
// engine persisted. It carries only the row id and the pass run id; any
// consumer fetches the full record from the store.
type TransactionCreatedMessage struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionCreatedMessage creates a message for one materialized row.
func NewTransactionCreatedMessage(id int64, runID string) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		ID:        id,
		RunID:     runID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedMessageFromJSON decodes a message from JSON bytes. This
// process only publishes; the decoder is kept as the wire contract for
// downstream consumers of the queue.
func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
