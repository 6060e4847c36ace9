package amqp

import (
	"encoding/json"
	"time"
)

// TransferEventMessage notifies the export worker that a transfer has been
// committed. It carries only the transaction ID; the worker loads the full
// ledger entry from storage so the queue never holds account balances.
type TransferEventMessage struct {
	TransactionID string    `json:"transactionId"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransferEventMessage creates a new transfer event message
func NewTransferEventMessage(transactionID string) *TransferEventMessage {
	return &TransferEventMessage{
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransferEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransferEventMessageFromJSON creates a message from JSON bytes
func TransferEventMessageFromJSON(data []byte) (*TransferEventMessage, error) {
	var msg TransferEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
