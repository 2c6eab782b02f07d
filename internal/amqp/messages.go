package amqp

import (
	"encoding/json"
	"time"

	"finexpress/internal/core"
)

// Event kinds published after ledger mutations.
const (
	EventTransactionCreated   = "transaction.created"
	EventTransactionDeleted   = "transaction.deleted"
	EventTransactionsImported = "transactions.imported"
)

// LedgerEventMessage describes one ledger mutation. Only the fields
// relevant to Kind are set.
type LedgerEventMessage struct {
	Kind          string            `json:"kind"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	Added         int               `json:"added,omitempty"`
	Skipped       int               `json:"skipped,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

func NewCreatedMessage(t core.Transaction) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:          EventTransactionCreated,
		TransactionID: t.ID,
		Transaction:   &t,
		Timestamp:     time.Now(),
	}
}

func NewDeletedMessage(id string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:          EventTransactionDeleted,
		TransactionID: id,
		Timestamp:     time.Now(),
	}
}

func NewImportedMessage(added, skipped int) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:      EventTransactionsImported,
		Added:     added,
		Skipped:   skipped,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
