package core

import (
	"encoding/json"
)

// transactionJSON mirrors Transaction with the amount as a bare JSON number.
type transactionJSON struct {
	ID       string      `json:"id"`
	Date     string      `json:"date"`
	Type     TxType      `json:"type"`
	Category string      `json:"category"`
	Note     string      `json:"note"`
	Amount   json.Number `json:"amount"`
}

// MarshalJSON writes amount as a number instead of decimal's quoted string.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:       t.ID,
		Date:     t.Date,
		Type:     t.Type,
		Category: t.Category,
		Note:     t.Note,
		Amount:   json.Number(t.Amount.String()),
	})
}
