package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"finexpress/internal/core"
)

// DefaultSlotKey names the slot holding the whole transaction list.
const DefaultSlotKey = "finexpress:transactions:v1"

// Slot is the single durable location of the transaction list: a JSON array
// of {id, date, type, category, note, amount} objects stored under one key.
type Slot struct {
	kv  KeyValue
	key string
}

// LoadResult is what Load recovered from the slot.
type LoadResult struct {
	Transactions []core.Transaction
	// Corrupt is set when the slot content was not a JSON array at all.
	Corrupt bool
	// Dropped counts array entries rejected by shape validation.
	Dropped int
}

// slotRecord is the persisted shape. Fields are checked one by one on load.
type slotRecord struct {
	ID       string      `json:"id"`
	Date     string      `json:"date"`
	Type     string      `json:"type"`
	Category string      `json:"category"`
	Note     string      `json:"note"`
	Amount   json.Number `json:"amount"`
}

func NewSlot(kv KeyValue, key string) *Slot {
	if key == "" {
		key = DefaultSlotKey
	}
	return &Slot{kv: kv, key: key}
}

func (s *Slot) Key() string {
	return s.key
}

// Load reads the slot. A missing, corrupt or non-array value yields an
// empty list; malformed entries are dropped and counted. Only failures of
// the underlying store are returned as errors.
func (s *Slot) Load(ctx context.Context) (LoadResult, error) {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read slot %s: %w", s.key, err)
	}
	if !ok || len(strings.TrimSpace(string(data))) == 0 {
		return LoadResult{Transactions: []core.Transaction{}}, nil
	}
	return DecodeSlot(data), nil
}

// Save overwrites the slot with the full list.
func (s *Slot) Save(ctx context.Context, list []core.Transaction) error {
	data, err := EncodeSlot(list)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("write slot %s: %w", s.key, err)
	}
	return nil
}

// EncodeSlot serializes list as a JSON array; nil encodes as [].
func EncodeSlot(list []core.Transaction) ([]byte, error) {
	if list == nil {
		list = []core.Transaction{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode transactions: %w", err)
	}
	return data, nil
}

// DecodeSlot parses persisted content, keeping only well-formed entries.
func DecodeSlot(data []byte) LoadResult {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return LoadResult{Transactions: []core.Transaction{}, Corrupt: true}
	}

	res := LoadResult{Transactions: make([]core.Transaction, 0, len(raw))}
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		t, ok := decodeRecord(item)
		if !ok {
			res.Dropped++
			continue
		}
		if _, dup := seen[t.ID]; dup {
			res.Dropped++
			continue
		}
		seen[t.ID] = struct{}{}
		res.Transactions = append(res.Transactions, t)
	}
	return res
}

func decodeRecord(item json.RawMessage) (core.Transaction, bool) {
	var rec slotRecord
	if err := json.Unmarshal(item, &rec); err != nil {
		return core.Transaction{}, false
	}
	if strings.TrimSpace(rec.ID) == "" || rec.Date == "" {
		return core.Transaction{}, false
	}
	typ, err := core.ParseTxType(rec.Type)
	if err != nil {
		return core.Transaction{}, false
	}
	amount, err := core.ParseAmount(rec.Amount.String())
	if err != nil {
		return core.Transaction{}, false
	}
	return core.Transaction{
		ID:       rec.ID,
		Date:     rec.Date,
		Type:     typ,
		Category: rec.Category,
		Note:     rec.Note,
		Amount:   amount,
	}, true
}
