package core

import (
	"strings"
	"time"
)

// FilterSpec narrows a transaction list. Empty fields match everything.
type FilterSpec struct {
	Month    string `json:"month"`    // YYYY-MM prefix of Date
	Category string `json:"category"` // exact match
}

// DefaultFilter selects the calendar month of now and every category.
func DefaultFilter(now time.Time) FilterSpec {
	return FilterSpec{Month: CurrentMonth(now)}
}

// IsZero reports whether the spec matches every transaction.
func (f FilterSpec) IsZero() bool {
	return f.Month == "" && f.Category == ""
}

// Matches reports whether t passes both the month and category filters.
func (f FilterSpec) Matches(t Transaction) bool {
	if f.Month != "" && !strings.HasPrefix(t.Date, f.Month) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// ApplyFilter returns the matching transactions in input order.
// The input slice is not modified.
func ApplyFilter(list []Transaction, spec FilterSpec) []Transaction {
	out := make([]Transaction, 0, len(list))
	for _, t := range list {
		if spec.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
