package core

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Totals is the income/expense/balance summary of a transaction list.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// CategoryAmount represents an amount aggregated by category name and type.
type CategoryAmount struct {
	Name   string
	Type   TxType
	Amount decimal.Decimal
}

// Aggregate sums amounts per type. An empty list yields all zeros.
func Aggregate(list []Transaction) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range list {
		switch t.Type {
		case Income:
			income = income.Add(t.Amount)
		case Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return Totals{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}

// SortForDisplay returns a copy ordered by date, newest first.
// Transactions sharing a date keep their relative input order.
func SortForDisplay(list []Transaction) []Transaction {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b Transaction) int {
		return strings.Compare(b.Date, a.Date)
	})
	return out
}

// Recent returns at most n transactions in display order.
func Recent(list []Transaction, n int) []Transaction {
	sorted := SortForDisplay(list)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// ByCategory totals amounts per (type, category), largest first.
func ByCategory(list []Transaction) []CategoryAmount {
	type key struct {
		name string
		typ  TxType
	}
	idx := map[key]int{}
	var out []CategoryAmount
	for _, t := range list {
		k := key{t.Category, t.Type}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, CategoryAmount{Name: t.Category, Type: t.Type, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	slices.SortStableFunc(out, func(a, b CategoryAmount) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Categories returns the distinct non-empty categories, sorted.
func Categories(list []Transaction) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range list {
		if t.Category == "" {
			continue
		}
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	slices.Sort(out)
	return out
}
