package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func tx(id, date string, typ TxType, cat, amount string) Transaction {
	return Transaction{ID: id, Date: date, Type: typ, Category: cat, Note: id, Amount: decimal.RequireFromString(amount)}
}

func ids(list []Transaction) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}

func sameIDs(t *testing.T, got []Transaction, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, g)
		}
	}
}

func TestApplyFilter(t *testing.T) {
	list := []Transaction{
		tx("a", "2024-01-10", Expense, "food", "10"),
		tx("b", "2024-02-01", Income, "salary", "100"),
		tx("c", "2024-01-20", Expense, "rent", "50"),
		tx("d", "2024-01-21", Expense, "food", "5"),
	}

	sameIDs(t, ApplyFilter(list, FilterSpec{}), "a", "b", "c", "d")
	sameIDs(t, ApplyFilter(list, FilterSpec{Month: "2024-01"}), "a", "c", "d")
	sameIDs(t, ApplyFilter(list, FilterSpec{Category: "food"}), "a", "d")
	sameIDs(t, ApplyFilter(list, FilterSpec{Month: "2024-02", Category: "food"}))
	sameIDs(t, ApplyFilter(list, FilterSpec{Category: "Food"}))

	if len(list) != 4 || list[1].ID != "b" {
		t.Fatalf("input must not be modified")
	}
}

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter(time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC))
	if f.Month != "2026-03" || f.Category != "" {
		t.Fatalf("unexpected default filter %+v", f)
	}
	if (FilterSpec{}).IsZero() != true || f.IsZero() {
		t.Fatalf("unexpected IsZero result")
	}
}

func TestAggregate(t *testing.T) {
	got := Aggregate(nil)
	if !got.Income.IsZero() || !got.Expense.IsZero() || !got.Balance.IsZero() {
		t.Fatalf("expected zero totals, got %+v", got)
	}

	list := []Transaction{
		tx("a", "2024-01-10", Expense, "food", "250.50"),
		tx("b", "2024-01-10", Expense, "food", "75"),
		tx("c", "2024-02-01", Income, "salary", "30000"),
	}
	got = Aggregate(ApplyFilter(list, FilterSpec{Month: "2024-01"}))
	if !got.Income.IsZero() {
		t.Fatalf("expected income 0, got %s", got.Income)
	}
	if !got.Expense.Equal(decimal.RequireFromString("325.50")) {
		t.Fatalf("expected expense 325.50, got %s", got.Expense)
	}
	if !got.Balance.Equal(decimal.RequireFromString("-325.50")) {
		t.Fatalf("expected balance -325.50, got %s", got.Balance)
	}

	all := Aggregate(list)
	if !all.Balance.Equal(decimal.RequireFromString("29674.50")) {
		t.Fatalf("expected balance 29674.50, got %s", all.Balance)
	}
}

func TestSortForDisplay(t *testing.T) {
	list := []Transaction{
		tx("a", "2024-01-01", Expense, "x", "1"),
		tx("b", "2024-01-02", Expense, "x", "1"),
		tx("c", "2024-01-01", Income, "x", "1"),
		tx("d", "2024-01-02", Income, "x", "1"),
	}
	sameIDs(t, SortForDisplay(list), "b", "d", "a", "c")
	sameIDs(t, list, "a", "b", "c", "d")
	sameIDs(t, Recent(list, 3), "b", "d", "a")
	sameIDs(t, Recent(list, 10), "b", "d", "a", "c")
}

func TestByCategoryAndCategories(t *testing.T) {
	list := []Transaction{
		tx("a", "2024-01-10", Expense, "food", "10"),
		tx("b", "2024-01-11", Expense, "rent", "500"),
		tx("c", "2024-01-12", Expense, "food", "20"),
		tx("d", "2024-01-12", Income, "food", "1"),
	}
	got := ByCategory(list)
	if len(got) != 3 {
		t.Fatalf("expected 3 groups, got %+v", got)
	}
	if got[0].Name != "rent" || !got[0].Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected first group %+v", got[0])
	}
	if got[1].Name != "food" || got[1].Type != Expense || !got[1].Amount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected second group %+v", got[1])
	}

	cats := Categories(append(list, tx("e", "2024-01-01", Expense, "", "1")))
	if len(cats) != 2 || cats[0] != "food" || cats[1] != "rent" {
		t.Fatalf("unexpected categories %v", cats)
	}
}
