package ledger

import (
	"context"
	"errors"
	"testing"

	"finexpress/internal/core"
	"finexpress/internal/csvcodec"
	"finexpress/internal/storage"

	"github.com/shopspring/decimal"
)

type recordingNotifier struct {
	created  []string
	deleted  []string
	imported [][2]int
	err      error
}

func (n *recordingNotifier) NotifyCreated(_ context.Context, t core.Transaction) error {
	n.created = append(n.created, t.ID)
	return n.err
}

func (n *recordingNotifier) NotifyDeleted(_ context.Context, id string) error {
	n.deleted = append(n.deleted, id)
	return n.err
}

func (n *recordingNotifier) NotifyImported(_ context.Context, added, skipped int) error {
	n.imported = append(n.imported, [2]int{added, skipped})
	return n.err
}

type failingKV struct {
	storage.KeyValue
	failPut bool
	failGet bool
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failGet {
		return nil, false, errors.New("disk gone")
	}
	return f.KeyValue.Get(ctx, key)
}

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.KeyValue.Put(ctx, key, value)
}

func openStore(t *testing.T, kv storage.KeyValue, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), storage.NewSlot(kv, ""), opts...)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func reload(t *testing.T, kv storage.KeyValue) []core.Transaction {
	t.Helper()
	return openStore(t, kv).Transactions()
}

func TestAddPersists(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := openStore(t, kv)

	got, err := s.Add(ctx, "2024-01-15", core.Income, "salary", "Monthly pay", decimal.RequireFromString("50000"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	loaded := reload(t, kv)
	if len(loaded) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(loaded))
	}
	l := loaded[0]
	if l.ID != got.ID || l.Date != "2024-01-15" || l.Type != core.Income || l.Category != "salary" ||
		l.Note != "Monthly pay" || !l.Amount.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected persisted record %+v", l)
	}
	if s.Revision() != 1 {
		t.Fatalf("expected revision 1, got %d", s.Revision())
	}
}

func TestAddRejectsInvalidWithoutChange(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := openStore(t, kv)
	if _, err := s.Add(ctx, "2024-01-01", core.Expense, "food", "seed", decimal.NewFromInt(1)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := []struct {
		note   string
		amount decimal.Decimal
	}{
		{"x", decimal.Zero},
		{"x", decimal.NewFromInt(-1)},
		{"", decimal.NewFromInt(1)},
		{"   ", decimal.NewFromInt(1)},
	}
	for i, tc := range cases {
		_, err := s.Add(ctx, "2024-01-01", core.Expense, "food", tc.note, tc.amount)
		if !core.IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if s.Len() != 1 || len(reload(t, kv)) != 1 || s.Revision() != 1 {
		t.Fatalf("store must be unchanged")
	}
}

func TestAddSaveFailureLeavesStoreUnchanged(t *testing.T) {
	kv := &failingKV{KeyValue: storage.NewMemoryKV()}
	s := openStore(t, kv)
	kv.failPut = true

	_, err := s.Add(context.Background(), "2024-01-01", core.Expense, "food", "x", decimal.NewFromInt(1))
	if err == nil || core.IsValidation(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("failed save must not leave in-memory state")
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	n := &recordingNotifier{}
	s := openStore(t, kv, WithNotifier(n))

	var ids []string
	for _, note := range []string{"a", "b", "c"} {
		tx, err := s.Add(ctx, "2024-01-01", core.Expense, "food", note, decimal.NewFromInt(1))
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		ids = append(ids, tx.ID)
	}

	removed, err := s.Remove(ctx, "does-not-exist")
	if err != nil || removed || s.Len() != 3 {
		t.Fatalf("expected no-op, removed=%v err=%v len=%d", removed, err, s.Len())
	}

	removed, err = s.Remove(ctx, ids[1])
	if err != nil || !removed {
		t.Fatalf("expected removal, removed=%v err=%v", removed, err)
	}
	loaded := reload(t, kv)
	if len(loaded) != 2 || loaded[0].ID != ids[0] || loaded[1].ID != ids[2] {
		t.Fatalf("unexpected remaining records %+v", loaded)
	}
	if len(n.deleted) != 1 || n.deleted[0] != ids[1] {
		t.Fatalf("expected one delete event, got %v", n.deleted)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	n := &recordingNotifier{}
	s := openStore(t, kv, WithNotifier(n))

	text := "date,type,category,note,amount\n" +
		"2024-01-10,expense,food,\"Lunch\",250.50\n" +
		"2024-01-10,expense,food,BadLineNoQuotesButFine,75\n" +
		"2024-02-01,income,salary,\"Pay\",30000\n" +
		"2024-02-01,invalid,salary,\"Pay\",30000\n"
	res, err := s.Import(ctx, text)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(res.Added) != 3 || res.Skipped != 1 {
		t.Fatalf("expected 3/1, got %d/%d", len(res.Added), res.Skipped)
	}
	loaded := reload(t, kv)
	if len(loaded) != 3 || loaded[0].Note != "Lunch" || loaded[2].Note != "Pay" {
		t.Fatalf("unexpected persisted import %+v", loaded)
	}
	if len(n.imported) != 1 || n.imported[0] != [2]int{3, 1} {
		t.Fatalf("unexpected import events %v", n.imported)
	}

	v := s.View(core.FilterSpec{Month: "2024-01"}, 10)
	if !v.Totals.Expense.Equal(decimal.RequireFromString("325.50")) ||
		!v.Totals.Balance.Equal(decimal.RequireFromString("-325.50")) ||
		!v.Totals.Income.IsZero() {
		t.Fatalf("unexpected totals %+v", v.Totals)
	}

	_, err = s.Import(ctx, "wrong,header\n2024-01-10,expense,food,x,1")
	if !errors.Is(err, csvcodec.ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("rejected import must add nothing")
	}
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openStore(t, storage.NewMemoryKV())
	for _, note := range []string{`plain`, `with, comma`, `with "quotes"`} {
		if _, err := src.Add(ctx, "2024-03-01", core.Expense, "misc", note, decimal.RequireFromString("9.99")); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	dst := openStore(t, storage.NewMemoryKV())
	res, err := dst.Import(ctx, src.Export())
	if err != nil || res.Skipped != 0 {
		t.Fatalf("import: err=%v skipped=%d", err, res.Skipped)
	}
	a, b := src.Transactions(), dst.Transactions()
	for i := range a {
		if a[i].Note != b[i].Note || !a[i].Amount.Equal(b[i].Amount) || a[i].ID == b[i].ID {
			t.Fatalf("record %d mismatch: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestExportKeepsEveryAcceptedRecord(t *testing.T) {
	ctx := context.Background()
	src := openStore(t, storage.NewMemoryKV())
	inputs := []struct {
		category, note string
	}{
		{"food, dining", "x"},
		{"food\ndining", "x"},
		{"food", "line1\nline2"},
		{"food", "line1\r\nline2"},
		{"food", `quoted "note", with comma`},
		{"", "no category"},
	}
	for _, in := range inputs {
		_, err := src.Add(ctx, "2024-03-01", core.Expense, in.category, in.note, decimal.NewFromInt(1))
		if err != nil && !core.IsValidation(err) {
			t.Fatalf("add %q/%q: %v", in.category, in.note, err)
		}
	}
	if src.Len() != 2 {
		t.Fatalf("expected only the CSV-safe records to be accepted, got %d", src.Len())
	}

	dst := openStore(t, storage.NewMemoryKV())
	res, err := dst.Import(ctx, src.Export())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Skipped != 0 || len(res.Added) != src.Len() {
		t.Fatalf("expected %d added 0 skipped, got %d/%d", src.Len(), len(res.Added), res.Skipped)
	}
	a, b := src.Transactions(), dst.Transactions()
	for i := range a {
		if a[i].Category != b[i].Category || a[i].Note != b[i].Note {
			t.Fatalf("record %d mismatch: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestOpenRecoversFromCorruptSlot(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	if err := kv.Put(ctx, storage.DefaultSlotKey, []byte("{broken")); err != nil {
		t.Fatalf("put: %v", err)
	}
	s := openStore(t, kv)
	if s.Len() != 0 {
		t.Fatalf("expected empty store")
	}
	if _, err := s.Add(ctx, "2024-01-01", core.Income, "x", "y", decimal.NewFromInt(1)); err != nil {
		t.Fatalf("add after corrupt load: %v", err)
	}
	if len(reload(t, kv)) != 1 {
		t.Fatalf("expected slot rewritten with valid content")
	}
}

func TestOpenSurfacesBackendErrors(t *testing.T) {
	_, err := Open(context.Background(), storage.NewSlot(&failingKV{KeyValue: storage.NewMemoryKV(), failGet: true}, ""))
	if err == nil {
		t.Fatalf("expected read error")
	}
}

func TestNotifierErrorsDoNotFailMutations(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker down")}
	s := openStore(t, storage.NewMemoryKV(), WithNotifier(n))
	if _, err := s.Add(context.Background(), "2024-01-01", core.Income, "x", "y", decimal.NewFromInt(1)); err != nil {
		t.Fatalf("add must succeed despite notifier error: %v", err)
	}
	if len(n.created) != 1 {
		t.Fatalf("expected created event")
	}
}

func TestView(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemoryKV())
	add := func(date string, typ core.TxType, cat, note string) {
		if _, err := s.Add(ctx, date, typ, cat, note, decimal.NewFromInt(10)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	add("2024-01-01", core.Expense, "food", "first")
	add("2024-01-02", core.Income, "salary", "second")
	add("2024-01-01", core.Expense, "food", "third")
	add("2024-02-01", core.Expense, "rent", "fourth")

	v := s.View(core.FilterSpec{Month: "2024-01"}, 2)
	if len(v.Transactions) != 3 {
		t.Fatalf("expected 3 filtered, got %d", len(v.Transactions))
	}
	if v.Transactions[0].Note != "second" || v.Transactions[1].Note != "first" || v.Transactions[2].Note != "third" {
		t.Fatalf("unexpected display order %v %v %v", v.Transactions[0].Note, v.Transactions[1].Note, v.Transactions[2].Note)
	}
	if len(v.Recent) != 2 {
		t.Fatalf("expected recent limited to 2, got %d", len(v.Recent))
	}
	if len(v.Categories) != 3 {
		t.Fatalf("categories must cover the whole ledger, got %v", v.Categories)
	}
	if v.Revision != 4 {
		t.Fatalf("expected revision 4, got %d", v.Revision)
	}
}
