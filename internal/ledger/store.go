// Package ledger owns the in-memory transaction list and keeps it in step
// with its persistent slot: the list is loaded once by Open and written back
// in full after every mutation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"finexpress/internal/core"
	"finexpress/internal/csvcodec"
	"finexpress/internal/storage"

	"github.com/shopspring/decimal"
)

// Persister is the durable side of the store.
type Persister interface {
	Load(ctx context.Context) (storage.LoadResult, error)
	Save(ctx context.Context, list []core.Transaction) error
}

// Notifier receives a message after each successful mutation. Failures are
// logged and never undo the mutation.
type Notifier interface {
	NotifyCreated(ctx context.Context, t core.Transaction) error
	NotifyDeleted(ctx context.Context, id string) error
	NotifyImported(ctx context.Context, added, skipped int) error
}

// Store is the ordered, append-only transaction list. It is safe for
// concurrent use; every method runs to completion under one lock.
type Store struct {
	mu       sync.RWMutex
	txs      []core.Transaction
	rev      uint64
	persist  Persister
	notifier Notifier
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier attaches an event notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open loads the persisted list. Corrupt or partially malformed content is
// logged and replaced by whatever could be recovered.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{persist: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	res, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if res.Corrupt {
		s.logger.WarnContext(ctx, "Persisted transactions unreadable, starting empty")
	}
	if res.Dropped > 0 {
		s.logger.WarnContext(ctx, "Dropped malformed persisted transactions", "dropped", res.Dropped)
	}
	s.txs = res.Transactions
	s.logger.InfoContext(ctx, "Ledger loaded", "count", len(s.txs))
	return s, nil
}

// Transactions returns a copy of the list in insertion order.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.txs)
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

// Revision increases by one with every successful mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// Add validates the fields, appends a new transaction and persists. On a
// validation or save error the list is left unchanged.
func (s *Store) Add(ctx context.Context, date string, typ core.TxType, category, note string, amount decimal.Decimal) (core.Transaction, error) {
	t, err := core.NewTransaction(date, typ, category, note, amount)
	if err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	next := append(slices.Clone(s.txs), t)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction added",
		"id", t.ID,
		"date", t.Date,
		"type", t.Type,
		"category", t.Category,
		"amount", t.Amount.String())

	if s.notifier != nil {
		if err := s.notifier.NotifyCreated(ctx, t); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish created event", "id", t.ID, "error", err)
		}
	}
	return t, nil
}

// Remove deletes the transaction with the given id, if any, then persists.
// It reports whether a record was removed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	idx := slices.IndexFunc(s.txs, func(t core.Transaction) bool { return t.ID == id })
	next := s.txs
	if idx >= 0 {
		next = slices.Delete(slices.Clone(s.txs), idx, idx+1)
	}
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	if idx < 0 {
		s.logger.DebugContext(ctx, "Remove of unknown transaction ignored", "id", id)
		return false, nil
	}
	s.logger.InfoContext(ctx, "Transaction removed", "id", id)

	if s.notifier != nil {
		if err := s.notifier.NotifyDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish deleted event", "id", id, "error", err)
		}
	}
	return true, nil
}

// Import decodes CSV text and appends every accepted line in file order
// with a single save. A header mismatch adds nothing.
func (s *Store) Import(ctx context.Context, text string) (csvcodec.Result, error) {
	res, err := csvcodec.Decode(text)
	if err != nil {
		return csvcodec.Result{}, err
	}

	if len(res.Added) > 0 {
		s.mu.Lock()
		next := append(slices.Clone(s.txs), res.Added...)
		if err := s.commit(ctx, next); err != nil {
			s.mu.Unlock()
			return csvcodec.Result{}, err
		}
		s.mu.Unlock()
	}

	s.logger.InfoContext(ctx, "Transactions imported", "added", len(res.Added), "skipped", res.Skipped)

	if s.notifier != nil {
		if err := s.notifier.NotifyImported(ctx, len(res.Added), res.Skipped); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish imported event", "error", err)
		}
	}
	return res, nil
}

// Export renders the whole list, in insertion order, as CSV.
func (s *Store) Export() string {
	return csvcodec.Encode(s.Transactions())
}

// commit saves next and swaps it in. Callers hold the write lock.
func (s *Store) commit(ctx context.Context, next []core.Transaction) error {
	if s.persist == nil {
		return errors.New("ledger has no persister")
	}
	if err := s.persist.Save(ctx, next); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	s.txs = next
	s.rev++
	return nil
}
