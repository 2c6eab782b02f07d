package ledger

import "finexpress/internal/core"

// View is everything the presentation layer renders for one filter.
type View struct {
	Filter       core.FilterSpec
	Totals       core.Totals
	Transactions []core.Transaction // filtered, display order
	Recent       []core.Transaction // first recentLimit of Transactions
	ByCategory   []core.CategoryAmount
	Categories   []string // every category in the ledger, unfiltered
	Revision     uint64
}

// View computes the filtered, sorted and aggregated state for spec.
func (s *Store) View(spec core.FilterSpec, recentLimit int) View {
	s.mu.RLock()
	all := s.txs
	rev := s.rev
	s.mu.RUnlock()

	filtered := core.ApplyFilter(all, spec)
	sorted := core.SortForDisplay(filtered)
	return View{
		Filter:       spec,
		Totals:       core.Aggregate(filtered),
		Transactions: sorted,
		Recent:       core.Recent(sorted, recentLimit),
		ByCategory:   core.ByCategory(filtered),
		Categories:   core.Categories(all),
		Revision:     rev,
	}
}
