package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"finexpress/internal/core"
	ports "finexpress/internal/sheets"
)

// Exporter keeps the last exported list in memory. It backs local runs
// without Google credentials and tests.
type Exporter struct {
	mu      sync.Mutex
	exports int
	last    []core.Transaction
}

var _ ports.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Export stores a copy of list and returns a synthetic range reference.
func (e *Exporter) Export(_ context.Context, list []core.Transaction) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exports++
	e.last = slices.Clone(list)
	return fmt.Sprintf("mem:%d!A1:E%d", e.exports, len(list)+1), nil
}

// Last returns the most recently exported list.
func (e *Exporter) Last() []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.last)
}

// Exports returns how many times Export was called.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
