package sheets

import (
	"context"

	"finexpress/internal/core"
)

// Exporter copies the full transaction list to an external spreadsheet,
// replacing what was there. It is a one-way export: nothing is read back.
type Exporter interface {
	// Export returns a reference to the written range.
	Export(ctx context.Context, list []core.Transaction) (ref string, err error)
}

// Columns is the header row written above the exported transactions.
var Columns = []string{"date", "type", "category", "note", "amount"}
