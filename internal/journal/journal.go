// Package journal persists ledger entries as a header row plus ordered
// posting rows.
package journal

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"fjacquet/receipt-ledger/internal/models"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("entry not found")

// Repository stores and reads ledger entries.
type Repository interface {
	// Save stores the entry header and its postings atomically.
	Save(ctx context.Context, entry models.LedgerEntry) error
	// Get returns one entry with its postings in line order.
	Get(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	// ListRows returns every posting row ordered by date, entry and line.
	ListRows(ctx context.Context) ([]models.PostingRow, error)
	Close() error
}
