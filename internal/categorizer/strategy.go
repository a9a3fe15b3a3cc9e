package categorizer

import (
	"context"

	"fjacquet/receipt-ledger/internal/models"
)

// Options carries the context a line item is mapped in.
type Options struct {
	Vendor   string
	Business string
	User     string
}

// Request is one line item to map.
type Request struct {
	Description string
	Options
}

// MappingStrategy is one stage of account resolution (user overrides,
// vendor table, pattern table, etc.).
type MappingStrategy interface {
	// Map returns the mapping, whether the stage matched, and any error.
	// A stage that does not apply returns found=false without an error.
	Map(ctx context.Context, req Request) (models.MappingResult, bool, error)

	// Name returns the name of this strategy for logging and debugging.
	Name() string
}
