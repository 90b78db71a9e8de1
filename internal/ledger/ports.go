// Package ledger defines the outbound ports for mirroring fare records
// to an external spreadsheet ledger.
package ledger

import (
	"context"

	"taxidiario/internal/core"
)

// Ports for outbound adapters.
type (
	FareWriter interface {
		Append(ctx context.Context, f core.Fare) (rowRef string, err error)
	}

	FareRemover interface {
		Remove(ctx context.Context, fareID int64) error
	}
)
