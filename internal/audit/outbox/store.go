package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines the outbox persistence operations. Implementations must be
// safe for concurrent use.
type Store interface {
	// Append adds a new entry. Call it within the same transaction as the
	// business write when one exists.
	Append(ctx context.Context, entry *Entry) error

	// FetchUnprocessed returns up to limit pending entries, oldest first.
	// Implementations must lock fetched rows so concurrent workers never
	// publish the same entry twice.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)

	// MarkProcessed marks an entry as published.
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error

	// CountPending returns the number of unprocessed entries.
	CountPending(ctx context.Context) (int64, error)

	// DeleteProcessedBefore removes old processed entries, returning how many
	// were deleted.
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
