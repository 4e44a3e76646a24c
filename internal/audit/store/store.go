package store

import (
	"context"

	"aibetix/internal/audit"
)

// Store persists the location verification trail.
type Store interface {
	Record(ctx context.Context, rec *audit.LocationVerification) error
	HistoryByUser(ctx context.Context, userID string, limit int) ([]audit.LocationVerification, error)
}
