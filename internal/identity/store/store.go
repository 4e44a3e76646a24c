// Package store persists identity verification requests and the denormalised
// per-user verified flag.
package store

import (
	"context"

	"aibetix/internal/identity"
)

// ReviewDecision is applied to a pending verification by an admin.
type ReviewDecision struct {
	ReviewerID string
	Approved   bool
	Reason     string
}

// Store is the persistence boundary for identity verifications.
//
// Review must be atomic: it transitions a verification out of PENDING exactly
// once, returning sentinel.ErrConflict if the verification was already
// reviewed and sentinel.ErrNotFound if it does not exist. An approval also
// marks the user as verified in the same transaction.
type Store interface {
	Create(ctx context.Context, v *identity.Verification) error
	LatestByUser(ctx context.Context, userID string) (*identity.Verification, error)
	ListPending(ctx context.Context, page, limit int) ([]identity.Verification, int, error)
	Review(ctx context.Context, verificationID string, decision ReviewDecision) (*identity.Verification, error)
	IsUserVerified(ctx context.Context, userID string) (bool, error)
}
