package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"aibetix/internal/identity"
	"aibetix/pkg/platform/sentinel"
)

// Memory is an in-memory Store used for tests and local development.
type Memory struct {
	mu            sync.RWMutex
	verifications map[string]*identity.Verification
	verifiedUsers map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		verifications: make(map[string]*identity.Verification),
		verifiedUsers: make(map[string]bool),
	}
}

func (m *Memory) Create(_ context.Context, v *identity.Verification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.verifications[v.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *v
	m.verifications[v.ID] = &clone
	return nil
}

func (m *Memory) LatestByUser(_ context.Context, userID string) (*identity.Verification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *identity.Verification
	for _, v := range m.verifications {
		if v.UserID != userID {
			continue
		}
		if latest == nil || v.SubmittedAt.After(latest.SubmittedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (m *Memory) ListPending(_ context.Context, page, limit int) ([]identity.Verification, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pending []identity.Verification
	for _, v := range m.verifications {
		if v.Status == identity.StatusPending {
			pending = append(pending, *v)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].SubmittedAt.Before(pending[j].SubmittedAt)
	})

	total := len(pending)
	start := (page - 1) * limit
	if start >= total {
		return []identity.Verification{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return pending[start:end], total, nil
}

func (m *Memory) Review(_ context.Context, verificationID string, decision ReviewDecision) (*identity.Verification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.verifications[verificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if v.Status != identity.StatusPending {
		return nil, sentinel.ErrConflict
	}

	now := time.Now().UTC()
	v.ReviewedBy = decision.ReviewerID
	v.ReviewedAt = &now
	v.RejectionReason = decision.Reason
	if decision.Approved {
		v.Status = identity.StatusApproved
		v.VerifiedAt = &now
		m.verifiedUsers[v.UserID] = true
	} else {
		v.Status = identity.StatusRejected
	}

	clone := *v
	return &clone, nil
}

func (m *Memory) IsUserVerified(_ context.Context, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.verifiedUsers[userID], nil
}
