package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aibetix/internal/identity"
	"aibetix/pkg/platform/sentinel"
	"aibetix/pkg/testutil"
)

func newVerification(userID string, submittedAt time.Time) *identity.Verification {
	return &identity.Verification{
		ID:              uuid.New().String(),
		UserID:          userID,
		DocumentType:    identity.DocumentPassport,
		DocumentNumber:  "A1234567",
		DocumentCountry: "US",
		Status:          identity.StatusPending,
		SubmittedAt:     submittedAt,
	}
}

func TestMemory_CreateAndLatest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	older := newVerification("user-1", time.Now().Add(-time.Hour))
	newer := newVerification("user-1", time.Now())
	require.NoError(t, m.Create(ctx, older))
	require.NoError(t, m.Create(ctx, newer))

	latest, err := m.LatestByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)

	_, err = m.LatestByUser(ctx, "user-2")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemory_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	v := newVerification("user-1", time.Now())
	require.NoError(t, m.Create(ctx, v))
	assert.ErrorIs(t, m.Create(ctx, v), sentinel.ErrConflict)
}

func TestMemory_ListPending(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Create(ctx, newVerification(fmt.Sprintf("user-%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	firstPage, total, err := m.ListPending(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, firstPage, 2)
	assert.Equal(t, "user-0", firstPage[0].UserID)
	assert.Equal(t, "user-1", firstPage[1].UserID)

	lastPage, total, err := m.ListPending(ctx, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, lastPage, 1)
	assert.Equal(t, "user-4", lastPage[0].UserID)

	empty, total, err := m.ListPending(ctx, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, empty)
}

func TestMemory_Review(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	v := newVerification("user-1", time.Now())
	require.NoError(t, m.Create(ctx, v))

	reviewed, err := m.Review(ctx, v.ID, ReviewDecision{ReviewerID: "admin-1", Approved: true})
	require.NoError(t, err)
	assert.Equal(t, identity.StatusApproved, reviewed.Status)
	assert.Equal(t, "admin-1", reviewed.ReviewedBy)
	assert.NotNil(t, reviewed.VerifiedAt)

	verified, err := m.IsUserVerified(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, verified)

	_, err = m.Review(ctx, v.ID, ReviewDecision{ReviewerID: "admin-2", Approved: false})
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestMemory_ReviewReject(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	v := newVerification("user-1", time.Now())
	require.NoError(t, m.Create(ctx, v))

	reviewed, err := m.Review(ctx, v.ID, ReviewDecision{ReviewerID: "admin-1", Approved: false, Reason: "document unreadable"})
	require.NoError(t, err)
	assert.Equal(t, identity.StatusRejected, reviewed.Status)
	assert.Equal(t, "document unreadable", reviewed.RejectionReason)
	assert.Nil(t, reviewed.VerifiedAt)

	verified, err := m.IsUserVerified(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestMemory_ReviewNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Review(context.Background(), uuid.New().String(), ReviewDecision{ReviewerID: "admin-1", Approved: true})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemory_ConcurrentReview(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	v := newVerification("user-1", time.Now())
	require.NoError(t, m.Create(ctx, v))

	outcome := testutil.RunConcurrent(10, func(i int) error {
		_, err := m.Review(ctx, v.ID, ReviewDecision{ReviewerID: fmt.Sprintf("admin-%d", i), Approved: true})
		return err
	})

	assert.Equal(t, int32(1), outcome.Successes)
	assert.Equal(t, int32(9), outcome.Conflicts)
}
