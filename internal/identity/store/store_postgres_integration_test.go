//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aibetix/internal/identity"
	"aibetix/internal/identity/store"
	"aibetix/pkg/platform/sentinel"
	"aibetix/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	userID   string
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()

	err := s.postgres.TruncateTables(ctx, "identity_verifications", "users")
	s.Require().NoError(err)

	s.userID = s.postgres.CreateTestUser(ctx, s.T())
}

func (s *PostgresStoreSuite) newVerification() *identity.Verification {
	return &identity.Verification{
		ID:              uuid.NewString(),
		UserID:          s.userID,
		DocumentType:    identity.DocumentPassport,
		DocumentNumber:  "A1234567",
		DocumentCountry: "GB",
		DocumentImage:   "data:image/jpeg;base64,AAAA",
		SelfieImage:     "data:image/jpeg;base64,BBBB",
		IPAddress:       "203.0.113.10",
		UserAgent:       "test-agent/1.0",
		Status:          identity.StatusPending,
		SubmittedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestCreateAndLatestByUser() {
	ctx := context.Background()

	v := s.newVerification()
	s.Require().NoError(s.store.Create(ctx, v))

	got, err := s.store.LatestByUser(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(v.ID, got.ID)
	s.Equal(identity.StatusPending, got.Status)
	s.Equal("A1234567", got.DocumentNumber)
	s.WithinDuration(v.SubmittedAt, got.SubmittedAt, time.Millisecond)
}

func (s *PostgresStoreSuite) TestLatestByUserReturnsNewest() {
	ctx := context.Background()

	older := s.newVerification()
	older.SubmittedAt = older.SubmittedAt.Add(-time.Hour)
	older.Status = identity.StatusRejected
	s.Require().NoError(s.store.Create(ctx, older))

	newer := s.newVerification()
	s.Require().NoError(s.store.Create(ctx, newer))

	got, err := s.store.LatestByUser(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(newer.ID, got.ID)
}

func (s *PostgresStoreSuite) TestLatestByUserNotFound() {
	_, err := s.store.LatestByUser(context.Background(), uuid.NewString())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestReviewApproveFlipsUserFlag() {
	ctx := context.Background()

	v := s.newVerification()
	s.Require().NoError(s.store.Create(ctx, v))

	verified, err := s.store.IsUserVerified(ctx, s.userID)
	s.Require().NoError(err)
	s.False(verified)

	reviewed, err := s.store.Review(ctx, v.ID, store.ReviewDecision{
		ReviewerID: "admin-1",
		Approved:   true,
	})
	s.Require().NoError(err)
	s.Equal(identity.StatusApproved, reviewed.Status)
	s.Equal("admin-1", reviewed.ReviewedBy)
	s.Require().NotNil(reviewed.VerifiedAt)

	verified, err = s.store.IsUserVerified(ctx, s.userID)
	s.Require().NoError(err)
	s.True(verified)
}

func (s *PostgresStoreSuite) TestReviewRejectKeepsUserUnverified() {
	ctx := context.Background()

	v := s.newVerification()
	s.Require().NoError(s.store.Create(ctx, v))

	reviewed, err := s.store.Review(ctx, v.ID, store.ReviewDecision{
		ReviewerID: "admin-1",
		Approved:   false,
		Reason:     "document unreadable",
	})
	s.Require().NoError(err)
	s.Equal(identity.StatusRejected, reviewed.Status)
	s.Equal("document unreadable", reviewed.RejectionReason)
	s.Nil(reviewed.VerifiedAt)

	verified, err := s.store.IsUserVerified(ctx, s.userID)
	s.Require().NoError(err)
	s.False(verified)
}

func (s *PostgresStoreSuite) TestReviewAlreadyReviewedConflicts() {
	ctx := context.Background()

	v := s.newVerification()
	s.Require().NoError(s.store.Create(ctx, v))

	_, err := s.store.Review(ctx, v.ID, store.ReviewDecision{ReviewerID: "admin-1", Approved: true})
	s.Require().NoError(err)

	_, err = s.store.Review(ctx, v.ID, store.ReviewDecision{ReviewerID: "admin-2", Approved: false, Reason: "nope"})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestReviewUnknownIDNotFound() {
	_, err := s.store.Review(context.Background(), uuid.NewString(), store.ReviewDecision{
		ReviewerID: "admin-1",
		Approved:   true,
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentReview verifies that concurrent reviews of the same pending
// verification produce exactly one winner.
func (s *PostgresStoreSuite) TestConcurrentReview() {
	ctx := context.Background()

	v := s.newVerification()
	s.Require().NoError(s.store.Create(ctx, v))

	const goroutines = 20
	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := s.store.Review(ctx, v.ID, store.ReviewDecision{
				ReviewerID: "admin",
				Approved:   idx%2 == 0,
				Reason:     "race",
			})
			switch {
			case err == nil:
				successes.Add(1)
			default:
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestListPendingPagination() {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		v := s.newVerification()
		v.SubmittedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.store.Create(ctx, v))
	}

	page1, total, err := s.store.ListPending(ctx, 1, 2)
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Require().Len(page1, 2)

	page3, total, err := s.store.ListPending(ctx, 3, 2)
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Require().Len(page3, 1)

	// Oldest first.
	s.True(page1[0].SubmittedAt.Before(page3[0].SubmittedAt))
}
