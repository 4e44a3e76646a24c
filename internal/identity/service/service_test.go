package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aibetix/internal/audit"
	"aibetix/internal/geo"
	"aibetix/internal/identity"
	"aibetix/internal/identity/service/mocks"
	"aibetix/internal/identity/store"
	domainerrors "aibetix/pkg/domain-errors"
	"aibetix/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	mockAudit *mocks.MockAuditPublisher
	service   *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.mockStore, logger, WithAuditPublisher(s.mockAudit))
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) validSubmit() SubmitRequest {
	return SubmitRequest{
		UserID:          "user-1",
		DocumentType:    "passport",
		DocumentNumber:  "A1234567",
		DocumentCountry: "US",
		DocumentImage:   "base64-doc",
		SelfieImage:     "base64-selfie",
		IPAddress:       "8.8.8.8",
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	}
}

func (s *ServiceSuite) TestSubmit() {
	var created *identity.Verification
	s.mockStore.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, v *identity.Verification) error {
			created = v
			return nil
		})
	s.mockAudit.EXPECT().
		Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event audit.Event) error {
			s.Equal(audit.ActionVerificationSubmitted, event.Action)
			s.Equal("user-1", event.UserID)
			return nil
		})

	result, err := s.service.Submit(context.Background(), s.validSubmit())
	s.Require().NoError(err)

	s.False(result.IsVerified)
	s.Equal("pending", result.Status)
	s.NotEmpty(result.VerificationID)

	s.Require().NotNil(created)
	s.Equal(identity.StatusPending, created.Status)
	s.Equal(identity.DocumentPassport, created.DocumentType)
	s.Contains(created.Device, "Chrome")
	s.False(created.SubmittedAt.IsZero())
}

func (s *ServiceSuite) TestSubmitInvalidDocumentNumber() {
	req := s.validSubmit()
	req.DocumentNumber = "ab"

	_, err := s.service.Submit(context.Background(), req)
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeValidation))
}

func (s *ServiceSuite) TestSubmitUnknownDocumentType() {
	req := s.validSubmit()
	req.DocumentType = "library_card"

	_, err := s.service.Submit(context.Background(), req)
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeValidation))
}

func (s *ServiceSuite) TestSubmitMissingImages() {
	req := s.validSubmit()
	req.SelfieImage = ""

	_, err := s.service.Submit(context.Background(), req)
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeValidation))
}

func (s *ServiceSuite) TestSubmitTrimsWhitespace() {
	s.mockStore.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, v *identity.Verification) error {
			s.Equal("A1234567", v.DocumentNumber)
			return nil
		})
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	req := s.validSubmit()
	req.DocumentNumber = "  A1234567  "

	_, err := s.service.Submit(context.Background(), req)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestStatusLatest() {
	verifiedAt := time.Now().UTC()
	s.mockStore.EXPECT().
		LatestByUser(gomock.Any(), "user-1").
		Return(&identity.Verification{
			ID:         "verification-1",
			UserID:     "user-1",
			Status:     identity.StatusApproved,
			VerifiedAt: &verifiedAt,
		}, nil)

	result, err := s.service.Status(context.Background(), "user-1")
	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.True(result.IsVerified)
	s.Equal("approved", result.Status)
	s.Equal("verification-1", result.VerificationID)
}

func (s *ServiceSuite) TestStatusNeverSubmitted() {
	s.mockStore.EXPECT().
		LatestByUser(gomock.Any(), "user-1").
		Return(nil, sentinel.ErrNotFound)

	result, err := s.service.Status(context.Background(), "user-1")
	s.Require().NoError(err)
	s.Nil(result)
}

func (s *ServiceSuite) TestStatusRejectedCarriesReason() {
	s.mockStore.EXPECT().
		LatestByUser(gomock.Any(), "user-1").
		Return(&identity.Verification{
			ID:              "verification-1",
			UserID:          "user-1",
			Status:          identity.StatusRejected,
			RejectionReason: "document unreadable",
		}, nil)

	result, err := s.service.Status(context.Background(), "user-1")
	s.Require().NoError(err)
	s.False(result.IsVerified)
	s.Equal("rejected", result.Status)
	s.Equal("document unreadable", result.Reason)
}

func (s *ServiceSuite) TestReviewApprove() {
	s.mockStore.EXPECT().
		Review(gomock.Any(), "verification-1", store.ReviewDecision{ReviewerID: "admin-1", Approved: true}).
		Return(&identity.Verification{
			ID:     "verification-1",
			UserID: "user-1",
			Status: identity.StatusApproved,
		}, nil)
	s.mockAudit.EXPECT().
		Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event audit.Event) error {
			s.Equal(audit.ActionVerificationReviewed, event.Action)
			s.Equal("admin-1", event.Actor)
			s.Equal("approved", event.Decision)
			return nil
		})

	v, err := s.service.Review(context.Background(), ReviewRequest{
		VerificationID: "verification-1",
		ReviewerID:     "admin-1",
		Approved:       true,
	})
	s.Require().NoError(err)
	s.Equal(identity.StatusApproved, v.Status)
}

func (s *ServiceSuite) TestReviewConflict() {
	s.mockStore.EXPECT().
		Review(gomock.Any(), "verification-1", gomock.Any()).
		Return(nil, sentinel.ErrConflict)

	_, err := s.service.Review(context.Background(), ReviewRequest{
		VerificationID: "verification-1",
		ReviewerID:     "admin-2",
		Approved:       false,
	})
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *ServiceSuite) TestReviewNotFound() {
	s.mockStore.EXPECT().
		Review(gomock.Any(), "missing", gomock.Any()).
		Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Review(context.Background(), ReviewRequest{
		VerificationID: "missing",
		ReviewerID:     "admin-1",
		Approved:       true,
	})
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *ServiceSuite) TestListPendingClampsPaging() {
	s.mockStore.EXPECT().
		ListPending(gomock.Any(), 1, 20).
		Return([]identity.Verification{}, 0, nil)

	page, err := s.service.ListPending(context.Background(), -3, 5000)
	s.Require().NoError(err)
	s.Equal(1, page.Page)
	s.Equal(20, page.Limit)
}

func (s *ServiceSuite) TestIsVerified() {
	s.mockStore.EXPECT().IsUserVerified(gomock.Any(), "user-1").Return(true, nil)
	s.True(s.service.IsVerified(context.Background(), "user-1"))
}

func (s *ServiceSuite) TestIsVerifiedFailsClosed() {
	s.mockStore.EXPECT().
		IsUserVerified(gomock.Any(), "user-1").
		Return(false, errors.New("db down"))
	s.False(s.service.IsVerified(context.Background(), "user-1"))
}

func (s *ServiceSuite) TestSubmitWithGPS() {
	s.mockStore.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, v *identity.Verification) error {
			s.Require().NotNil(v.GPS)
			s.InDelta(37.4, v.GPS.Latitude, 0.01)
			return nil
		})
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	req := s.validSubmit()
	req.GPS = &geo.Coordinates{Latitude: 37.4, Longitude: -122.08}

	_, err := s.service.Submit(context.Background(), req)
	s.Require().NoError(err)
}
