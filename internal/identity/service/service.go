// Package service implements the identity verification workflow: submission,
// status lookup, admin review, and the pending review queue.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"aibetix/internal/audit"
	"aibetix/internal/geo"
	"aibetix/internal/identity"
	"aibetix/internal/identity/store"
	"aibetix/internal/platform/metrics"
	domainerrors "aibetix/pkg/domain-errors"
	"aibetix/pkg/platform/sentinel"
	str "aibetix/pkg/string"
	"aibetix/pkg/validation"
)

// Store is the persistence boundary the service depends on.
type Store interface {
	Create(ctx context.Context, v *identity.Verification) error
	LatestByUser(ctx context.Context, userID string) (*identity.Verification, error)
	ListPending(ctx context.Context, page, limit int) ([]identity.Verification, int, error)
	Review(ctx context.Context, verificationID string, decision store.ReviewDecision) (*identity.Verification, error)
	IsUserVerified(ctx context.Context, userID string) (bool, error)
}

// AuditPublisher fans audit events out to the event pipeline.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store   Store
	audit   AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(st Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: st, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitRequest carries a new verification submission.
type SubmitRequest struct {
	UserID          string `validate:"required"`
	DocumentType    string `validate:"required,oneof=passport national_id drivers_license utility_bill"`
	DocumentNumber  string `validate:"required,notblank"`
	DocumentCountry string `validate:"required,len=2"`
	DocumentImage   string `validate:"required"`
	SelfieImage     string `validate:"required"`
	GPS             *geo.Coordinates
	IPAddress       string
	UserAgent       string
}

// Submit records a verification request in PENDING state. The document number
// format is validated up front; review happens out of band.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*identity.Result, error) {
	str.Sanitize(&req)
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	docType := identity.DocumentType(req.DocumentType)
	if !identity.ValidDocumentNumber(docType, req.DocumentNumber, req.DocumentCountry) {
		return nil, domainerrors.New(domainerrors.CodeValidation, "Invalid document number format")
	}

	v := &identity.Verification{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		DocumentType:    docType,
		DocumentNumber:  req.DocumentNumber,
		DocumentCountry: req.DocumentCountry,
		DocumentImage:   req.DocumentImage,
		SelfieImage:     req.SelfieImage,
		GPS:             req.GPS,
		IPAddress:       req.IPAddress,
		UserAgent:       req.UserAgent,
		Device:          deviceLabel(req.UserAgent),
		Status:          identity.StatusPending,
		SubmittedAt:     time.Now().UTC(),
	}

	if err := s.store.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("submit verification: %w", err)
	}

	if s.metrics != nil {
		s.metrics.VerificationsSubmitted.Inc()
	}
	s.emit(ctx, audit.Event{
		UserID:    req.UserID,
		Action:    audit.ActionVerificationSubmitted,
		SubjectID: v.ID,
		Reason:    string(docType),
	})
	s.logger.Info("identity verification submitted",
		"user_id", req.UserID,
		"verification_id", v.ID,
		"document_type", docType,
		"document_country", req.DocumentCountry,
	)

	return &identity.Result{
		IsVerified:     false,
		VerificationID: v.ID,
		Status:         "pending",
	}, nil
}

// Status returns the caller-facing view of the user's latest verification, or
// nil when the user never submitted one.
func (s *Service) Status(ctx context.Context, userID string) (*identity.Result, error) {
	v, err := s.store.LatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("verification status: %w", err)
	}
	return identity.ResultOf(v), nil
}

// ReviewRequest is an admin decision on a pending verification.
type ReviewRequest struct {
	VerificationID string `validate:"required"`
	ReviewerID     string `validate:"required"`
	Approved       bool
	Reason         string
}

// Review applies an admin decision. A verification leaves PENDING exactly
// once; a second decision reports a conflict.
func (s *Service) Review(ctx context.Context, req ReviewRequest) (*identity.Verification, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	v, err := s.store.Review(ctx, req.VerificationID, store.ReviewDecision{
		ReviewerID: req.ReviewerID,
		Approved:   req.Approved,
		Reason:     req.Reason,
	})
	if err != nil {
		if s.metrics != nil && errors.Is(err, sentinel.ErrConflict) {
			s.metrics.ReviewConflicts.Inc()
		}
		return nil, fmt.Errorf("review verification: %w", err)
	}

	decision := "rejected"
	if req.Approved {
		decision = "approved"
	}
	if s.metrics != nil {
		s.metrics.VerificationsReviewed.WithLabelValues(decision).Inc()
	}
	s.emit(ctx, audit.Event{
		UserID:    v.UserID,
		Actor:     req.ReviewerID,
		Action:    audit.ActionVerificationReviewed,
		SubjectID: v.ID,
		Decision:  decision,
		Reason:    req.Reason,
	})
	s.logger.Info("identity verification reviewed",
		"verification_id", v.ID,
		"user_id", v.UserID,
		"reviewer_id", req.ReviewerID,
		"decision", decision,
	)

	return v, nil
}

// PendingPage is one page of the review queue, oldest submissions first.
type PendingPage struct {
	Verifications []identity.Verification `json:"verifications"`
	Total         int                     `json:"total"`
	Page          int                     `json:"page"`
	Limit         int                     `json:"limit"`
}

// ListPending returns the admin review queue.
func (s *Service) ListPending(ctx context.Context, page, limit int) (*PendingPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	verifications, total, err := s.store.ListPending(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending verifications: %w", err)
	}
	if s.metrics != nil {
		s.metrics.PendingQueueDepth.Set(float64(total))
	}

	return &PendingPage{
		Verifications: verifications,
		Total:         total,
		Page:          page,
		Limit:         limit,
	}, nil
}

// IsVerified reports whether the user has an approved verification. Lookup
// failures degrade to false so callers fail closed.
func (s *Service) IsVerified(ctx context.Context, userID string) bool {
	verified, err := s.store.IsUserVerified(ctx, userID)
	if err != nil {
		s.logger.Error("verified flag lookup failed", "user_id", userID, "error", err)
		return false
	}
	return verified
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.Error("failed to emit audit event", "action", event.Action, "error", err)
	}
}

// deviceLabel summarises a User-Agent header for the review queue.
func deviceLabel(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	if name == "" {
		return ""
	}
	label := name
	if version != "" {
		label += " " + version
	}
	if os := parsed.OS(); os != "" {
		label += " on " + os
	}
	if parsed.Mobile() {
		label += " (mobile)"
	}
	return label
}
