// Package compliance is the access gate in front of the product surfaces:
// it combines the geographic eligibility check with the identity verification
// state and records every decision on the audit trail.
package compliance

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"aibetix/internal/audit"
	"aibetix/internal/geo"
	"aibetix/internal/platform/metrics"
	"aibetix/internal/platform/tracing"
)

// Product identifies a gated product surface.
type Product string

const (
	ProductSportsPredict Product = "sportsPredict"
	ProductSportsbook    Product = "sportsbook"
	ProductETF           Product = "etf"
)

// Valid reports whether p names a known product.
func (p Product) Valid() bool {
	switch p {
	case ProductSportsPredict, ProductSportsbook, ProductETF:
		return true
	}
	return false
}

// ProductAccess is the per-product access decision for one user and location.
type ProductAccess struct {
	SportsPredict bool `json:"sportsPredict"`
	Sportsbook    bool `json:"sportsbook"`
	ETF           bool `json:"etf"`
}

// Allowed returns the decision for one product.
func (a ProductAccess) Allowed(p Product) bool {
	switch p {
	case ProductSportsPredict:
		return a.SportsPredict
	case ProductSportsbook:
		return a.Sportsbook
	case ProductETF:
		return a.ETF
	}
	return false
}

// Check is a user's full compliance standing.
type Check struct {
	IsAllowed            bool            `json:"isAllowed"`
	RequiresVerification bool            `json:"requiresVerification"`
	Reason               string          `json:"reason,omitempty"`
	GeoCheck             geo.CheckResult `json:"geoCheck"`
	IdentityVerified     bool            `json:"identityVerified"`
}

// GeoChecker evaluates geographic eligibility for an IP and optional GPS fix.
type GeoChecker interface {
	Check(ctx context.Context, ip string, gps *geo.Coordinates) geo.CheckResult
}

// IdentityChecker reports whether a user holds an approved verification.
type IdentityChecker interface {
	IsVerified(ctx context.Context, userID string) bool
}

// LocationRecorder appends one record to the location check trail.
type LocationRecorder interface {
	Record(ctx context.Context, userID, ipAddress string, rec audit.LocationVerification)
	History(ctx context.Context, userID string, limit int) ([]audit.LocationVerification, error)
}

type Service struct {
	geo      GeoChecker
	identity IdentityChecker
	recorder LocationRecorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracing.Tracer
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracing.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(geoChecker GeoChecker, identityChecker IdentityChecker, recorder LocationRecorder, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		geo:      geoChecker,
		identity: identityChecker,
		recorder: recorder,
		logger:   logger,
		tracer:   tracing.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckProductAccess decides per-product access for a user at a location.
// The sports information surface is open everywhere; sportsbook and ETF need
// an eligible region and an approved identity. The geo evaluation and the
// identity lookup run concurrently. Exactly one location record is written per
// decision, and any internal failure fails closed for the gated products.
func (s *Service) CheckProductAccess(ctx context.Context, userID, ipAddress string, gps *geo.Coordinates) ProductAccess {
	ctx, span := s.tracer.Start(ctx, "compliance.check_product_access")
	defer span.End()
	span.SetAttribute("user_id", userID)

	start := time.Now()
	geoCheck, identityVerified := s.evaluate(ctx, userID, ipAddress, gps)

	s.recorder.Record(ctx, userID, ipAddress, audit.LocationVerification{
		GPS:       gps,
		IsAllowed: geoCheck.IsAllowed,
		Region:    geoCheck.Region,
		Reason:    geoCheck.Reason,
	})

	access := ProductAccess{
		SportsPredict: true,
		Sportsbook:    geoCheck.IsAllowed && identityVerified,
		ETF:           geoCheck.IsAllowed && identityVerified,
	}

	if s.metrics != nil {
		s.metrics.ComplianceLatency.Observe(time.Since(start).Seconds())
		for _, p := range []Product{ProductSportsPredict, ProductSportsbook, ProductETF} {
			decision := "denied"
			if access.Allowed(p) {
				decision = "allowed"
			}
			s.metrics.ProductAccessChecks.WithLabelValues(string(p), decision).Inc()
		}
	}

	return access
}

// evaluate runs the geo check and the identity lookup in parallel.
func (s *Service) evaluate(ctx context.Context, userID, ipAddress string, gps *geo.Coordinates) (geo.CheckResult, bool) {
	var (
		geoCheck         geo.CheckResult
		identityVerified bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		geoCheck = s.geo.Check(gctx, ipAddress, gps)
		return nil
	})
	g.Go(func() error {
		identityVerified = s.identity.IsVerified(gctx, userID)
		return nil
	})
	_ = g.Wait()

	return geoCheck, identityVerified
}

// Status summarises a user's standing: allowed only when the region is
// eligible and the identity approved.
func (s *Service) Status(ctx context.Context, userID, ipAddress string) Check {
	geoCheck, identityVerified := s.evaluate(ctx, userID, ipAddress, nil)

	reason := geoCheck.Reason
	if reason == "" && !identityVerified {
		reason = "Identity verification required"
	}

	return Check{
		IsAllowed:            geoCheck.IsAllowed && identityVerified,
		RequiresVerification: geoCheck.RequiresVerification || !identityVerified,
		Reason:               reason,
		GeoCheck:             geoCheck,
		IdentityVerified:     identityVerified,
	}
}

// GeoCheck exposes the bare geographic evaluation without touching identity
// state. One location record is still written when a user is known.
func (s *Service) GeoCheck(ctx context.Context, userID, ipAddress string, gps *geo.Coordinates) geo.CheckResult {
	result := s.geo.Check(ctx, ipAddress, gps)
	if userID != "" {
		s.recorder.Record(ctx, userID, ipAddress, audit.LocationVerification{
			GPS:       gps,
			IsAllowed: result.IsAllowed,
			Region:    result.Region,
			Reason:    result.Reason,
		})
	}
	return result
}

// LocationHistory returns the user's recent location check trail.
func (s *Service) LocationHistory(ctx context.Context, userID string) ([]audit.LocationVerification, error) {
	return s.recorder.History(ctx, userID, locationHistoryLimit)
}

const locationHistoryLimit = 10
