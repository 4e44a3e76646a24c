// Package handler exposes the compliance REST surface: status, identity
// verification, geo checks, location history, and the admin review queue.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aibetix/internal/audit"
	"aibetix/internal/compliance"
	"aibetix/internal/geo"
	"aibetix/internal/identity"
	identityservice "aibetix/internal/identity/service"
	"aibetix/internal/platform/middleware"
	"aibetix/internal/transport/http/shared"
	"aibetix/internal/transport/http/shared/json"
	domainerrors "aibetix/pkg/domain-errors"
)

// ComplianceService is the gate surface the handler depends on.
type ComplianceService interface {
	Status(ctx context.Context, userID, ipAddress string) compliance.Check
	GeoCheck(ctx context.Context, userID, ipAddress string, gps *geo.Coordinates) geo.CheckResult
	LocationHistory(ctx context.Context, userID string) ([]audit.LocationVerification, error)
}

// IdentityService is the verification workflow the handler depends on.
type IdentityService interface {
	Submit(ctx context.Context, req identityservice.SubmitRequest) (*identity.Result, error)
	Status(ctx context.Context, userID string) (*identity.Result, error)
	Review(ctx context.Context, req identityservice.ReviewRequest) (*identity.Verification, error)
	ListPending(ctx context.Context, page, limit int) (*identityservice.PendingPage, error)
}

type Handler struct {
	compliance ComplianceService
	identity   IdentityService
	logger     *slog.Logger
}

func New(complianceSvc ComplianceService, identitySvc IdentityService, logger *slog.Logger) *Handler {
	return &Handler{
		compliance: complianceSvc,
		identity:   identitySvc,
		logger:     logger,
	}
}

// Register mounts the user-facing routes. The router must already enforce
// authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/status", h.HandleStatus)
	r.Post("/identity-verification", h.HandleSubmitVerification)
	r.Get("/identity-verification/status", h.HandleVerificationStatus)
	r.Get("/location-history", h.HandleLocationHistory)
	r.Post("/geo-check", h.HandleGeoCheck)
}

// RegisterAdmin mounts the admin routes. The router must enforce admin access.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/pending-verifications", h.HandlePendingVerifications)
	r.Post("/admin/review-verification/{verificationId}", h.HandleReviewVerification)
	r.Get("/admin/user-compliance/{userId}", h.HandleUserCompliance)
}

// HandleStatus implements GET /compliance/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	ip := compliance.ClientIP(r)

	status := h.compliance.Status(ctx, userID, ip)
	json.Write(w, http.StatusOK, ok(status))
}

// HandleSubmitVerification implements POST /compliance/identity-verification.
func (h *Handler) HandleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20) // document images travel inline

	var req SubmitVerificationRequest
	if err := json.Decode(r, &req); err != nil {
		shared.WriteError(ctx, w, domainerrors.New(domainerrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	result, err := h.identity.Submit(ctx, identityservice.SubmitRequest{
		UserID:          middleware.GetUserID(ctx),
		DocumentType:    req.DocumentType,
		DocumentNumber:  req.DocumentNumber,
		DocumentCountry: req.DocumentCountry,
		DocumentImage:   req.DocumentImage,
		SelfieImage:     req.SelfieImage,
		GPS:             coordinates(req.GPSLatitude, req.GPSLongitude),
		IPAddress:       compliance.ClientIP(r),
		UserAgent:       r.UserAgent(),
	})
	if err != nil {
		shared.WriteError(ctx, w, err)
		return
	}

	json.Write(w, http.StatusOK, okMessage(result, "Identity verification request submitted successfully"))
}

// HandleVerificationStatus implements GET /compliance/identity-verification/status.
func (h *Handler) HandleVerificationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.identity.Status(ctx, middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(ctx, w, err)
		return
	}
	json.Write(w, http.StatusOK, ok(result))
}

// HandleLocationHistory implements GET /compliance/location-history.
func (h *Handler) HandleLocationHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	history, err := h.compliance.LocationHistory(ctx, middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(ctx, w, err)
		return
	}
	json.Write(w, http.StatusOK, ok(history))
}

// HandleGeoCheck implements POST /compliance/geo-check.
func (h *Handler) HandleGeoCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GeoCheckRequest
	if err := json.Decode(r, &req); err != nil {
		shared.WriteError(ctx, w, domainerrors.New(domainerrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	result := h.compliance.GeoCheck(ctx, middleware.GetUserID(ctx), compliance.ClientIP(r),
		coordinates(req.GPSLatitude, req.GPSLongitude))
	json.Write(w, http.StatusOK, ok(result))
}

// HandlePendingVerifications implements GET /compliance/admin/pending-verifications.
func (h *Handler) HandlePendingVerifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	result, err := h.identity.ListPending(ctx, page, limit)
	if err != nil {
		shared.WriteError(ctx, w, err)
		return
	}
	json.Write(w, http.StatusOK, ok(result))
}

// HandleReviewVerification implements POST /compliance/admin/review-verification/{verificationId}.
func (h *Handler) HandleReviewVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ReviewRequest
	if err := json.Decode(r, &req); err != nil {
		shared.WriteError(ctx, w, domainerrors.New(domainerrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}
	if req.Approved == nil {
		shared.WriteError(ctx, w, domainerrors.New(domainerrors.CodeBadRequest, "Approved field is required and must be boolean"))
		return
	}

	_, err := h.identity.Review(ctx, identityservice.ReviewRequest{
		VerificationID: chi.URLParam(r, "verificationId"),
		ReviewerID:     middleware.GetUserID(ctx),
		Approved:       *req.Approved,
		Reason:         req.Reason,
	})
	if err != nil {
		shared.WriteError(ctx, w, err)
		return
	}

	message := "Verification rejected successfully"
	if *req.Approved {
		message = "Verification approved successfully"
	}
	json.Write(w, http.StatusOK, okMessage(nil, message))
}

// HandleUserCompliance implements GET /compliance/admin/user-compliance/{userId}.
func (h *Handler) HandleUserCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userId")

	status := h.compliance.Status(ctx, userID, compliance.ClientIP(r))

	verification, err := h.identity.Status(ctx, userID)
	if err != nil {
		shared.WriteError(ctx, w, err)
		return
	}

	history, err := h.compliance.LocationHistory(ctx, userID)
	if err != nil {
		shared.WriteError(ctx, w, err)
		return
	}

	json.Write(w, http.StatusOK, ok(map[string]any{
		"complianceStatus":   status,
		"verificationStatus": verification,
		"locationHistory":    history,
	}))
}

func coordinates(lat, lon *float64) *geo.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &geo.Coordinates{Latitude: *lat, Longitude: *lon}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
