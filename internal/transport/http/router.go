// Package http assembles the HTTP surface: middleware stack, compliance
// routes, health and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	complianceHandler "aibetix/internal/compliance/handler"
	"aibetix/internal/platform/metrics"
	"aibetix/internal/platform/middleware"
	"aibetix/internal/ratelimit"
	"aibetix/internal/transport/http/shared/json"
)

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Logger         *slog.Logger
	TokenValidator middleware.TokenValidator
	AdminTokenHash string
	Compliance     *complianceHandler.Handler
	RateLimit      *ratelimit.Middleware
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	Health         []HealthChecker
}

// New builds the service router.
func New(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Instrument(cfg.Metrics))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", handleHealth(cfg.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/compliance", func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.TokenValidator))

		if cfg.RateLimit != nil {
			r.With(cfg.RateLimit.Limit("geo-check")).Post("/geo-check", cfg.Compliance.HandleGeoCheck)
			r.With(cfg.RateLimit.Limit("identity-verification")).Post("/identity-verification", cfg.Compliance.HandleSubmitVerification)
		} else {
			r.Post("/geo-check", cfg.Compliance.HandleGeoCheck)
			r.Post("/identity-verification", cfg.Compliance.HandleSubmitVerification)
		}

		r.Get("/status", cfg.Compliance.HandleStatus)
		r.Get("/identity-verification/status", cfg.Compliance.HandleVerificationStatus)
		r.Get("/location-history", cfg.Compliance.HandleLocationHistory)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.AdminTokenHash))
			cfg.Compliance.RegisterAdmin(r)
		})
	})

	return r
}

func handleHealth(checkers []HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, c := range checkers {
			if c == nil {
				continue
			}
			if err := c.Health(ctx); err != nil {
				json.Write(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		json.Write(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
