package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"aibetix/internal/compliance"
	"aibetix/internal/platform/metrics"
	"aibetix/internal/platform/middleware"
	"aibetix/internal/transport/http/shared/json"
)

// Middleware applies the limiter to HTTP routes. The subject is the
// authenticated user when present, else the client IP. Limiter failures fail
// open: a broken Redis must not take the compliance API down.
type Middleware struct {
	limiter Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewMiddleware(limiter Limiter, logger *slog.Logger, m *metrics.Metrics) *Middleware {
	return &Middleware{limiter: limiter, logger: logger, metrics: m}
}

// Limit wraps a route with the fixed-window check.
func (m *Middleware) Limit(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := middleware.GetUserID(r.Context())
			if subject == "" {
				subject = compliance.ClientIP(r)
			}

			result, err := m.limiter.Allow(r.Context(), route, subject)
			if err != nil {
				m.logger.Error("rate limit check failed", "route", route, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				if m.metrics != nil {
					m.metrics.RateLimitRejected.WithLabelValues(route).Inc()
				}
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				json.Write(w, http.StatusTooManyRequests, map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Too many requests. Please try again later.",
					"retry_after": result.RetryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
