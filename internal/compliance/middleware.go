package compliance

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"aibetix/internal/geo"
	"aibetix/internal/platform/middleware"
	"aibetix/internal/transport/http/shared/json"
)

// ClientIP extracts the originating client address: the first hop of
// X-Forwarded-For, then X-Real-IP, then the connection's remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "127.0.0.1"
}

// GPSFromQuery reads an optional device fix from the gpsLatitude/gpsLongitude
// query parameters. Both must parse for a fix to count.
func GPSFromQuery(r *http.Request) *geo.Coordinates {
	latRaw := r.URL.Query().Get("gpsLatitude")
	lonRaw := r.URL.Query().Get("gpsLongitude")
	if latRaw == "" || lonRaw == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return nil
	}
	return &geo.Coordinates{Latitude: lat, Longitude: lon}
}

// deniedResponse is the 403 body returned by the product gate.
type deniedResponse struct {
	Error                string          `json:"error"`
	RequiresVerification bool            `json:"requiresVerification"`
	GeoCheck             deniedGeoResult `json:"geoCheck"`
	IdentityVerified     bool            `json:"identityVerified"`
}

type deniedGeoResult struct {
	IsAllowed bool   `json:"isAllowed"`
	Region    string `json:"region"`
	Reason    string `json:"reason,omitempty"`
}

// RequireProduct gates a product route on the compliance decision. It runs
// after authentication. Geographic denial takes precedence in the error
// message over missing identity verification.
func (s *Service) RequireProduct(product Product) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := middleware.GetUserID(r.Context())
			if userID == "" {
				json.Write(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
				return
			}

			ip := ClientIP(r)
			gps := GPSFromQuery(r)

			access := s.CheckProductAccess(r.Context(), userID, ip, gps)
			if access.Allowed(product) {
				next.ServeHTTP(w, r)
				return
			}

			status := s.Status(r.Context(), userID, ip)
			message := "Access denied"
			if !status.GeoCheck.IsAllowed {
				reason := status.GeoCheck.Reason
				if reason == "" {
					reason = "Geographic restriction"
				}
				message = "Access denied: " + reason
			} else if !status.IdentityVerified {
				message = "Identity verification required"
			}

			json.Write(w, http.StatusForbidden, deniedResponse{
				Error:                message,
				RequiresVerification: status.GeoCheck.RequiresVerification,
				GeoCheck: deniedGeoResult{
					IsAllowed: status.GeoCheck.IsAllowed,
					Region:    status.GeoCheck.Region,
					Reason:    status.GeoCheck.Reason,
				},
				IdentityVerified: status.IdentityVerified,
			})
		})
	}
}
