package compliance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aibetix/internal/geo"
	"aibetix/internal/platform/middleware"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded single", "203.0.113.5", "", "10.0.0.1:1234", "203.0.113.5"},
		{"forwarded chain takes first", "203.0.113.5, 10.0.0.2, 10.0.0.3", "", "10.0.0.1:1234", "203.0.113.5"},
		{"real ip fallback", "", "203.0.113.9", "10.0.0.1:1234", "203.0.113.9"},
		{"remote addr fallback", "", "", "203.0.113.7:5678", "203.0.113.7"},
		{"remote addr without port", "", "", "203.0.113.7", "203.0.113.7"},
		{"nothing", "", "", "", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestGPSFromQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?gpsLatitude=37.4&gpsLongitude=-122.08", nil)
	gps := GPSFromQuery(r)
	require.NotNil(t, gps)
	assert.InDelta(t, 37.4, gps.Latitude, 0.001)
	assert.InDelta(t, -122.08, gps.Longitude, 0.001)

	assert.Nil(t, GPSFromQuery(httptest.NewRequest(http.MethodGet, "/?gpsLatitude=37.4", nil)))
	assert.Nil(t, GPSFromQuery(httptest.NewRequest(http.MethodGet, "/?gpsLatitude=abc&gpsLongitude=1", nil)))
	assert.Nil(t, GPSFromQuery(httptest.NewRequest(http.MethodGet, "/", nil)))

	zero := GPSFromQuery(httptest.NewRequest(http.MethodGet, "/?gpsLatitude=0&gpsLongitude=0", nil))
	require.NotNil(t, zero)
	assert.Zero(t, zero.Latitude)
}

type stubValidator struct{}

func (stubValidator) Validate(_ context.Context, _ string) (middleware.Claims, error) {
	return middleware.Claims{UserID: "user-1"}, nil
}

// authedRequest builds a request carrying the identity the auth middleware
// would have installed.
func authedRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	seed := httptest.NewRequest(http.MethodGet, target, nil)
	seed.Header.Set("Authorization", "Bearer anything")

	var ctx context.Context
	middleware.RequireAuth(stubValidator{})(http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		ctx = req.Context()
	})).ServeHTTP(httptest.NewRecorder(), seed)

	return httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
}

func TestRequireProduct_Allows(t *testing.T) {
	svc := newService(stubGeo{allowedGeo()}, stubIdentity{true}, &capturingRecorder{})

	called := false
	h := svc.RequireProduct(ProductSportsbook)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, authedRequest(t, "/sportsbook/bets"))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireProduct_DeniesUnauthenticated(t *testing.T) {
	svc := newService(stubGeo{allowedGeo()}, stubIdentity{true}, &capturingRecorder{})

	h := svc.RequireProduct(ProductSportsbook)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sportsbook/bets", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireProduct_GeoDenial(t *testing.T) {
	svc := newService(stubGeo{deniedGeo(geo.ReasonRestrictedRegion)}, stubIdentity{true}, &capturingRecorder{})

	h := svc.RequireProduct(ProductSportsbook)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, authedRequest(t, "/sportsbook/bets"))

	require.Equal(t, http.StatusForbidden, w.Code)

	var body deniedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Access denied: "+geo.ReasonRestrictedRegion, body.Error)
	assert.True(t, body.RequiresVerification)
	assert.False(t, body.GeoCheck.IsAllowed)
	assert.Equal(t, "FR", body.GeoCheck.Region)
	assert.True(t, body.IdentityVerified)
}

func TestRequireProduct_IdentityDenial(t *testing.T) {
	svc := newService(stubGeo{allowedGeo()}, stubIdentity{false}, &capturingRecorder{})

	h := svc.RequireProduct(ProductETF)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, authedRequest(t, "/etf/holdings"))

	require.Equal(t, http.StatusForbidden, w.Code)

	var body deniedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Identity verification required", body.Error)
	assert.True(t, body.GeoCheck.IsAllowed)
	assert.False(t, body.IdentityVerified)
}

func TestRequireProduct_OpenSurfaceIgnoresRestrictions(t *testing.T) {
	svc := newService(stubGeo{deniedGeo(geo.ReasonRestrictedRegion)}, stubIdentity{false}, &capturingRecorder{})

	h := svc.RequireProduct(ProductSportsPredict)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, authedRequest(t, "/predict/feed"))

	assert.Equal(t, http.StatusOK, w.Code)
}
