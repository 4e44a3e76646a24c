package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	domainerrors "aibetix/pkg/domain-errors"
	"aibetix/pkg/secrets"
)

// MockTokenValidator is a testify mock for TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) Validate(ctx context.Context, token string) (Claims, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(Claims), args.Error(1)
}

// mockHandler is a test handler that captures if it was called and the context
type mockHandler struct {
	called  bool
	context context.Context
}

func (m *mockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.called = true
	m.context = r.Context()
	w.WriteHeader(http.StatusOK)
}

type AuthMiddlewareTestSuite struct {
	suite.Suite
	validator   *MockTokenValidator
	nextHandler *mockHandler
	middleware  func(http.Handler) http.Handler
}

func TestAuthMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareTestSuite))
}

func (s *AuthMiddlewareTestSuite) SetupTest() {
	s.validator = new(MockTokenValidator)
	s.nextHandler = &mockHandler{}
	s.middleware = RequireAuth(s.validator)
}

func (s *AuthMiddlewareTestSuite) TearDownTest() {
	s.validator.AssertExpectations(s.T())
}

func (s *AuthMiddlewareTestSuite) makeRequest(authHeader string) *httptest.ResponseRecorder {
	handler := s.middleware(s.nextHandler)
	req := httptest.NewRequest(http.MethodGet, "/compliance/status", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func (s *AuthMiddlewareTestSuite) TestValidTokenPassesThrough() {
	s.validator.On("Validate", mock.Anything, "good-token").
		Return(Claims{UserID: "user-1", Role: "ADMIN"}, nil)

	rec := s.makeRequest("Bearer good-token")

	s.Equal(http.StatusOK, rec.Code)
	s.True(s.nextHandler.called)
	s.Equal("user-1", GetUserID(s.nextHandler.context))
	s.Equal("ADMIN", GetRole(s.nextHandler.context))
}

func (s *AuthMiddlewareTestSuite) TestMissingHeaderRejected() {
	rec := s.makeRequest("")

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.False(s.nextHandler.called)
}

func (s *AuthMiddlewareTestSuite) TestMalformedHeaderRejected() {
	rec := s.makeRequest("Token abc")

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.False(s.nextHandler.called)
}

func (s *AuthMiddlewareTestSuite) TestInvalidTokenRejected() {
	s.validator.On("Validate", mock.Anything, "bad-token").
		Return(Claims{}, domainerrors.New(domainerrors.CodeUnauthorized, "token verification failed"))

	rec := s.makeRequest("Bearer bad-token")

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.False(s.nextHandler.called)
}

func TestRequireAdmin(t *testing.T) {
	hash, err := secrets.Hash("ops-secret")
	if err != nil {
		t.Fatalf("hash admin token: %v", err)
	}

	run := func(t *testing.T, adminHash string, prep func(*http.Request)) (*httptest.ResponseRecorder, *mockHandler) {
		t.Helper()
		next := &mockHandler{}
		handler := RequireAdmin(adminHash)(next)
		req := httptest.NewRequest(http.MethodGet, "/compliance/admin/pending-verifications", nil)
		if prep != nil {
			prep(req)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec, next
	}

	t.Run("admin role passes", func(t *testing.T) {
		rec, next := run(t, hash, func(req *http.Request) {
			ctx := context.WithValue(req.Context(), roleKey{}, RoleAdmin)
			*req = *req.WithContext(ctx)
		})
		if rec.Code != http.StatusOK || !next.called {
			t.Fatalf("expected pass-through, got status %d", rec.Code)
		}
	})

	t.Run("valid ops token passes", func(t *testing.T) {
		rec, next := run(t, hash, func(req *http.Request) {
			req.Header.Set("X-Admin-Token", "ops-secret")
		})
		if rec.Code != http.StatusOK || !next.called {
			t.Fatalf("expected pass-through, got status %d", rec.Code)
		}
	})

	t.Run("wrong ops token rejected", func(t *testing.T) {
		rec, next := run(t, hash, func(req *http.Request) {
			req.Header.Set("X-Admin-Token", "guess")
		})
		if rec.Code != http.StatusForbidden || next.called {
			t.Fatalf("expected 403, got status %d", rec.Code)
		}
	})

	t.Run("no credentials rejected", func(t *testing.T) {
		rec, next := run(t, hash, nil)
		if rec.Code != http.StatusForbidden || next.called {
			t.Fatalf("expected 403, got status %d", rec.Code)
		}
	})

	t.Run("empty hash disables ops token", func(t *testing.T) {
		rec, next := run(t, "", func(req *http.Request) {
			req.Header.Set("X-Admin-Token", "anything")
		})
		if rec.Code != http.StatusForbidden || next.called {
			t.Fatalf("expected 403, got status %d", rec.Code)
		}
	})
}
