package middleware

import (
	"context"
	"net/http"
	"strings"

	"aibetix/internal/transport/http/shared"
	domainerrors "aibetix/pkg/domain-errors"
)

// Claims carries the identity extracted from a bearer token.
type Claims struct {
	UserID string
	Role   string
}

// TokenValidator validates a bearer token and returns the claims it carries.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (Claims, error)
}

type userIDKey struct{}
type roleKey struct{}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user ID and role on the request context.
func RequireAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				shared.WriteError(r.Context(), w, err)
				return
			}

			claims, err := validator.Validate(r.Context(), token)
			if err != nil {
				shared.WriteError(r.Context(), w, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, claims.UserID)
			ctx = context.WithValue(ctx, roleKey{}, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", domainerrors.New(domainerrors.CodeUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", domainerrors.New(domainerrors.CodeUnauthorized, "malformed authorization header")
	}
	return parts[1], nil
}

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GetRole retrieves the authenticated user's role from the context.
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey{}).(string); ok {
		return role
	}
	return ""
}
