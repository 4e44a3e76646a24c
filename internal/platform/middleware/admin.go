package middleware

import (
	"net/http"

	"aibetix/internal/transport/http/shared"
	domainerrors "aibetix/pkg/domain-errors"
	"aibetix/pkg/secrets"
)

// RoleAdmin is the token role that grants access to admin endpoints.
const RoleAdmin = "ADMIN"

// RequireAdmin allows requests whose authenticated role is ADMIN, or which
// carry a valid X-Admin-Token matching the configured hash. It must run after
// RequireAuth.
func RequireAdmin(adminTokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetRole(r.Context()) == RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get("X-Admin-Token")
			if token != "" && adminTokenHash != "" {
				if err := secrets.Verify(token, adminTokenHash); err == nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			shared.WriteError(r.Context(), w, domainerrors.New(domainerrors.CodeForbidden, "admin access required"))
		})
	}
}
