package middleware

import (
	"net/http"

	"github.com/shivshakti/boutique-backend/api/responses"
	"github.com/shivshakti/boutique-backend/pkg/enums"
	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

// RequireRole rejects requests whose authenticated role differs from role.
// It must run after Auth.
func RequireRole(role enums.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if RoleFromContext(r.Context()) != string(role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, string(role)+" access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
