package middleware

import (
	"net/http"
	"slices"
)

// Roles recognized by the JWT "role" claim.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// RequireRole gates a route group on the actor's role claim. Must be
// chained after Auth, which stores the role in the request context.
// A missing role means authentication never ran (401); a role outside the
// allowed set is a permission failure (403).
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			switch {
			case !ok || role == "":
				deny(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			case !slices.Contains(roles, role):
				deny(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireAdmin guards the audit surface (log listing, undo, redo).
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(RoleAdmin)
}
