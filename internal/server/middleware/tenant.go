package middleware

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// RequireTenant rejects requests whose context carries no tenant identity.
// Chained after Auth; every command scope binds its audit rows and cache
// tags to a tenant, so an anonymous or nil tenant cannot proceed.
func RequireTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tid, ok := TenantIDFromContext(r.Context()); !ok || tid == uuid.Nil {
				deny(w, http.StatusForbidden, "Forbidden", "valid tenant required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// deny writes a problem-details style JSON error.
func deny(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"title":%q,"status":%d,"detail":%q}`, title, status, detail)
}
