package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	TenantID    string   `json:"tid"`
	UserID      string   `json:"uid"`
	Role        string   `json:"role"`
	SelectedOrg string   `json:"org,omitempty"`
	AllowedOrgs []string `json:"orgs,omitempty"`
}

// Auth validates the Bearer JWT and stores the actor identity, tenant and
// organization claims in the request context.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := extractBearer(r); tok != "" {
				ctx, ok := authenticateJWT(r.Context(), tok, jwtSecret)
				if ok {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			deny(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid credentials")
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}

func authenticateJWT(ctx context.Context, tokenStr, secret string) (context.Context, bool) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return ctx, false
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return ctx, false
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ctx, false
	}

	ctx = context.WithValue(ctx, ContextKeyTenantID, tenantID)
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, ContextKeyUserRole, claims.Role)

	if claims.SelectedOrg != "" {
		if orgID, parseErr := uuid.Parse(claims.SelectedOrg); parseErr == nil {
			ctx = context.WithValue(ctx, ContextKeySelectedOrg, orgID)
		}
	}
	if len(claims.AllowedOrgs) > 0 {
		allowed := make([]uuid.UUID, 0, len(claims.AllowedOrgs))
		for _, raw := range claims.AllowedOrgs {
			if orgID, parseErr := uuid.Parse(raw); parseErr == nil {
				allowed = append(allowed, orgID)
			}
		}
		if len(allowed) > 0 {
			ctx = context.WithValue(ctx, ContextKeyAllowedOrgs, allowed)
		}
	}

	return ctx, true
}
