package middleware

import (
	"context"
	"net/http"

	"github.com/relayerp/relay/internal/command"
)

// ScopeFromContext assembles the command execution scope from the context
// values populated by Auth. Returns false when no authenticated identity is
// present.
func ScopeFromContext(ctx context.Context) (*command.Scope, bool) {
	tenantID, ok := TenantIDFromContext(ctx)
	if !ok {
		return nil, false
	}
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, false
	}

	scope := &command.Scope{
		Auth: &command.AuthInfo{
			Sub:      userID,
			TenantID: tenantID,
		},
	}

	if role, has := RoleFromContext(ctx); has {
		scope.Auth.Roles = []string{role}
	}
	if org, has := SelectedOrgFromContext(ctx); has {
		scope.SelectedOrganizationID = org
	}
	if orgs, has := AllowedOrgsFromContext(ctx); has {
		scope.AllowedOrganizationIDs = orgs
	}

	return scope, true
}

// ScopeFromRequest is the HTTP variant of ScopeFromContext; the originating
// request is attached to the scope.
func ScopeFromRequest(r *http.Request) (*command.Scope, bool) {
	scope, ok := ScopeFromContext(r.Context())
	if !ok {
		return nil, false
	}
	scope.Request = r
	return scope, true
}
