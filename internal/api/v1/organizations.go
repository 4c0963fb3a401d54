package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/domain"
	"github.com/relayerp/relay/internal/server/middleware"
)

type CreateOrganizationInput struct {
	Body struct {
		Name     string         `json:"name" minLength:"1" maxLength:"200" doc:"Organization name"`
		Code     string         `json:"code,omitempty" maxLength:"50" doc:"Organization code"`
		ParentID *uuid.UUID     `json:"parentId,omitempty" doc:"Parent organization ID"`
		Custom   map[string]any `json:"custom,omitempty" doc:"Tenant-defined custom fields"`
	}
}

type CreateOrganizationOutput struct {
	Body OrganizationCommandResult
}

// OrganizationCommandResult is the mutation response: the resulting entity
// plus the audit handle needed to reverse the action.
type OrganizationCommandResult struct {
	Organization *domain.Organization `json:"organization"`
	UndoToken    string               `json:"undo_token,omitempty"`
	LogID        *uuid.UUID           `json:"log_id,omitempty"`
}

type UpdateOrganizationInput struct {
	ID   uuid.UUID `path:"id" doc:"Organization ID"`
	Body struct {
		Name        *string        `json:"name,omitempty" maxLength:"200" doc:"Organization name"`
		Code        *string        `json:"code,omitempty" maxLength:"50" doc:"Organization code"`
		ParentID    *uuid.UUID     `json:"parentId,omitempty" doc:"Parent organization ID"`
		ClearParent bool           `json:"clearParent,omitempty" doc:"Detach from parent"`
		Custom      map[string]any `json:"custom,omitempty" doc:"Custom fields to set"`
	}
}

type UpdateOrganizationOutput struct {
	Body OrganizationCommandResult
}

type DeleteOrganizationInput struct {
	ID uuid.UUID `path:"id" doc:"Organization ID"`
}

type DeleteOrganizationOutput struct {
	Body struct {
		UndoToken string     `json:"undo_token,omitempty"`
		LogID     *uuid.UUID `json:"log_id,omitempty"`
	}
}

type GetOrganizationInput struct {
	ID uuid.UUID `path:"id" doc:"Organization ID"`
}

type GetOrganizationOutput struct {
	Body *domain.Organization
}

type ListOrganizationsOutput struct {
	Body []*domain.Organization
}

func RegisterOrganizationRoutes(api huma.API, store DataStore, bus CommandBus) {
	huma.Register(api, huma.Operation{
		OperationID: "create-organization",
		Method:      http.MethodPost,
		Path:        "/organizations",
		Summary:     "Create an organization",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *CreateOrganizationInput) (*CreateOrganizationOutput, error) {
		scope, ok := middleware.ScopeFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		cmdInput := map[string]any{"name": input.Body.Name, "code": input.Body.Code}
		if input.Body.ParentID != nil {
			cmdInput["parentId"] = input.Body.ParentID.String()
		}
		if input.Body.Custom != nil {
			cmdInput["custom"] = input.Body.Custom
		}

		res, err := bus.Execute(ctx, "directory.organizations.create", command.ExecuteRequest{
			Input: cmdInput,
			Scope: scope,
		})
		if err != nil {
			return nil, mapCommandError(err, "failed to create organization")
		}

		org, _ := res.Result.(*domain.Organization)
		out := &CreateOrganizationOutput{}
		out.Body.Organization = org
		attachAuditHandle(&out.Body.UndoToken, &out.Body.LogID, res)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-organization",
		Method:      http.MethodPut,
		Path:        "/organizations/{id}",
		Summary:     "Update an organization",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *UpdateOrganizationInput) (*UpdateOrganizationOutput, error) {
		scope, ok := middleware.ScopeFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		cmdInput := map[string]any{"organizationId": input.ID.String()}
		if input.Body.Name != nil {
			cmdInput["name"] = *input.Body.Name
		}
		if input.Body.Code != nil {
			cmdInput["code"] = *input.Body.Code
		}
		if input.Body.ParentID != nil {
			cmdInput["parentId"] = input.Body.ParentID.String()
		}
		if input.Body.ClearParent {
			cmdInput["clearParent"] = true
		}
		if input.Body.Custom != nil {
			cmdInput["custom"] = input.Body.Custom
		}

		res, err := bus.Execute(ctx, "directory.organizations.update", command.ExecuteRequest{
			Input: cmdInput,
			Scope: scope,
		})
		if err != nil {
			return nil, mapCommandError(err, "failed to update organization")
		}

		org, _ := res.Result.(*domain.Organization)
		out := &UpdateOrganizationOutput{}
		out.Body.Organization = org
		attachAuditHandle(&out.Body.UndoToken, &out.Body.LogID, res)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-organization",
		Method:      http.MethodDelete,
		Path:        "/organizations/{id}",
		Summary:     "Delete an organization",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *DeleteOrganizationInput) (*DeleteOrganizationOutput, error) {
		scope, ok := middleware.ScopeFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		res, err := bus.Execute(ctx, "directory.organizations.delete", command.ExecuteRequest{
			Input: map[string]any{"organizationId": input.ID.String()},
			Scope: scope,
		})
		if err != nil {
			return nil, mapCommandError(err, "failed to delete organization")
		}

		out := &DeleteOrganizationOutput{}
		attachAuditHandle(&out.Body.UndoToken, &out.Body.LogID, res)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-organization",
		Method:      http.MethodGet,
		Path:        "/organizations/{id}",
		Summary:     "Get an organization by ID",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *GetOrganizationInput) (*GetOrganizationOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		org, err := store.Organizations().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("organization not found")
			}
			return nil, huma.Error500InternalServerError("failed to get organization", err)
		}

		return &GetOrganizationOutput{Body: org}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-organizations",
		Method:      http.MethodGet,
		Path:        "/organizations",
		Summary:     "List organizations",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, _ *struct{}) (*ListOrganizationsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		orgs, err := store.Organizations().List(ctx, tenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list organizations", err)
		}

		return &ListOrganizationsOutput{Body: orgs}, nil
	})
}

// attachAuditHandle copies the undo token and log id out of a command result
// when the execution was audited.
func attachAuditHandle(token *string, logID **uuid.UUID, res *command.ExecuteResult) {
	if res == nil || res.LogEntry == nil {
		return
	}
	*token = res.LogEntry.UndoToken
	id := res.LogEntry.ID
	*logID = &id
}
