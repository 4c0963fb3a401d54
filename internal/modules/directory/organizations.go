// Package directory implements the organization directory module: command
// handlers for creating, updating and deleting organizations, each wired
// into the audit/undo lifecycle.
package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/domain"
)

const ResourceKind = "directory.organization"

// Register wires the directory command handlers into the registry.
func Register(reg *command.Registry, orgs domain.OrganizationRepository) {
	reg.Register(&CreateOrganization{orgs: orgs})
	reg.Register(&UpdateOrganization{orgs: orgs})
	reg.Register(&DeleteOrganization{orgs: orgs})
}

// ---------------------------------------------------------------------------
// directory.organizations.create
// ---------------------------------------------------------------------------

type CreateOrganization struct {
	orgs domain.OrganizationRepository
}

type createOrganizationInput struct {
	Name     string         `json:"name"`
	Code     string         `json:"code"`
	ParentID *uuid.UUID     `json:"parentId,omitempty"`
	Custom   map[string]any `json:"custom,omitempty"`
}

func (h *CreateOrganization) ID() string { return "directory.organizations.create" }

func (h *CreateOrganization) Execute(ctx context.Context, scope *command.Scope, input map[string]any) (any, error) {
	var in createOrganizationInput
	if err := command.DecodeInput(input, &in); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, fmt.Errorf("directory: organization name is required: %w", domain.ErrConflict)
	}

	now := time.Now()
	org := &domain.Organization{
		ID:        uuid.New(),
		TenantID:  scope.TenantID(),
		Name:      in.Name,
		Code:      in.Code,
		ParentID:  in.ParentID,
		Custom:    in.Custom,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.orgs.Create(ctx, org); err != nil {
		return nil, err
	}

	return org, nil
}

func (h *CreateOrganization) CaptureAfter(_ context.Context, _ *command.Scope, _ map[string]any, result any) (map[string]any, error) {
	org, ok := result.(*domain.Organization)
	if !ok {
		return nil, nil
	}
	return org.Snapshot(), nil
}

func (h *CreateOrganization) BuildLog(_ context.Context, _ *command.Scope, req command.LogRequest) (*command.Metadata, error) {
	org, ok := req.Result.(*domain.Organization)
	if !ok {
		return nil, nil
	}

	// OrganizationID stays unset: the new org cannot be in any actor's org
	// claims yet, so binding the entry to it would make the creation
	// impossible to undo. The bus falls back to the actor's selected org.
	return &command.Metadata{
		TenantID:     org.TenantID,
		ActionLabel:  "Created organization " + org.Name,
		ResourceKind: ResourceKind,
		ResourceID:   org.ID.String(),
		Payload: map[string]any{
			"undo": map[string]any{"organizationId": org.ID.String()},
		},
	}, nil
}

func (h *CreateOrganization) Undo(ctx context.Context, scope *command.Scope, req command.UndoRequest) error {
	if err := command.ValidateUndoScope(scope, req.LogEntry); err != nil {
		return err
	}

	id, err := undoOrganizationID(req.Input)
	if err != nil {
		return err
	}

	return h.orgs.SoftDelete(ctx, scope.TenantID(), id)
}

// ---------------------------------------------------------------------------
// directory.organizations.update
// ---------------------------------------------------------------------------

type UpdateOrganization struct {
	orgs domain.OrganizationRepository
}

type updateOrganizationInput struct {
	OrganizationID uuid.UUID      `json:"organizationId"`
	Name           *string        `json:"name,omitempty"`
	Code           *string        `json:"code,omitempty"`
	ParentID       *uuid.UUID     `json:"parentId,omitempty"`
	ClearParent    bool           `json:"clearParent,omitempty"`
	Custom         map[string]any `json:"custom,omitempty"`
}

func (h *UpdateOrganization) ID() string { return "directory.organizations.update" }

func (h *UpdateOrganization) Prepare(ctx context.Context, scope *command.Scope, input map[string]any) (map[string]any, error) {
	var in updateOrganizationInput
	if err := command.DecodeInput(input, &in); err != nil {
		return nil, err
	}

	org, err := h.orgs.GetByID(ctx, scope.TenantID(), in.OrganizationID)
	if err != nil {
		return nil, err
	}

	return org.Snapshot(), nil
}

func (h *UpdateOrganization) Execute(ctx context.Context, scope *command.Scope, input map[string]any) (any, error) {
	var in updateOrganizationInput
	if err := command.DecodeInput(input, &in); err != nil {
		return nil, err
	}

	org, err := h.orgs.GetByID(ctx, scope.TenantID(), in.OrganizationID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		org.Name = *in.Name
	}
	if in.Code != nil {
		org.Code = *in.Code
	}
	if in.ParentID != nil {
		org.ParentID = in.ParentID
	}
	if in.ClearParent {
		org.ParentID = nil
	}
	for k, v := range in.Custom {
		if org.Custom == nil {
			org.Custom = make(map[string]any)
		}
		org.Custom[k] = v
	}

	if err := h.orgs.Update(ctx, org); err != nil {
		return nil, err
	}

	return org, nil
}

func (h *UpdateOrganization) CaptureAfter(_ context.Context, _ *command.Scope, _ map[string]any, result any) (map[string]any, error) {
	org, ok := result.(*domain.Organization)
	if !ok {
		return nil, nil
	}
	return org.Snapshot(), nil
}

func (h *UpdateOrganization) BuildLog(_ context.Context, _ *command.Scope, req command.LogRequest) (*command.Metadata, error) {
	org, ok := req.Result.(*domain.Organization)
	if !ok {
		return nil, nil
	}

	return &command.Metadata{
		TenantID:       org.TenantID,
		OrganizationID: org.ID,
		ActionLabel:    "Updated organization " + org.Name,
		ResourceKind:   ResourceKind,
		ResourceID:     org.ID.String(),
		Payload: map[string]any{
			"undo": buildUpdateReversal(req.Snapshots.Before, req.Snapshots.After),
		},
	}, nil
}

// buildUpdateReversal records what an undo must write back: the prior value
// of every changed scalar field, and a custom-field reset map where a field
// introduced by this update maps to nil (meaning: remove it) and a changed
// field maps to its prior value.
func buildUpdateReversal(before, after map[string]any) map[string]any {
	reversal := map[string]any{
		"organizationId": before["organizationId"],
	}

	for _, field := range []string{"name", "code", "parentId"} {
		if !equalValue(before[field], after[field]) {
			reversal[field] = before[field]
		}
	}

	beforeCustom, _ := before["custom"].(map[string]any)
	afterCustom, _ := after["custom"].(map[string]any)

	reset := make(map[string]any)
	for k, afterVal := range afterCustom {
		beforeVal, existed := beforeCustom[k]
		if !existed {
			reset[k] = nil
			continue
		}
		if !equalValue(beforeVal, afterVal) {
			reset[k] = beforeVal
		}
	}
	for k, beforeVal := range beforeCustom {
		if _, still := afterCustom[k]; !still {
			reset[k] = beforeVal
		}
	}
	if len(reset) > 0 {
		reversal["customReset"] = reset
	}

	return reversal
}

func (h *UpdateOrganization) Undo(ctx context.Context, scope *command.Scope, req command.UndoRequest) error {
	if err := command.ValidateUndoScope(scope, req.LogEntry); err != nil {
		return err
	}

	reversal, ok := req.Input["undo"].(map[string]any)
	if !ok {
		return fmt.Errorf("directory: undo payload missing: %w", domain.ErrConflict)
	}

	id, err := undoOrganizationID(req.Input)
	if err != nil {
		return err
	}

	org, err := h.orgs.GetByID(ctx, scope.TenantID(), id)
	if err != nil {
		return err
	}

	if v, has := reversal["name"]; has {
		if s, isStr := v.(string); isStr {
			org.Name = s
		}
	}
	if v, has := reversal["code"]; has {
		if s, isStr := v.(string); isStr {
			org.Code = s
		}
	}
	if v, has := reversal["parentId"]; has {
		if v == nil {
			org.ParentID = nil
		} else if s, isStr := v.(string); isStr {
			parentID, parseErr := uuid.Parse(s)
			if parseErr != nil {
				return fmt.Errorf("directory: undo parentId: %w", parseErr)
			}
			org.ParentID = &parentID
		}
	}

	if reset, has := reversal["customReset"].(map[string]any); has {
		for k, prior := range reset {
			if prior == nil {
				delete(org.Custom, k)
				continue
			}
			if org.Custom == nil {
				org.Custom = make(map[string]any)
			}
			org.Custom[k] = prior
		}
	}

	return h.orgs.Update(ctx, org)
}

// ---------------------------------------------------------------------------
// directory.organizations.delete
// ---------------------------------------------------------------------------

type DeleteOrganization struct {
	orgs domain.OrganizationRepository
}

type deleteOrganizationInput struct {
	OrganizationID uuid.UUID `json:"organizationId"`
}

func (h *DeleteOrganization) ID() string { return "directory.organizations.delete" }

func (h *DeleteOrganization) Prepare(ctx context.Context, scope *command.Scope, input map[string]any) (map[string]any, error) {
	var in deleteOrganizationInput
	if err := command.DecodeInput(input, &in); err != nil {
		return nil, err
	}

	org, err := h.orgs.GetByID(ctx, scope.TenantID(), in.OrganizationID)
	if err != nil {
		return nil, err
	}

	return org.Snapshot(), nil
}

func (h *DeleteOrganization) Execute(ctx context.Context, scope *command.Scope, input map[string]any) (any, error) {
	var in deleteOrganizationInput
	if err := command.DecodeInput(input, &in); err != nil {
		return nil, err
	}

	if err := h.orgs.SoftDelete(ctx, scope.TenantID(), in.OrganizationID); err != nil {
		return nil, err
	}

	return map[string]any{"deleted": true, "id": in.OrganizationID.String()}, nil
}

func (h *DeleteOrganization) BuildLog(_ context.Context, scope *command.Scope, req command.LogRequest) (*command.Metadata, error) {
	before := req.Snapshots.Before

	name, _ := before["name"].(string)
	id, _ := before["organizationId"].(string)

	return &command.Metadata{
		TenantID:     scope.TenantID(),
		ActionLabel:  "Deleted organization " + name,
		ResourceKind: ResourceKind,
		ResourceID:   id,
		Payload: map[string]any{
			"undo": map[string]any{"organizationId": id},
		},
	}, nil
}

func (h *DeleteOrganization) Undo(ctx context.Context, scope *command.Scope, req command.UndoRequest) error {
	if err := command.ValidateUndoScope(scope, req.LogEntry); err != nil {
		return err
	}

	id, err := undoOrganizationID(req.Input)
	if err != nil {
		return err
	}

	return h.orgs.Restore(ctx, scope.TenantID(), id)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func undoOrganizationID(payload map[string]any) (uuid.UUID, error) {
	reversal, ok := payload["undo"].(map[string]any)
	if !ok {
		return uuid.Nil, fmt.Errorf("directory: undo payload missing: %w", domain.ErrConflict)
	}

	raw, ok := reversal["organizationId"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("directory: undo payload missing organizationId: %w", domain.ErrConflict)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("directory: undo organizationId: %w", err)
	}

	return id, nil
}

func equalValue(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	return a == b
}
