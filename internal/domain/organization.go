package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Organization is a node in a tenant's directory tree. Organizations may
// nest via ParentID and carry tenant-defined custom fields.
type Organization struct {
	ID       uuid.UUID      `json:"id"`
	TenantID uuid.UUID      `json:"tenant_id"`
	Name     string         `json:"name"`
	Code     string         `json:"code"`
	ParentID *uuid.UUID     `json:"parent_id,omitempty"`
	Custom   map[string]any `json:"custom,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Snapshot returns the organization's observable state as a plain object
// suitable for audit snapshots and change diffing.
func (o *Organization) Snapshot() map[string]any {
	var parentID any
	if o.ParentID != nil {
		parentID = o.ParentID.String()
	}

	return map[string]any{
		"tenantId":       o.TenantID.String(),
		"organizationId": o.ID.String(),
		"name":           o.Name,
		"code":           o.Code,
		"parentId":       parentID,
		"custom":         o.Custom,
	}
}

type OrganizationRepository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error
	Restore(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID) ([]*Organization, error)
}
