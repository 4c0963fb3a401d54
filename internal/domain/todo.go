package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Todo is the reference entity for the example command module. It exists to
// exercise the full execute/undo pipeline end to end and to serve as the
// template new business modules copy.
type Todo struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Title          string    `json:"title"`
	IsDone         bool      `json:"is_done"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Snapshot returns the todo's observable state as a plain object suitable
// for audit snapshots and change diffing.
func (t *Todo) Snapshot() map[string]any {
	return map[string]any{
		"tenantId":       t.TenantID.String(),
		"organizationId": t.OrganizationID.String(),
		"todoId":         t.ID.String(),
		"title":          t.Title,
		"is_done":        t.IsDone,
	}
}

type TodoRepository interface {
	Create(ctx context.Context, t *Todo) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Todo, error)
	Update(ctx context.Context, t *Todo) error
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error
	Restore(ctx context.Context, tenantID, id uuid.UUID) error
	ListByOrganization(ctx context.Context, tenantID, organizationID uuid.UUID) ([]*Todo, error)
}
