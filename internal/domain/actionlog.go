package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/relayerp/relay/internal/diff"
)

// ExecutionState is the lifecycle state of a logged command execution.
type ExecutionState string

const (
	ExecutionStateDone   ExecutionState = "done"
	ExecutionStateUndone ExecutionState = "undone"
	ExecutionStateFailed ExecutionState = "failed"
	ExecutionStateRedone ExecutionState = "redone"
)

// ActionLog is the persisted, immutable audit record of one command
// execution. A row is created only after the command's Execute succeeded;
// afterwards only ExecutionState (and UpdatedAt/DeletedAt) may change.
// The row is the controlling identity for whether a resource mutation may
// be reversed: its undo token is issued once and never reused.
type ActionLog struct {
	ID             uuid.UUID              `json:"id"`
	TenantID       uuid.UUID              `json:"tenant_id"`
	OrganizationID uuid.UUID              `json:"organization_id"`
	ActorUserID    uuid.UUID              `json:"actor_user_id"`

	CommandID          string `json:"command_id"`
	ActionLabel        string `json:"action_label"`
	ResourceKind       string `json:"resource_kind"`
	ResourceID         string `json:"resource_id"`
	ParentResourceKind string `json:"parent_resource_kind,omitempty"`
	ParentResourceID   string `json:"parent_resource_id,omitempty"`

	ExecutionState ExecutionState `json:"execution_state"`
	UndoToken      string         `json:"undo_token,omitempty"`

	// CommandPayload is the redo envelope: the original command input is
	// always retrievable under a reserved key, alongside any undo-reversal
	// data the handler stored.
	CommandPayload map[string]any         `json:"command_payload,omitempty"`
	SnapshotBefore map[string]any         `json:"snapshot_before,omitempty"`
	SnapshotAfter  map[string]any         `json:"snapshot_after,omitempty"`
	Changes        map[string]diff.Change `json:"changes,omitempty"`
	Context        map[string]any         `json:"context,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Undoable reports whether the log entry is currently in a reversible state.
func (l *ActionLog) Undoable() bool {
	return l.ExecutionState == ExecutionStateDone || l.ExecutionState == ExecutionStateRedone
}

type ActionLogRepository interface {
	Record(ctx context.Context, entry *ActionLog) error
	GetByUndoToken(ctx context.Context, token string) (*ActionLog, error)
	SetExecutionState(ctx context.Context, id uuid.UUID, state ExecutionState) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*ActionLog, error)
	ListByResource(ctx context.Context, tenantID uuid.UUID, resourceKind, resourceID string) ([]*ActionLog, error)
}
