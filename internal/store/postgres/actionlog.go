package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayerp/relay/internal/diff"
	"github.com/relayerp/relay/internal/domain"
)

type ActionLogRepo struct {
	pool *pgxpool.Pool
}

func NewActionLogRepo(pool *pgxpool.Pool) *ActionLogRepo {
	return &ActionLogRepo{pool: pool}
}

const actionLogColumns = `id, tenant_id, organization_id, actor_user_id, command_id, action_label,
	 resource_kind, resource_id, parent_resource_kind, parent_resource_id,
	 execution_state, undo_token, command_payload, snapshot_before, snapshot_after,
	 changes, context, created_at, updated_at, deleted_at`

func (r *ActionLogRepo) Record(ctx context.Context, entry *domain.ActionLog) error {
	payload, err := marshalJSONB(entry.CommandPayload)
	if err != nil {
		return fmt.Errorf("actionLogRepo.Record: marshal payload: %w", err)
	}
	before, err := marshalJSONB(entry.SnapshotBefore)
	if err != nil {
		return fmt.Errorf("actionLogRepo.Record: marshal snapshot before: %w", err)
	}
	after, err := marshalJSONB(entry.SnapshotAfter)
	if err != nil {
		return fmt.Errorf("actionLogRepo.Record: marshal snapshot after: %w", err)
	}
	changes, err := marshalJSONB(entry.Changes)
	if err != nil {
		return fmt.Errorf("actionLogRepo.Record: marshal changes: %w", err)
	}
	execContext, err := marshalJSONB(entry.Context)
	if err != nil {
		return fmt.Errorf("actionLogRepo.Record: marshal context: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO action_logs (id, tenant_id, organization_id, actor_user_id, command_id, action_label,
		 resource_kind, resource_id, parent_resource_kind, parent_resource_id,
		 execution_state, undo_token, command_payload, snapshot_before, snapshot_after,
		 changes, context, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		entry.ID, entry.TenantID, entry.OrganizationID, entry.ActorUserID,
		entry.CommandID, entry.ActionLabel,
		entry.ResourceKind, entry.ResourceID, entry.ParentResourceKind, entry.ParentResourceID,
		entry.ExecutionState, nullableString(entry.UndoToken),
		payload, before, after, changes, execContext,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("actionLogRepo.Record: %w", err)
	}

	return nil
}

func (r *ActionLogRepo) GetByUndoToken(ctx context.Context, token string) (*domain.ActionLog, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+actionLogColumns+`
		 FROM action_logs WHERE undo_token = $1 AND deleted_at IS NULL`,
		token,
	)

	entry, err := scanActionLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("actionLogRepo.GetByUndoToken: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("actionLogRepo.GetByUndoToken: %w", err)
	}

	return entry, nil
}

func (r *ActionLogRepo) SetExecutionState(ctx context.Context, id uuid.UUID, state domain.ExecutionState) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE action_logs SET execution_state = $1, updated_at = now()
		 WHERE id = $2 AND deleted_at IS NULL`,
		state, id,
	)
	if err != nil {
		return fmt.Errorf("actionLogRepo.SetExecutionState: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("actionLogRepo.SetExecutionState: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ActionLogRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.ActionLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+actionLogColumns+`
		 FROM action_logs WHERE tenant_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("actionLogRepo.ListByTenant: %w", err)
	}
	defer rows.Close()

	return scanActionLogs(rows, "actionLogRepo.ListByTenant")
}

func (r *ActionLogRepo) ListByResource(ctx context.Context, tenantID uuid.UUID, resourceKind, resourceID string) ([]*domain.ActionLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+actionLogColumns+`
		 FROM action_logs WHERE tenant_id = $1 AND resource_kind = $2 AND resource_id = $3 AND deleted_at IS NULL
		 ORDER BY created_at DESC`,
		tenantID, resourceKind, resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("actionLogRepo.ListByResource: %w", err)
	}
	defer rows.Close()

	return scanActionLogs(rows, "actionLogRepo.ListByResource")
}

func scanActionLogs(rows pgx.Rows, caller string) ([]*domain.ActionLog, error) {
	var entries []*domain.ActionLog
	for rows.Next() {
		entry, err := scanActionLog(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}

func scanActionLog(row pgx.Row) (*domain.ActionLog, error) {
	var (
		entry       domain.ActionLog
		undoToken   *string
		payload     []byte
		before      []byte
		after       []byte
		changes     []byte
		execContext []byte
	)

	err := row.Scan(
		&entry.ID, &entry.TenantID, &entry.OrganizationID, &entry.ActorUserID,
		&entry.CommandID, &entry.ActionLabel,
		&entry.ResourceKind, &entry.ResourceID, &entry.ParentResourceKind, &entry.ParentResourceID,
		&entry.ExecutionState, &undoToken,
		&payload, &before, &after, &changes, &execContext,
		&entry.CreatedAt, &entry.UpdatedAt, &entry.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if undoToken != nil {
		entry.UndoToken = *undoToken
	}
	if err := unmarshalJSONB(payload, &entry.CommandPayload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := unmarshalJSONB(before, &entry.SnapshotBefore); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot before: %w", err)
	}
	if err := unmarshalJSONB(after, &entry.SnapshotAfter); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot after: %w", err)
	}
	var parsedChanges map[string]diff.Change
	if err := unmarshalJSONB(changes, &parsedChanges); err != nil {
		return nil, fmt.Errorf("unmarshal changes: %w", err)
	}
	entry.Changes = parsedChanges
	if err := unmarshalJSONB(execContext, &entry.Context); err != nil {
		return nil, fmt.Errorf("unmarshal context: %w", err)
	}

	return &entry, nil
}

// marshalJSONB encodes a map for a nullable jsonb column; nil maps become
// SQL NULL rather than the JSON literal "null".
func marshalJSONB(v any) (any, error) {
	switch m := v.(type) {
	case map[string]any:
		if m == nil {
			return nil, nil
		}
	case map[string]diff.Change:
		if m == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalJSONB[T any](raw []byte, dst *T) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
