package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayerp/relay/internal/domain"
)

type TodoRepo struct {
	pool *pgxpool.Pool
}

func NewTodoRepo(pool *pgxpool.Pool) *TodoRepo {
	return &TodoRepo{pool: pool}
}

func (r *TodoRepo) Create(ctx context.Context, t *domain.Todo) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO todos (id, tenant_id, organization_id, title, is_done, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.TenantID, t.OrganizationID, t.Title, t.IsDone, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("todoRepo.Create: %w", err)
	}

	return nil
}

func (r *TodoRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Todo, error) {
	var t domain.Todo

	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, organization_id, title, is_done, created_at, updated_at, deleted_at
		 FROM todos WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
		tenantID, id,
	).Scan(&t.ID, &t.TenantID, &t.OrganizationID, &t.Title, &t.IsDone, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("todoRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("todoRepo.GetByID: %w", err)
	}

	return &t, nil
}

func (r *TodoRepo) Update(ctx context.Context, t *domain.Todo) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET title = $1, is_done = $2, updated_at = now()
		 WHERE tenant_id = $3 AND id = $4 AND deleted_at IS NULL`,
		t.Title, t.IsDone, t.TenantID, t.ID,
	)
	if err != nil {
		return fmt.Errorf("todoRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todoRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TodoRepo) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET deleted_at = now(), updated_at = now()
		 WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("todoRepo.SoftDelete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todoRepo.SoftDelete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TodoRepo) Restore(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET deleted_at = NULL, updated_at = now()
		 WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NOT NULL`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("todoRepo.Restore: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todoRepo.Restore: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TodoRepo) ListByOrganization(ctx context.Context, tenantID, organizationID uuid.UUID) ([]*domain.Todo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, organization_id, title, is_done, created_at, updated_at, deleted_at
		 FROM todos WHERE tenant_id = $1 AND organization_id = $2 AND deleted_at IS NULL
		 ORDER BY created_at`,
		tenantID, organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("todoRepo.ListByOrganization: %w", err)
	}
	defer rows.Close()

	var todos []*domain.Todo
	for rows.Next() {
		var t domain.Todo

		err = rows.Scan(&t.ID, &t.TenantID, &t.OrganizationID, &t.Title, &t.IsDone, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("todoRepo.ListByOrganization: scan: %w", err)
		}

		todos = append(todos, &t)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("todoRepo.ListByOrganization: rows: %w", err)
	}

	return todos, nil
}
