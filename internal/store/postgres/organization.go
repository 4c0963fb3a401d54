package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayerp/relay/internal/domain"
)

type OrganizationRepo struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepo(pool *pgxpool.Pool) *OrganizationRepo {
	return &OrganizationRepo{pool: pool}
}

func (r *OrganizationRepo) Create(ctx context.Context, o *domain.Organization) error {
	custom, err := json.Marshal(o.Custom)
	if err != nil {
		return fmt.Errorf("organizationRepo.Create: marshal custom: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO organizations (id, tenant_id, name, code, parent_id, custom, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.TenantID, o.Name, o.Code, o.ParentID, custom, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("organizationRepo.Create: %w", err)
	}

	return nil
}

func (r *OrganizationRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Organization, error) {
	var (
		o      domain.Organization
		custom []byte
	)

	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, code, parent_id, custom, created_at, updated_at, deleted_at
		 FROM organizations WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
		tenantID, id,
	).Scan(&o.ID, &o.TenantID, &o.Name, &o.Code, &o.ParentID, &custom, &o.CreatedAt, &o.UpdatedAt, &o.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("organizationRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("organizationRepo.GetByID: %w", err)
	}

	if err := unmarshalJSONB(custom, &o.Custom); err != nil {
		return nil, fmt.Errorf("organizationRepo.GetByID: unmarshal custom: %w", err)
	}

	return &o, nil
}

func (r *OrganizationRepo) Update(ctx context.Context, o *domain.Organization) error {
	custom, err := json.Marshal(o.Custom)
	if err != nil {
		return fmt.Errorf("organizationRepo.Update: marshal custom: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE organizations SET name = $1, code = $2, parent_id = $3, custom = $4, updated_at = now()
		 WHERE tenant_id = $5 AND id = $6 AND deleted_at IS NULL`,
		o.Name, o.Code, o.ParentID, custom, o.TenantID, o.ID,
	)
	if err != nil {
		return fmt.Errorf("organizationRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("organizationRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *OrganizationRepo) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE organizations SET deleted_at = now(), updated_at = now()
		 WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("organizationRepo.SoftDelete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("organizationRepo.SoftDelete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *OrganizationRepo) Restore(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE organizations SET deleted_at = NULL, updated_at = now()
		 WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NOT NULL`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("organizationRepo.Restore: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("organizationRepo.Restore: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *OrganizationRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Organization, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, name, code, parent_id, custom, created_at, updated_at, deleted_at
		 FROM organizations WHERE tenant_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("organizationRepo.List: %w", err)
	}
	defer rows.Close()

	var orgs []*domain.Organization
	for rows.Next() {
		var (
			o      domain.Organization
			custom []byte
		)

		err = rows.Scan(&o.ID, &o.TenantID, &o.Name, &o.Code, &o.ParentID, &custom, &o.CreatedAt, &o.UpdatedAt, &o.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("organizationRepo.List: scan: %w", err)
		}
		if err := unmarshalJSONB(custom, &o.Custom); err != nil {
			return nil, fmt.Errorf("organizationRepo.List: unmarshal custom: %w", err)
		}

		orgs = append(orgs, &o)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("organizationRepo.List: rows: %w", err)
	}

	return orgs, nil
}
