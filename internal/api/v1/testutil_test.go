package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/domain"
	"github.com/relayerp/relay/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject tenant/user identity for DoCtx requests
// ---------------------------------------------------------------------------

func tenantCtx(tenantID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyTenantID, tenantID)
	return ctx
}

func actorCtx(tenantID, userID uuid.UUID) context.Context {
	ctx := tenantCtx(tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	organizations domain.OrganizationRepository
	todos         domain.TodoRepository
	actionLogs    domain.ActionLogRepository
}

func (m *mockDataStore) Organizations() domain.OrganizationRepository { return m.organizations }
func (m *mockDataStore) Todos() domain.TodoRepository                 { return m.todos }
func (m *mockDataStore) ActionLogs() domain.ActionLogRepository       { return m.actionLogs }

// ---------------------------------------------------------------------------
// Mock CommandBus
// ---------------------------------------------------------------------------

type mockBus struct {
	executeFunc func(ctx context.Context, commandID string, req command.ExecuteRequest) (*command.ExecuteResult, error)
	undoFunc    func(ctx context.Context, token string, scope *command.Scope) error
	redoFunc    func(ctx context.Context, token string, scope *command.Scope) error
}

func (m *mockBus) Execute(ctx context.Context, commandID string, req command.ExecuteRequest) (*command.ExecuteResult, error) {
	return m.executeFunc(ctx, commandID, req)
}

func (m *mockBus) Undo(ctx context.Context, token string, scope *command.Scope) error {
	return m.undoFunc(ctx, token, scope)
}

func (m *mockBus) Redo(ctx context.Context, token string, scope *command.Scope) error {
	return m.redoFunc(ctx, token, scope)
}

// ---------------------------------------------------------------------------
// Mock OrganizationRepository
// ---------------------------------------------------------------------------

type mockOrgRepo struct {
	createFunc     func(ctx context.Context, o *domain.Organization) error
	getByIDFunc    func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Organization, error)
	updateFunc     func(ctx context.Context, o *domain.Organization) error
	softDeleteFunc func(ctx context.Context, tenantID, id uuid.UUID) error
	restoreFunc    func(ctx context.Context, tenantID, id uuid.UUID) error
	listFunc       func(ctx context.Context, tenantID uuid.UUID) ([]*domain.Organization, error)
}

func (m *mockOrgRepo) Create(ctx context.Context, o *domain.Organization) error {
	return m.createFunc(ctx, o)
}

func (m *mockOrgRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Organization, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockOrgRepo) Update(ctx context.Context, o *domain.Organization) error {
	return m.updateFunc(ctx, o)
}

func (m *mockOrgRepo) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.softDeleteFunc(ctx, tenantID, id)
}

func (m *mockOrgRepo) Restore(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.restoreFunc(ctx, tenantID, id)
}

func (m *mockOrgRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Organization, error) {
	return m.listFunc(ctx, tenantID)
}

// ---------------------------------------------------------------------------
// Mock TodoRepository
// ---------------------------------------------------------------------------

type mockTodoRepo struct {
	createFunc             func(ctx context.Context, t *domain.Todo) error
	getByIDFunc            func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Todo, error)
	updateFunc             func(ctx context.Context, t *domain.Todo) error
	softDeleteFunc         func(ctx context.Context, tenantID, id uuid.UUID) error
	restoreFunc            func(ctx context.Context, tenantID, id uuid.UUID) error
	listByOrganizationFunc func(ctx context.Context, tenantID, organizationID uuid.UUID) ([]*domain.Todo, error)
}

func (m *mockTodoRepo) Create(ctx context.Context, t *domain.Todo) error {
	return m.createFunc(ctx, t)
}

func (m *mockTodoRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Todo, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockTodoRepo) Update(ctx context.Context, t *domain.Todo) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTodoRepo) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.softDeleteFunc(ctx, tenantID, id)
}

func (m *mockTodoRepo) Restore(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.restoreFunc(ctx, tenantID, id)
}

func (m *mockTodoRepo) ListByOrganization(ctx context.Context, tenantID, organizationID uuid.UUID) ([]*domain.Todo, error) {
	return m.listByOrganizationFunc(ctx, tenantID, organizationID)
}

// ---------------------------------------------------------------------------
// Mock ActionLogRepository
// ---------------------------------------------------------------------------

type mockActionLogRepo struct {
	recordFunc            func(ctx context.Context, entry *domain.ActionLog) error
	getByUndoTokenFunc    func(ctx context.Context, token string) (*domain.ActionLog, error)
	setExecutionStateFunc func(ctx context.Context, id uuid.UUID, state domain.ExecutionState) error
	listByTenantFunc      func(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.ActionLog, error)
	listByResourceFunc    func(ctx context.Context, tenantID uuid.UUID, resourceKind, resourceID string) ([]*domain.ActionLog, error)
}

func (m *mockActionLogRepo) Record(ctx context.Context, entry *domain.ActionLog) error {
	return m.recordFunc(ctx, entry)
}

func (m *mockActionLogRepo) GetByUndoToken(ctx context.Context, token string) (*domain.ActionLog, error) {
	return m.getByUndoTokenFunc(ctx, token)
}

func (m *mockActionLogRepo) SetExecutionState(ctx context.Context, id uuid.UUID, state domain.ExecutionState) error {
	return m.setExecutionStateFunc(ctx, id, state)
}

func (m *mockActionLogRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.ActionLog, error) {
	return m.listByTenantFunc(ctx, tenantID, limit, offset)
}

func (m *mockActionLogRepo) ListByResource(ctx context.Context, tenantID uuid.UUID, resourceKind, resourceID string) ([]*domain.ActionLog, error) {
	return m.listByResourceFunc(ctx, tenantID, resourceKind, resourceID)
}
