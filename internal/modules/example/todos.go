// Package example implements the reference todo module. It is deliberately
// small: its handlers exist to exercise the full execute/undo pipeline end
// to end and to serve as the template new business modules copy.
package example

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/domain"
	"github.com/relayerp/relay/internal/modules/directory"
)

const ResourceKind = "example.todo"

// Register wires the example command handlers into the registry.
func Register(reg *command.Registry, todos domain.TodoRepository) {
	reg.Register(&CreateTodo{todos: todos})
	reg.Register(&UpdateTodo{todos: todos})
	reg.Register(&DeleteTodo{todos: todos})
}

// ---------------------------------------------------------------------------
// example.todos.create
// ---------------------------------------------------------------------------

type CreateTodo struct {
	todos domain.TodoRepository
}

type createTodoInput struct {
	OrganizationID uuid.UUID `json:"organizationId"`
	Title          string    `json:"title"`
}

func (h *CreateTodo) ID() string { return "example.todos.create" }

func (h *CreateTodo) Execute(ctx context.Context, scope *command.Scope, input map[string]any) (any, error) {
	var in createTodoInput
	if err := command.DecodeInput(input, &in); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, fmt.Errorf("example: todo title is required: %w", domain.ErrConflict)
	}

	organizationID := in.OrganizationID
	if organizationID == uuid.Nil && scope != nil {
		organizationID = scope.SelectedOrganizationID
	}

	now := time.Now()
	todo := &domain.Todo{
		ID:             uuid.New(),
		TenantID:       scope.TenantID(),
		OrganizationID: organizationID,
		Title:          in.Title,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.todos.Create(ctx, todo); err != nil {
		return nil, err
	}

	return todo, nil
}

func (h *CreateTodo) CaptureAfter(_ context.Context, _ *command.Scope, _ map[string]any, result any) (map[string]any, error) {
	todo, ok := result.(*domain.Todo)
	if !ok {
		return nil, nil
	}
	return todo.Snapshot(), nil
}

func (h *CreateTodo) BuildLog(_ context.Context, _ *command.Scope, req command.LogRequest) (*command.Metadata, error) {
	todo, ok := req.Result.(*domain.Todo)
	if !ok {
		return nil, nil
	}

	return &command.Metadata{
		TenantID:           todo.TenantID,
		OrganizationID:     todo.OrganizationID,
		ActionLabel:        "Created todo " + todo.Title,
		ResourceKind:       ResourceKind,
		ResourceID:         todo.ID.String(),
		ParentResourceKind: directory.ResourceKind,
		ParentResourceID:   todo.OrganizationID.String(),
		Payload: map[string]any{
			"undo": map[string]any{"todoId": todo.ID.String()},
		},
	}, nil
}

func (h *CreateTodo) Undo(ctx context.Context, scope *command.Scope, req command.UndoRequest) error {
	if err := command.ValidateUndoScope(scope, req.LogEntry); err != nil {
		return err
	}

	id, err := undoTodoID(req.Input)
	if err != nil {
		return err
	}

	return h.todos.SoftDelete(ctx, scope.TenantID(), id)
}

// ---------------------------------------------------------------------------
// example.todos.update
// ---------------------------------------------------------------------------

type UpdateTodo struct {
	todos domain.TodoRepository
}

type updateTodoInput struct {
	TodoID uuid.UUID `json:"todoId"`
	Title  *string   `json:"title,omitempty"`
	IsDone *bool     `json:"is_done,omitempty"`
}

func (h *UpdateTodo) ID() string { return "example.todos.update" }

func (h *UpdateTodo) Prepare(ctx context.Context, scope *command.Scope, input map[string]any) (map[string]any, error) {
	var in updateTodoInput
	if err := command.DecodeInput(input, &in); err != nil {
		return nil, err
	}

	todo, err := h.todos.GetByID(ctx, scope.TenantID(), in.TodoID)
	if err != nil {
		return nil, err
	}

	return todo.Snapshot(), nil
}

func (h *UpdateTodo) Execute(ctx context.Context, scope *command.Scope, input map[string]any) (any, error) {
	var in updateTodoInput
	if err := command.DecodeInput(input, &in); err != nil {
		return nil, err
	}

	todo, err := h.todos.GetByID(ctx, scope.TenantID(), in.TodoID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		todo.Title = *in.Title
	}
	if in.IsDone != nil {
		todo.IsDone = *in.IsDone
	}

	if err := h.todos.Update(ctx, todo); err != nil {
		return nil, err
	}

	return todo, nil
}

func (h *UpdateTodo) CaptureAfter(_ context.Context, _ *command.Scope, _ map[string]any, result any) (map[string]any, error) {
	todo, ok := result.(*domain.Todo)
	if !ok {
		return nil, nil
	}
	return todo.Snapshot(), nil
}

func (h *UpdateTodo) BuildLog(_ context.Context, _ *command.Scope, req command.LogRequest) (*command.Metadata, error) {
	todo, ok := req.Result.(*domain.Todo)
	if !ok {
		return nil, nil
	}

	reversal := map[string]any{"todoId": todo.ID.String()}
	before := req.Snapshots.Before
	after := req.Snapshots.After
	for _, field := range []string{"title", "is_done"} {
		if before[field] != after[field] {
			reversal[field] = before[field]
		}
	}

	return &command.Metadata{
		TenantID:           todo.TenantID,
		OrganizationID:     todo.OrganizationID,
		ActionLabel:        "Updated todo " + todo.Title,
		ResourceKind:       ResourceKind,
		ResourceID:         todo.ID.String(),
		ParentResourceKind: directory.ResourceKind,
		ParentResourceID:   todo.OrganizationID.String(),
		Payload:            map[string]any{"undo": reversal},
	}, nil
}

func (h *UpdateTodo) Undo(ctx context.Context, scope *command.Scope, req command.UndoRequest) error {
	if err := command.ValidateUndoScope(scope, req.LogEntry); err != nil {
		return err
	}

	reversal, ok := req.Input["undo"].(map[string]any)
	if !ok {
		return fmt.Errorf("example: undo payload missing: %w", domain.ErrConflict)
	}

	id, err := undoTodoID(req.Input)
	if err != nil {
		return err
	}

	todo, err := h.todos.GetByID(ctx, scope.TenantID(), id)
	if err != nil {
		return err
	}

	if v, has := reversal["title"].(string); has {
		todo.Title = v
	}
	if v, has := reversal["is_done"].(bool); has {
		todo.IsDone = v
	}

	return h.todos.Update(ctx, todo)
}

// ---------------------------------------------------------------------------
// example.todos.delete
// ---------------------------------------------------------------------------

type DeleteTodo struct {
	todos domain.TodoRepository
}

type deleteTodoInput struct {
	TodoID uuid.UUID `json:"todoId"`
}

func (h *DeleteTodo) ID() string { return "example.todos.delete" }

func (h *DeleteTodo) Prepare(ctx context.Context, scope *command.Scope, input map[string]any) (map[string]any, error) {
	var in deleteTodoInput
	if err := command.DecodeInput(input, &in); err != nil {
		return nil, err
	}

	todo, err := h.todos.GetByID(ctx, scope.TenantID(), in.TodoID)
	if err != nil {
		return nil, err
	}

	return todo.Snapshot(), nil
}

func (h *DeleteTodo) Execute(ctx context.Context, scope *command.Scope, input map[string]any) (any, error) {
	var in deleteTodoInput
	if err := command.DecodeInput(input, &in); err != nil {
		return nil, err
	}

	if err := h.todos.SoftDelete(ctx, scope.TenantID(), in.TodoID); err != nil {
		return nil, err
	}

	return map[string]any{"deleted": true, "id": in.TodoID.String()}, nil
}

func (h *DeleteTodo) BuildLog(_ context.Context, scope *command.Scope, req command.LogRequest) (*command.Metadata, error) {
	before := req.Snapshots.Before

	title, _ := before["title"].(string)
	id, _ := before["todoId"].(string)
	orgID, _ := before["organizationId"].(string)

	return &command.Metadata{
		TenantID:           scope.TenantID(),
		ActionLabel:        "Deleted todo " + title,
		ResourceKind:       ResourceKind,
		ResourceID:         id,
		ParentResourceKind: directory.ResourceKind,
		ParentResourceID:   orgID,
		Payload: map[string]any{
			"undo": map[string]any{"todoId": id},
		},
	}, nil
}

func (h *DeleteTodo) Undo(ctx context.Context, scope *command.Scope, req command.UndoRequest) error {
	if err := command.ValidateUndoScope(scope, req.LogEntry); err != nil {
		return err
	}

	id, err := undoTodoID(req.Input)
	if err != nil {
		return err
	}

	return h.todos.Restore(ctx, scope.TenantID(), id)
}

func undoTodoID(payload map[string]any) (uuid.UUID, error) {
	reversal, ok := payload["undo"].(map[string]any)
	if !ok {
		return uuid.Nil, fmt.Errorf("example: undo payload missing: %w", domain.ErrConflict)
	}

	raw, ok := reversal["todoId"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("example: undo payload missing todoId: %w", domain.ErrConflict)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("example: undo todoId: %w", err)
	}

	return id, nil
}
