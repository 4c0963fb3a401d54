package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/domain"
	"github.com/relayerp/relay/internal/server/middleware"
)

type CreateTodoInput struct {
	Body struct {
		OrganizationID *uuid.UUID `json:"organizationId,omitempty" doc:"Owning organization; defaults to the selected organization"`
		Title          string     `json:"title" minLength:"1" maxLength:"500" doc:"Todo title"`
	}
}

type CreateTodoOutput struct {
	Body TodoCommandResult
}

// TodoCommandResult is the mutation response: the resulting entity plus the
// audit handle needed to reverse the action.
type TodoCommandResult struct {
	Todo      *domain.Todo `json:"todo"`
	UndoToken string       `json:"undo_token,omitempty"`
	LogID     *uuid.UUID   `json:"log_id,omitempty"`
}

type UpdateTodoInput struct {
	ID   uuid.UUID `path:"id" doc:"Todo ID"`
	Body struct {
		Title  *string `json:"title,omitempty" maxLength:"500" doc:"Todo title"`
		IsDone *bool   `json:"is_done,omitempty" doc:"Completion flag"`
	}
}

type UpdateTodoOutput struct {
	Body TodoCommandResult
}

type DeleteTodoInput struct {
	ID uuid.UUID `path:"id" doc:"Todo ID"`
}

type DeleteTodoOutput struct {
	Body struct {
		UndoToken string     `json:"undo_token,omitempty"`
		LogID     *uuid.UUID `json:"log_id,omitempty"`
	}
}

type ListTodosInput struct {
	OrganizationID uuid.UUID `query:"organization_id" required:"true" doc:"Organization ID"`
}

type ListTodosOutput struct {
	Body []*domain.Todo
}

func RegisterTodoRoutes(api huma.API, store DataStore, bus CommandBus) {
	huma.Register(api, huma.Operation{
		OperationID: "create-todo",
		Method:      http.MethodPost,
		Path:        "/todos",
		Summary:     "Create a todo",
		Tags:        []string{"Todos"},
	}, func(ctx context.Context, input *CreateTodoInput) (*CreateTodoOutput, error) {
		scope, ok := middleware.ScopeFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		cmdInput := map[string]any{"title": input.Body.Title}
		if input.Body.OrganizationID != nil {
			cmdInput["organizationId"] = input.Body.OrganizationID.String()
		}

		res, err := bus.Execute(ctx, "example.todos.create", command.ExecuteRequest{
			Input: cmdInput,
			Scope: scope,
		})
		if err != nil {
			return nil, mapCommandError(err, "failed to create todo")
		}

		todo, _ := res.Result.(*domain.Todo)
		out := &CreateTodoOutput{}
		out.Body.Todo = todo
		attachAuditHandle(&out.Body.UndoToken, &out.Body.LogID, res)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-todo",
		Method:      http.MethodPut,
		Path:        "/todos/{id}",
		Summary:     "Update a todo",
		Tags:        []string{"Todos"},
	}, func(ctx context.Context, input *UpdateTodoInput) (*UpdateTodoOutput, error) {
		scope, ok := middleware.ScopeFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		cmdInput := map[string]any{"todoId": input.ID.String()}
		if input.Body.Title != nil {
			cmdInput["title"] = *input.Body.Title
		}
		if input.Body.IsDone != nil {
			cmdInput["is_done"] = *input.Body.IsDone
		}

		res, err := bus.Execute(ctx, "example.todos.update", command.ExecuteRequest{
			Input: cmdInput,
			Scope: scope,
		})
		if err != nil {
			return nil, mapCommandError(err, "failed to update todo")
		}

		todo, _ := res.Result.(*domain.Todo)
		out := &UpdateTodoOutput{}
		out.Body.Todo = todo
		attachAuditHandle(&out.Body.UndoToken, &out.Body.LogID, res)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-todo",
		Method:      http.MethodDelete,
		Path:        "/todos/{id}",
		Summary:     "Delete a todo",
		Tags:        []string{"Todos"},
	}, func(ctx context.Context, input *DeleteTodoInput) (*DeleteTodoOutput, error) {
		scope, ok := middleware.ScopeFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		res, err := bus.Execute(ctx, "example.todos.delete", command.ExecuteRequest{
			Input: map[string]any{"todoId": input.ID.String()},
			Scope: scope,
		})
		if err != nil {
			return nil, mapCommandError(err, "failed to delete todo")
		}

		out := &DeleteTodoOutput{}
		attachAuditHandle(&out.Body.UndoToken, &out.Body.LogID, res)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-todos",
		Method:      http.MethodGet,
		Path:        "/todos",
		Summary:     "List todos for an organization",
		Tags:        []string{"Todos"},
	}, func(ctx context.Context, input *ListTodosInput) (*ListTodosOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		todos, err := store.Todos().ListByOrganization(ctx, tenantID, input.OrganizationID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list todos", err)
		}

		return &ListTodosOutput{Body: todos}, nil
	})
}
