package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/relayerp/relay/internal/api/v1"
	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/domain"
)

func TestCreateTodo(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()
	orgID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		todoID := uuid.New()
		logID := uuid.New()

		_, api := humatest.New(t)
		bus := &mockBus{
			executeFunc: func(_ context.Context, commandID string, req command.ExecuteRequest) (*command.ExecuteResult, error) {
				assert.Equal(t, "example.todos.create", commandID)
				assert.Equal(t, "Buy milk", req.Input["title"])
				assert.Equal(t, orgID.String(), req.Input["organizationId"])
				return &command.ExecuteResult{
					Result: &domain.Todo{
						ID:             todoID,
						TenantID:       tenantID,
						OrganizationID: orgID,
						Title:          "Buy milk",
					},
					LogEntry: &domain.ActionLog{ID: logID, UndoToken: "tok-todo"},
				}, nil
			},
		}
		v1.RegisterTodoRoutes(api, &mockDataStore{}, bus)

		resp := api.PostCtx(actorCtx(tenantID, userID), "/todos", map[string]any{
			"title":          "Buy milk",
			"organizationId": orgID.String(),
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body v1.TodoCommandResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotNil(t, body.Todo)
		assert.Equal(t, todoID, body.Todo.ID)
		assert.Equal(t, "Buy milk", body.Todo.Title)
		assert.Equal(t, "tok-todo", body.UndoToken)
		require.NotNil(t, body.LogID)
		assert.Equal(t, logID, *body.LogID)
	})

	t.Run("organization_is_optional", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		bus := &mockBus{
			executeFunc: func(_ context.Context, _ string, req command.ExecuteRequest) (*command.ExecuteResult, error) {
				_, has := req.Input["organizationId"]
				assert.False(t, has, "organization must not be forwarded when omitted")
				return &command.ExecuteResult{Result: &domain.Todo{ID: uuid.New()}}, nil
			},
		}
		v1.RegisterTodoRoutes(api, &mockDataStore{}, bus)

		resp := api.PostCtx(actorCtx(tenantID, userID), "/todos", map[string]any{
			"title": "Buy milk",
		})
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("missing_identity_is_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTodoRoutes(api, &mockDataStore{}, &mockBus{})

		resp := api.PostCtx(context.Background(), "/todos", map[string]any{
			"title": "Buy milk",
		})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestUpdateTodo(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()
	todoID := uuid.New()

	t.Run("forwards_only_provided_fields", func(t *testing.T) {
		t.Parallel()

		var gotInput map[string]any
		_, api := humatest.New(t)
		bus := &mockBus{
			executeFunc: func(_ context.Context, commandID string, req command.ExecuteRequest) (*command.ExecuteResult, error) {
				assert.Equal(t, "example.todos.update", commandID)
				gotInput = req.Input
				return &command.ExecuteResult{
					Result: &domain.Todo{ID: todoID, TenantID: tenantID, IsDone: true},
				}, nil
			},
		}
		v1.RegisterTodoRoutes(api, &mockDataStore{}, bus)

		resp := api.PutCtx(actorCtx(tenantID, userID), "/todos/"+todoID.String(), map[string]any{
			"is_done": true,
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, todoID.String(), gotInput["todoId"])
		assert.Equal(t, true, gotInput["is_done"])
		_, hasTitle := gotInput["title"]
		assert.False(t, hasTitle, "omitted fields must not be forwarded")
	})

	t.Run("not_found_maps_to_404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		bus := &mockBus{
			executeFunc: func(_ context.Context, _ string, _ command.ExecuteRequest) (*command.ExecuteResult, error) {
				return nil, domain.ErrNotFound
			},
		}
		v1.RegisterTodoRoutes(api, &mockDataStore{}, bus)

		resp := api.PutCtx(actorCtx(tenantID, userID), "/todos/"+todoID.String(), map[string]any{
			"title": "Renamed",
		})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestDeleteTodo(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()
	todoID := uuid.New()

	logID := uuid.New()
	_, api := humatest.New(t)
	bus := &mockBus{
		executeFunc: func(_ context.Context, commandID string, req command.ExecuteRequest) (*command.ExecuteResult, error) {
			assert.Equal(t, "example.todos.delete", commandID)
			assert.Equal(t, todoID.String(), req.Input["todoId"])
			return &command.ExecuteResult{
				Result:   map[string]any{"deleted": true},
				LogEntry: &domain.ActionLog{ID: logID, UndoToken: "tok-del"},
			}, nil
		},
	}
	v1.RegisterTodoRoutes(api, &mockDataStore{}, bus)

	resp := api.DeleteCtx(actorCtx(tenantID, userID), "/todos/"+todoID.String())
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		UndoToken string     `json:"undo_token"`
		LogID     *uuid.UUID `json:"log_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "tok-del", body.UndoToken)
	require.NotNil(t, body.LogID)
	assert.Equal(t, logID, *body.LogID)
}

func TestListTodos(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	orgID := uuid.New()

	_, api := humatest.New(t)
	store := &mockDataStore{
		todos: &mockTodoRepo{
			listByOrganizationFunc: func(_ context.Context, tid, oid uuid.UUID) ([]*domain.Todo, error) {
				assert.Equal(t, tenantID, tid)
				assert.Equal(t, orgID, oid)
				return []*domain.Todo{
					{ID: uuid.New(), TenantID: tenantID, OrganizationID: orgID, Title: "Buy milk"},
				}, nil
			},
		},
	}
	v1.RegisterTodoRoutes(api, store, &mockBus{})

	resp := api.GetCtx(tenantCtx(tenantID), "/todos?organization_id="+orgID.String())
	require.Equal(t, http.StatusOK, resp.Code)

	var body []*domain.Todo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "Buy milk", body[0].Title)
}
