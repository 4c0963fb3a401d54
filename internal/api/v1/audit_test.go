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

func TestListActionLogs(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	entries := []*domain.ActionLog{
		{ID: uuid.New(), TenantID: tenantID, ActionLabel: "Created todo Buy milk", ExecutionState: domain.ExecutionStateDone},
		{ID: uuid.New(), TenantID: tenantID, ActionLabel: "Deleted organization HQ", ExecutionState: domain.ExecutionStateUndone},
	}

	t.Run("default_english_labels", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			actionLogs: &mockActionLogRepo{
				listByTenantFunc: func(_ context.Context, tid uuid.UUID, limit, offset int) ([]*domain.ActionLog, error) {
					assert.Equal(t, tenantID, tid)
					assert.Equal(t, 50, limit)
					assert.Equal(t, 0, offset)
					return entries, nil
				},
			},
		}
		v1.RegisterAuditRoutes(api, store, &mockBus{})

		resp := api.GetCtx(tenantCtx(tenantID), "/audit/logs")
		require.Equal(t, http.StatusOK, resp.Code)

		var body []*v1.ActionLogView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Equal(t, "Completed", body[0].StateLabel)
		assert.Equal(t, "Undone", body[1].StateLabel)
	})

	t.Run("korean_labels_via_lang_param", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			actionLogs: &mockActionLogRepo{
				listByTenantFunc: func(_ context.Context, _ uuid.UUID, _, _ int) ([]*domain.ActionLog, error) {
					return entries, nil
				},
			},
		}
		v1.RegisterAuditRoutes(api, store, &mockBus{})

		resp := api.GetCtx(tenantCtx(tenantID), "/audit/logs?lang=ko")
		require.Equal(t, http.StatusOK, resp.Code)

		var body []*v1.ActionLogView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Equal(t, "완료됨", body[0].StateLabel)
		assert.Equal(t, "실행 취소됨", body[1].StateLabel)
	})

	t.Run("paging_is_forwarded", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			actionLogs: &mockActionLogRepo{
				listByTenantFunc: func(_ context.Context, _ uuid.UUID, limit, offset int) ([]*domain.ActionLog, error) {
					assert.Equal(t, 10, limit)
					assert.Equal(t, 20, offset)
					return nil, nil
				},
			},
		}
		v1.RegisterAuditRoutes(api, store, &mockBus{})

		resp := api.GetCtx(tenantCtx(tenantID), "/audit/logs?limit=10&offset=20")
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("missing_tenant_is_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuditRoutes(api, &mockDataStore{}, &mockBus{})

		resp := api.GetCtx(context.Background(), "/audit/logs")
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestListResourceLogs(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	todoID := uuid.New()

	_, api := humatest.New(t)
	store := &mockDataStore{
		actionLogs: &mockActionLogRepo{
			listByResourceFunc: func(_ context.Context, tid uuid.UUID, kind, id string) ([]*domain.ActionLog, error) {
				assert.Equal(t, tenantID, tid)
				assert.Equal(t, "example.todo", kind)
				assert.Equal(t, todoID.String(), id)
				return []*domain.ActionLog{
					{ID: uuid.New(), ResourceKind: kind, ResourceID: id, ExecutionState: domain.ExecutionStateRedone},
				}, nil
			},
		},
	}
	v1.RegisterAuditRoutes(api, store, &mockBus{})

	resp := api.GetCtx(tenantCtx(tenantID), "/audit/logs/resource?resource_kind=example.todo&resource_id="+todoID.String())
	require.Equal(t, http.StatusOK, resp.Code)

	var body []*v1.ActionLogView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "Redone", body[0].StateLabel)
}

func TestUndoAction(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		var gotToken string
		_, api := humatest.New(t)
		bus := &mockBus{
			undoFunc: func(_ context.Context, token string, scope *command.Scope) error {
				gotToken = token
				require.NotNil(t, scope)
				assert.Equal(t, tenantID, scope.Auth.TenantID)
				return nil
			},
		}
		v1.RegisterAuditRoutes(api, &mockDataStore{}, bus)

		resp := api.PostCtx(actorCtx(tenantID, userID), "/audit/undo", map[string]any{
			"undo_token": "tok-undo",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "tok-undo", gotToken)

		var body struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "undone", body.Status)
	})

	t.Run("error_mapping", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name string
			err  error
			code int
		}{
			{"unknown_token", command.ErrUndoTokenNotFound, http.StatusNotFound},
			{"not_undoable", command.ErrNotUndoable, http.StatusConflict},
			{"foreign_scope", command.ErrScopeViolation, http.StatusForbidden},
			{"missing_handler", command.ErrHandlerNotFound, http.StatusNotFound},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				_, api := humatest.New(t)
				bus := &mockBus{
					undoFunc: func(_ context.Context, _ string, _ *command.Scope) error {
						return tc.err
					},
				}
				v1.RegisterAuditRoutes(api, &mockDataStore{}, bus)

				resp := api.PostCtx(actorCtx(tenantID, userID), "/audit/undo", map[string]any{
					"undo_token": "tok",
				})
				assert.Equal(t, tc.code, resp.Code)
			})
		}
	})

	t.Run("missing_identity_is_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuditRoutes(api, &mockDataStore{}, &mockBus{})

		resp := api.PostCtx(context.Background(), "/audit/undo", map[string]any{
			"undo_token": "tok",
		})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestRedoAction(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		bus := &mockBus{
			redoFunc: func(_ context.Context, token string, scope *command.Scope) error {
				assert.Equal(t, "tok-redo", token)
				require.NotNil(t, scope)
				return nil
			},
		}
		v1.RegisterAuditRoutes(api, &mockDataStore{}, bus)

		resp := api.PostCtx(actorCtx(tenantID, userID), "/audit/redo", map[string]any{
			"undo_token": "tok-redo",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "redone", body.Status)
	})

	t.Run("not_redoable_maps_to_409", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		bus := &mockBus{
			redoFunc: func(_ context.Context, _ string, _ *command.Scope) error {
				return command.ErrNotRedoable
			},
		}
		v1.RegisterAuditRoutes(api, &mockDataStore{}, bus)

		resp := api.PostCtx(actorCtx(tenantID, userID), "/audit/redo", map[string]any{
			"undo_token": "tok",
		})
		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}
