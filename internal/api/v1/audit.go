package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/text/language"

	"github.com/relayerp/relay/internal/domain"
	"github.com/relayerp/relay/internal/i18n"
	"github.com/relayerp/relay/internal/server/middleware"
)

// ActionLogView is an ActionLog decorated with a localized state label.
type ActionLogView struct {
	*domain.ActionLog
	StateLabel string `json:"state_label"`
}

type ListActionLogsInput struct {
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Page size"`
	Offset int    `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
	Lang   string `query:"lang" doc:"Display language for labels"`

	AcceptLanguage string `header:"Accept-Language"`
}

type ListActionLogsOutput struct {
	Body []*ActionLogView
}

type ListResourceLogsInput struct {
	ResourceKind string `query:"resource_kind" required:"true" doc:"Resource kind, e.g. example.todo"`
	ResourceID   string `query:"resource_id" required:"true" doc:"Resource ID"`
	Lang         string `query:"lang" doc:"Display language for labels"`

	AcceptLanguage string `header:"Accept-Language"`
}

type ListResourceLogsOutput struct {
	Body []*ActionLogView
}

type UndoActionInput struct {
	Body struct {
		UndoToken string `json:"undo_token" minLength:"1" doc:"Token returned by the original mutation"`
	}
}

type UndoActionOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

type RedoActionInput struct {
	Body struct {
		UndoToken string `json:"undo_token" minLength:"1" doc:"Token of the undone action"`
	}
}

type RedoActionOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func RegisterAuditRoutes(api huma.API, store DataStore, bus CommandBus) {
	huma.Register(api, huma.Operation{
		OperationID: "list-action-logs",
		Method:      http.MethodGet,
		Path:        "/audit/logs",
		Summary:     "List the tenant's action log",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListActionLogsInput) (*ListActionLogsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		logs, err := store.ActionLogs().ListByTenant(ctx, tenantID, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list action logs", err)
		}

		tag := i18n.Resolve(input.Lang, input.AcceptLanguage)
		return &ListActionLogsOutput{Body: decorate(logs, tag)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-resource-logs",
		Method:      http.MethodGet,
		Path:        "/audit/logs/resource",
		Summary:     "List action logs for one resource",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListResourceLogsInput) (*ListResourceLogsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		logs, err := store.ActionLogs().ListByResource(ctx, tenantID, input.ResourceKind, input.ResourceID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list action logs", err)
		}

		tag := i18n.Resolve(input.Lang, input.AcceptLanguage)
		return &ListResourceLogsOutput{Body: decorate(logs, tag)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "undo-action",
		Method:      http.MethodPost,
		Path:        "/audit/undo",
		Summary:     "Undo a previously executed action",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *UndoActionInput) (*UndoActionOutput, error) {
		scope, ok := middleware.ScopeFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if err := bus.Undo(ctx, input.Body.UndoToken, scope); err != nil {
			return nil, mapCommandError(err, "failed to undo action")
		}

		out := &UndoActionOutput{}
		out.Body.Status = string(domain.ExecutionStateUndone)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "redo-action",
		Method:      http.MethodPost,
		Path:        "/audit/redo",
		Summary:     "Re-execute an undone action",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *RedoActionInput) (*RedoActionOutput, error) {
		scope, ok := middleware.ScopeFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if err := bus.Redo(ctx, input.Body.UndoToken, scope); err != nil {
			return nil, mapCommandError(err, "failed to redo action")
		}

		out := &RedoActionOutput{}
		out.Body.Status = string(domain.ExecutionStateRedone)
		return out, nil
	})
}

func decorate(logs []*domain.ActionLog, tag language.Tag) []*ActionLogView {
	p := i18n.Printer(tag)

	views := make([]*ActionLogView, 0, len(logs))
	for _, entry := range logs {
		views = append(views, &ActionLogView{
			ActionLog:  entry,
			StateLabel: i18n.StateLabel(p, string(entry.ExecutionState)),
		})
	}
	return views
}
