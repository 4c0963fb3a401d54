package v1

import (
	"context"

	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Organizations() domain.OrganizationRepository
	Todos() domain.TodoRepository
	ActionLogs() domain.ActionLogRepository
}

// CommandBus abstracts the command pipeline for handler testing.
// *command.Bus satisfies this interface.
type CommandBus interface {
	Execute(ctx context.Context, commandID string, req command.ExecuteRequest) (*command.ExecuteResult, error)
	Undo(ctx context.Context, token string, scope *command.Scope) error
	Redo(ctx context.Context, token string, scope *command.Scope) error
}
