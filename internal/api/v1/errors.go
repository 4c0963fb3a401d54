package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/domain"
)

// mapCommandError translates pipeline and domain errors to HTTP problem
// responses. Unknown errors become opaque 500s so internals do not leak.
func mapCommandError(err error, fallback string) error {
	switch {
	case errors.Is(err, command.ErrHandlerNotFound):
		return huma.Error404NotFound("unknown command")
	case errors.Is(err, command.ErrUndoTokenNotFound):
		return huma.Error404NotFound("undo token not found")
	case errors.Is(err, command.ErrNotUndoable):
		return huma.Error409Conflict("action is not undoable in its current state")
	case errors.Is(err, command.ErrNotRedoable):
		return huma.Error409Conflict("action is not redoable in its current state")
	case errors.Is(err, command.ErrScopeViolation):
		return huma.Error403Forbidden("action belongs to a different tenant or organization")
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("resource not found")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error422UnprocessableEntity(err.Error())
	}
	return huma.Error500InternalServerError(fallback, err)
}
