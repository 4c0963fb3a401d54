package command

import "errors"

// Sentinel errors for the command bus.
var (
	ErrHandlerNotFound   = errors.New("command: handler not found")
	ErrUndoTokenNotFound = errors.New("command: undo token not found")
	ErrNotUndoable       = errors.New("command: not undoable")
	ErrNotRedoable       = errors.New("command: not redoable")
	ErrScopeViolation    = errors.New("command: scope violation")
)
