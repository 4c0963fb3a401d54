// Package command implements the command execution and undo/redo audit
// core: a uniform pipeline that wraps every mutating business operation
// with snapshot capture, audit-log persistence, cache invalidation and
// reversible undo semantics.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/relayerp/relay/internal/diff"
	"github.com/relayerp/relay/internal/domain"
)

// Handler is a named unit of business mutation logic. Execute performs the
// actual mutation against the persistence layer and returns the command
// result. Handlers opt into the audit/undo lifecycle by additionally
// implementing Preparer, AfterCapturer, LogBuilder and Undoer.
type Handler interface {
	ID() string
	Execute(ctx context.Context, scope *Scope, input map[string]any) (any, error)
}

// Preparer captures the entity's observable state before the mutation runs.
// Prepare failures propagate to the caller unchanged; nothing has been
// mutated yet.
type Preparer interface {
	Prepare(ctx context.Context, scope *Scope, input map[string]any) (map[string]any, error)
}

// AfterCapturer captures the entity's observable state after the mutation.
type AfterCapturer interface {
	CaptureAfter(ctx context.Context, scope *Scope, input map[string]any, result any) (map[string]any, error)
}

// LogBuilder produces the audit envelope for a successful execution.
// Returning nil metadata (with nil error) skips audit logging entirely.
type LogBuilder interface {
	BuildLog(ctx context.Context, scope *Scope, req LogRequest) (*Metadata, error)
}

// Undoer reverses a previously executed command. Implementations must call
// ValidateUndoScope before mutating anything and are responsible for
// restoring prior field values from the reversal payload they stored in the
// command payload during BuildLog.
type Undoer interface {
	Undo(ctx context.Context, scope *Scope, req UndoRequest) error
}

// UndoableMarker overrides the default undoability of a handler. Without it
// a handler is undoable exactly when it implements Undoer.
type UndoableMarker interface {
	IsUndoable() bool
}

// Scope is the per-invocation runtime context: who is acting, within which
// tenant and organization boundaries, and (for HTTP callers) the
// originating request. Created fresh per invocation; never persisted.
type Scope struct {
	Auth                   *AuthInfo
	SelectedOrganizationID uuid.UUID
	AllowedOrganizationIDs []uuid.UUID
	Request                *http.Request
}

// AuthInfo is the authenticated actor identity, as established by the
// caller's authentication layer.
type AuthInfo struct {
	Sub      uuid.UUID
	TenantID uuid.UUID
	Roles    []string
}

// TenantID returns the acting tenant, or uuid.Nil for unauthenticated scopes.
func (s *Scope) TenantID() uuid.UUID {
	if s == nil || s.Auth == nil {
		return uuid.Nil
	}
	return s.Auth.TenantID
}

// ActorID returns the acting subject, or uuid.Nil for unauthenticated scopes.
func (s *Scope) ActorID() uuid.UUID {
	if s == nil || s.Auth == nil {
		return uuid.Nil
	}
	return s.Auth.Sub
}

// MayActIn reports whether the scope may act within the given organization:
// either it is the selected organization or it is in the allowed set.
func (s *Scope) MayActIn(organizationID uuid.UUID) bool {
	if s == nil {
		return false
	}
	if organizationID == s.SelectedOrganizationID {
		return true
	}
	for _, id := range s.AllowedOrganizationIDs {
		if id == organizationID {
			return true
		}
	}
	return false
}

// Snapshots carries the before/after snapshot pair through the lifecycle.
type Snapshots struct {
	Before map[string]any
	After  map[string]any
}

// LogRequest is the input to a handler's BuildLog hook.
type LogRequest struct {
	Input     map[string]any
	Result    any
	Snapshots Snapshots
}

// UndoRequest is the input to a handler's Undo hook. Input is the persisted
// command payload (the redo envelope), so the reversal data stored under
// "undo" during BuildLog and the original input under PayloadInputKey are
// both available.
type UndoRequest struct {
	Input    map[string]any
	LogEntry *domain.ActionLog
}

// Metadata is the audit envelope a handler's BuildLog returns, merged by
// the bus with any caller-supplied metadata before persistence.
type Metadata struct {
	TenantID           uuid.UUID
	OrganizationID     uuid.UUID
	ActorUserID        uuid.UUID
	ActionLabel        string
	ResourceKind       string
	ResourceID         string
	ParentResourceKind string
	ParentResourceID   string
	UndoToken          string
	Payload            map[string]any
	SnapshotBefore     map[string]any
	SnapshotAfter      map[string]any
	Changes            map[string]diff.Change
	Context            map[string]any
}

// PayloadInputKey is the reserved command-payload key under which the bus
// stores the original command input, so an undone command can be redone
// without the handler threading the input through itself.
const PayloadInputKey = "__input"

// ContextKeyCacheAliases is the metadata context key under which handlers
// may place extra cache-invalidation alias tags (a []string).
const ContextKeyCacheAliases = "cache_aliases"

// mergeMetadata merges caller-supplied metadata (primary) with the
// handler's BuildLog output (secondary). The handler output is
// authoritative: for every field, secondary wins when set; zero values in
// secondary fall back to primary.
func mergeMetadata(primary, secondary *Metadata) *Metadata {
	if secondary == nil {
		return primary
	}
	if primary == nil {
		return secondary
	}

	merged := *primary

	if secondary.TenantID != uuid.Nil {
		merged.TenantID = secondary.TenantID
	}
	if secondary.OrganizationID != uuid.Nil {
		merged.OrganizationID = secondary.OrganizationID
	}
	if secondary.ActorUserID != uuid.Nil {
		merged.ActorUserID = secondary.ActorUserID
	}
	if secondary.ActionLabel != "" {
		merged.ActionLabel = secondary.ActionLabel
	}
	if secondary.ResourceKind != "" {
		merged.ResourceKind = secondary.ResourceKind
	}
	if secondary.ResourceID != "" {
		merged.ResourceID = secondary.ResourceID
	}
	if secondary.ParentResourceKind != "" {
		merged.ParentResourceKind = secondary.ParentResourceKind
	}
	if secondary.ParentResourceID != "" {
		merged.ParentResourceID = secondary.ParentResourceID
	}
	if secondary.UndoToken != "" {
		merged.UndoToken = secondary.UndoToken
	}
	if secondary.Payload != nil {
		merged.Payload = secondary.Payload
	}
	if secondary.SnapshotBefore != nil {
		merged.SnapshotBefore = secondary.SnapshotBefore
	}
	if secondary.SnapshotAfter != nil {
		merged.SnapshotAfter = secondary.SnapshotAfter
	}
	if secondary.Changes != nil {
		merged.Changes = secondary.Changes
	}
	if secondary.Context != nil {
		merged.Context = secondary.Context
	}

	return &merged
}

// isUndoable reports whether a handler supports reversal: it must implement
// Undoer and not opt out via UndoableMarker.
func isUndoable(h Handler) bool {
	if _, ok := h.(Undoer); !ok {
		return false
	}
	if m, ok := h.(UndoableMarker); ok {
		return m.IsUndoable()
	}
	return true
}

// ValidateUndoScope enforces the tenant/organization boundary on undo: the
// log entry's tenant must match the acting tenant, and when the entry's
// organization differs from the actor's selected organization it must be
// within the actor's allowed set. Undo handlers call this before mutating.
func ValidateUndoScope(scope *Scope, entry *domain.ActionLog) error {
	tenantID := entry.TenantID
	organizationID := entry.OrganizationID

	// The snapshot is authoritative when present: it records the scope the
	// mutation actually happened in.
	if v, ok := snapshotUUID(entry.SnapshotBefore, "tenantId"); ok {
		tenantID = v
	}
	if v, ok := snapshotUUID(entry.SnapshotBefore, "organizationId"); ok {
		organizationID = v
	}

	if tenantID != uuid.Nil && tenantID != scope.TenantID() {
		return fmt.Errorf("command.ValidateUndoScope: tenant %s: %w", tenantID, ErrScopeViolation)
	}

	if organizationID != uuid.Nil && !scope.MayActIn(organizationID) {
		return fmt.Errorf("command.ValidateUndoScope: organization %s: %w", organizationID, ErrScopeViolation)
	}

	return nil
}

func snapshotUUID(snapshot map[string]any, key string) (uuid.UUID, bool) {
	raw, ok := snapshot[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// DecodeInput unmarshals a loosely-typed command input into a typed struct
// via a JSON round trip. Handlers use it to recover their input shape at
// the boundary while the bus stays generic.
func DecodeInput(input map[string]any, dst any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("command.DecodeInput: marshal: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("command.DecodeInput: unmarshal: %w", err)
	}
	return nil
}
