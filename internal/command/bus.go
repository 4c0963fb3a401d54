package command

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/relayerp/relay/internal/cache"
	"github.com/relayerp/relay/internal/diff"
	"github.com/relayerp/relay/internal/domain"
)

// Events publishes activity events for live feeds. Implemented by the
// Redis pub/sub store; nil disables publishing.
type Events interface {
	PublishActivity(ctx context.Context, tenantID uuid.UUID, payload []byte) error
}

// Notifier forwards executed/undone/redone actions to an external channel
// (e.g. Slack). Best-effort; nil disables notification.
type Notifier interface {
	NotifyAction(ctx context.Context, event string, entry *domain.ActionLog) error
}

// Flusher flushes deferred persistence-layer side effects. The call must be
// idempotent; nil disables flushing.
type Flusher interface {
	Flush(ctx context.Context) error
}

// ActivityEvent is the payload published to the per-tenant activity channel.
type ActivityEvent struct {
	Type         string    `json:"type"`
	CommandID    string    `json:"command_id"`
	LogID        uuid.UUID `json:"log_id"`
	ResourceKind string    `json:"resource_kind"`
	ResourceID   string    `json:"resource_id"`
	ActionLabel  string    `json:"action_label"`
	At           time.Time `json:"at"`
}

const (
	eventExecuted = "command.executed"
	eventUndone   = "command.undone"
	eventRedone   = "command.redone"
)

// unauditedKinds are resource kinds that are never written to the action
// log, to avoid recursive noise from the audit subsystem itself.
var unauditedKinds = map[string]struct{}{
	"audit.action_log": {},
}

// Bus orchestrates the command lifecycle: resolve handler, prepare,
// execute, capture, build log, persist, invalidate caches, flush; and the
// symmetric undo/redo paths keyed by undo token.
type Bus struct {
	registry    *Registry
	logs        domain.ActionLogRepository
	invalidator cache.Invalidator
	flusher     Flusher
	events      Events
	notifier    Notifier
}

// NewBus creates a Bus. invalidator, flusher, events and notifier are
// optional; pass nil to disable the corresponding best-effort step.
func NewBus(registry *Registry, logs domain.ActionLogRepository, invalidator cache.Invalidator, flusher Flusher, events Events, notifier Notifier) *Bus {
	return &Bus{
		registry:    registry,
		logs:        logs,
		invalidator: invalidator,
		flusher:     flusher,
		events:      events,
		notifier:    notifier,
	}
}

// ExecuteRequest carries one command invocation.
type ExecuteRequest struct {
	Input    map[string]any
	Scope    *Scope
	Metadata *Metadata // optional caller-supplied metadata
}

// ExecuteResult is the outcome of one command invocation. LogEntry is nil
// when the handler produced no log metadata, the resource kind is
// unaudited, or log persistence failed (best-effort).
type ExecuteResult struct {
	Result   any
	LogEntry *domain.ActionLog
}

// Execute runs the command identified by commandID through the full
// lifecycle. Handler hook errors (Prepare, Execute, BuildLog) propagate to
// the caller unchanged; there is no implicit rollback of writes the handler
// already flushed. Audit persistence, cache invalidation and side-effect
// flushing are best-effort and never fail the command.
func (b *Bus) Execute(ctx context.Context, commandID string, req ExecuteRequest) (*ExecuteResult, error) {
	handler, ok := b.registry.Get(commandID)
	if !ok {
		return nil, fmt.Errorf("command.Execute: %q: %w", commandID, ErrHandlerNotFound)
	}

	var snapshots Snapshots

	if p, isPreparer := handler.(Preparer); isPreparer {
		before, err := p.Prepare(ctx, req.Scope, req.Input)
		if err != nil {
			return nil, err
		}
		snapshots.Before = before
	}

	result, err := handler.Execute(ctx, req.Scope, req.Input)
	if err != nil {
		return nil, err
	}

	if c, isCapturer := handler.(AfterCapturer); isCapturer {
		after, captureErr := c.CaptureAfter(ctx, req.Scope, req.Input, result)
		if captureErr != nil {
			return nil, captureErr
		}
		snapshots.After = after
	}

	var built *Metadata
	if lb, isBuilder := handler.(LogBuilder); isBuilder {
		built, err = lb.BuildLog(ctx, req.Scope, LogRequest{
			Input:     req.Input,
			Result:    result,
			Snapshots: snapshots,
		})
		if err != nil {
			return nil, err
		}
	}

	md := mergeMetadata(req.Metadata, built)
	if md != nil {
		b.finalizeMetadata(md, handler, req.Scope, snapshots)
	}

	entry := b.persistLog(ctx, commandID, md, req)
	b.invalidate(ctx, commandID, md, req, result, "execute")
	b.flush(ctx)
	b.announce(ctx, eventExecuted, entry)

	return &ExecuteResult{Result: result, LogEntry: entry}, nil
}

// finalizeMetadata fills in the derivable metadata fields: undo token,
// actor, snapshot backfill and inferred changes.
func (b *Bus) finalizeMetadata(md *Metadata, handler Handler, scope *Scope, snapshots Snapshots) {
	if isUndoable(handler) && md.UndoToken == "" {
		md.UndoToken = mintUndoToken()
	}
	if md.ActorUserID == uuid.Nil {
		md.ActorUserID = scope.ActorID()
	}
	if md.TenantID == uuid.Nil {
		md.TenantID = scope.TenantID()
	}
	if md.OrganizationID == uuid.Nil && scope != nil {
		md.OrganizationID = scope.SelectedOrganizationID
	}

	if md.SnapshotBefore == nil && snapshots.Before != nil {
		md.SnapshotBefore = snapshots.Before
	}
	if md.SnapshotAfter == nil && snapshots.After != nil {
		md.SnapshotAfter = snapshots.After
	}

	if len(md.Changes) == 0 && md.SnapshotBefore != nil && md.SnapshotAfter != nil {
		md.Changes = diff.DeriveChangesFromSnapshots(md.SnapshotBefore, md.SnapshotAfter)
	}
}

// persistLog writes the action-log row for a successful execution. Skipped
// when there is no metadata or the resource kind is deny-listed. A log
// store failure is reported but does not fail the command: the mutation
// already happened and must not be rolled back by its own audit trail.
func (b *Bus) persistLog(ctx context.Context, commandID string, md *Metadata, req ExecuteRequest) *domain.ActionLog {
	if md == nil {
		return nil
	}
	if _, denied := unauditedKinds[md.ResourceKind]; denied {
		return nil
	}

	now := time.Now()
	entry := &domain.ActionLog{
		ID:                 uuid.New(),
		TenantID:           md.TenantID,
		OrganizationID:     md.OrganizationID,
		ActorUserID:        md.ActorUserID,
		CommandID:          commandID,
		ActionLabel:        md.ActionLabel,
		ResourceKind:       md.ResourceKind,
		ResourceID:         md.ResourceID,
		ParentResourceKind: md.ParentResourceKind,
		ParentResourceID:   md.ParentResourceID,
		ExecutionState:     domain.ExecutionStateDone,
		UndoToken:          md.UndoToken,
		CommandPayload:     wrapPayload(md.Payload, req.Input),
		SnapshotBefore:     md.SnapshotBefore,
		SnapshotAfter:      md.SnapshotAfter,
		Changes:            md.Changes,
		Context:            md.Context,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := b.logs.Record(ctx, entry); err != nil {
		log.Error().Err(err).Str("command_id", commandID).Msg("command bus: action log persistence failed")
		return nil
	}

	return entry
}

// wrapPayload builds the redo envelope: the handler's payload plus the
// original command input under the reserved key.
func wrapPayload(payload, input map[string]any) map[string]any {
	wrapped := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		wrapped[k] = v
	}
	wrapped[PayloadInputKey] = input
	return wrapped
}

// Undo reverses a previously executed command identified by its undo
// token. The handler's Undo hook error propagates unchanged; a failed undo
// leaves the log entry in its prior state so a retry is always safe.
func (b *Bus) Undo(ctx context.Context, token string, scope *Scope) error {
	entry, err := b.logs.GetByUndoToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("command.Undo: %w", ErrUndoTokenNotFound)
		}
		return fmt.Errorf("command.Undo: %w", err)
	}

	handler, ok := b.registry.Get(entry.CommandID)
	if !ok {
		return fmt.Errorf("command.Undo: %q: %w", entry.CommandID, ErrHandlerNotFound)
	}

	undoer, ok := handler.(Undoer)
	if !ok || !isUndoable(handler) {
		return fmt.Errorf("command.Undo: %q: %w", entry.CommandID, ErrNotUndoable)
	}
	if !entry.Undoable() {
		return fmt.Errorf("command.Undo: log entry is %s: %w", entry.ExecutionState, ErrNotUndoable)
	}

	if err := undoer.Undo(ctx, scope, UndoRequest{Input: entry.CommandPayload, LogEntry: entry}); err != nil {
		return err
	}

	if err := b.logs.SetExecutionState(ctx, entry.ID, domain.ExecutionStateUndone); err != nil {
		return fmt.Errorf("command.Undo: mark undone: %w", err)
	}
	entry.ExecutionState = domain.ExecutionStateUndone

	b.invalidateFromLog(ctx, entry, "undo")
	b.flush(ctx)
	b.announce(ctx, eventUndone, entry)

	return nil
}

// Redo re-executes an undone command with its original input, recovered
// from the redo envelope, and flips the same log entry to redone. No new
// log row is created and the undo token stays bound to this entry.
func (b *Bus) Redo(ctx context.Context, token string, scope *Scope) error {
	entry, err := b.logs.GetByUndoToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("command.Redo: %w", ErrUndoTokenNotFound)
		}
		return fmt.Errorf("command.Redo: %w", err)
	}

	if entry.ExecutionState != domain.ExecutionStateUndone {
		return fmt.Errorf("command.Redo: log entry is %s: %w", entry.ExecutionState, ErrNotRedoable)
	}

	// Token redemption crosses the tenant boundary only here; undo delegates
	// this check to the handler, but redo re-executes directly.
	if err := ValidateUndoScope(scope, entry); err != nil {
		return err
	}

	handler, ok := b.registry.Get(entry.CommandID)
	if !ok {
		return fmt.Errorf("command.Redo: %q: %w", entry.CommandID, ErrHandlerNotFound)
	}

	input, ok := entry.CommandPayload[PayloadInputKey].(map[string]any)
	if !ok {
		return fmt.Errorf("command.Redo: log entry carries no original input: %w", ErrNotRedoable)
	}

	if _, err := handler.Execute(ctx, scope, input); err != nil {
		return err
	}

	if err := b.logs.SetExecutionState(ctx, entry.ID, domain.ExecutionStateRedone); err != nil {
		return fmt.Errorf("command.Redo: mark redone: %w", err)
	}
	entry.ExecutionState = domain.ExecutionStateRedone

	b.invalidateFromLog(ctx, entry, "redo")
	b.flush(ctx)
	b.announce(ctx, eventRedone, entry)

	return nil
}

// invalidate drops cached read views after execute. Identifier sourcing
// priority: explicit metadata fields, then identifiers exposed by the
// command result, then the raw input, then scope defaults.
func (b *Bus) invalidate(ctx context.Context, commandID string, md *Metadata, req ExecuteRequest, result any, reason string) {
	if b.invalidator == nil || md == nil || md.ResourceKind == "" {
		return
	}

	ids := cache.Identifiers{
		ID:             md.ResourceID,
		TenantID:       uuidString(md.TenantID),
		OrganizationID: uuidString(md.OrganizationID),
	}

	fromResult := resultIdentifiers(result)
	fromInput := inputIdentifiers(req.Input)

	if ids.ID == "" {
		ids.ID = firstNonEmpty(fromResult.ID, fromInput.ID)
	}
	if ids.TenantID == "" {
		ids.TenantID = firstNonEmpty(fromResult.TenantID, fromInput.TenantID, uuidString(req.Scope.TenantID()))
	}
	if ids.OrganizationID == "" {
		orgFallback := ""
		if req.Scope != nil {
			orgFallback = uuidString(req.Scope.SelectedOrganizationID)
		}
		ids.OrganizationID = firstNonEmpty(fromResult.OrganizationID, fromInput.OrganizationID, orgFallback)
	}

	aliases := append(cache.AliasesForCommand(commandID), contextAliases(md.Context)...)

	if err := b.invalidator.Invalidate(ctx, md.ResourceKind, ids, reason, aliases); err != nil {
		log.Debug().Err(err).Str("command_id", commandID).Msg("command bus: cache invalidation failed")
	}
}

// invalidateFromLog is the undo/redo-time variant sourced from the
// persisted log entry instead of live command metadata.
func (b *Bus) invalidateFromLog(ctx context.Context, entry *domain.ActionLog, reason string) {
	if b.invalidator == nil || entry.ResourceKind == "" {
		return
	}

	ids := cache.Identifiers{
		ID:             entry.ResourceID,
		TenantID:       uuidString(entry.TenantID),
		OrganizationID: uuidString(entry.OrganizationID),
	}

	aliases := append(cache.AliasesForCommand(entry.CommandID), contextAliases(entry.Context)...)

	if err := b.invalidator.Invalidate(ctx, entry.ResourceKind, ids, reason, aliases); err != nil {
		log.Debug().Err(err).Str("command_id", entry.CommandID).Msg("command bus: cache invalidation failed")
	}
}

func (b *Bus) flush(ctx context.Context) {
	if b.flusher == nil {
		return
	}
	if err := b.flusher.Flush(ctx); err != nil {
		log.Debug().Err(err).Msg("command bus: side-effect flush failed")
	}
}

// announce publishes the activity event and pings the notifier. Both are
// best-effort.
func (b *Bus) announce(ctx context.Context, event string, entry *domain.ActionLog) {
	if entry == nil {
		return
	}

	if b.events != nil {
		payload, err := json.Marshal(ActivityEvent{
			Type:         event,
			CommandID:    entry.CommandID,
			LogID:        entry.ID,
			ResourceKind: entry.ResourceKind,
			ResourceID:   entry.ResourceID,
			ActionLabel:  entry.ActionLabel,
			At:           time.Now(),
		})
		if err == nil {
			if pubErr := b.events.PublishActivity(ctx, entry.TenantID, payload); pubErr != nil {
				log.Debug().Err(pubErr).Msg("command bus: activity publish failed")
			}
		}
	}

	if b.notifier != nil {
		if err := b.notifier.NotifyAction(ctx, event, entry); err != nil {
			log.Debug().Err(err).Msg("command bus: notification failed")
		}
	}
}

// mintUndoToken returns a fresh opaque token. 128 bits of randomness; the
// token is a credential, not an identifier, so it is not a UUID.
func mintUndoToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("command: mint undo token: %v", err))
	}
	return hex.EncodeToString(buf)
}

func resultIdentifiers(result any) cache.Identifiers {
	switch r := result.(type) {
	case cache.Identifiable:
		return r.CacheIdentifiers()
	case map[string]any:
		// Prefer a nested entity object, then top-level properties.
		if entity, ok := r["entity"].(map[string]any); ok {
			return inputIdentifiers(entity)
		}
		return inputIdentifiers(r)
	}
	return cache.Identifiers{}
}

func inputIdentifiers(m map[string]any) cache.Identifiers {
	return cache.Identifiers{
		ID:             stringField(m, "id"),
		TenantID:       stringField(m, "tenantId", "tenant_id"),
		OrganizationID: stringField(m, "organizationId", "organization_id"),
	}
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func contextAliases(contextMap map[string]any) []string {
	if contextMap == nil {
		return nil
	}

	switch v := contextMap[ContextKeyCacheAliases].(type) {
	case []string:
		return v
	case []any:
		aliases := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				aliases = append(aliases, s)
			}
		}
		return aliases
	}
	return nil
}

func uuidString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
