// Package ledger records every tool call the assistant proposes as an Action
// and drives it through its lifecycle:
//
//	pending_confirmation -> confirmed -> executed | error
//	pending_confirmation | invalid -> cancelled
//
// Every transition is a compare-and-set on the stored status, which is what
// makes execution happen at most once under concurrent confirms.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fleet-assistant-be/internal/apperror"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/internal/repository/contract"
	"fleet-assistant-be/internal/repository/specification"
	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/pkg/assistant/tools"
	"fleet-assistant-be/pkg/events"
	"fleet-assistant-be/pkg/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	module = "ActionLedger"

	DefaultListLimit = 20
	MaxListLimit     = 50
)

// StatsInvalidator is told when an executed tool changed a company's data.
type StatsInvalidator interface {
	Invalidate(companyId uuid.UUID)
}

type Ledger struct {
	uowFactory  unitofwork.RepositoryFactory
	registry    *tools.Registry
	storeFor    func(unitofwork.UnitOfWork) tools.Store
	invalidator StatsInvalidator
	publisher   events.Publisher
	logger      logger.ILogger
	now         func() time.Time
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithInvalidator(inv StatsInvalidator) Option {
	return func(l *Ledger) { l.invalidator = inv }
}

func NewLedger(
	uowFactory unitofwork.RepositoryFactory,
	registry *tools.Registry,
	storeFor func(unitofwork.UnitOfWork) tools.Store,
	publisher events.Publisher,
	log logger.ILogger,
	opts ...Option,
) *Ledger {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	l := &Ledger{
		uowFactory: uowFactory,
		registry:   registry,
		storeFor:   storeFor,
		publisher:  publisher,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordToolCalls persists one Action per proposal inside the caller's open
// transaction. Unknown tools and bad arguments become invalid Actions; tools
// that need no confirmation run immediately. Only storage errors are returned.
func (l *Ledger) RecordToolCalls(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	actor entity.Actor,
	conversation *entity.Conversation,
	messageId *uuid.UUID,
	calls []entity.ToolCallProposal,
) ([]*entity.Action, error) {
	if !uow.InTransaction() {
		return nil, fmt.Errorf("record tool calls requires an open transaction")
	}
	repo := uow.ActionRepository()
	actions := make([]*entity.Action, 0, len(calls))

	for _, call := range calls {
		args := call.Arguments
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		action := &entity.Action{
			ConversationId:       conversation.Id,
			MessageId:            messageId,
			UserId:               conversation.UserId,
			CompanyId:            conversation.CompanyId,
			Tool:                 call.Name,
			Arguments:            args,
			RequiresConfirmation: true,
		}

		def, known := l.registry.Lookup(call.Name)
		execute := false
		switch {
		case !known:
			markInvalid(action, apperror.ToolNotFound(call.Name))
		default:
			action.RequiresConfirmation = def.RequiresConfirmation
			if err := def.Handler.Validate(args); err != nil {
				markInvalid(action, err)
			} else if def.RequiresConfirmation {
				action.Status = entity.ActionStatusPendingConfirmation
			} else if !actor.Can(def.Capability) {
				markInvalid(action, apperror.Forbidden("role %s may not use %s", actor.Role, def.Name))
			} else {
				now := l.now()
				action.Status = entity.ActionStatusConfirmed
				action.ConfirmedAt = &now
				execute = true
			}
		}

		if err := repo.Create(ctx, action); err != nil {
			return nil, fmt.Errorf("create action for %s: %w", call.Name, err)
		}
		if execute {
			if err := l.execute(ctx, uow, actor, def, action); err != nil {
				return nil, err
			}
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func markInvalid(action *entity.Action, cause error) {
	msg := cause.Error()
	action.Status = entity.ActionStatusInvalid
	action.Error = &msg
}

// Confirm authorizes, then in one transaction moves the Action from
// pending_confirmation to confirmed and executes it.
func (l *Ledger) Confirm(ctx context.Context, actor entity.Actor, actionId uuid.UUID) (*entity.Action, error) {
	ctx, span := otel.Tracer("assistant").Start(ctx, "ledger.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("action.id", actionId.String()))

	uow := l.uowFactory.NewUnitOfWork(ctx)
	action, err := l.authorize(ctx, uow, actor, actionId)
	if err != nil {
		return nil, err
	}
	// Invalid actions may name tools that were never registered, so the state
	// is checked before the registry.
	if !action.Status.CanConfirm() {
		return nil, apperror.InvalidTransition("action is %s and can no longer be confirmed", action.Status)
	}
	def, known := l.registry.Lookup(action.Tool)
	if !known {
		return nil, apperror.ToolNotFound(action.Tool)
	}
	if !actor.Can(def.Capability) {
		return nil, apperror.Forbidden("role %s may not use %s", actor.Role, def.Name)
	}
	span.SetAttributes(attribute.String("action.tool", action.Tool))

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := l.now()
	moved, err := uow.ActionRepository().Transition(ctx, action.Id,
		[]entity.ActionStatus{entity.ActionStatusPendingConfirmation},
		entity.ActionStatusConfirmed,
		contract.ActionChanges{ConfirmedAt: &now},
	)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, apperror.InvalidTransition("action was already resolved by another request")
	}
	action.Status = entity.ActionStatusConfirmed
	action.ConfirmedAt = &now

	if err := l.execute(ctx, uow, actor, def, action); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	l.logger.Info(module, "Action confirmed", map[string]interface{}{
		"action_id": action.Id,
		"tool":      action.Tool,
		"status":    action.Status,
		"user_id":   actor.UserId,
	})
	l.AfterCommit(ctx, action)
	return l.reload(ctx, action)
}

// execute runs the handler behind a savepoint so a failing handler leaves no
// partial writes, then records the outcome. The Action is never left confirmed.
func (l *Ledger) execute(ctx context.Context, uow unitofwork.UnitOfWork, actor entity.Actor, def tools.Definition, action *entity.Action) error {
	savepoint := "action_" + strings.ReplaceAll(action.Id.String(), "-", "")
	if err := uow.SavePoint(savepoint); err != nil {
		return fmt.Errorf("savepoint for action %s: %w", action.Id, err)
	}

	result, runErr := def.Handler.Invoke(ctx, tools.Scope{Actor: actor, Store: l.storeFor(uow)}, action.Arguments)
	var payload json.RawMessage
	if runErr == nil {
		payload, runErr = json.Marshal(result)
	}

	now := l.now()
	repo := uow.ActionRepository()
	from := []entity.ActionStatus{entity.ActionStatusConfirmed}

	if runErr != nil {
		if err := uow.RollbackTo(savepoint); err != nil {
			return fmt.Errorf("rollback action %s: %w", action.Id, err)
		}
		msg := runErr.Error()
		moved, err := repo.Transition(ctx, action.Id, from, entity.ActionStatusError, contract.ActionChanges{Error: &msg})
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("action %s left confirmed state during execution", action.Id)
		}
		action.Status = entity.ActionStatusError
		action.Error = &msg
		l.logger.Warn(module, "Action execution failed", map[string]interface{}{
			"action_id": action.Id,
			"tool":      action.Tool,
			"error":     msg,
		})
		return nil
	}

	moved, err := repo.Transition(ctx, action.Id, from, entity.ActionStatusExecuted, contract.ActionChanges{Result: payload, ExecutedAt: &now})
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("action %s left confirmed state during execution", action.Id)
	}
	action.Status = entity.ActionStatusExecuted
	action.Result = payload
	action.ExecutedAt = &now
	return nil
}

// Cancel is legal from pending_confirmation and invalid.
func (l *Ledger) Cancel(ctx context.Context, actor entity.Actor, actionId uuid.UUID) (*entity.Action, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)
	action, err := l.authorize(ctx, uow, actor, actionId)
	if err != nil {
		return nil, err
	}
	if !action.Status.CanCancel() {
		return nil, apperror.InvalidTransition("action is %s and can no longer be cancelled", action.Status)
	}

	now := l.now()
	moved, err := uow.ActionRepository().Transition(ctx, action.Id,
		[]entity.ActionStatus{entity.ActionStatusPendingConfirmation, entity.ActionStatusInvalid},
		entity.ActionStatusCancelled,
		contract.ActionChanges{CancelledAt: &now},
	)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, apperror.InvalidTransition("action was already resolved by another request")
	}
	action.Status = entity.ActionStatusCancelled
	action.CancelledAt = &now

	l.logger.Info(module, "Action cancelled", map[string]interface{}{
		"action_id": action.Id,
		"tool":      action.Tool,
		"user_id":   actor.UserId,
	})
	l.AfterCommit(ctx, action)
	return l.reload(ctx, action)
}

// ListRecent returns a conversation's Actions, newest first.
func (l *Ledger) ListRecent(ctx context.Context, actor entity.Actor, conversationId uuid.UUID, limit int) ([]*entity.Action, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperror.NotFound("conversation %s not found", conversationId)
	}
	if !actor.Owns(conversation.UserId, conversation.CompanyId) {
		return nil, apperror.Forbidden("conversation belongs to another user")
	}

	return uow.ActionRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.Chronological{Desc: true},
		specification.Pagination{Limit: ClampListLimit(limit)},
	)
}

func (l *Ledger) Get(ctx context.Context, actor entity.Actor, actionId uuid.UUID) (*entity.Action, error) {
	return l.authorize(ctx, l.uowFactory.NewUnitOfWork(ctx), actor, actionId)
}

func ClampListLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// AfterCommit publishes and counts the final state of actions. Call it only
// once their transaction is committed.
func (l *Ledger) AfterCommit(ctx context.Context, actions ...*entity.Action) {
	wrote := make(map[uuid.UUID]bool)
	for _, action := range actions {
		if action.Status.IsTerminal() || action.Status == entity.ActionStatusInvalid {
			metrics.RecordAction(action.Tool, string(action.Status))
		}
		if action.Status == entity.ActionStatusExecuted {
			if def, ok := l.registry.Lookup(action.Tool); ok && def.Writes {
				wrote[action.CompanyId] = true
			}
		}
		if err := l.publisher.Publish(ctx, events.ActionEvent(action)); err != nil {
			l.logger.Warn(module, "Failed to publish action event", map[string]interface{}{
				"action_id": action.Id,
				"error":     err.Error(),
			})
		}
	}
	if l.invalidator != nil {
		for companyId := range wrote {
			l.invalidator.Invalidate(companyId)
		}
	}
}

// authorize loads the Action and checks the actor owns its conversation.
// Nothing is mutated.
func (l *Ledger) authorize(ctx context.Context, uow unitofwork.UnitOfWork, actor entity.Actor, actionId uuid.UUID) (*entity.Action, error) {
	action, err := uow.ActionRepository().FindOne(ctx, specification.ByID{ID: actionId})
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, apperror.NotFound("action %s not found", actionId)
	}

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: action.ConversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil || !actor.Owns(conversation.UserId, conversation.CompanyId) || !actor.Owns(action.UserId, action.CompanyId) {
		l.logger.Warn(module, "Action access denied", map[string]interface{}{
			"action_id": actionId,
			"user_id":   actor.UserId,
		})
		return nil, apperror.Forbidden("action belongs to another user")
	}
	return action, nil
}

func (l *Ledger) reload(ctx context.Context, action *entity.Action) (*entity.Action, error) {
	fresh, err := l.uowFactory.NewUnitOfWork(ctx).ActionRepository().FindOne(ctx, specification.ByID{ID: action.Id})
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return action, nil
	}
	return fresh, nil
}
