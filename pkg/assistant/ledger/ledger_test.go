package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"fleet-assistant-be/internal/apperror"
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/internal/repository/specification"
	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/internal/service"
	"fleet-assistant-be/internal/testutil"
	"fleet-assistant-be/pkg/assistant/ledger"
	"fleet-assistant-be/pkg/assistant/tools"
	"fleet-assistant-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	factory      unitofwork.RepositoryFactory
	ledger       *ledger.Ledger
	publisher    *testutil.RecordingPublisher
	actor        entity.Actor
	fleet        testutil.Fleet
	conversation *entity.Conversation
	invalidated  *invalidations
}

type invalidations struct {
	mu        sync.Mutex
	companies []uuid.UUID
}

func (i *invalidations) Invalidate(companyId uuid.UUID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.companies = append(i.companies, companyId)
}

func newFixture(t *testing.T, role entity.Role) *fixture {
	t.Helper()
	factory, _ := testutil.NewFactory(t)
	ctx := context.Background()
	actor := testutil.NewActor(role)
	fleet := testutil.SeedFleet(t, factory, actor.CompanyId)

	conversation := &entity.Conversation{UserId: actor.UserId, CompanyId: actor.CompanyId, Title: "Brakes"}
	require.NoError(t, factory.NewUnitOfWork(ctx).ConversationRepository().Create(ctx, conversation))

	publisher := &testutil.RecordingPublisher{}
	inv := &invalidations{}
	l := ledger.NewLedger(factory, tools.NewFleetRegistry(), service.StoreFor, publisher, logger.NewNopLogger(),
		ledger.WithInvalidator(inv),
	)
	return &fixture{
		factory:      factory,
		ledger:       l,
		publisher:    publisher,
		actor:        actor,
		fleet:        fleet,
		conversation: conversation,
		invalidated:  inv,
	}
}

// record stores the proposals in their own transaction, the way the message
// flow does.
func (f *fixture) record(t *testing.T, actor entity.Actor, calls ...entity.ToolCallProposal) []*entity.Action {
	t.Helper()
	ctx := context.Background()
	uow := f.factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	actions, err := f.ledger.RecordToolCalls(ctx, uow, actor, f.conversation, nil, calls)
	require.NoError(t, err)
	require.NoError(t, uow.Commit())
	f.ledger.AfterCommit(ctx, actions...)
	return actions
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *entity.Action {
	t.Helper()
	ctx := context.Background()
	action, err := f.factory.NewUnitOfWork(ctx).ActionRepository().FindOne(ctx, specification.ByID{ID: id})
	require.NoError(t, err)
	require.NotNil(t, action)
	return action
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()
	n, err := f.factory.NewUnitOfWork(ctx).MaintenanceOrderRepository().Count(ctx,
		specification.CompanyOwnedBy{CompanyID: f.actor.CompanyId},
	)
	require.NoError(t, err)
	return n
}

func call(name string, args string) entity.ToolCallProposal {
	return entity.ToolCallProposal{Id: uuid.NewString(), Name: name, Arguments: json.RawMessage(args)}
}

func createOrderCall(f *fixture) entity.ToolCallProposal {
	return call(tools.CreateMaintenanceOrder, `{"vehicle_id":"`+f.fleet.Vehicle.Id.String()+`","title":"Replace brake pads","priority":"high"}`)
}

func TestRecordToolCalls_WriteToolWaitsForConfirmation(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	before := f.orderCount(t)

	actions := f.record(t, f.actor, createOrderCall(f))

	require.Len(t, actions, 1)
	action := f.reload(t, actions[0].Id)
	assert.Equal(t, entity.ActionStatusPendingConfirmation, action.Status)
	assert.True(t, action.RequiresConfirmation)
	assert.Nil(t, action.ConfirmedAt)
	assert.Equal(t, f.conversation.Id, action.ConversationId)
	assert.Equal(t, before, f.orderCount(t), "nothing runs before confirmation")
	assert.Equal(t, []string{events.TypeActionRecorded}, f.publisher.Types())
}

func TestRecordToolCalls_ReadToolRunsImmediately(t *testing.T) {
	f := newFixture(t, entity.RoleViewer)

	actions := f.record(t, f.actor, call(tools.LookupVehicle, `{"plate":"b 1234 xy"}`))

	require.Len(t, actions, 1)
	action := f.reload(t, actions[0].Id)
	assert.Equal(t, entity.ActionStatusExecuted, action.Status)
	assert.False(t, actions[0].RequiresConfirmation)
	assert.False(t, action.RequiresConfirmation)
	assert.NotNil(t, action.ConfirmedAt)
	assert.NotNil(t, action.ExecutedAt)

	var result struct {
		Found bool `json:"found"`
	}
	require.NoError(t, json.Unmarshal(action.Result, &result))
	assert.True(t, result.Found)
	assert.Empty(t, f.invalidated.companies, "read tools do not invalidate stats")
}

func TestRecordToolCalls_InvalidProposals(t *testing.T) {
	tests := []struct {
		name      string
		call      entity.ToolCallProposal
		wantError string
	}{
		{
			name:      "unknown tool",
			call:      call("delete_all_vehicles", `{}`),
			wantError: `tool "delete_all_vehicles" is not registered`,
		},
		{
			name:      "missing required argument",
			call:      call(tools.CreateMaintenanceOrder, `{"plate":"B 1234 XY"}`),
			wantError: "invalid tool arguments",
		},
		{
			name:      "unknown argument",
			call:      call(tools.LookupVehicle, `{"plate":"B 1234 XY","vin":"123"}`),
			wantError: "invalid tool arguments",
		},
		{
			name:      "arguments are not an object",
			call:      call(tools.LookupVehicle, `"B 1234 XY"`),
			wantError: "invalid tool arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, entity.RoleManager)

			actions := f.record(t, f.actor, tt.call)

			require.Len(t, actions, 1)
			action := f.reload(t, actions[0].Id)
			assert.Equal(t, entity.ActionStatusInvalid, action.Status)
			require.NotNil(t, action.Error)
			assert.Contains(t, *action.Error, tt.wantError)
			assert.Equal(t, tt.call.Name, action.Tool)
		})
	}
}

func TestRecordToolCalls_ReadToolWithoutCapabilityIsInvalid(t *testing.T) {
	f := newFixture(t, entity.RoleViewer)
	stranger := f.actor
	stranger.Role = "contractor"

	actions := f.record(t, stranger, call(tools.GetFleetSummary, `{}`))

	require.Len(t, actions, 1)
	action := f.reload(t, actions[0].Id)
	assert.Equal(t, entity.ActionStatusInvalid, action.Status)
	require.NotNil(t, action.Error)
	assert.Contains(t, *action.Error, "may not use")
}

func TestRecordToolCalls_RequiresTransaction(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	ctx := context.Background()

	_, err := f.ledger.RecordToolCalls(ctx, f.factory.NewUnitOfWork(ctx), f.actor, f.conversation, nil,
		[]entity.ToolCallProposal{createOrderCall(f)},
	)
	assert.Error(t, err)
}

func TestConfirm_ExecutesOnce(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	ctx := context.Background()
	before := f.orderCount(t)
	actions := f.record(t, f.actor, createOrderCall(f))

	confirmed, err := f.ledger.Confirm(ctx, f.actor, actions[0].Id)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionStatusExecuted, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.NotNil(t, confirmed.ExecutedAt)
	assert.NotEmpty(t, confirmed.Result)
	assert.Equal(t, before+1, f.orderCount(t))
	assert.Equal(t, []uuid.UUID{f.actor.CompanyId}, f.invalidated.companies)

	_, err = f.ledger.Confirm(ctx, f.actor, actions[0].Id)
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))
	assert.Equal(t, before+1, f.orderCount(t))
}

func TestConfirm_Concurrent(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	ctx := context.Background()
	before := f.orderCount(t)
	actions := f.record(t, f.actor, createOrderCall(f))

	const callers = 2
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ledger.Confirm(ctx, f.actor, actions[0].Id)
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperror.ErrInvalidTransition):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, before+1, f.orderCount(t), "exactly one side effect")
	assert.Equal(t, entity.ActionStatusExecuted, f.reload(t, actions[0].Id).Status)
}

func TestConfirm_FailingHandlerRecordsError(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	ctx := context.Background()
	actions := f.record(t, f.actor, call(tools.ConsumeSparePart, `{"sku":"BRK-PAD-F","quantity":5}`))

	action, err := f.ledger.Confirm(ctx, f.actor, actions[0].Id)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionStatusError, action.Status)
	require.NotNil(t, action.Error)
	assert.Contains(t, *action.Error, "insufficient stock")

	part, err := f.factory.NewUnitOfWork(ctx).SparePartRepository().FindOne(ctx, specification.ByID{ID: f.fleet.Part.Id})
	require.NoError(t, err)
	assert.Equal(t, 2, part.Stock, "stock untouched")
	assert.Empty(t, f.invalidated.companies)
}

func TestConfirm_Authorization(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	ctx := context.Background()
	actions := f.record(t, f.actor, createOrderCall(f))

	tests := []struct {
		name  string
		actor entity.Actor
	}{
		{name: "colleague", actor: testutil.Colleague(f.actor, entity.RoleAdmin)},
		{name: "other company", actor: testutil.NewActor(entity.RoleAdmin)},
		{name: "same user in another company", actor: entity.Actor{UserId: f.actor.UserId, CompanyId: uuid.New(), Role: entity.RoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Confirm(ctx, tt.actor, actions[0].Id)
			assert.True(t, errors.Is(err, apperror.ErrForbidden))
			assert.Equal(t, entity.ActionStatusPendingConfirmation, f.reload(t, actions[0].Id).Status)
		})
	}
}

func TestConfirm_OwnerWithoutCapability(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	ctx := context.Background()
	actions := f.record(t, f.actor, createOrderCall(f))

	demoted := f.actor
	demoted.Role = entity.RoleViewer
	_, err := f.ledger.Confirm(ctx, demoted, actions[0].Id)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	assert.Equal(t, entity.ActionStatusPendingConfirmation, f.reload(t, actions[0].Id).Status)
}

func TestConfirm_InvalidActionIsNotConfirmable(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	ctx := context.Background()
	actions := f.record(t, f.actor,
		call("launch_rockets", `{}`),
		call(tools.CreateMaintenanceOrder, `{"title":""}`),
	)
	require.Len(t, actions, 2)

	for _, action := range actions {
		require.Equal(t, entity.ActionStatusInvalid, action.Status)

		_, err := f.ledger.Confirm(ctx, f.actor, action.Id)
		assert.Equal(t, apperror.KindInvalidTransition, apperror.KindOf(err), action.Tool)
		assert.Equal(t, entity.ActionStatusInvalid, f.reload(t, action.Id).Status)
	}
}

func TestConfirm_UnknownAction(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	_, err := f.ledger.Confirm(context.Background(), f.actor, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCancel(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	ctx := context.Background()
	actions := f.record(t, f.actor,
		createOrderCall(f),
		call("unknown_tool", `{}`),
	)

	for _, a := range actions {
		cancelled, err := f.ledger.Cancel(ctx, f.actor, a.Id)
		require.NoError(t, err)
		assert.Equal(t, entity.ActionStatusCancelled, cancelled.Status)
		assert.NotNil(t, cancelled.CancelledAt)
	}

	_, err := f.ledger.Confirm(ctx, f.actor, actions[0].Id)
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))
}

func TestCancel_RejectedFromResolvedStates(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	ctx := context.Background()

	executed := f.record(t, f.actor, createOrderCall(f))[0]
	_, err := f.ledger.Confirm(ctx, f.actor, executed.Id)
	require.NoError(t, err)

	failed := f.record(t, f.actor, call(tools.ConsumeSparePart, `{"sku":"BRK-PAD-F","quantity":50}`))[0]
	_, err = f.ledger.Confirm(ctx, f.actor, failed.Id)
	require.NoError(t, err)

	tests := []struct {
		name   string
		id     uuid.UUID
		status entity.ActionStatus
	}{
		{name: "executed", id: executed.Id, status: entity.ActionStatusExecuted},
		{name: "error", id: failed.Id, status: entity.ActionStatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.reload(t, tt.id)
			require.Equal(t, tt.status, before.Status)

			_, err := f.ledger.Cancel(ctx, f.actor, tt.id)
			assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))

			after := f.reload(t, tt.id)
			assert.Equal(t, tt.status, after.Status)
			assert.Nil(t, after.CancelledAt)
			assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
		})
	}
}

func TestCancel_ByAnotherUser(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	actions := f.record(t, f.actor, createOrderCall(f))

	_, err := f.ledger.Cancel(context.Background(), testutil.Colleague(f.actor, entity.RoleManager), actions[0].Id)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	assert.Equal(t, entity.ActionStatusPendingConfirmation, f.reload(t, actions[0].Id).Status)
}

func TestListRecent(t *testing.T) {
	f := newFixture(t, entity.RoleManager)
	ctx := context.Background()
	first := f.record(t, f.actor, createOrderCall(f))[0]
	second := f.record(t, f.actor, call(tools.GetFleetSummary, `{}`))[0]

	actions, err := f.ledger.ListRecent(ctx, f.actor, f.conversation.Id, 0)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, second.Id, actions[0].Id)
	assert.Equal(t, first.Id, actions[1].Id)

	_, err = f.ledger.ListRecent(ctx, testutil.Colleague(f.actor, entity.RoleAdmin), f.conversation.Id, 0)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	_, err = f.ledger.ListRecent(ctx, f.actor, uuid.New(), 0)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestClampListLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: -1, want: ledger.DefaultListLimit},
		{in: 0, want: ledger.DefaultListLimit},
		{in: 5, want: 5},
		{in: ledger.MaxListLimit, want: ledger.MaxListLimit},
		{in: 500, want: ledger.MaxListLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ledger.ClampListLimit(tt.in), "limit %d", tt.in)
	}
}
