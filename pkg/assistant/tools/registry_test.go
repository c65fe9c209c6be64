package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"fleet-assistant-be/internal/apperror"
	"fleet-assistant-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Validate(t *testing.T) {
	registry := NewFleetRegistry()
	vehicleId := uuid.NewString()

	tests := []struct {
		name       string
		tool       string
		args       string
		wantKind   apperror.Kind
		wantFields []string
	}{
		{name: "summary without arguments", tool: GetFleetSummary, args: ``},
		{name: "summary with empty object", tool: GetFleetSummary, args: `{}`},
		{name: "summary rejects unknown field", tool: GetFleetSummary, args: `{"all":true}`, wantKind: apperror.KindInvalidArguments},
		{name: "lookup by plate", tool: LookupVehicle, args: `{"plate":"B 1234 XY"}`},
		{name: "lookup requires plate", tool: LookupVehicle, args: `{}`, wantKind: apperror.KindInvalidArguments, wantFields: []string{"plate"}},
		{name: "lookup plate too long", tool: LookupVehicle, args: `{"plate":"ABCDEFGHIJKLMNOPQRSTUVWXYZ"}`, wantKind: apperror.KindInvalidArguments, wantFields: []string{"plate"}},
		{name: "low stock default limit", tool: ListLowStockParts, args: `{}`},
		{name: "low stock limit out of range", tool: ListLowStockParts, args: `{"limit":500}`, wantKind: apperror.KindInvalidArguments, wantFields: []string{"limit"}},
		{name: "order by vehicle id", tool: CreateMaintenanceOrder, args: `{"vehicle_id":"` + vehicleId + `","title":"Oil change"}`},
		{name: "order by plate", tool: CreateMaintenanceOrder, args: `{"plate":"B 1234 XY","title":"Oil change","priority":"critical"}`},
		{name: "order needs a vehicle", tool: CreateMaintenanceOrder, args: `{"title":"Oil change"}`, wantKind: apperror.KindInvalidArguments, wantFields: []string{"vehicle_id"}},
		{name: "order needs a title", tool: CreateMaintenanceOrder, args: `{"plate":"B 1234 XY"}`, wantKind: apperror.KindInvalidArguments, wantFields: []string{"title"}},
		{name: "order priority must be known", tool: CreateMaintenanceOrder, args: `{"plate":"B 1234 XY","title":"x","priority":"urgent"}`, wantKind: apperror.KindInvalidArguments, wantFields: []string{"priority"}},
		{name: "order vehicle id must be a uuid", tool: CreateMaintenanceOrder, args: `{"vehicle_id":"42","title":"x"}`, wantKind: apperror.KindInvalidArguments},
		{name: "status update", tool: UpdateMaintenanceOrderStatus, args: `{"order_id":"` + vehicleId + `","status":"completed"}`},
		{name: "status update rejects open", tool: UpdateMaintenanceOrderStatus, args: `{"order_id":"` + vehicleId + `","status":"open"}`, wantKind: apperror.KindInvalidArguments, wantFields: []string{"status"}},
		{name: "status update needs order", tool: UpdateMaintenanceOrderStatus, args: `{"status":"completed"}`, wantKind: apperror.KindInvalidArguments, wantFields: []string{"order_id"}},
		{name: "consume by sku", tool: ConsumeSparePart, args: `{"sku":"BRK-PAD-F","quantity":2}`},
		{name: "consume zero", tool: ConsumeSparePart, args: `{"sku":"BRK-PAD-F","quantity":0}`, wantKind: apperror.KindInvalidArguments, wantFields: []string{"quantity"}},
		{name: "consume wrong type", tool: ConsumeSparePart, args: `{"sku":"BRK-PAD-F","quantity":"two"}`, wantKind: apperror.KindInvalidArguments},
		{name: "purchase needs a part", tool: CreatePurchaseOrder, args: `{"quantity":10}`, wantKind: apperror.KindInvalidArguments, wantFields: []string{"part_id"}},
		{name: "unknown tool", tool: "drop_tables", args: `{}`, wantKind: apperror.KindToolNotFound},
		{name: "not json", tool: LookupVehicle, args: `plate=B1234`, wantKind: apperror.KindInvalidArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Validate(tt.tool, json.RawMessage(tt.args))
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperror.KindOf(err))

			var appErr *apperror.Error
			require.True(t, errors.As(err, &appErr))
			for _, field := range tt.wantFields {
				assert.Contains(t, appErr.Fields, field)
			}
		})
	}
}

func TestNewRegistry_PanicsOnDuplicate(t *testing.T) {
	def := Definition{Name: "ping", Handler: New(func(context.Context, Scope, noArgs) (any, error) { return "pong", nil })}

	assert.Panics(t, func() { NewRegistry(def, def) })
	assert.Panics(t, func() { NewRegistry(Definition{}) })
}

func TestRegistry_CatalogIsSorted(t *testing.T) {
	registry := NewFleetRegistry()

	catalog := registry.Catalog()
	require.Len(t, catalog, 7)
	for i := 1; i < len(catalog); i++ {
		assert.Less(t, catalog[i-1].Name, catalog[i].Name)
	}

	llmTools := registry.LLMTools()
	require.Len(t, llmTools, len(catalog))
	for i, tool := range llmTools {
		assert.Equal(t, catalog[i].Name, tool.Name)
		assert.Equal(t, "object", tool.Parameters["type"])
	}
}

func TestFleetTools_ConfirmationPolicy(t *testing.T) {
	for _, def := range FleetTools() {
		// Every tool that writes must wait for the user
		assert.Equal(t, def.Writes, def.RequiresConfirmation, def.Name)
		assert.NotEmpty(t, def.Capability, def.Name)
	}
}

// memStore is a Store over plain maps, enough to drive the handlers.
type memStore struct {
	vehicles  map[uuid.UUID]*entity.Vehicle
	parts     map[uuid.UUID]*entity.SparePart
	orders    map[uuid.UUID]*entity.MaintenanceOrder
	purchases []*entity.PurchaseOrder

	// onConsume runs after a successful decrement, standing in for a
	// concurrent request.
	onConsume func()
}

func newMemStore() *memStore {
	return &memStore{
		vehicles: map[uuid.UUID]*entity.Vehicle{},
		parts:    map[uuid.UUID]*entity.SparePart{},
		orders:   map[uuid.UUID]*entity.MaintenanceOrder{},
	}
}

func (s *memStore) FleetStats(_ context.Context, companyId uuid.UUID) (*entity.FleetStats, error) {
	return &entity.FleetStats{}, nil
}

func (s *memStore) FindVehicle(_ context.Context, companyId uuid.UUID, id *uuid.UUID, plate string) (*entity.Vehicle, error) {
	for _, v := range s.vehicles {
		if v.CompanyId != companyId {
			continue
		}
		if (id != nil && v.Id == *id) || (id == nil && v.Plate == plate) {
			return v, nil
		}
	}
	return nil, nil
}

func (s *memStore) SetVehicleStatus(_ context.Context, companyId, id uuid.UUID, status entity.VehicleStatus) error {
	if v, ok := s.vehicles[id]; ok && v.CompanyId == companyId {
		v.Status = status
	}
	return nil
}

func (s *memStore) CriticalParts(context.Context, uuid.UUID, int) ([]*entity.SparePart, error) {
	return nil, nil
}

func (s *memStore) FindSparePart(_ context.Context, companyId uuid.UUID, id *uuid.UUID, sku string) (*entity.SparePart, error) {
	for _, p := range s.parts {
		if p.CompanyId != companyId {
			continue
		}
		if (id != nil && p.Id == *id) || (id == nil && p.Sku == sku) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) ConsumeSparePart(_ context.Context, companyId, id uuid.UUID, quantity int) (bool, error) {
	p, ok := s.parts[id]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	if s.onConsume != nil {
		s.onConsume()
	}
	return true, nil
}

func (s *memStore) RecentMaintenanceOrders(context.Context, uuid.UUID, int) ([]*entity.MaintenanceOrder, error) {
	return nil, nil
}

func (s *memStore) FindMaintenanceOrder(_ context.Context, companyId, id uuid.UUID) (*entity.MaintenanceOrder, error) {
	if o, ok := s.orders[id]; ok && o.CompanyId == companyId {
		copied := *o
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) CreateMaintenanceOrder(_ context.Context, order *entity.MaintenanceOrder) error {
	order.Id = uuid.New()
	s.orders[order.Id] = order
	return nil
}

func (s *memStore) MoveMaintenanceOrder(_ context.Context, companyId, id uuid.UUID, from, to entity.MaintenanceOrderStatus) (bool, error) {
	o, ok := s.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (s *memStore) CreatePurchaseOrder(_ context.Context, order *entity.PurchaseOrder) error {
	order.Id = uuid.New()
	s.purchases = append(s.purchases, order)
	return nil
}

func TestHandlers(t *testing.T) {
	ctx := context.Background()
	registry := NewFleetRegistry()
	actor := entity.Actor{UserId: uuid.New(), CompanyId: uuid.New(), Role: entity.RoleManager}

	invoke := func(store Store, name, args string) (any, error) {
		def, ok := registry.Lookup(name)
		require.True(t, ok, name)
		return def.Handler.Invoke(ctx, Scope{Actor: actor, Store: store}, json.RawMessage(args))
	}

	t.Run("create order for unknown plate fails", func(t *testing.T) {
		_, err := invoke(newMemStore(), CreateMaintenanceOrder, `{"plate":"X 1","title":"Tyres"}`)
		assert.True(t, errors.Is(err, apperror.ErrExecutionFailure))
		assert.Contains(t, err.Error(), "X 1")
	})

	t.Run("create order defaults to medium priority", func(t *testing.T) {
		store := newMemStore()
		vehicle := &entity.Vehicle{Id: uuid.New(), CompanyId: actor.CompanyId, Plate: "B 1", Status: entity.VehicleStatusActive}
		store.vehicles[vehicle.Id] = vehicle

		result, err := invoke(store, CreateMaintenanceOrder, `{"plate":"B 1","title":"  Tyres  "}`)
		require.NoError(t, err)
		order := result.(*entity.MaintenanceOrder)
		assert.Equal(t, "Tyres", order.Title)
		assert.Equal(t, entity.MaintenancePriorityMedium, order.Priority)
		assert.Equal(t, entity.MaintenanceOrderStatusOpen, order.Status)
		assert.Equal(t, actor.UserId, order.CreatedBy)
		assert.Len(t, store.orders, 1)
	})

	t.Run("status update keeps vehicle in step", func(t *testing.T) {
		store := newMemStore()
		vehicle := &entity.Vehicle{Id: uuid.New(), CompanyId: actor.CompanyId, Plate: "B 2", Status: entity.VehicleStatusActive}
		store.vehicles[vehicle.Id] = vehicle
		order := &entity.MaintenanceOrder{Id: uuid.New(), CompanyId: actor.CompanyId, VehicleId: vehicle.Id, Status: entity.MaintenanceOrderStatusOpen}
		store.orders[order.Id] = order

		_, err := invoke(store, UpdateMaintenanceOrderStatus, `{"order_id":"`+order.Id.String()+`","status":"in_progress"}`)
		require.NoError(t, err)
		assert.Equal(t, entity.VehicleStatusInMaintenance, vehicle.Status)

		_, err = invoke(store, UpdateMaintenanceOrderStatus, `{"order_id":"`+order.Id.String()+`","status":"completed"}`)
		require.NoError(t, err)
		assert.Equal(t, entity.VehicleStatusActive, vehicle.Status)
		assert.Equal(t, entity.MaintenanceOrderStatusCompleted, order.Status)

		_, err = invoke(store, UpdateMaintenanceOrderStatus, `{"order_id":"`+order.Id.String()+`","status":"in_progress"}`)
		assert.True(t, errors.Is(err, apperror.ErrExecutionFailure), "completed orders are final")
	})

	t.Run("consume more than in stock", func(t *testing.T) {
		store := newMemStore()
		part := &entity.SparePart{Id: uuid.New(), CompanyId: actor.CompanyId, Sku: "OIL-5W30", Stock: 3, MinStock: 1}
		store.parts[part.Id] = part

		_, err := invoke(store, ConsumeSparePart, `{"sku":"OIL-5W30","quantity":4}`)
		assert.True(t, errors.Is(err, apperror.ErrExecutionFailure))
		assert.Equal(t, 3, part.Stock)

		result, err := invoke(store, ConsumeSparePart, `{"sku":"OIL-5W30","quantity":3}`)
		require.NoError(t, err)
		assert.Equal(t, 0, part.Stock)

		reported := result.(map[string]any)
		assert.Equal(t, 0, reported["part"].(*entity.SparePart).Stock)
		assert.Equal(t, true, reported["critical"])
	})

	t.Run("reported stock includes other consumers", func(t *testing.T) {
		store := newMemStore()
		part := &entity.SparePart{Id: uuid.New(), CompanyId: actor.CompanyId, Sku: "BLT-V", Stock: 10, MinStock: 2}
		store.parts[part.Id] = part
		store.onConsume = func() { part.Stock -= 5 }

		result, err := invoke(store, ConsumeSparePart, `{"sku":"BLT-V","quantity":2}`)
		require.NoError(t, err)
		assert.Equal(t, 3, result.(map[string]any)["part"].(*entity.SparePart).Stock)
	})

	t.Run("purchase order is drafted", func(t *testing.T) {
		store := newMemStore()
		part := &entity.SparePart{Id: uuid.New(), CompanyId: actor.CompanyId, Sku: "FLT-AIR", Stock: 0, MinStock: 2}
		store.parts[part.Id] = part

		result, err := invoke(store, CreatePurchaseOrder, `{"part_id":"`+part.Id.String()+`","quantity":10,"supplier":" Astra "}`)
		require.NoError(t, err)
		po := result.(*entity.PurchaseOrder)
		assert.Equal(t, entity.PurchaseOrderStatusDraft, po.Status)
		assert.Equal(t, "Astra", po.Supplier)
		assert.Equal(t, part.Id, po.SparePartId)
	})

	t.Run("parts of another company are invisible", func(t *testing.T) {
		store := newMemStore()
		part := &entity.SparePart{Id: uuid.New(), CompanyId: uuid.New(), Sku: "FLT-AIR", Stock: 9}
		store.parts[part.Id] = part

		_, err := invoke(store, ConsumeSparePart, `{"sku":"FLT-AIR","quantity":1}`)
		assert.True(t, errors.Is(err, apperror.ErrExecutionFailure))
		assert.Equal(t, 9, part.Stock)
	})
}
