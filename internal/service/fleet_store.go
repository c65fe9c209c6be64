package service

import (
	"context"
	"fmt"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/repository/specification"
	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/pkg/assistant/tools"

	"github.com/google/uuid"
)

var activeOrderStatuses = []string{
	string(entity.MaintenanceOrderStatusOpen),
	string(entity.MaintenanceOrderStatusInProgress),
}

// FleetStore serves the tools and the context builder from the repositories
// of one unit of work. Inside Begin/Commit every call joins the transaction.
type FleetStore struct {
	uow unitofwork.UnitOfWork
}

var _ tools.Store = (*FleetStore)(nil)

func NewFleetStore(uow unitofwork.UnitOfWork) *FleetStore {
	return &FleetStore{uow: uow}
}

// StoreFor adapts NewFleetStore to the factory shape the ledger expects.
func StoreFor(uow unitofwork.UnitOfWork) tools.Store {
	return NewFleetStore(uow)
}

func (s *FleetStore) FleetStats(ctx context.Context, companyId uuid.UUID) (*entity.FleetStats, error) {
	company := specification.CompanyOwnedBy{CompanyID: companyId}
	vehicles := s.uow.VehicleRepository()
	stats := &entity.FleetStats{}

	var err error
	if stats.VehiclesTotal, err = vehicles.Count(ctx, company); err != nil {
		return nil, fmt.Errorf("count vehicles: %w", err)
	}
	if stats.VehiclesActive, err = vehicles.Count(ctx, company, specification.ByStatus{Status: string(entity.VehicleStatusActive)}); err != nil {
		return nil, fmt.Errorf("count active vehicles: %w", err)
	}
	if stats.VehiclesInMaintenance, err = vehicles.Count(ctx, company, specification.ByStatus{Status: string(entity.VehicleStatusInMaintenance)}); err != nil {
		return nil, fmt.Errorf("count vehicles in maintenance: %w", err)
	}
	if stats.CriticalParts, err = s.uow.SparePartRepository().Count(ctx, company, specification.CriticalStock{}); err != nil {
		return nil, fmt.Errorf("count critical parts: %w", err)
	}
	if stats.OpenMaintenanceOrders, err = s.uow.MaintenanceOrderRepository().Count(ctx, company, specification.StatusIn{Statuses: activeOrderStatuses}); err != nil {
		return nil, fmt.Errorf("count open orders: %w", err)
	}
	return stats, nil
}

func (s *FleetStore) FindVehicle(ctx context.Context, companyId uuid.UUID, id *uuid.UUID, plate string) (*entity.Vehicle, error) {
	specs := []specification.Specification{specification.CompanyOwnedBy{CompanyID: companyId}}
	switch {
	case id != nil:
		specs = append(specs, specification.ByID{ID: *id})
	case plate != "":
		specs = append(specs, specification.ByPlate{Plate: plate})
	default:
		return nil, nil
	}
	return s.uow.VehicleRepository().FindOne(ctx, specs...)
}

func (s *FleetStore) SetVehicleStatus(ctx context.Context, companyId, id uuid.UUID, status entity.VehicleStatus) error {
	return s.uow.VehicleRepository().UpdateStatus(ctx, companyId, id, status)
}

func (s *FleetStore) CriticalParts(ctx context.Context, companyId uuid.UUID, limit int) ([]*entity.SparePart, error) {
	return s.uow.SparePartRepository().FindAll(ctx,
		specification.CompanyOwnedBy{CompanyID: companyId},
		specification.CriticalStock{},
		specification.OrderBy{Field: "stock - min_stock"},
		specification.OrderBy{Field: "sku"},
		specification.Pagination{Limit: limit},
	)
}

func (s *FleetStore) FindSparePart(ctx context.Context, companyId uuid.UUID, id *uuid.UUID, sku string) (*entity.SparePart, error) {
	specs := []specification.Specification{specification.CompanyOwnedBy{CompanyID: companyId}}
	switch {
	case id != nil:
		specs = append(specs, specification.ByID{ID: *id})
	case sku != "":
		specs = append(specs, specification.BySku{Sku: sku})
	default:
		return nil, nil
	}
	return s.uow.SparePartRepository().FindOne(ctx, specs...)
}

func (s *FleetStore) ConsumeSparePart(ctx context.Context, companyId, id uuid.UUID, quantity int) (bool, error) {
	return s.uow.SparePartRepository().DecrementStock(ctx, companyId, id, quantity)
}

func (s *FleetStore) RecentMaintenanceOrders(ctx context.Context, companyId uuid.UUID, limit int) ([]*entity.MaintenanceOrder, error) {
	return s.uow.MaintenanceOrderRepository().FindAll(ctx,
		specification.CompanyOwnedBy{CompanyID: companyId},
		specification.StatusIn{Statuses: activeOrderStatuses},
		specification.Chronological{Desc: true},
		specification.Pagination{Limit: limit},
	)
}

func (s *FleetStore) FindMaintenanceOrder(ctx context.Context, companyId, id uuid.UUID) (*entity.MaintenanceOrder, error) {
	return s.uow.MaintenanceOrderRepository().FindOne(ctx,
		specification.CompanyOwnedBy{CompanyID: companyId},
		specification.ByID{ID: id},
	)
}

func (s *FleetStore) CreateMaintenanceOrder(ctx context.Context, order *entity.MaintenanceOrder) error {
	return s.uow.MaintenanceOrderRepository().Create(ctx, order)
}

func (s *FleetStore) MoveMaintenanceOrder(ctx context.Context, companyId, id uuid.UUID, from, to entity.MaintenanceOrderStatus) (bool, error) {
	return s.uow.MaintenanceOrderRepository().UpdateStatus(ctx, companyId, id, from, to)
}

func (s *FleetStore) CreatePurchaseOrder(ctx context.Context, order *entity.PurchaseOrder) error {
	return s.uow.PurchaseOrderRepository().Create(ctx, order)
}
