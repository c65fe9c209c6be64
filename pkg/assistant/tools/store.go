package tools

import (
	"context"

	"fleet-assistant-be/internal/entity"

	"github.com/google/uuid"
)

// Store is the business data the tools read and write. Every method is
// scoped to one company. Implementations bound to a transaction make the
// handler's writes part of it.
type Store interface {
	FleetStats(ctx context.Context, companyId uuid.UUID) (*entity.FleetStats, error)

	// FindVehicle looks up by id when given, otherwise by plate. nil when absent.
	FindVehicle(ctx context.Context, companyId uuid.UUID, id *uuid.UUID, plate string) (*entity.Vehicle, error)
	SetVehicleStatus(ctx context.Context, companyId, id uuid.UUID, status entity.VehicleStatus) error

	CriticalParts(ctx context.Context, companyId uuid.UUID, limit int) ([]*entity.SparePart, error)
	FindSparePart(ctx context.Context, companyId uuid.UUID, id *uuid.UUID, sku string) (*entity.SparePart, error)
	// ConsumeSparePart reports false when stock is insufficient.
	ConsumeSparePart(ctx context.Context, companyId, id uuid.UUID, quantity int) (bool, error)

	RecentMaintenanceOrders(ctx context.Context, companyId uuid.UUID, limit int) ([]*entity.MaintenanceOrder, error)
	FindMaintenanceOrder(ctx context.Context, companyId, id uuid.UUID) (*entity.MaintenanceOrder, error)
	CreateMaintenanceOrder(ctx context.Context, order *entity.MaintenanceOrder) error
	// MoveMaintenanceOrder reports false when the order is no longer in `from`.
	MoveMaintenanceOrder(ctx context.Context, companyId, id uuid.UUID, from, to entity.MaintenanceOrderStatus) (bool, error)

	CreatePurchaseOrder(ctx context.Context, order *entity.PurchaseOrder) error
}
