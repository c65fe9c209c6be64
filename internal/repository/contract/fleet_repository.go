package contract

import (
	"context"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *entity.Vehicle) error
	UpdateStatus(ctx context.Context, companyId, id uuid.UUID, status entity.VehicleStatus) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Vehicle, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Vehicle, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type SparePartRepository interface {
	Create(ctx context.Context, part *entity.SparePart) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SparePart, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SparePart, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// DecrementStock subtracts quantity atomically and refuses to go below zero.
	DecrementStock(ctx context.Context, companyId, id uuid.UUID, quantity int) (bool, error)
}

type MaintenanceOrderRepository interface {
	Create(ctx context.Context, order *entity.MaintenanceOrder) error
	// UpdateStatus is a compare-and-set on the current status.
	UpdateStatus(ctx context.Context, companyId, id uuid.UUID, from, to entity.MaintenanceOrderStatus) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MaintenanceOrder, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MaintenanceOrder, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *entity.PurchaseOrder) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PurchaseOrder, error)
}
