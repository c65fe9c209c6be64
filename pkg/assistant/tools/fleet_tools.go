package tools

import (
	"context"
	"strings"
	"time"

	"fleet-assistant-be/internal/apperror"
	"fleet-assistant-be/internal/entity"

	"github.com/google/uuid"
)

const (
	GetFleetSummary              = "get_fleet_summary"
	LookupVehicle                = "lookup_vehicle"
	ListLowStockParts            = "list_low_stock_parts"
	CreateMaintenanceOrder       = "create_maintenance_order"
	UpdateMaintenanceOrderStatus = "update_maintenance_order_status"
	ConsumeSparePart             = "consume_spare_part"
	CreatePurchaseOrder          = "create_purchase_order"
)

// NewFleetRegistry is the production catalog.
func NewFleetRegistry() *Registry {
	return NewRegistry(FleetTools()...)
}

func FleetTools() []Definition {
	return []Definition{
		{
			Name:        GetFleetSummary,
			Description: "Counts of vehicles by status, parts at or below minimum stock and open maintenance orders.",
			Capability:  entity.CapabilityFleetRead,
			Parameters:  object(nil, map[string]any{}),
			Handler:     New(getFleetSummary),
		},
		{
			Name:        LookupVehicle,
			Description: "Find one vehicle by its licence plate.",
			Capability:  entity.CapabilityFleetRead,
			Parameters: object([]string{"plate"}, map[string]any{
				"plate": str("Licence plate, case insensitive"),
			}),
			Handler: New(lookupVehicle),
		},
		{
			Name:        ListLowStockParts,
			Description: "Spare parts whose stock is at or below their minimum.",
			Capability:  entity.CapabilityFleetRead,
			Parameters: object(nil, map[string]any{
				"limit": integer("Maximum number of parts", 1, 50),
			}),
			Handler: New(listLowStockParts),
		},
		{
			Name:                 CreateMaintenanceOrder,
			Description:          "Open a maintenance order for a vehicle, identified by id or plate.",
			Capability:           entity.CapabilityMaintenanceWrite,
			RequiresConfirmation: true,
			Writes:               true,
			Parameters: object([]string{"title"}, map[string]any{
				"vehicle_id":    str("Vehicle id"),
				"plate":         str("Licence plate, used when vehicle_id is not known"),
				"title":         str("Short summary of the work"),
				"description":   str("Details for the technician"),
				"priority":      enum("Defaults to medium", "low", "medium", "high", "critical"),
				"scheduled_for": str("RFC 3339 timestamp"),
			}),
			Handler: New(createMaintenanceOrder),
		},
		{
			Name:                 UpdateMaintenanceOrderStatus,
			Description:          "Move a maintenance order to in_progress, completed or cancelled.",
			Capability:           entity.CapabilityMaintenanceWrite,
			RequiresConfirmation: true,
			Writes:               true,
			Parameters: object([]string{"order_id", "status"}, map[string]any{
				"order_id": str("Maintenance order id"),
				"status":   enum("Target status", "in_progress", "completed", "cancelled"),
			}),
			Handler: New(updateMaintenanceOrderStatus),
		},
		{
			Name:                 ConsumeSparePart,
			Description:          "Take parts out of stock, identified by id or SKU.",
			Capability:           entity.CapabilityInventoryWrite,
			RequiresConfirmation: true,
			Writes:               true,
			Parameters: object([]string{"quantity"}, map[string]any{
				"part_id":  str("Spare part id"),
				"sku":      str("Spare part SKU, used when part_id is not known"),
				"quantity": integer("Units to consume", 1, 1000),
			}),
			Handler: New(consumeSparePart),
		},
		{
			Name:                 CreatePurchaseOrder,
			Description:          "Draft a purchase order to restock a spare part.",
			Capability:           entity.CapabilityPurchasingWrite,
			RequiresConfirmation: true,
			Writes:               true,
			Parameters: object([]string{"quantity"}, map[string]any{
				"part_id":  str("Spare part id"),
				"sku":      str("Spare part SKU, used when part_id is not known"),
				"quantity": integer("Units to order", 1, 10000),
				"supplier": str("Supplier name"),
			}),
			Handler: New(createPurchaseOrder),
		},
	}
}

type noArgs struct{}

func getFleetSummary(ctx context.Context, scope Scope, _ noArgs) (any, error) {
	return scope.Store.FleetStats(ctx, scope.Actor.CompanyId)
}

type lookupVehicleArgs struct {
	Plate string `json:"plate" validate:"required,max=20"`
}

type vehicleLookupResult struct {
	Found   bool            `json:"found"`
	Vehicle *entity.Vehicle `json:"vehicle,omitempty"`
}

func lookupVehicle(ctx context.Context, scope Scope, args lookupVehicleArgs) (any, error) {
	v, err := scope.Store.FindVehicle(ctx, scope.Actor.CompanyId, nil, args.Plate)
	if err != nil {
		return nil, err
	}
	return vehicleLookupResult{Found: v != nil, Vehicle: v}, nil
}

type listLowStockArgs struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=50"`
}

func listLowStockParts(ctx context.Context, scope Scope, args listLowStockArgs) (any, error) {
	limit := args.Limit
	if limit == 0 {
		limit = 10
	}
	parts, err := scope.Store.CriticalParts(ctx, scope.Actor.CompanyId, limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"parts": parts}, nil
}

type createMaintenanceOrderArgs struct {
	VehicleId    *uuid.UUID `json:"vehicle_id" validate:"required_without=Plate"`
	Plate        string     `json:"plate" validate:"omitempty,max=20"`
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description" validate:"max=2000"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

func createMaintenanceOrder(ctx context.Context, scope Scope, args createMaintenanceOrderArgs) (any, error) {
	companyId := scope.Actor.CompanyId
	vehicle, err := scope.Store.FindVehicle(ctx, companyId, args.VehicleId, args.Plate)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, apperror.ExecutionFailure("vehicle %s not found", vehicleRef(args.VehicleId, args.Plate))
	}

	priority := entity.MaintenancePriority(args.Priority)
	if priority == "" {
		priority = entity.MaintenancePriorityMedium
	}
	order := &entity.MaintenanceOrder{
		CompanyId:    companyId,
		VehicleId:    vehicle.Id,
		Title:        strings.TrimSpace(args.Title),
		Description:  strings.TrimSpace(args.Description),
		Priority:     priority,
		Status:       entity.MaintenanceOrderStatusOpen,
		ScheduledFor: args.ScheduledFor,
		CreatedBy:    scope.Actor.UserId,
	}
	if err := scope.Store.CreateMaintenanceOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func vehicleRef(id *uuid.UUID, plate string) string {
	if id != nil {
		return id.String()
	}
	return strings.ToUpper(plate)
}

type updateMaintenanceOrderStatusArgs struct {
	OrderId uuid.UUID `json:"order_id" validate:"required"`
	Status  string    `json:"status" validate:"required,oneof=in_progress completed cancelled"`
}

func updateMaintenanceOrderStatus(ctx context.Context, scope Scope, args updateMaintenanceOrderStatusArgs) (any, error) {
	companyId := scope.Actor.CompanyId
	order, err := scope.Store.FindMaintenanceOrder(ctx, companyId, args.OrderId)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.ExecutionFailure("maintenance order %s not found", args.OrderId)
	}

	next := entity.MaintenanceOrderStatus(args.Status)
	if !order.Status.CanMoveTo(next) {
		return nil, apperror.ExecutionFailure("maintenance order cannot move from %s to %s", order.Status, next)
	}
	moved, err := scope.Store.MoveMaintenanceOrder(ctx, companyId, order.Id, order.Status, next)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, apperror.ExecutionFailure("maintenance order %s changed concurrently", order.Id)
	}

	// Keep the vehicle's status in step with its workshop state
	switch next {
	case entity.MaintenanceOrderStatusInProgress:
		err = scope.Store.SetVehicleStatus(ctx, companyId, order.VehicleId, entity.VehicleStatusInMaintenance)
	case entity.MaintenanceOrderStatusCompleted, entity.MaintenanceOrderStatusCancelled:
		err = scope.Store.SetVehicleStatus(ctx, companyId, order.VehicleId, entity.VehicleStatusActive)
	}
	if err != nil {
		return nil, err
	}

	previous := order.Status
	order.Status = next
	return map[string]any{"order": order, "previous_status": previous}, nil
}

type consumeSparePartArgs struct {
	PartId   *uuid.UUID `json:"part_id" validate:"required_without=Sku"`
	Sku      string     `json:"sku" validate:"omitempty,max=64"`
	Quantity int        `json:"quantity" validate:"required,min=1,max=1000"`
}

func consumeSparePart(ctx context.Context, scope Scope, args consumeSparePartArgs) (any, error) {
	companyId := scope.Actor.CompanyId
	part, err := scope.Store.FindSparePart(ctx, companyId, args.PartId, args.Sku)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, apperror.ExecutionFailure("spare part %s not found", partRef(args.PartId, args.Sku))
	}

	ok, err := scope.Store.ConsumeSparePart(ctx, companyId, part.Id, args.Quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ExecutionFailure("insufficient stock for %s: requested %d", part.Sku, args.Quantity)
	}

	// Re-read so the reported stock includes concurrent consumers.
	updated, err := scope.Store.FindSparePart(ctx, companyId, &part.Id, "")
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.ExecutionFailure("spare part %s disappeared", part.Sku)
	}
	return map[string]any{"part": updated, "consumed": args.Quantity, "critical": updated.IsCritical()}, nil
}

type createPurchaseOrderArgs struct {
	PartId   *uuid.UUID `json:"part_id" validate:"required_without=Sku"`
	Sku      string     `json:"sku" validate:"omitempty,max=64"`
	Quantity int        `json:"quantity" validate:"required,min=1,max=10000"`
	Supplier string     `json:"supplier" validate:"max=120"`
}

func createPurchaseOrder(ctx context.Context, scope Scope, args createPurchaseOrderArgs) (any, error) {
	companyId := scope.Actor.CompanyId
	part, err := scope.Store.FindSparePart(ctx, companyId, args.PartId, args.Sku)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, apperror.ExecutionFailure("spare part %s not found", partRef(args.PartId, args.Sku))
	}

	order := &entity.PurchaseOrder{
		CompanyId:   companyId,
		SparePartId: part.Id,
		Quantity:    args.Quantity,
		Supplier:    strings.TrimSpace(args.Supplier),
		Status:      entity.PurchaseOrderStatusDraft,
		CreatedBy:   scope.Actor.UserId,
	}
	if err := scope.Store.CreatePurchaseOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func partRef(id *uuid.UUID, sku string) string {
	if id != nil {
		return id.String()
	}
	return sku
}
