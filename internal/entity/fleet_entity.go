package entity

import (
	"time"

	"github.com/google/uuid"
)

type VehicleStatus string

const (
	VehicleStatusActive        VehicleStatus = "active"
	VehicleStatusInMaintenance VehicleStatus = "in_maintenance"
	VehicleStatusInactive      VehicleStatus = "inactive"
)

type Vehicle struct {
	Id         uuid.UUID     `json:"id"`
	CompanyId  uuid.UUID     `json:"company_id"`
	Plate      string        `json:"plate"`
	Make       string        `json:"make"`
	Model      string        `json:"model"`
	Year       int           `json:"year"`
	Status     VehicleStatus `json:"status"`
	OdometerKm int           `json:"odometer_km"`
	CreatedAt  time.Time     `json:"created_at"`
}

type SparePart struct {
	Id        uuid.UUID `json:"id"`
	CompanyId uuid.UUID `json:"company_id"`
	Sku       string    `json:"sku"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	MinStock  int       `json:"min_stock"`
	UnitCost  float64   `json:"unit_cost"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *SparePart) IsCritical() bool {
	return p.Stock <= p.MinStock
}

type MaintenancePriority string

const (
	MaintenancePriorityLow      MaintenancePriority = "low"
	MaintenancePriorityMedium   MaintenancePriority = "medium"
	MaintenancePriorityHigh     MaintenancePriority = "high"
	MaintenancePriorityCritical MaintenancePriority = "critical"
)

type MaintenanceOrderStatus string

const (
	MaintenanceOrderStatusOpen       MaintenanceOrderStatus = "open"
	MaintenanceOrderStatusInProgress MaintenanceOrderStatus = "in_progress"
	MaintenanceOrderStatusCompleted  MaintenanceOrderStatus = "completed"
	MaintenanceOrderStatusCancelled  MaintenanceOrderStatus = "cancelled"
)

var maintenanceOrderTransitions = map[MaintenanceOrderStatus][]MaintenanceOrderStatus{
	MaintenanceOrderStatusOpen:       {MaintenanceOrderStatusInProgress, MaintenanceOrderStatusCancelled},
	MaintenanceOrderStatusInProgress: {MaintenanceOrderStatusCompleted, MaintenanceOrderStatusCancelled},
}

func (s MaintenanceOrderStatus) CanMoveTo(next MaintenanceOrderStatus) bool {
	for _, allowed := range maintenanceOrderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type MaintenanceOrder struct {
	Id           uuid.UUID              `json:"id"`
	CompanyId    uuid.UUID              `json:"company_id"`
	VehicleId    uuid.UUID              `json:"vehicle_id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Priority     MaintenancePriority    `json:"priority"`
	Status       MaintenanceOrderStatus `json:"status"`
	ScheduledFor *time.Time             `json:"scheduled_for"`
	CreatedBy    uuid.UUID              `json:"created_by"`
	CreatedAt    time.Time              `json:"created_at"`
}

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft   PurchaseOrderStatus = "draft"
	PurchaseOrderStatusOrdered PurchaseOrderStatus = "ordered"
)

type PurchaseOrder struct {
	Id          uuid.UUID           `json:"id"`
	CompanyId   uuid.UUID           `json:"company_id"`
	SparePartId uuid.UUID           `json:"spare_part_id"`
	Quantity    int                 `json:"quantity"`
	Supplier    string              `json:"supplier"`
	Status      PurchaseOrderStatus `json:"status"`
	CreatedBy   uuid.UUID           `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
}

// FleetStats is the aggregate view the assistant is grounded on.
type FleetStats struct {
	VehiclesTotal         int64 `json:"vehicles_total"`
	VehiclesActive        int64 `json:"vehicles_active"`
	VehiclesInMaintenance int64 `json:"vehicles_in_maintenance"`
	CriticalParts         int64 `json:"critical_parts"`
	OpenMaintenanceOrders int64 `json:"open_maintenance_orders"`
}
