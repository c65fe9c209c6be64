package mapper

import (
	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/model"
)

type FleetMapper struct{}

func NewFleetMapper() *FleetMapper {
	return &FleetMapper{}
}

func (m *FleetMapper) VehicleToEntity(v *model.Vehicle) *entity.Vehicle {
	if v == nil {
		return nil
	}
	return &entity.Vehicle{
		Id:         v.Id,
		CompanyId:  v.CompanyId,
		Plate:      v.Plate,
		Make:       v.Make,
		Model:      v.Model,
		Year:       v.Year,
		Status:     entity.VehicleStatus(v.Status),
		OdometerKm: v.OdometerKm,
		CreatedAt:  v.CreatedAt,
	}
}

func (m *FleetMapper) VehicleToModel(v *entity.Vehicle) *model.Vehicle {
	if v == nil {
		return nil
	}
	return &model.Vehicle{
		Id:         v.Id,
		CompanyId:  v.CompanyId,
		Plate:      v.Plate,
		Make:       v.Make,
		Model:      v.Model,
		Year:       v.Year,
		Status:     string(v.Status),
		OdometerKm: v.OdometerKm,
		CreatedAt:  v.CreatedAt,
	}
}

func (m *FleetMapper) SparePartToEntity(p *model.SparePart) *entity.SparePart {
	if p == nil {
		return nil
	}
	return &entity.SparePart{
		Id:        p.Id,
		CompanyId: p.CompanyId,
		Sku:       p.Sku,
		Name:      p.Name,
		Stock:     p.Stock,
		MinStock:  p.MinStock,
		UnitCost:  p.UnitCost,
		CreatedAt: p.CreatedAt,
	}
}

func (m *FleetMapper) SparePartToModel(p *entity.SparePart) *model.SparePart {
	if p == nil {
		return nil
	}
	return &model.SparePart{
		Id:        p.Id,
		CompanyId: p.CompanyId,
		Sku:       p.Sku,
		Name:      p.Name,
		Stock:     p.Stock,
		MinStock:  p.MinStock,
		UnitCost:  p.UnitCost,
		CreatedAt: p.CreatedAt,
	}
}

func (m *FleetMapper) MaintenanceOrderToEntity(o *model.MaintenanceOrder) *entity.MaintenanceOrder {
	if o == nil {
		return nil
	}
	return &entity.MaintenanceOrder{
		Id:           o.Id,
		CompanyId:    o.CompanyId,
		VehicleId:    o.VehicleId,
		Title:        o.Title,
		Description:  o.Description,
		Priority:     entity.MaintenancePriority(o.Priority),
		Status:       entity.MaintenanceOrderStatus(o.Status),
		ScheduledFor: o.ScheduledFor,
		CreatedBy:    o.CreatedBy,
		CreatedAt:    o.CreatedAt,
	}
}

func (m *FleetMapper) MaintenanceOrderToModel(o *entity.MaintenanceOrder) *model.MaintenanceOrder {
	if o == nil {
		return nil
	}
	return &model.MaintenanceOrder{
		Id:           o.Id,
		CompanyId:    o.CompanyId,
		VehicleId:    o.VehicleId,
		Title:        o.Title,
		Description:  o.Description,
		Priority:     string(o.Priority),
		Status:       string(o.Status),
		ScheduledFor: o.ScheduledFor,
		CreatedBy:    o.CreatedBy,
		CreatedAt:    o.CreatedAt,
	}
}

func (m *FleetMapper) PurchaseOrderToEntity(o *model.PurchaseOrder) *entity.PurchaseOrder {
	if o == nil {
		return nil
	}
	return &entity.PurchaseOrder{
		Id:          o.Id,
		CompanyId:   o.CompanyId,
		SparePartId: o.SparePartId,
		Quantity:    o.Quantity,
		Supplier:    o.Supplier,
		Status:      entity.PurchaseOrderStatus(o.Status),
		CreatedBy:   o.CreatedBy,
		CreatedAt:   o.CreatedAt,
	}
}

func (m *FleetMapper) PurchaseOrderToModel(o *entity.PurchaseOrder) *model.PurchaseOrder {
	if o == nil {
		return nil
	}
	return &model.PurchaseOrder{
		Id:          o.Id,
		CompanyId:   o.CompanyId,
		SparePartId: o.SparePartId,
		Quantity:    o.Quantity,
		Supplier:    o.Supplier,
		Status:      string(o.Status),
		CreatedBy:   o.CreatedBy,
		CreatedAt:   o.CreatedAt,
	}
}
