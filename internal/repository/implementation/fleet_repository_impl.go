package implementation

import (
	"context"
	"errors"
	"time"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/mapper"
	"fleet-assistant-be/internal/model"
	"fleet-assistant-be/internal/repository/contract"
	"fleet-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicles

type VehicleRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FleetMapper
}

func NewVehicleRepository(db *gorm.DB) contract.VehicleRepository {
	return &VehicleRepositoryImpl{db: db, mapper: mapper.NewFleetMapper()}
}

func (r *VehicleRepositoryImpl) Create(ctx context.Context, vehicle *entity.Vehicle) error {
	m := r.mapper.VehicleToModel(vehicle)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*vehicle = *r.mapper.VehicleToEntity(m)
	return nil
}

func (r *VehicleRepositoryImpl) UpdateStatus(ctx context.Context, companyId, id uuid.UUID, status entity.VehicleStatus) error {
	return r.db.WithContext(ctx).Model(&model.Vehicle{}).
		Where("company_id = ? AND id = ?", companyId, id).
		Updates(map[string]interface{}{"status": string(status), "updated_at": time.Now().UTC()}).Error
}

func (r *VehicleRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Vehicle, error) {
	var m model.Vehicle
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.VehicleToEntity(&m), nil
}

func (r *VehicleRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Vehicle, error) {
	var models []*model.Vehicle
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Vehicle, len(models))
	for i, m := range models {
		entities[i] = r.mapper.VehicleToEntity(m)
	}
	return entities, nil
}

func (r *VehicleRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	err := applySpecifications(r.db.WithContext(ctx).Model(&model.Vehicle{}), specs...).Count(&count).Error
	return count, err
}

// Spare parts

type SparePartRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FleetMapper
}

func NewSparePartRepository(db *gorm.DB) contract.SparePartRepository {
	return &SparePartRepositoryImpl{db: db, mapper: mapper.NewFleetMapper()}
}

func (r *SparePartRepositoryImpl) Create(ctx context.Context, part *entity.SparePart) error {
	m := r.mapper.SparePartToModel(part)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*part = *r.mapper.SparePartToEntity(m)
	return nil
}

func (r *SparePartRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SparePart, error) {
	var m model.SparePart
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SparePartToEntity(&m), nil
}

func (r *SparePartRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SparePart, error) {
	var models []*model.SparePart
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.SparePart, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SparePartToEntity(m)
	}
	return entities, nil
}

func (r *SparePartRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	err := applySpecifications(r.db.WithContext(ctx).Model(&model.SparePart{}), specs...).Count(&count).Error
	return count, err
}

func (r *SparePartRepositoryImpl) DecrementStock(ctx context.Context, companyId, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.SparePart{}).
		Where("company_id = ? AND id = ? AND stock >= ?", companyId, id, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Maintenance orders

type MaintenanceOrderRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FleetMapper
}

func NewMaintenanceOrderRepository(db *gorm.DB) contract.MaintenanceOrderRepository {
	return &MaintenanceOrderRepositoryImpl{db: db, mapper: mapper.NewFleetMapper()}
}

func (r *MaintenanceOrderRepositoryImpl) Create(ctx context.Context, order *entity.MaintenanceOrder) error {
	m := r.mapper.MaintenanceOrderToModel(order)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*order = *r.mapper.MaintenanceOrderToEntity(m)
	return nil
}

func (r *MaintenanceOrderRepositoryImpl) UpdateStatus(ctx context.Context, companyId, id uuid.UUID, from, to entity.MaintenanceOrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.MaintenanceOrder{}).
		Where("company_id = ? AND id = ? AND status = ?", companyId, id, string(from)).
		Updates(map[string]interface{}{"status": string(to), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *MaintenanceOrderRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MaintenanceOrder, error) {
	var m model.MaintenanceOrder
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MaintenanceOrderToEntity(&m), nil
}

func (r *MaintenanceOrderRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MaintenanceOrder, error) {
	var models []*model.MaintenanceOrder
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.MaintenanceOrder, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MaintenanceOrderToEntity(m)
	}
	return entities, nil
}

func (r *MaintenanceOrderRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	err := applySpecifications(r.db.WithContext(ctx).Model(&model.MaintenanceOrder{}), specs...).Count(&count).Error
	return count, err
}

// Purchase orders

type PurchaseOrderRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FleetMapper
}

func NewPurchaseOrderRepository(db *gorm.DB) contract.PurchaseOrderRepository {
	return &PurchaseOrderRepositoryImpl{db: db, mapper: mapper.NewFleetMapper()}
}

func (r *PurchaseOrderRepositoryImpl) Create(ctx context.Context, order *entity.PurchaseOrder) error {
	m := r.mapper.PurchaseOrderToModel(order)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*order = *r.mapper.PurchaseOrderToEntity(m)
	return nil
}

func (r *PurchaseOrderRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PurchaseOrder, error) {
	var models []*model.PurchaseOrder
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.PurchaseOrder, len(models))
	for i, m := range models {
		entities[i] = r.mapper.PurchaseOrderToEntity(m)
	}
	return entities, nil
}
