package unitofwork

import (
	"context"
	"fmt"

	"fleet-assistant-be/internal/repository/contract"
	"fleet-assistant-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db  *gorm.DB
	tx  *gorm.DB // Active transaction, nil outside Begin/Commit
	ctx context.Context
}

func NewUnitOfWork(ctx context.Context, db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db:  db,
		ctx: ctx,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db.WithContext(u.ctx)
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) InTransaction() bool {
	return u.tx != nil
}

func (u *UnitOfWorkImpl) SavePoint(name string) error {
	if u.tx == nil {
		return fmt.Errorf("savepoint %s requires a transaction", name)
	}
	return u.tx.SavePoint(name).Error
}

func (u *UnitOfWorkImpl) RollbackTo(name string) error {
	if u.tx == nil {
		return fmt.Errorf("rollback to %s requires a transaction", name)
	}
	return u.tx.RollbackTo(name).Error
}

// Repository Accessors

func (u *UnitOfWorkImpl) ConversationRepository() contract.ConversationRepository {
	return implementation.NewConversationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MessageRepository() contract.MessageRepository {
	return implementation.NewMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ActionRepository() contract.ActionRepository {
	return implementation.NewActionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SubscriptionRepository() contract.SubscriptionRepository {
	return implementation.NewSubscriptionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) VehicleRepository() contract.VehicleRepository {
	return implementation.NewVehicleRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SparePartRepository() contract.SparePartRepository {
	return implementation.NewSparePartRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MaintenanceOrderRepository() contract.MaintenanceOrderRepository {
	return implementation.NewMaintenanceOrderRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PurchaseOrderRepository() contract.PurchaseOrderRepository {
	return implementation.NewPurchaseOrderRepository(u.getDB())
}
