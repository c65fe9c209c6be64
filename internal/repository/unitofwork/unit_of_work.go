package unitofwork

import (
	"context"

	"fleet-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
	InTransaction() bool

	// SavePoint and RollbackTo isolate one step inside an open transaction,
	// so its writes can be undone without losing the rest of the transaction.
	SavePoint(name string) error
	RollbackTo(name string) error

	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
	ActionRepository() contract.ActionRepository
	SubscriptionRepository() contract.SubscriptionRepository

	VehicleRepository() contract.VehicleRepository
	SparePartRepository() contract.SparePartRepository
	MaintenanceOrderRepository() contract.MaintenanceOrderRepository
	PurchaseOrderRepository() contract.PurchaseOrderRepository
}
