// Package testutil wires the real repositories to an in-memory sqlite
// database for package tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/model"
	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/pkg/database"
	"fleet-assistant-be/pkg/events"
	"fleet-assistant-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated, empty database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewSqliteDB("file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.Models()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func NewFactory(t *testing.T) (unitofwork.RepositoryFactory, *gorm.DB) {
	db := NewDB(t)
	return unitofwork.NewRepositoryFactory(db), db
}

func NewActor(role entity.Role) entity.Actor {
	return entity.Actor{UserId: uuid.New(), CompanyId: uuid.New(), Role: role}
}

// Colleague is another user of the same company.
func Colleague(of entity.Actor, role entity.Role) entity.Actor {
	return entity.Actor{UserId: uuid.New(), CompanyId: of.CompanyId, Role: role}
}

type Fleet struct {
	Vehicle *entity.Vehicle
	Part    *entity.SparePart
	Order   *entity.MaintenanceOrder
}

// SeedFleet creates one active vehicle, one critical part and one open order
// for the company.
func SeedFleet(t *testing.T, factory unitofwork.RepositoryFactory, companyId uuid.UUID) Fleet {
	t.Helper()
	ctx := context.Background()
	uow := factory.NewUnitOfWork(ctx)

	vehicle := &entity.Vehicle{CompanyId: companyId, Plate: "B 1234 XY", Make: "Toyota", Model: "Hilux", Year: 2021, Status: entity.VehicleStatusActive}
	require.NoError(t, uow.VehicleRepository().Create(ctx, vehicle))

	part := &entity.SparePart{CompanyId: companyId, Sku: "BRK-PAD-F", Name: "Front brake pads", Stock: 2, MinStock: 4}
	require.NoError(t, uow.SparePartRepository().Create(ctx, part))

	order := &entity.MaintenanceOrder{
		CompanyId: companyId,
		VehicleId: vehicle.Id,
		Title:     "Brake check",
		Priority:  entity.MaintenancePriorityMedium,
		Status:    entity.MaintenanceOrderStatusOpen,
	}
	require.NoError(t, uow.MaintenanceOrderRepository().Create(ctx, order))

	return Fleet{Vehicle: vehicle, Part: part, Order: order}
}

// MockProvider is a testify mock of llm.LLMProvider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Complete(ctx context.Context, history []llm.Message, tools []llm.Tool, options ...llm.Option) (*llm.Completion, error) {
	args := m.Called(ctx, history, tools)
	completion, _ := args.Get(0).(*llm.Completion)
	return completion, args.Error(1)
}

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Types lists the event types published so far, in order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
