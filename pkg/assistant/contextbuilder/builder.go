// Package contextbuilder assembles what the assistant knows before it answers:
// a fleet summary for the actor's company and the recent conversation turns.
package contextbuilder

import (
	"context"
	"fmt"
	"time"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/internal/repository/memory"
	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/pkg/assistant/tools"

	"github.com/google/uuid"
)

const (
	module = "ContextBuilder"

	DefaultMemoryLimit = 8
	MaxMemoryLimit     = 50
	sectionLimit       = 5

	StatsTTL          = 30 * time.Second
	StatsCleanupEvery = 2 * time.Minute
)

// GenericSummary is used when live data could not be read.
const GenericSummary = "Live fleet data is unavailable right now. Answer from the conversation and ask the user for the specifics you need."

type Options struct {
	ConversationId *uuid.UUID
	MemoryLimit    int
}

type Builder struct {
	uowFactory  unitofwork.RepositoryFactory
	storeFor    func(unitofwork.UnitOfWork) tools.Store
	cache       *memory.StatsCache
	logger      logger.ILogger
	memoryLimit int
}

func NewBuilder(
	uowFactory unitofwork.RepositoryFactory,
	storeFor func(unitofwork.UnitOfWork) tools.Store,
	cache *memory.StatsCache,
	log logger.ILogger,
	memoryLimit int,
) *Builder {
	if cache == nil {
		cache = memory.NewStatsCache(StatsTTL, StatsCleanupEvery)
	}
	return &Builder{
		uowFactory:  uowFactory,
		storeFor:    storeFor,
		cache:       cache,
		logger:      log,
		memoryLimit: ClampMemoryLimit(memoryLimit),
	}
}

// ClampMemoryLimit applies the default to zero or negative values and caps
// the rest.
func ClampMemoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultMemoryLimit
	}
	if limit > MaxMemoryLimit {
		return MaxMemoryLimit
	}
	return limit
}

// Build never fails on data errors. Each failing section is logged, left empty
// and marks the snapshot degraded.
func (b *Builder) Build(ctx context.Context, actor entity.Actor, opts Options) *Snapshot {
	limit := b.memoryLimit
	if opts.MemoryLimit != 0 {
		limit = ClampMemoryLimit(opts.MemoryLimit)
	}

	uow := b.uowFactory.NewUnitOfWork(ctx)
	store := b.storeFor(uow)
	snap := &Snapshot{
		CriticalParts: []*entity.SparePart{},
		RecentOrders:  []*entity.MaintenanceOrder{},
		History:       []*entity.Message{},
		MemoryLimit:   limit,
		GeneratedAt:   time.Now(),
	}

	stats, err := b.stats(ctx, store, actor.CompanyId)
	if err != nil {
		b.degrade(snap, "fleet stats", actor, err)
	} else {
		snap.Stats = stats
	}

	parts, err := store.CriticalParts(ctx, actor.CompanyId, sectionLimit)
	if err != nil {
		b.degrade(snap, "critical parts", actor, err)
	} else {
		snap.CriticalParts = parts
	}

	orders, err := store.RecentMaintenanceOrders(ctx, actor.CompanyId, sectionLimit)
	if err != nil {
		b.degrade(snap, "recent orders", actor, err)
	} else {
		snap.RecentOrders = orders
	}

	if opts.ConversationId != nil {
		history, err := uow.MessageRepository().FindWindow(ctx, *opts.ConversationId, limit, nil)
		if err != nil {
			b.degrade(snap, "history", actor, err)
		} else {
			snap.History = history
		}
	}

	if snap.Stats != nil && !snap.Degraded {
		snap.Summary = summarize(snap.Stats)
	} else {
		snap.Summary = GenericSummary
	}
	return snap
}

// Invalidate drops the cached stats of a company after a write.
func (b *Builder) Invalidate(companyId uuid.UUID) {
	b.cache.Delete(companyId)
}

func (b *Builder) stats(ctx context.Context, store tools.Store, companyId uuid.UUID) (*entity.FleetStats, error) {
	if cached, ok := b.cache.Get(companyId); ok {
		return cached, nil
	}
	stats, err := store.FleetStats(ctx, companyId)
	if err != nil {
		return nil, err
	}
	b.cache.Save(companyId, stats)
	return stats, nil
}

func (b *Builder) degrade(snap *Snapshot, section string, actor entity.Actor, err error) {
	snap.Degraded = true
	b.logger.Warn(module, "Context section unavailable", map[string]interface{}{
		"section":    section,
		"company_id": actor.CompanyId,
		"error":      err.Error(),
	})
}

func summarize(s *entity.FleetStats) string {
	return fmt.Sprintf(
		"The fleet has %d vehicles: %d active, %d in maintenance. %d spare parts are at or below minimum stock. %d maintenance orders are open or in progress.",
		s.VehiclesTotal, s.VehiclesActive, s.VehiclesInMaintenance, s.CriticalParts, s.OpenMaintenanceOrders,
	)
}
