package memory

import (
	"time"

	"fleet-assistant-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// StatsCache keeps the latest fleet counts per company so every message does
// not rerun the aggregate queries.
type StatsCache struct {
	cache *cache.Cache
}

func NewStatsCache(ttl, cleanupInterval time.Duration) *StatsCache {
	return &StatsCache{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (r *StatsCache) Save(companyId uuid.UUID, stats *entity.FleetStats) {
	copied := *stats
	r.cache.Set(companyId.String(), &copied, cache.DefaultExpiration)
}

func (r *StatsCache) Get(companyId uuid.UUID) (*entity.FleetStats, bool) {
	if x, found := r.cache.Get(companyId.String()); found {
		copied := *x.(*entity.FleetStats)
		return &copied, true
	}
	return nil, false
}

func (r *StatsCache) Delete(companyId uuid.UUID) {
	r.cache.Delete(companyId.String())
}
