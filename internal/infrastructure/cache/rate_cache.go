package cache

import (
	"context"
	"sync"
	"time"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/domain/service"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/metrics"
)

// DefaultTTL is how long a fetched rate set stays fresh
const DefaultTTL = time.Hour

// RateCache holds the most recent rate set of one provider with a single
// fetch timestamp. A refresh replaces the set wholesale; a failed refresh
// keeps the previous set and timestamp.
type RateCache struct {
	name    string
	fetcher service.SnapshotFetcher
	ttl     time.Duration
	now     func() time.Time
	logger  logger.Logger

	// refreshMutex serializes GetOrRefresh so at most one fetch is in flight
	refreshMutex sync.Mutex
	mutex        sync.RWMutex
	rates        map[entity.CurrencyCode]float64
	fetchedAt    time.Time
}

// NewRateCache creates an empty cache in front of fetcher
func NewRateCache(name string, fetcher service.SnapshotFetcher, ttl time.Duration, log logger.Logger) *RateCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &RateCache{
		name:    name,
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		logger:  log.WithField("cache", name),
		rates:   make(map[entity.CurrencyCode]float64),
	}
}

// SetClock replaces the time source used for freshness checks
func (c *RateCache) SetClock(now func() time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.now = now
}

// Name returns the cache name
func (c *RateCache) Name() string {
	return c.name
}

// GetOrRefresh returns the cached rates, fetching a new set first when none
// has been fetched yet or the current one is older than the TTL
func (c *RateCache) GetOrRefresh(ctx context.Context) map[entity.CurrencyCode]float64 {
	c.refreshMutex.Lock()
	defer c.refreshMutex.Unlock()

	if c.isStale() {
		_ = c.refresh(ctx)
	}

	return c.Snapshot().Rates
}

// Refresh fetches a new rate set regardless of freshness
func (c *RateCache) Refresh(ctx context.Context) error {
	c.refreshMutex.Lock()
	defer c.refreshMutex.Unlock()

	return c.refresh(ctx)
}

// Snapshot returns a copy of the cached rates and their fetch time without
// refreshing
func (c *RateCache) Snapshot() entity.RateSnapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	rates := make(map[entity.CurrencyCode]float64, len(c.rates))
	for code, rate := range c.rates {
		rates[code] = rate
	}

	return entity.RateSnapshot{Rates: rates, FetchedAt: c.fetchedAt}
}

func (c *RateCache) isStale() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.fetchedAt.IsZero() {
		return true
	}
	return c.now().Sub(c.fetchedAt) > c.ttl
}

func (c *RateCache) refresh(ctx context.Context) error {
	c.logger.Info("Refreshing rate cache", nil)

	rates, err := c.fetcher.FetchRates(ctx)
	if err != nil {
		c.logger.Error("Rate cache refresh failed, keeping previous rates", map[string]interface{}{
			"error":          err.Error(),
			"previous_rates": c.Size(),
		})
		metrics.RecordCacheRefresh(c.name, false, time.Time{})
		return err
	}

	fresh := make(map[entity.CurrencyCode]float64, len(rates))
	for code, rate := range rates {
		fresh[code] = rate
	}

	c.mutex.Lock()
	c.rates = fresh
	c.fetchedAt = c.now()
	fetchedAt := c.fetchedAt
	c.mutex.Unlock()

	c.logger.Info("Rate cache refreshed", map[string]interface{}{
		"rates":      len(fresh),
		"fetched_at": fetchedAt.Format(time.RFC3339),
	})
	metrics.RecordCacheRefresh(c.name, true, fetchedAt)

	return nil
}

// Size returns the number of cached rates
func (c *RateCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.rates)
}
