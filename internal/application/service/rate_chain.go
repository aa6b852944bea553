package service

import (
	"context"
	"fmt"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/domain/service"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/metrics"
)

// RateSourceChain resolves a currency by asking its sources in priority
// order. The first source with a value wins.
type RateSourceChain struct {
	sources []service.RateSource
	logger  logger.Logger
}

// NewRateSourceChain creates a chain; sources[0] is the primary source
func NewRateSourceChain(log logger.Logger, sources ...service.RateSource) *RateSourceChain {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &RateSourceChain{
		sources: sources,
		logger:  log,
	}
}

// Resolve returns the rate of code in local currency. The local currency is
// always 1.0 and never touches a source. When every source fails the error
// wraps entity.ErrUnresolved.
func (c *RateSourceChain) Resolve(ctx context.Context, code entity.CurrencyCode) (entity.RateEntry, error) {
	if code.IsLocal() {
		return entity.RateEntry{Currency: code, Rate: 1.0, Source: SourceLocal}, nil
	}

	for i, source := range c.sources {
		entry, ok := source.Rate(ctx, code)
		if !ok {
			c.logger.Debug("Source has no rate", map[string]interface{}{
				"currency": code,
				"source":   source.Name(),
			})
			continue
		}

		entry.Currency = code
		entry.Rate = entity.RoundRate(entry.Rate)
		if entry.Source == "" {
			entry.Source = source.Name()
		}

		fields := map[string]interface{}{
			"currency": code,
			"rate":     entry.Rate,
			"source":   entry.Source,
		}
		if i == 0 {
			c.logger.Info("Rate resolved", fields)
		} else {
			c.logger.Warn("Rate resolved from non-primary source", fields)
		}

		metrics.RecordResolution(entry.Source)
		return entry, nil
	}

	c.logger.Error("Rate not found in any source", map[string]interface{}{
		"currency": code,
		"sources":  len(c.sources),
	})
	metrics.RecordResolution("unresolved")

	return entity.RateEntry{}, fmt.Errorf("%w: %s", entity.ErrUnresolved, code)
}
