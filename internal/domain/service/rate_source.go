package service

import (
	"context"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
)

// RateSource produces a rate for a currency. Provider failures are absorbed
// by the source and reported as ok == false.
type RateSource interface {
	Name() string
	Rate(ctx context.Context, code entity.CurrencyCode) (entity.RateEntry, bool)
}

// SnapshotFetcher retrieves the full rate set of a provider in one request
type SnapshotFetcher interface {
	FetchRates(ctx context.Context) (map[entity.CurrencyCode]float64, error)
}

// RateResolver resolves a currency to a rate through whatever sources it owns
type RateResolver interface {
	Resolve(ctx context.Context, code entity.CurrencyCode) (entity.RateEntry, error)
}
