package service

import (
	"context"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
)

// Source names reported in RateEntry.Source
const (
	SourceLocal        = "local"
	SourceBelarusbank  = "belarusbank"
	SourceOpenExchange = "open_exchange"
	SourceStatic       = "static"
)

// RateCache is the read side of a provider cache
type RateCache interface {
	GetOrRefresh(ctx context.Context) map[entity.CurrencyCode]float64
}

// CachedSource answers from a provider's cached rate set
type CachedSource struct {
	name  string
	cache RateCache
}

// NewCachedSource creates a source backed by cache
func NewCachedSource(name string, cache RateCache) *CachedSource {
	return &CachedSource{name: name, cache: cache}
}

// Name returns the source name
func (s *CachedSource) Name() string {
	return s.name
}

// Rate looks code up in the cached set, refreshing it first when stale
func (s *CachedSource) Rate(ctx context.Context, code entity.CurrencyCode) (entity.RateEntry, bool) {
	rate, ok := s.cache.GetOrRefresh(ctx)[code]
	if !ok || rate <= 0 {
		return entity.RateEntry{}, false
	}
	return entity.RateEntry{Currency: code, Rate: rate, Source: s.name}, true
}

// StaticRatesAsOf is the date the static table was last checked by hand
const StaticRatesAsOf = "2024-01-15"

// DefaultStaticRates returns the last-known BYN rates used when every live
// source fails. These values go stale and must be updated by hand.
func DefaultStaticRates() map[entity.CurrencyCode]float64 {
	return map[entity.CurrencyCode]float64{
		"USD": 2.9,
		"EUR": 3.20,
		"RUB": 0.034,
		"GBP": 4.00,
		"CNY": 0.43,
	}
}

// StaticSource answers from a fixed, hand-maintained table
type StaticSource struct {
	rates  map[entity.CurrencyCode]float64
	logger logger.Logger
}

// NewStaticSource creates a static source; a nil table uses DefaultStaticRates
func NewStaticSource(rates map[entity.CurrencyCode]float64, log logger.Logger) *StaticSource {
	if rates == nil {
		rates = DefaultStaticRates()
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	table := make(map[entity.CurrencyCode]float64, len(rates))
	for code, rate := range rates {
		table[code] = rate
	}

	return &StaticSource{rates: table, logger: log}
}

// Name returns the source name
func (s *StaticSource) Name() string {
	return SourceStatic
}

// Rate returns the fixed rate for code and warns that it may be outdated
func (s *StaticSource) Rate(ctx context.Context, code entity.CurrencyCode) (entity.RateEntry, bool) {
	rate, ok := s.rates[code]
	if !ok {
		return entity.RateEntry{}, false
	}

	s.logger.Warn("Using FIXED rate, update the static rate table to current values", map[string]interface{}{
		"currency": code,
		"rate":     rate,
		"as_of":    StaticRatesAsOf,
	})

	return entity.RateEntry{Currency: code, Rate: rate, Source: SourceStatic}, true
}
