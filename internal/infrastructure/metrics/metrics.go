package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratesync_records_total",
		Help: "Records processed by sync cycles, by outcome (updated, skipped, error)",
	}, []string{"outcome"})

	syncCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratesync_cycles_total",
		Help: "Sync cycles run, by status (ok, failed, interrupted)",
	}, []string{"status"})

	syncCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ratesync_cycle_duration_seconds",
		Help:    "Wall time of a sync cycle",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	syncUniqueCurrencies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ratesync_unique_currencies",
		Help: "Distinct currencies resolved in the last sync cycle",
	})

	rateResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratesync_rate_resolutions_total",
		Help: "Currency resolutions by the source that produced the rate (unresolved when every source failed)",
	}, []string{"source"})

	cacheRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratesync_cache_refreshes_total",
		Help: "Rate cache refresh attempts, by cache and result",
	}, []string{"cache", "result"})

	cacheFetchedTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ratesync_cache_fetched_timestamp_seconds",
		Help: "Unix time of the last successful refresh of each rate cache",
	}, []string{"cache"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratesync_http_requests_total",
		Help: "Status API requests, by route and status code",
	}, []string{"route", "code"})
)

// RecordOutcome counts n records with the given outcome
func RecordOutcome(outcome string, n int) {
	if n > 0 {
		syncRecordsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordCycle records the status, duration and currency count of a finished cycle
func RecordCycle(status string, duration time.Duration, uniqueCurrencies int) {
	syncCyclesTotal.WithLabelValues(status).Inc()
	syncCycleDuration.Observe(duration.Seconds())
	syncUniqueCurrencies.Set(float64(uniqueCurrencies))
}

// RecordResolution counts a currency resolved by source
func RecordResolution(source string) {
	rateResolutionsTotal.WithLabelValues(source).Inc()
}

// RecordCacheRefresh counts a refresh attempt of the named cache
func RecordCacheRefresh(cache string, ok bool, fetchedAt time.Time) {
	if !ok {
		cacheRefreshesTotal.WithLabelValues(cache, "failed").Inc()
		return
	}
	cacheRefreshesTotal.WithLabelValues(cache, "ok").Inc()
	cacheFetchedTimestamp.WithLabelValues(cache).Set(float64(fetchedAt.Unix()))
}

// RecordHTTPRequest counts a status API request
func RecordHTTPRequest(route string, code int) {
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
