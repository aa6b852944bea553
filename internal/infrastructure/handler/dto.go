package handler

import (
	"time"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// HealthResponse represents the response for the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
}

// RunResponse represents one sync run
type RunResponse struct {
	ID               string         `json:"id"`
	StartedAt        string         `json:"started_at"`
	FinishedAt       string         `json:"finished_at"`
	DurationMs       int64          `json:"duration_ms"`
	Records          int            `json:"records"`
	Updated          int            `json:"updated"`
	Skipped          int            `json:"skipped"`
	Errors           int            `json:"errors"`
	UniqueCurrencies int            `json:"unique_currencies"`
	Interrupted      bool           `json:"interrupted,omitempty"`
	SourceUsage      map[string]int `json:"source_usage,omitempty"`
	Unpriced         []string       `json:"unpriced,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// RunsResponse represents the response for the run list endpoint
type RunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

// TriggerResponse represents the response for the manual sync endpoint
type TriggerResponse struct {
	Status string `json:"status"`
}

// CacheResponse represents the contents of one rate cache
type CacheResponse struct {
	Name      string             `json:"name"`
	FetchedAt string             `json:"fetched_at,omitempty"`
	Rates     map[string]float64 `json:"rates"`
}

// RatesResponse represents the response for the rates endpoint
type RatesResponse struct {
	Caches []CacheResponse `json:"caches"`
}

func newRunResponse(run *entity.SyncRun) RunResponse {
	resp := RunResponse{
		ID:               run.ID,
		StartedAt:        run.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:       run.FinishedAt.UTC().Format(time.RFC3339),
		DurationMs:       run.Duration().Milliseconds(),
		Records:          run.Records,
		Updated:          run.Result.Updated,
		Skipped:          run.Result.Skipped,
		Errors:           run.Result.Errors,
		UniqueCurrencies: run.Result.UniqueCurrencies,
		Interrupted:      run.Result.Interrupted,
		SourceUsage:      run.Result.SourceUsage,
		Error:            run.Error,
	}
	for _, code := range run.Result.Unpriced {
		resp.Unpriced = append(resp.Unpriced, code.String())
	}
	return resp
}

func newCacheResponse(name string, snapshot entity.RateSnapshot) CacheResponse {
	resp := CacheResponse{
		Name:  name,
		Rates: make(map[string]float64, len(snapshot.Rates)),
	}
	if !snapshot.FetchedAt.IsZero() {
		resp.FetchedAt = snapshot.FetchedAt.UTC().Format(time.RFC3339)
	}
	for code, rate := range snapshot.Rates {
		resp.Rates[code.String()] = rate
	}
	return resp
}
