package entity

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when a sync run id is not in the journal
var ErrRunNotFound = errors.New("sync run not found")

// SyncResult holds the aggregate counts of one sync cycle
type SyncResult struct {
	Updated          int            `json:"updated"`
	Skipped          int            `json:"skipped"`
	Errors           int            `json:"errors"`
	UniqueCurrencies int            `json:"unique_currencies"`
	Interrupted      bool           `json:"interrupted,omitempty"`
	SourceUsage      map[string]int `json:"source_usage,omitempty"`
	Unpriced         []CurrencyCode `json:"unpriced,omitempty"`
}

// SyncRun is the journal entry for one scheduled or triggered cycle
type SyncRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Records    int        `json:"records"`
	Result     SyncResult `json:"result"`
	Error      string     `json:"error,omitempty"`
}

// Duration returns how long the run took
func (r SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
