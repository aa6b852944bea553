// Package service internal/application/service/sync_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/domain/repository"
	"github.com/damon-houk/notion-rate-sync/internal/domain/service"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/metrics"
	"github.com/google/uuid"
)

// DefaultWriteDelay is the pause between consecutive write-backs
const DefaultWriteDelay = 100 * time.Millisecond

// SyncService reads every record, resolves each distinct currency once and
// writes the rates back
type SyncService struct {
	records    repository.RecordRepository
	resolver   service.RateResolver
	extractor  *CurrencyFieldExtractor
	runs       repository.SyncRunRepository
	writeDelay time.Duration
	logger     logger.Logger
	now        func() time.Time
}

// NewSyncService creates a new sync service. runs may be nil to disable the
// run journal.
func NewSyncService(
	records repository.RecordRepository,
	resolver service.RateResolver,
	extractor *CurrencyFieldExtractor,
	runs repository.SyncRunRepository,
	writeDelay time.Duration,
	log logger.Logger,
) *SyncService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if extractor == nil {
		extractor = NewCurrencyFieldExtractor(nil, log)
	}
	if writeDelay < 0 {
		writeDelay = 0
	}

	return &SyncService{
		records:    records,
		resolver:   resolver,
		extractor:  extractor,
		runs:       runs,
		writeDelay: writeDelay,
		logger:     log,
		now:        time.Now,
	}
}

// Sync runs one cycle over every record in the store. The error is non-nil
// only when the records could not be read; per-record problems are counted
// in the run result.
func (s *SyncService) Sync(ctx context.Context) (*entity.SyncRun, error) {
	run := &entity.SyncRun{
		ID:        uuid.New().String(),
		StartedAt: s.now(),
	}
	log := s.logger.WithField("run_id", run.ID)

	log.Info("Starting rate sync", nil)

	records, err := s.records.QueryAll(ctx)
	if err != nil {
		run.FinishedAt = s.now()
		run.Error = err.Error()
		s.finish(ctx, log, run, "failed")
		return run, fmt.Errorf("failed to query records: %w", err)
	}

	run.Records = len(records)
	if len(records) == 0 {
		log.Warn("No records to process", nil)
	}

	run.Result = s.SyncRecords(ctx, records)
	run.FinishedAt = s.now()

	status := "ok"
	if run.Result.Interrupted {
		status = "interrupted"
	}
	s.finish(ctx, log, run, status)

	return run, nil
}

// SyncRecords resolves and writes rates for records. Rates are resolved once
// per distinct currency, not once per record.
func (s *SyncService) SyncRecords(ctx context.Context, records []entity.Record) entity.SyncResult {
	result := entity.SyncResult{SourceUsage: make(map[string]int)}

	type pendingWrite struct {
		id   string
		code entity.CurrencyCode
	}

	// Extract
	pending := make([]pendingWrite, 0, len(records))
	for _, record := range records {
		code, ok := s.extractor.Extract(record.Currency)
		if !ok {
			s.logger.Warn("Record skipped: currency could not be determined", map[string]interface{}{
				"record_id": record.ID,
				"type":      record.Currency.RawType,
			})
			result.Skipped++
			continue
		}
		pending = append(pending, pendingWrite{id: record.ID, code: code})
	}

	// Deduplicate, keeping first-seen order
	seen := make(map[entity.CurrencyCode]bool)
	var codes []entity.CurrencyCode
	for _, p := range pending {
		if !seen[p.code] {
			seen[p.code] = true
			codes = append(codes, p.code)
		}
	}
	result.UniqueCurrencies = len(codes)

	// Resolve each distinct currency once
	rates := make(map[entity.CurrencyCode]entity.RateEntry, len(codes))
	for _, code := range codes {
		if ctx.Err() != nil {
			break
		}

		entry, err := s.resolver.Resolve(ctx, code)
		if err != nil {
			if !errors.Is(err, entity.ErrUnresolved) {
				s.logger.Error("Rate resolution failed", map[string]interface{}{
					"currency": code,
					"error":    err.Error(),
				})
			}
			result.Unpriced = append(result.Unpriced, code)
			continue
		}

		rates[code] = entry
		result.SourceUsage[entry.Source]++
	}

	// Write back
	writes := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}

		entry, ok := rates[p.code]
		if !ok {
			s.logger.Warn("Record not updated: no rate for currency", map[string]interface{}{
				"record_id": p.id,
				"currency":  p.code,
			})
			result.Errors++
			continue
		}

		if writes > 0 && !s.pause(ctx) {
			result.Interrupted = true
			break
		}
		writes++

		// An in-flight write is allowed to finish after cancellation
		if err := s.records.UpdateRate(context.WithoutCancel(ctx), p.id, entry.Rate); err != nil {
			s.logger.Error("Failed to update record", map[string]interface{}{
				"record_id": p.id,
				"currency":  p.code,
				"rate":      entry.Rate,
				"error":     err.Error(),
			})
			result.Errors++
			continue
		}

		result.Updated++
		s.logger.Info("Record rate updated", map[string]interface{}{
			"record_id": p.id,
			"currency":  p.code,
			"rate":      entry.Rate,
			"source":    entry.Source,
		})
	}

	metrics.RecordOutcome("updated", result.Updated)
	metrics.RecordOutcome("skipped", result.Skipped)
	metrics.RecordOutcome("error", result.Errors)

	return result
}

// pause waits for the write delay and reports false if ctx was cancelled first
func (s *SyncService) pause(ctx context.Context) bool {
	if s.writeDelay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(s.writeDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *SyncService) finish(ctx context.Context, log logger.Logger, run *entity.SyncRun, status string) {
	log.Info("Rate sync finished", map[string]interface{}{
		"status":            status,
		"records":           run.Records,
		"updated":           run.Result.Updated,
		"skipped":           run.Result.Skipped,
		"errors":            run.Result.Errors,
		"unique_currencies": run.Result.UniqueCurrencies,
		"source_usage":      run.Result.SourceUsage,
		"duration_ms":       run.Duration().Milliseconds(),
	})

	metrics.RecordCycle(status, run.Duration(), run.Result.UniqueCurrencies)

	if s.runs == nil {
		return
	}
	if err := s.runs.Store(context.WithoutCancel(ctx), run); err != nil {
		log.Error("Failed to store sync run", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
