package repository

import (
	"context"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
)

// SyncRunRepository defines the interface for the sync-run journal
type SyncRunRepository interface {
	// Store saves a run
	Store(ctx context.Context, run *entity.SyncRun) error

	// FindByID retrieves a run by its id
	FindByID(ctx context.Context, id string) (*entity.SyncRun, error)

	// ListRecent returns up to limit runs, newest first
	ListRecent(ctx context.Context, limit int) ([]*entity.SyncRun, error)
}
