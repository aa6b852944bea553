// Package repository internal/domain/repository/record_repository.go
package repository

import (
	"context"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
)

// RecordRepository defines the interface for the external document store
type RecordRepository interface {
	// QueryAll pages through the store and returns every record
	QueryAll(ctx context.Context) ([]entity.Record, error)

	// UpdateRate writes a rate into the record's rate property
	UpdateRate(ctx context.Context, id string, rate float64) error
}
