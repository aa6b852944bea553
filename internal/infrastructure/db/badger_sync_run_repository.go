package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/dgraph-io/badger/v3"
)

const (
	runKeyPrefix   = "run:"
	runIndexPrefix = "runts:"
)

// BadgerSyncRunRepository implements the sync-run journal using BadgerDB
type BadgerSyncRunRepository struct {
	db *badger.DB
}

// NewBadgerSyncRunRepository creates a new BadgerDB sync-run repository
func NewBadgerSyncRunRepository(db *badger.DB) *BadgerSyncRunRepository {
	return &BadgerSyncRunRepository{db: db}
}

func runKey(id string) []byte {
	return []byte(runKeyPrefix + id)
}

// runIndexKey orders runs by start time; the zero-padded nanoseconds sort
// lexicographically
func runIndexKey(run *entity.SyncRun) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", runIndexPrefix, run.StartedAt.UnixNano(), run.ID))
}

// Store saves a sync run and its time index entry
func (r *BadgerSyncRunRepository) Store(ctx context.Context, run *entity.SyncRun) error {
	if run.ID == "" {
		return errors.New("sync run id is required")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal sync run: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(runKey(run.ID), data); err != nil {
			return err
		}
		return txn.Set(runIndexKey(run), []byte(run.ID))
	})
	if err != nil {
		return fmt.Errorf("failed to store sync run: %w", err)
	}

	return nil
}

// FindByID retrieves a sync run by its id
func (r *BadgerSyncRunRepository) FindByID(ctx context.Context, id string) (*entity.SyncRun, error) {
	var run entity.SyncRun

	err := r.db.View(func(txn *badger.Txn) error {
		return getRun(txn, id, &run)
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", entity.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve sync run: %w", err)
	}

	return &run, nil
}

// ListRecent returns up to limit runs, newest first
func (r *BadgerSyncRunRepository) ListRecent(ctx context.Context, limit int) ([]*entity.SyncRun, error) {
	if limit <= 0 {
		return []*entity.SyncRun{}, nil
	}

	runs := make([]*entity.SyncRun, 0, limit)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runIndexPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek lands on the last key <= the seek key
		for it.Seek([]byte(runIndexPrefix + "\xff")); it.Valid() && len(runs) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			var run entity.SyncRun
			if err := getRun(txn, string(id), &run); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			runs = append(runs, &run)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}

	return runs, nil
}

func getRun(txn *badger.Txn, id string, run *entity.SyncRun) error {
	item, err := txn.Get(runKey(id))
	if err != nil {
		return err
	}

	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, run)
	})
}
