package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/interfaces"
	"github.com/ternarybob/condor/internal/models"
)

// Key layout:
//
//	run:data:{id}                 -> JSON encoded PipelineRun
//	run:index:{startedAt}:{id}    -> empty, ordered by start time
const (
	runDataPrefix  = "run:data:"
	runIndexPrefix = "run:index:"
	runIndexLayout = "20060102T150405.000000000"
)

// RunStorage implements the RunStorage interface directly on Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

func runDataKey(id string) []byte {
	return []byte(runDataPrefix + id)
}

func runIndexKey(startedAt time.Time, id string) []byte {
	return []byte(runIndexPrefix + startedAt.UTC().Format(runIndexLayout) + ":" + id)
}

// SaveRun stores or replaces a run
func (s *RunStorage) SaveRun(ctx context.Context, run *models.PipelineRun) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	return s.db.Badger().Update(func(txn *badger.Txn) error {
		if err := txn.Set(runDataKey(run.ID), data); err != nil {
			return err
		}
		return txn.Set(runIndexKey(run.StartedAt, run.ID), []byte{})
	})
}

// GetRun loads a run by id
func (s *RunStorage) GetRun(ctx context.Context, id string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	err := s.db.Badger().View(func(txn *badger.Txn) error {
		item, err := txn.Get(runDataKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &run)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero lists all.
func (s *RunStorage) ListRuns(ctx context.Context, limit int) ([]*models.PipelineRun, error) {
	var runs []*models.PipelineRun
	err := s.db.Badger().View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(runIndexPrefix)
		// Reverse iteration seeks from the end of the prefix range
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			id := key[strings.LastIndex(key, ":")+1:]

			item, err := txn.Get(runDataKey(id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}

			var run models.PipelineRun
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			}); err != nil {
				return err
			}
			runs = append(runs, &run)

			if limit > 0 && len(runs) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
