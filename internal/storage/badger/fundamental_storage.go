package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/condor/internal/interfaces"
	"github.com/ternarybob/condor/internal/models"
)

// FundamentalStorage implements the FundamentalStorage interface for Badger
type FundamentalStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewFundamentalStorage creates a new FundamentalStorage instance
func NewFundamentalStorage(db *BadgerDB, logger arbor.ILogger) interfaces.FundamentalStorage {
	return &FundamentalStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRecords upserts annual records keyed by ticker and year
func (s *FundamentalStorage) SaveRecords(ctx context.Context, records []models.FundamentalRecord) error {
	err := s.db.upsertBatch(len(records), func(i int) (string, interface{}) {
		return records[i].Key(), &records[i]
	})
	if err != nil {
		return fmt.Errorf("failed to save fundamentals: %w", err)
	}
	return nil
}

// GetRecord returns the record of one ticker and year
func (s *FundamentalStorage) GetRecord(ctx context.Context, ticker string, year int) (*models.FundamentalRecord, error) {
	key := models.FundamentalRecord{Ticker: ticker, Year: year}.Key()
	var rec models.FundamentalRecord
	err := s.db.Store().Get(key, &rec)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fundamentals %s: %w", key, err)
	}
	return &rec, nil
}

// ListRecords returns every record ordered by ticker then year
func (s *FundamentalStorage) ListRecords(ctx context.Context) ([]models.FundamentalRecord, error) {
	var records []models.FundamentalRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list fundamentals: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Ticker != records[j].Ticker {
			return records[i].Ticker < records[j].Ticker
		}
		return records[i].Year < records[j].Year
	})
	return records, nil
}
