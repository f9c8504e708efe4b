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

// TechnicalStorage implements the TechnicalStorage interface for Badger
type TechnicalStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTechnicalStorage creates a new TechnicalStorage instance
func NewTechnicalStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TechnicalStorage {
	return &TechnicalStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRecords upserts indicator rows keyed by ticker and date
func (s *TechnicalStorage) SaveRecords(ctx context.Context, records []models.TechnicalRecord) error {
	err := s.db.upsertBatch(len(records), func(i int) (string, interface{}) {
		return records[i].Key(), &records[i]
	})
	if err != nil {
		return fmt.Errorf("failed to save technical records: %w", err)
	}
	s.logger.Debug().Int("rows", len(records)).Msg("Saved technical records")
	return nil
}

// GetRecords returns the rows of one ticker in date order
func (s *TechnicalStorage) GetRecords(ctx context.Context, ticker string) ([]models.TechnicalRecord, error) {
	var records []models.TechnicalRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("Ticker").Eq(ticker)); err != nil {
		return nil, fmt.Errorf("failed to get technical records for %s: %w", ticker, err)
	}
	sortTechnical(records)
	return records, nil
}

// ListRecords returns the whole table ordered by ticker then date
func (s *TechnicalStorage) ListRecords(ctx context.Context) ([]models.TechnicalRecord, error) {
	var records []models.TechnicalRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list technical records: %w", err)
	}
	sortTechnical(records)
	return records, nil
}

// CountRecords returns the number of stored rows
func (s *TechnicalStorage) CountRecords(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.TechnicalRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count technical records: %w", err)
	}
	return int(count), nil
}

// Clear removes every row
func (s *TechnicalStorage) Clear(ctx context.Context) error {
	return s.db.Store().DeleteMatching(&models.TechnicalRecord{}, nil)
}

func sortTechnical(records []models.TechnicalRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Ticker != records[j].Ticker {
			return records[i].Ticker < records[j].Ticker
		}
		return records[i].Date.Before(records[j].Date)
	})
}
