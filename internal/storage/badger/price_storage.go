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

// PriceStorage implements the PriceStorage interface for Badger
type PriceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPriceStorage creates a new PriceStorage instance
func NewPriceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PriceStorage {
	return &PriceStorage{
		db:     db,
		logger: logger,
	}
}

// SaveBars upserts bars keyed by ticker and date
func (s *PriceStorage) SaveBars(ctx context.Context, bars []models.PriceBar) error {
	err := s.db.upsertBatch(len(bars), func(i int) (string, interface{}) {
		return bars[i].Key(), &bars[i]
	})
	if err != nil {
		return fmt.Errorf("failed to save price bars: %w", err)
	}
	s.logger.Debug().Int("rows", len(bars)).Msg("Saved price bars")
	return nil
}

// GetBars returns the bars of one ticker in date order
func (s *PriceStorage) GetBars(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	var bars []models.PriceBar
	if err := s.db.Store().Find(&bars, badgerhold.Where("Ticker").Eq(ticker)); err != nil {
		return nil, fmt.Errorf("failed to get bars for %s: %w", ticker, err)
	}
	sortBars(bars)
	return bars, nil
}

// ListBars returns every bar ordered by ticker then date
func (s *PriceStorage) ListBars(ctx context.Context) ([]models.PriceBar, error) {
	var bars []models.PriceBar
	if err := s.db.Store().Find(&bars, nil); err != nil {
		return nil, fmt.Errorf("failed to list bars: %w", err)
	}
	sortBars(bars)
	return bars, nil
}

// CountBars returns the number of stored bars
func (s *PriceStorage) CountBars(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.PriceBar{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count bars: %w", err)
	}
	return int(count), nil
}

// Clear removes every bar
func (s *PriceStorage) Clear(ctx context.Context) error {
	return s.db.Store().DeleteMatching(&models.PriceBar{}, nil)
}

func sortBars(bars []models.PriceBar) {
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Ticker != bars[j].Ticker {
			return bars[i].Ticker < bars[j].Ticker
		}
		return bars[i].Date.Before(bars[j].Date)
	})
}
