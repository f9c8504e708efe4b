package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/interfaces"
	"github.com/ternarybob/condor/internal/models"
)

// ProfileEntry is the stored form of a profiled roster row
type ProfileEntry struct {
	Ticker      string
	RunID       string
	Position    int
	Values      []string
	Cluster     models.NullInt
	Personality models.Personality
}

// ProfileStorage implements the ProfileStorage interface for Badger
type ProfileStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProfileStorage creates a new ProfileStorage instance
func NewProfileStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProfileStorage {
	return &ProfileStorage{
		db:     db,
		logger: logger,
	}
}

// SaveProfiles replaces the stored profiles with rows, keyed by ticker
func (s *ProfileStorage) SaveProfiles(ctx context.Context, runID string, rows []models.ProfileRow) error {
	if err := s.db.Store().DeleteMatching(&ProfileEntry{}, nil); err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}

	err := s.db.upsertBatch(len(rows), func(i int) (string, interface{}) {
		r := rows[i]
		return r.Entry.Ticker, &ProfileEntry{
			Ticker:      r.Entry.Ticker,
			RunID:       runID,
			Position:    i,
			Values:      r.Entry.Values,
			Cluster:     r.Cluster,
			Personality: r.Personality,
		}
	})
	if err != nil {
		return fmt.Errorf("failed to save profiles: %w", err)
	}
	s.logger.Debug().Str("run_id", runID).Int("rows", len(rows)).Msg("Saved profiles")
	return nil
}

// ListProfiles returns the stored profiles in roster order
func (s *ProfileStorage) ListProfiles(ctx context.Context) ([]models.ProfileRow, error) {
	var entries []ProfileEntry
	if err := s.db.Store().Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })

	rows := make([]models.ProfileRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.ProfileRow{
			Entry:       models.RosterEntry{Ticker: e.Ticker, Values: e.Values},
			Cluster:     e.Cluster,
			Personality: e.Personality,
		})
	}
	return rows, nil
}
