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

// OpportunityEntry is the stored form of an opportunity within a run
type OpportunityEntry struct {
	RunID       string
	Index       int
	Opportunity models.Opportunity
}

// OpportunityStorage implements the OpportunityStorage interface for Badger
type OpportunityStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewOpportunityStorage creates a new OpportunityStorage instance
func NewOpportunityStorage(db *BadgerDB, logger arbor.ILogger) interfaces.OpportunityStorage {
	return &OpportunityStorage{
		db:     db,
		logger: logger,
	}
}

// SaveOpportunities replaces the opportunities of a run
func (s *OpportunityStorage) SaveOpportunities(ctx context.Context, runID string, opportunities []models.Opportunity) error {
	if err := s.db.Store().DeleteMatching(&OpportunityEntry{}, badgerhold.Where("RunID").Eq(runID)); err != nil {
		return fmt.Errorf("failed to clear opportunities of run %s: %w", runID, err)
	}

	err := s.db.upsertBatch(len(opportunities), func(i int) (string, interface{}) {
		o := opportunities[i]
		return o.Key(runID, i), &OpportunityEntry{RunID: runID, Index: i, Opportunity: o}
	})
	if err != nil {
		return fmt.Errorf("failed to save opportunities: %w", err)
	}
	return nil
}

// GetOpportunities returns the opportunities of a run in their original order
func (s *OpportunityStorage) GetOpportunities(ctx context.Context, runID string) ([]models.Opportunity, error) {
	var entries []OpportunityEntry
	if err := s.db.Store().Find(&entries, badgerhold.Where("RunID").Eq(runID)); err != nil {
		return nil, fmt.Errorf("failed to get opportunities of run %s: %w", runID, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })

	var out []models.Opportunity
	for _, e := range entries {
		out = append(out, e.Opportunity)
	}
	return out, nil
}
