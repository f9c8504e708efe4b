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

// CorrelationCell is one stored cell of a run's correlation matrix
type CorrelationCell struct {
	RunID string
	Row   int
	Col   int
	A     string
	B     string
	R     models.NullFloat
}

// ElbowEntry is one stored point of a run's elbow curve
type ElbowEntry struct {
	RunID   string
	K       int
	Inertia float64
}

// AnalysisStorage implements the AnalysisStorage interface for Badger
type AnalysisStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAnalysisStorage creates a new AnalysisStorage instance
func NewAnalysisStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AnalysisStorage {
	return &AnalysisStorage{
		db:     db,
		logger: logger,
	}
}

// SaveCorrelation stores every cell of matrix under the run
func (s *AnalysisStorage) SaveCorrelation(ctx context.Context, runID string, matrix models.CorrelationMatrix) error {
	n := len(matrix.Columns)
	err := s.db.upsertBatch(n*n, func(i int) (string, interface{}) {
		row, col := i/n, i%n
		return fmt.Sprintf("%s|%03d|%03d", runID, row, col), &CorrelationCell{
			RunID: runID,
			Row:   row,
			Col:   col,
			A:     matrix.Columns[row],
			B:     matrix.Columns[col],
			R:     matrix.Values[row][col],
		}
	})
	if err != nil {
		return fmt.Errorf("failed to save correlation matrix: %w", err)
	}
	return nil
}

// GetCorrelation rebuilds the matrix of a run
func (s *AnalysisStorage) GetCorrelation(ctx context.Context, runID string) (models.CorrelationMatrix, error) {
	var cells []CorrelationCell
	if err := s.db.Store().Find(&cells, badgerhold.Where("RunID").Eq(runID)); err != nil {
		return models.CorrelationMatrix{}, fmt.Errorf("failed to get correlation of run %s: %w", runID, err)
	}
	if len(cells) == 0 {
		return models.CorrelationMatrix{}, interfaces.ErrNotFound
	}

	n := 0
	for _, c := range cells {
		if c.Row+1 > n {
			n = c.Row + 1
		}
	}
	m := models.CorrelationMatrix{Columns: make([]string, n), Values: make([][]models.NullFloat, n)}
	for i := range m.Values {
		m.Values[i] = make([]models.NullFloat, n)
	}
	for _, c := range cells {
		m.Columns[c.Row] = c.A
		m.Values[c.Row][c.Col] = c.R
	}
	return m, nil
}

// SaveElbow stores the inertia curve of a run
func (s *AnalysisStorage) SaveElbow(ctx context.Context, runID string, points []models.ElbowPoint) error {
	err := s.db.upsertBatch(len(points), func(i int) (string, interface{}) {
		p := points[i]
		return fmt.Sprintf("%s|%03d", runID, p.K), &ElbowEntry{RunID: runID, K: p.K, Inertia: p.Inertia}
	})
	if err != nil {
		return fmt.Errorf("failed to save elbow curve: %w", err)
	}
	return nil
}

// GetElbow returns the inertia curve of a run ordered by k
func (s *AnalysisStorage) GetElbow(ctx context.Context, runID string) ([]models.ElbowPoint, error) {
	var entries []ElbowEntry
	if err := s.db.Store().Find(&entries, badgerhold.Where("RunID").Eq(runID)); err != nil {
		return nil, fmt.Errorf("failed to get elbow curve of run %s: %w", runID, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].K < entries[j].K })

	points := make([]models.ElbowPoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, models.ElbowPoint{K: e.K, Inertia: e.Inertia})
	}
	return points, nil
}
