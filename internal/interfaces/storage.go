package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/condor/internal/models"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("record not found")

// PriceStorage - persistence for daily bars
type PriceStorage interface {
	SaveBars(ctx context.Context, bars []models.PriceBar) error
	GetBars(ctx context.Context, ticker string) ([]models.PriceBar, error)
	ListBars(ctx context.Context) ([]models.PriceBar, error)
	CountBars(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// TechnicalStorage - persistence for the indicator table
type TechnicalStorage interface {
	SaveRecords(ctx context.Context, records []models.TechnicalRecord) error
	GetRecords(ctx context.Context, ticker string) ([]models.TechnicalRecord, error)
	ListRecords(ctx context.Context) ([]models.TechnicalRecord, error)
	CountRecords(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// FundamentalStorage - persistence for annual fundamentals
type FundamentalStorage interface {
	SaveRecords(ctx context.Context, records []models.FundamentalRecord) error
	GetRecord(ctx context.Context, ticker string, year int) (*models.FundamentalRecord, error)
	ListRecords(ctx context.Context) ([]models.FundamentalRecord, error)
}

// ProfileStorage - latest cluster assignment per ticker
type ProfileStorage interface {
	SaveProfiles(ctx context.Context, runID string, rows []models.ProfileRow) error
	ListProfiles(ctx context.Context) ([]models.ProfileRow, error)
}

// OpportunityStorage - divergence opportunities per run
type OpportunityStorage interface {
	SaveOpportunities(ctx context.Context, runID string, opportunities []models.Opportunity) error
	GetOpportunities(ctx context.Context, runID string) ([]models.Opportunity, error)
}

// AnalysisStorage - correlation matrices and elbow curves per run
type AnalysisStorage interface {
	SaveCorrelation(ctx context.Context, runID string, matrix models.CorrelationMatrix) error
	GetCorrelation(ctx context.Context, runID string) (models.CorrelationMatrix, error)
	SaveElbow(ctx context.Context, runID string, points []models.ElbowPoint) error
	GetElbow(ctx context.Context, runID string) ([]models.ElbowPoint, error)
}

// RunStorage - pipeline run history
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.PipelineRun) error
	GetRun(ctx context.Context, id string) (*models.PipelineRun, error)
	ListRuns(ctx context.Context, limit int) ([]*models.PipelineRun, error)
}

// StorageManager - aggregates every storage backed by one database
type StorageManager interface {
	PriceStorage() PriceStorage
	TechnicalStorage() TechnicalStorage
	FundamentalStorage() FundamentalStorage
	ProfileStorage() ProfileStorage
	OpportunityStorage() OpportunityStorage
	AnalysisStorage() AnalysisStorage
	RunStorage() RunStorage
	Close() error
}
