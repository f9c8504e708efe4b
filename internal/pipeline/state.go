// Package pipeline runs the analysis stages in order and records the outcome.
package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/common"
	"github.com/ternarybob/condor/internal/csvio"
	"github.com/ternarybob/condor/internal/fundamentals"
	"github.com/ternarybob/condor/internal/interfaces"
	"github.com/ternarybob/condor/internal/market"
	"github.com/ternarybob/condor/internal/models"
	"github.com/ternarybob/condor/internal/report"
	"github.com/ternarybob/condor/internal/storage/postgres"
)

// Exporter writes the core tables to a relational database.
type Exporter interface {
	Export(ctx context.Context, prices []models.PriceBar, technical []models.TechnicalRecord, fundamentals []models.FundamentalRecord) (postgres.ExportResult, error)
	Close() error
}

// Dependencies are the collaborators shared by every stage. Any of them may be
// nil when the stages that need them are not run.
type Dependencies struct {
	Config              *common.Config
	Logger              arbor.ILogger
	Storage             interfaces.StorageManager
	PriceSource         market.PriceSource
	FundamentalProvider fundamentals.Provider
	Exporter            func(ctx context.Context) (Exporter, error)
	PDF                 *report.PDFRenderer
}

// State carries the tables produced so far. A stage whose input is not in
// memory loads it from the CSV artifact of the stage that produces it.
type State struct {
	Dependencies

	Dialect csvio.Dialect
	Run     *models.PipelineRun

	roster        *models.Roster
	prices        []models.PriceBar
	technical     []models.TechnicalRecord
	fundamentals  *models.FundamentalTable
	macro         *models.MacroTable
	profiles      []models.ProfileRow
	opportunities []models.Opportunity
	topPairs      []models.CorrelationPair
	elbow         []models.ElbowPoint
	artifacts     []report.Artifact
}

// NewState validates the CSV dialect of deps.Config and returns an empty state.
func NewState(deps Dependencies) (*State, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("pipeline requires a configuration")
	}
	if deps.Logger == nil {
		deps.Logger = common.GetLogger()
	}
	dialect, err := csvio.NewDialect(deps.Config.Files.Separator, deps.Config.Files.Decimal)
	if err != nil {
		return nil, &models.ConfigurationError{Field: "files", Value: deps.Config.Files.Separator, Message: err.Error()}
	}
	return &State{Dependencies: deps, Dialect: dialect}, nil
}

// RunID is the id of the run in progress, or "" outside a run.
func (s *State) RunID() string {
	if s.Run == nil {
		return ""
	}
	return s.Run.ID
}

func (s *State) path(name string) string {
	return s.Config.OutputPath(name)
}

func (s *State) addArtifact(name, path string, rows int) {
	for i := range s.artifacts {
		if s.artifacts[i].Name == name {
			s.artifacts[i] = report.Artifact{Name: name, Path: path, Rows: rows}
			return
		}
	}
	s.artifacts = append(s.artifacts, report.Artifact{Name: name, Path: path, Rows: rows})
}

// Roster loads the ticker universe once.
func (s *State) Roster() (models.Roster, error) {
	if s.roster != nil {
		return *s.roster, nil
	}
	m := s.Config.Market
	roster, err := market.LoadRoster(m.RosterFile, m.RosterColumn, m.RosterSep)
	if err != nil {
		return models.Roster{}, err
	}
	s.roster = &roster
	return roster, nil
}

// Prices returns the downloaded bars or reads the price artifact.
func (s *State) Prices() ([]models.PriceBar, error) {
	if s.prices != nil {
		return s.prices, nil
	}
	bars, err := csvio.ReadPrices(s.path(s.Config.Files.Prices), s.Dialect)
	if err != nil {
		return nil, err
	}
	s.prices = bars
	return bars, nil
}

// Technical returns the indicator table or reads its artifact.
func (s *State) Technical() ([]models.TechnicalRecord, error) {
	if s.technical != nil {
		return s.technical, nil
	}
	records, err := csvio.ReadTechnical(s.path(s.Config.Files.Technical), s.Dialect)
	if err != nil {
		return nil, err
	}
	s.technical = records
	return records, nil
}

// Fundamentals returns the fundamental table or reads its artifact.
func (s *State) Fundamentals() (models.FundamentalTable, error) {
	if s.fundamentals != nil {
		return *s.fundamentals, nil
	}
	table, err := csvio.ReadFundamentals(s.path(s.Config.Files.Fundamentals), s.Dialect)
	if err != nil {
		return models.FundamentalTable{}, err
	}
	s.fundamentals = &table
	return table, nil
}
