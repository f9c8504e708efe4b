package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/common"
	"github.com/ternarybob/condor/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	price       interfaces.PriceStorage
	technical   interfaces.TechnicalStorage
	fundamental interfaces.FundamentalStorage
	profile     interfaces.ProfileStorage
	opportunity interfaces.OpportunityStorage
	analysis    interfaces.AnalysisStorage
	run         interfaces.RunStorage
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := newManager(db, logger)
	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

func newManager(db *BadgerDB, logger arbor.ILogger) *Manager {
	return &Manager{
		db:          db,
		price:       NewPriceStorage(db, logger),
		technical:   NewTechnicalStorage(db, logger),
		fundamental: NewFundamentalStorage(db, logger),
		profile:     NewProfileStorage(db, logger),
		opportunity: NewOpportunityStorage(db, logger),
		analysis:    NewAnalysisStorage(db, logger),
		run:         NewRunStorage(db, logger),
		logger:      logger,
	}
}

// PriceStorage returns the price storage interface
func (m *Manager) PriceStorage() interfaces.PriceStorage {
	return m.price
}

// TechnicalStorage returns the technical storage interface
func (m *Manager) TechnicalStorage() interfaces.TechnicalStorage {
	return m.technical
}

// FundamentalStorage returns the fundamental storage interface
func (m *Manager) FundamentalStorage() interfaces.FundamentalStorage {
	return m.fundamental
}

// ProfileStorage returns the profile storage interface
func (m *Manager) ProfileStorage() interfaces.ProfileStorage {
	return m.profile
}

// OpportunityStorage returns the opportunity storage interface
func (m *Manager) OpportunityStorage() interfaces.OpportunityStorage {
	return m.opportunity
}

// AnalysisStorage returns the analysis storage interface
func (m *Manager) AnalysisStorage() interfaces.AnalysisStorage {
	return m.analysis
}

// RunStorage returns the run history storage interface
func (m *Manager) RunStorage() interfaces.RunStorage {
	return m.run
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
