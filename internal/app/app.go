package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/common"
	"github.com/ternarybob/condor/internal/eodhd"
	"github.com/ternarybob/condor/internal/interfaces"
	"github.com/ternarybob/condor/internal/models"
	"github.com/ternarybob/condor/internal/pipeline"
	"github.com/ternarybob/condor/internal/report"
	"github.com/ternarybob/condor/internal/storage/badger"
	"github.com/ternarybob/condor/internal/storage/postgres"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager
	EODHD          *eodhd.Client
	PDF            *report.PDFRenderer
	Runner         *pipeline.Runner
}

// New initializes storage, the provider client and the pipeline runner
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.initServices()

	return app, nil
}

func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

func (a *App) initServices() {
	if a.Config.EODHD.APIKey == "" {
		a.Logger.Warn().Msg("No EODHD API key configured, download stages will fail")
	} else {
		a.EODHD = eodhd.NewClient(a.Config.EODHD.APIKey,
			eodhd.WithBaseURL(a.Config.EODHD.BaseURL),
			eodhd.WithTimeout(a.Config.EODHD.Timeout),
			eodhd.WithRateLimit(a.Config.EODHD.RateLimit),
			eodhd.WithLogger(a.Logger),
		)
	}

	a.PDF = report.NewPDFRenderer(a.Logger)
	a.Runner = pipeline.NewRunner(a.StorageManager.RunStorage(), a.Logger)
}

// NewState builds an empty pipeline state wired to the application's collaborators
func (a *App) NewState() (*pipeline.State, error) {
	deps := pipeline.Dependencies{
		Config:   a.Config,
		Logger:   a.Logger,
		Storage:  a.StorageManager,
		PDF:      a.PDF,
		Exporter: a.connectExporter,
	}
	if a.EODHD != nil {
		deps.PriceSource = a.EODHD
		deps.FundamentalProvider = a.EODHD
	}
	return pipeline.NewState(deps)
}

func (a *App) connectExporter(ctx context.Context) (pipeline.Exporter, error) {
	db, err := postgres.NewConnection(ctx, a.Logger, &a.Config.Storage.Postgres)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Run executes stages in order against a fresh state. A failed stage does
// not stop the run but is reported in the returned error.
func (a *App) Run(ctx context.Context, stages ...pipeline.Stage) (*models.PipelineRun, error) {
	state, err := a.NewState()
	if err != nil {
		return nil, err
	}
	run, err := a.Runner.Run(ctx, state, stages...)
	if err != nil {
		return run, err
	}
	failed := 0
	for _, s := range run.Stages {
		if s.Status == models.StageFailed {
			failed++
		}
	}
	if failed > 0 {
		return run, fmt.Errorf("%d of %d stages failed", failed, len(run.Stages))
	}
	return run, nil
}

// Close releases the storage
func (a *App) Close() error {
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
		a.Logger.Debug().Msg("Storage closed")
	}
	return nil
}
