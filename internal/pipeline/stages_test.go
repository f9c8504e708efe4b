package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/common"
	"github.com/ternarybob/condor/internal/csvio"
	"github.com/ternarybob/condor/internal/eodhd"
	"github.com/ternarybob/condor/internal/models"
	"github.com/ternarybob/condor/internal/report"
	"github.com/ternarybob/condor/internal/storage/badger"
	"github.com/ternarybob/condor/internal/storage/postgres"
)

// syntheticSource serves 260 weekdays of deterministic bars per symbol.
// The shape of each series depends on the first letter of the symbol.
type syntheticSource struct {
	fail map[string]bool
}

func (s syntheticSource) GetEOD(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.EODResponse, error) {
	if s.fail[symbol] {
		return nil, errors.New("not found")
	}

	var out eodhd.EODResponse
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := 100.0
	for i := 0; len(out) < 260; i++ {
		date = date.AddDate(0, 0, 1)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		n := float64(len(out))
		var close, spread float64
		switch symbol[0] {
		case 'R': // steady uptrend
			close = 100 + 0.8*n + math.Sin(n/3)
			spread = 0.01
		case 'T': // tight range
			close = 100 + 2*math.Sin(n/5)
			spread = 0.004
		case 'V': // wide swings
			close = 100 + 15*math.Sin(n/4)
			spread = 0.04
		default:
			close = 100 + 0.2*n + 5*math.Sin(n/7)
			spread = 0.02
		}
		out = append(out, eodhd.EODData{
			Date:   date,
			Open:   prev,
			High:   math.Max(prev, close) * (1 + spread),
			Low:    math.Min(prev, close) * (1 - spread),
			Close:  close,
			Volume: int64(10000 + 500*math.Abs(math.Sin(n/2))*n),
		})
		prev = close
	}
	return out, nil
}

type fakeExporter struct {
	got    postgres.ExportResult
	closed bool
}

func (f *fakeExporter) Export(ctx context.Context, prices []models.PriceBar, technical []models.TechnicalRecord, fundamentals []models.FundamentalRecord) (postgres.ExportResult, error) {
	f.got = postgres.ExportResult{Prices: len(prices), Indicators: len(technical), Fundamentals: len(fundamentals)}
	return f.got, nil
}

func (f *fakeExporter) Close() error {
	f.closed = true
	return nil
}

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	dir := t.TempDir()

	roster := filepath.Join(dir, "acciones.csv")
	require.NoError(t, os.WriteFile(roster, []byte("NEMOTECNICO,NOMBRE\nROCKET,Rocket SA\nTURTLE,Turtle SA\nVOLATIL,Volatil SA\nMIXTO,Mixto SA\nFALTA,Sin datos\n"), 0644))

	seed := filepath.Join(dir, "fundamental.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`fundamentals:
  - ticker: ROCKET
    year: 2024
    roe: 0.22
    debt_to_equity: 0.4
    current_ratio: 1.8
  - ticker: TURTLE
    year: 2024
    roe: 0.05
    debt_to_equity: 1.6
    current_ratio: 0.7
  - ticker: VOLATIL
    year: 2024
    roe: 0.10
    debt_to_equity: 0.8
    current_ratio: 1.2
`), 0644))

	cfg := common.NewDefaultConfig()
	cfg.Market.RosterFile = roster
	cfg.Market.StartDate = "2024-01-01"
	cfg.Fundamentals.Source = "seed"
	cfg.Fundamentals.SeedFile = seed
	cfg.Files.OutputDir = filepath.Join(dir, "output")
	cfg.Macro.Assets = map[string]string{"COBRE": "HG.COMM", "USD_CLP": "USDCLP.FOREX"}
	cfg.Profiling.ElbowMaxK = 4
	cfg.Storage.Badger.Path = filepath.Join(dir, "db")
	return cfg
}

func TestFullPipeline(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Postgres.Enabled = true
	logger := arbor.NewLogger()

	store, err := badger.NewManager(logger, &cfg.Storage.Badger)
	require.NoError(t, err)
	defer store.Close()

	exporter := &fakeExporter{}
	state, err := NewState(Dependencies{
		Config:      cfg,
		Logger:      logger,
		Storage:     store,
		PriceSource: syntheticSource{fail: map[string]bool{"FALTA.SN": true}},
		Exporter:    func(ctx context.Context) (Exporter, error) { return exporter, nil },
		PDF:         report.NewPDFRenderer(logger),
	})
	require.NoError(t, err)

	ctx := context.Background()
	run, err := NewRunner(store.RunStorage(), logger).Run(ctx, state, AllStages()...)
	require.NoError(t, err)

	for _, s := range run.Stages {
		assert.Equal(t, models.StageSucceeded, s.Status, "%s: %s", s.Name, s.Error)
	}
	assert.Equal(t, 10, run.Succeeded())

	d := csvio.DefaultDialect()
	bars, err := csvio.ReadPrices(cfg.OutputPath(cfg.Files.Prices), d)
	require.NoError(t, err)
	assert.Len(t, bars, 4*260, "the failed ticker is skipped")

	technical, err := csvio.ReadTechnical(cfg.OutputPath(cfg.Files.Technical), d)
	require.NoError(t, err)
	assert.Len(t, technical, len(bars))

	macro, err := csvio.ReadMacro(cfg.OutputPath(cfg.Files.Macro), d)
	require.NoError(t, err)
	assert.Equal(t, []string{"COBRE", "USD_CLP"}, macro.Columns)

	profiles, err := store.ProfileStorage().ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 5)
	assert.Equal(t, "FALTA", profiles[4].Entry.Ticker)
	assert.False(t, profiles[4].Cluster.Valid)
	rockets := 0
	for _, p := range profiles[:4] {
		assert.True(t, p.Cluster.Valid, p.Entry.Ticker)
		if p.Personality == models.PersonalityTrendRocket {
			rockets++
		}
	}
	assert.Positive(t, rockets)

	raw, err := os.ReadFile(cfg.OutputPath(cfg.Files.Profiles))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "NEMOTECNICO;NOMBRE;cluster;personalidad\n"))

	_, err = os.Stat(cfg.OutputPath(cfg.Files.Opportunities))
	assert.NoError(t, err)

	assert.Equal(t, 4*260, exporter.got.Prices)
	assert.Equal(t, 3, exporter.got.Fundamentals)
	assert.True(t, exporter.closed)

	summary, err := os.ReadFile(cfg.OutputPath(cfg.Report.MarkdownFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), run.ID)
	assert.Contains(t, string(summary), "| Trend Rocket |")
	assert.Contains(t, string(summary), "## Elbow Curve")

	pdf, err := os.ReadFile(cfg.OutputPath(cfg.Report.PDFFile))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	saved, err := store.RunStorage().GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Stages, 10)

	elbow, err := store.AnalysisStorage().GetElbow(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, elbow, 3, "k stops one below the number of profiled tickers")
}

func TestStagesReadArtifactsFromDisk(t *testing.T) {
	cfg := testConfig(t)
	logger := arbor.NewLogger()
	ctx := context.Background()

	first, err := NewState(Dependencies{Config: cfg, Logger: logger, PriceSource: syntheticSource{}})
	require.NoError(t, err)
	_, err = NewRunner(nil, logger).Run(ctx, first, DownloadStage{}, IndicatorsStage{}, FundamentalsStage{})
	require.NoError(t, err)

	second, err := NewState(Dependencies{Config: cfg, Logger: logger})
	require.NoError(t, err)
	run, err := NewRunner(nil, logger).Run(ctx, second, FuseStage{}, CorrelateStage{})
	require.NoError(t, err)
	assert.Equal(t, 2, run.Succeeded())
	assert.Equal(t, len(cfg.Analysis.CorrelationColumns), run.Stages[1].Rows)
}

func TestStagesFailWithoutInputs(t *testing.T) {
	cfg := testConfig(t)
	state, err := NewState(Dependencies{Config: cfg, Logger: arbor.NewLogger()})
	require.NoError(t, err)

	run, err := NewRunner(nil, arbor.NewLogger()).Run(context.Background(), state,
		DownloadStage{}, ProfileStage{}, ExportStage{}, ReportStage{})
	require.NoError(t, err)

	assert.Equal(t, models.StageFailed, run.Stages[0].Status, "no provider")
	assert.Equal(t, models.StageFailed, run.Stages[1].Status, "no technical table on disk")
	assert.Equal(t, models.StageSkipped, run.Stages[2].Status, "postgres disabled")
	assert.Equal(t, models.StageSucceeded, run.Stages[3].Status)
	assert.Equal(t, 1, run.Succeeded())
}

func TestFundamentalsStageRejectsUnknownSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fundamentals.Source = "ftp"
	state, err := NewState(Dependencies{Config: cfg, Logger: arbor.NewLogger()})
	require.NoError(t, err)

	_, err = FundamentalsStage{}.Run(context.Background(), state)
	assert.True(t, models.IsConfigurationError(err))
}
