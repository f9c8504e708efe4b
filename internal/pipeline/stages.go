package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/condor/internal/analysis"
	"github.com/ternarybob/condor/internal/csvio"
	"github.com/ternarybob/condor/internal/fundamentals"
	"github.com/ternarybob/condor/internal/fusion"
	"github.com/ternarybob/condor/internal/indicators"
	"github.com/ternarybob/condor/internal/market"
	"github.com/ternarybob/condor/internal/models"
	"github.com/ternarybob/condor/internal/profiling"
	"github.com/ternarybob/condor/internal/report"
)

// Stage is one step of the pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, state *State) (models.StageResult, error)
}

// Stage names, in pipeline order.
const (
	StageDownload     = "download"
	StageMacro        = "macro"
	StageIndicators   = "indicators"
	StageFundamentals = "fundamentals"
	StageProfile      = "profile"
	StageFuse         = "fuse"
	StageCorrelate    = "correlate"
	StageElbow        = "elbow"
	StageExport       = "export"
	StageReport       = "report"
)

// AllStages returns the full pipeline in order.
func AllStages() []Stage {
	return []Stage{
		DownloadStage{},
		MacroStage{},
		IndicatorsStage{},
		FundamentalsStage{},
		ProfileStage{},
		FuseStage{},
		CorrelateStage{},
		ElbowStage{},
		ExportStage{},
		ReportStage{},
	}
}

// Lookup returns the stage called name.
func Lookup(name string) (Stage, bool) {
	for _, s := range AllStages() {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

func profilingConfig(state *State) profiling.Config {
	p := state.Config.Profiling
	return profiling.Config{
		Clusters:      p.Clusters,
		Restarts:      p.Restarts,
		Seed:          p.Seed,
		MaxIterations: p.MaxIterations,
		Tolerance:     p.Tolerance,
	}
}

func logFailures(state *State, stage string, failures []market.Failure) {
	for _, f := range failures {
		state.Logger.Warn().
			Str("stage", stage).
			Str("name", f.Name).
			Str("symbol", f.Symbol).
			Err(f.Err).
			Msg("Download failed")
	}
}

// DownloadStage fetches daily bars for the roster.
type DownloadStage struct{}

func (DownloadStage) Name() string { return StageDownload }

func (DownloadStage) Run(ctx context.Context, state *State) (models.StageResult, error) {
	var result models.StageResult
	if state.PriceSource == nil {
		return result, fmt.Errorf("no price provider configured")
	}

	roster, err := state.Roster()
	if err != nil {
		return result, err
	}
	from, err := state.Config.StartTime()
	if err != nil {
		return result, &models.ConfigurationError{Field: "market.start_date", Value: state.Config.Market.StartDate, Message: err.Error()}
	}

	downloader := market.NewDownloader(state.PriceSource, state.Config.Market.Exchange, state.Logger)
	bars, failures, err := downloader.Prices(ctx, roster, from)
	logFailures(state, StageDownload, failures)
	if err != nil {
		return result, err
	}

	path := state.path(state.Config.Files.Prices)
	if err := csvio.WritePrices(path, state.Dialect, bars); err != nil {
		return result, err
	}
	if state.Storage != nil {
		if err := state.Storage.PriceStorage().SaveBars(ctx, bars); err != nil {
			return result, err
		}
	}

	state.prices = bars
	state.addArtifact("prices", path, len(bars))
	result.Rows = len(bars)
	result.Artifact = path
	return result, nil
}

// MacroStage downloads the macro basket into one date-indexed table.
type MacroStage struct{}

func (MacroStage) Name() string { return StageMacro }

func (MacroStage) Run(ctx context.Context, state *State) (models.StageResult, error) {
	var result models.StageResult
	if state.PriceSource == nil {
		return result, fmt.Errorf("no price provider configured")
	}
	from, err := state.Config.StartTime()
	if err != nil {
		return result, &models.ConfigurationError{Field: "market.start_date", Value: state.Config.Market.StartDate, Message: err.Error()}
	}

	downloader := market.NewDownloader(state.PriceSource, state.Config.Market.Exchange, state.Logger)
	table, failures, err := downloader.Macro(ctx, state.Config.Macro.Assets, from)
	logFailures(state, StageMacro, failures)
	if err != nil {
		return result, err
	}

	path := state.path(state.Config.Files.Macro)
	if err := csvio.WriteMacro(path, state.Dialect, table); err != nil {
		return result, err
	}

	state.macro = &table
	state.addArtifact("macro", path, len(table.Rows))
	result.Rows = len(table.Rows)
	result.Artifact = path
	return result, nil
}

// IndicatorsStage computes the technical table from the price bars.
type IndicatorsStage struct{}

func (IndicatorsStage) Name() string { return StageIndicators }

func (IndicatorsStage) Run(ctx context.Context, state *State) (models.StageResult, error) {
	var result models.StageResult
	bars, err := state.Prices()
	if err != nil {
		return result, err
	}
	if len(bars) == 0 {
		return result, &models.InsufficientDataError{Stage: StageIndicators, Message: "no price bars"}
	}

	records := indicators.NewCalculator(indicators.DefaultConfig(), state.Logger).Compute(bars)

	path := state.path(state.Config.Files.Technical)
	if err := csvio.WriteTechnical(path, state.Dialect, records); err != nil {
		return result, err
	}
	if state.Storage != nil {
		if err := state.Storage.TechnicalStorage().SaveRecords(ctx, records); err != nil {
			return result, err
		}
	}

	state.technical = records
	state.addArtifact("technical", path, len(records))
	result.Rows = len(records)
	result.Artifact = path
	return result, nil
}

// FundamentalsStage builds the labelled annual table from the configured source.
type FundamentalsStage struct{}

func (FundamentalsStage) Name() string { return StageFundamentals }

func (FundamentalsStage) Run(ctx context.Context, state *State) (models.StageResult, error) {
	var result models.StageResult
	cfg := state.Config.Fundamentals

	var records []models.FundamentalRecord
	switch cfg.Source {
	case "seed":
		seed, err := fundamentals.LoadSeed(cfg.SeedFile)
		if err != nil {
			return result, err
		}
		records = fundamentals.Build(seed)
	case "csv":
		table, err := csvio.ReadFundamentals(cfg.CSVFile, state.Dialect)
		if err != nil {
			return result, err
		}
		records = fundamentals.Build(table.Records)
	case "eodhd":
		if state.FundamentalProvider == nil {
			return result, fmt.Errorf("no fundamentals provider configured")
		}
		roster, err := state.Roster()
		if err != nil {
			return result, err
		}
		service := fundamentals.NewService(state.FundamentalProvider, state.Config.Market.Exchange, state.Logger)
		fetched, skipped, err := service.Fetch(ctx, roster.Tickers())
		if err != nil {
			return result, err
		}
		if len(skipped) > 0 {
			state.Logger.Warn().Int("skipped", len(skipped)).Msg("Tickers without fundamentals")
		}
		records = fetched
	default:
		return result, &models.ConfigurationError{Field: "fundamentals.source", Value: cfg.Source, Message: "must be seed, csv or eodhd"}
	}

	if len(records) == 0 {
		return result, &models.InsufficientDataError{Stage: StageFundamentals, Message: "no fundamental records"}
	}

	path := state.path(state.Config.Files.Fundamentals)
	if err := csvio.WriteFundamentals(path, state.Dialect, records); err != nil {
		return result, err
	}
	if state.Storage != nil {
		if err := state.Storage.FundamentalStorage().SaveRecords(ctx, records); err != nil {
			return result, err
		}
	}

	for label, n := range fundamentals.Summary(records) {
		state.Logger.Info().Str("health", label).Int("records", n).Msg("Fundamental health")
	}

	table := models.NewFundamentalTable(records)
	state.fundamentals = &table
	state.addArtifact("fundamentals", path, len(records))
	result.Rows = len(records)
	result.Artifact = path
	return result, nil
}

// ProfileStage clusters tickers into personalities.
type ProfileStage struct{}

func (ProfileStage) Name() string { return StageProfile }

func (ProfileStage) Run(ctx context.Context, state *State) (models.StageResult, error) {
	var result models.StageResult
	technical, err := state.Technical()
	if err != nil {
		return result, err
	}
	roster, err := state.Roster()
	if err != nil {
		return result, err
	}

	rows, err := profiling.ComputeProfiles(technical, roster, profilingConfig(state))
	if err != nil {
		return result, err
	}

	path := state.path(state.Config.Files.Profiles)
	if err := csvio.WriteProfiles(path, state.Dialect, roster, rows); err != nil {
		return result, err
	}
	if state.Storage != nil {
		if err := state.Storage.ProfileStorage().SaveProfiles(ctx, state.RunID(), rows); err != nil {
			return result, err
		}
	}

	for p, n := range profiling.Distribution(rows) {
		state.Logger.Info().Str("personality", string(p)).Int("tickers", n).Msg("Personality distribution")
	}

	state.profiles = rows
	state.addArtifact("profiles", path, len(rows))
	result.Rows = len(rows)
	result.Artifact = path
	return result, nil
}

// FuseStage joins technicals with fundamentals and applies the divergence rules.
type FuseStage struct{}

func (FuseStage) Name() string { return StageFuse }

func (FuseStage) Run(ctx context.Context, state *State) (models.StageResult, error) {
	var result models.StageResult
	technical, err := state.Technical()
	if err != nil {
		return result, err
	}
	table, err := state.Fundamentals()
	if err != nil {
		return result, err
	}

	opportunities, err := fusion.DetectDivergences(technical, table)
	if err != nil {
		return result, err
	}

	path := state.path(state.Config.Files.Opportunities)
	if err := csvio.WriteOpportunities(path, state.Dialect, opportunities); err != nil {
		return result, err
	}
	if state.Storage != nil {
		if err := state.Storage.OpportunityStorage().SaveOpportunities(ctx, state.RunID(), opportunities); err != nil {
			return result, err
		}
	}

	if len(opportunities) == 0 {
		state.Logger.Info().Msg("No divergence opportunities found")
	}
	for rule, n := range fusion.CountByRule(opportunities) {
		state.Logger.Info().Str("rule", rule).Int("rows", n).Msg("Divergence opportunities")
	}

	if opportunities == nil {
		opportunities = []models.Opportunity{}
	}
	state.opportunities = opportunities
	state.addArtifact("opportunities", path, len(opportunities))
	result.Rows = len(opportunities)
	result.Artifact = path
	return result, nil
}

// CorrelateStage computes the Pearson matrix over the configured columns.
type CorrelateStage struct{}

func (CorrelateStage) Name() string { return StageCorrelate }

func (CorrelateStage) Run(ctx context.Context, state *State) (models.StageResult, error) {
	var result models.StageResult
	technical, err := state.Technical()
	if err != nil {
		return result, err
	}

	matrix, err := analysis.Correlation(technical, state.Config.Analysis.CorrelationColumns)
	if err != nil {
		return result, err
	}
	pairs := analysis.TopPairs(matrix, state.Config.Analysis.TopPairs)
	for _, p := range pairs {
		state.Logger.Info().Str("a", p.A).Str("b", p.B).Float64("r", p.R).Msg("Correlation")
	}

	if state.Storage != nil {
		if err := state.Storage.AnalysisStorage().SaveCorrelation(ctx, state.RunID(), matrix); err != nil {
			return result, err
		}
	}

	state.topPairs = pairs
	result.Rows = len(matrix.Columns)
	return result, nil
}

// ElbowStage computes the inertia curve for k = 1..max.
type ElbowStage struct{}

func (ElbowStage) Name() string { return StageElbow }

func (ElbowStage) Run(ctx context.Context, state *State) (models.StageResult, error) {
	var result models.StageResult
	technical, err := state.Technical()
	if err != nil {
		return result, err
	}

	points, err := profiling.Elbow(technical, state.Config.Profiling.ElbowMaxK, profilingConfig(state))
	if err != nil {
		return result, err
	}
	if state.Storage != nil {
		if err := state.Storage.AnalysisStorage().SaveElbow(ctx, state.RunID(), points); err != nil {
			return result, err
		}
	}

	state.elbow = points
	result.Rows = len(points)
	return result, nil
}

// ExportStage upserts the core tables into PostgreSQL when enabled.
type ExportStage struct{}

func (ExportStage) Name() string { return StageExport }

func (ExportStage) Run(ctx context.Context, state *State) (models.StageResult, error) {
	var result models.StageResult
	if !state.Config.Storage.Postgres.Enabled {
		result.Status = models.StageSkipped
		return result, nil
	}
	if state.Exporter == nil {
		return result, fmt.Errorf("no exporter configured")
	}

	prices, err := state.Prices()
	if err != nil {
		return result, err
	}
	technical, err := state.Technical()
	if err != nil {
		return result, err
	}
	table, err := state.Fundamentals()
	if err != nil {
		return result, err
	}

	exporter, err := state.Exporter(ctx)
	if err != nil {
		return result, err
	}
	defer exporter.Close()

	counts, err := exporter.Export(ctx, prices, technical, table.Records)
	if err != nil {
		return result, err
	}
	result.Rows = counts.Total()
	return result, nil
}

// ReportStage writes the markdown executive summary and its PDF rendering.
type ReportStage struct{}

func (ReportStage) Name() string { return StageReport }

func (ReportStage) Run(ctx context.Context, state *State) (models.StageResult, error) {
	var result models.StageResult

	run := models.PipelineRun{StartedAt: time.Now(), FinishedAt: time.Now()}
	if state.Run != nil {
		run = *state.Run
		run.FinishedAt = time.Now()
	}

	inputs := report.Inputs{
		Title:     state.Config.Report.Title,
		Artifacts: state.artifacts,
		TopPairs:  state.topPairs,
		Elbow:     state.elbow,
	}
	if state.profiles != nil {
		inputs.Distribution = profiling.Distribution(state.profiles)
	}
	if state.opportunities != nil {
		inputs.Opportunities = fusion.CountByRule(state.opportunities)
	}
	if state.fundamentals != nil {
		inputs.Health = fundamentals.Summary(state.fundamentals.Records)
	}
	markdown := report.BuildSummary(&run, inputs)

	mdPath := state.path(state.Config.Report.MarkdownFile)
	if err := writeFile(mdPath, []byte(markdown)); err != nil {
		return result, err
	}
	result.Artifact = mdPath

	if state.PDF != nil && state.Config.Report.PDFFile != "" {
		pdf, err := state.PDF.RenderPDF(markdown, inputs.Title)
		if err != nil {
			return result, err
		}
		pdfPath := state.path(state.Config.Report.PDFFile)
		if err := writeFile(pdfPath, pdf); err != nil {
			return result, err
		}
		result.Artifact = pdfPath
	}

	result.Rows = len(run.Stages)
	return result, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
