package market

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/common"
	"github.com/ternarybob/condor/internal/eodhd"
	"github.com/ternarybob/condor/internal/models"
)

// PriceSource is the subset of the provider client the downloader needs.
type PriceSource interface {
	GetEOD(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.EODResponse, error)
}

// Failure records a symbol that could not be downloaded.
type Failure struct {
	Name   string
	Symbol string
	Err    error
}

// Downloader fetches daily bars one symbol at a time.
type Downloader struct {
	source   PriceSource
	exchange string
	logger   arbor.ILogger
}

// NewDownloader creates a downloader for roster tickers listed on exchange.
func NewDownloader(source PriceSource, exchange string, logger arbor.ILogger) *Downloader {
	return &Downloader{
		source:   source,
		exchange: exchange,
		logger:   logger,
	}
}

// Prices downloads the bars of every roster ticker from the given date.
// Tickers that fail or return no rows are reported and skipped.
// The result is ordered by ticker, then date.
func (d *Downloader) Prices(ctx context.Context, roster models.Roster, from time.Time) ([]models.PriceBar, []Failure, error) {
	var bars []models.PriceBar
	var failures []Failure

	for _, code := range roster.Tickers() {
		if err := ctx.Err(); err != nil {
			return nil, failures, err
		}

		symbol := common.ParseTicker(code, d.exchange).EODHDSymbol()
		rows, err := d.source.GetEOD(ctx, symbol, eodhd.WithDateRange(from, time.Time{}))
		if err == nil && len(rows) == 0 {
			err = fmt.Errorf("no data returned")
		}
		if err != nil {
			d.logger.Warn().Err(err).Str("ticker", code).Str("symbol", symbol).Msg("Failed to download prices")
			failures = append(failures, Failure{Name: code, Symbol: symbol, Err: err})
			continue
		}

		for _, row := range rows {
			bar := models.PriceBar{
				Ticker: code,
				Date:   row.Date,
				Open:   row.Open,
				High:   row.High,
				Low:    row.Low,
				Close:  row.Close,
				Volume: row.Volume,
			}
			if row.AdjustedClose != nil {
				bar.AdjClose = models.Float(*row.AdjustedClose)
			}
			bars = append(bars, bar)
		}

		d.logger.Debug().Str("ticker", code).Int("rows", len(rows)).Msg("Downloaded prices")
	}

	if len(bars) == 0 {
		return nil, failures, &models.InsufficientDataError{Stage: "download", Message: "no ticker returned any bars"}
	}

	sort.SliceStable(bars, func(i, j int) bool {
		if bars[i].Ticker != bars[j].Ticker {
			return bars[i].Ticker < bars[j].Ticker
		}
		return bars[i].Date.Before(bars[j].Date)
	})

	d.logger.Info().
		Int("tickers", len(roster.Entries)-len(failures)).
		Int("failed", len(failures)).
		Int("rows", len(bars)).
		Msg("Price download complete")

	return bars, failures, nil
}

// Macro downloads the closing series of each asset (name -> provider symbol).
// Series are outer-joined on date and forward-filled; leading gaps stay missing.
// Columns are the successfully downloaded asset names in sorted order.
func (d *Downloader) Macro(ctx context.Context, assets map[string]string, from time.Time) (models.MacroTable, []Failure, error) {
	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)

	series := make(map[string]map[time.Time]float64, len(names))
	dates := make(map[time.Time]struct{})
	var columns []string
	var failures []Failure

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return models.MacroTable{}, failures, err
		}

		symbol := assets[name]
		rows, err := d.source.GetEOD(ctx, symbol, eodhd.WithDateRange(from, time.Time{}))
		if err == nil && len(rows) == 0 {
			err = fmt.Errorf("no data returned")
		}
		if err != nil {
			d.logger.Warn().Err(err).Str("asset", name).Str("symbol", symbol).Msg("Failed to download macro series")
			failures = append(failures, Failure{Name: name, Symbol: symbol, Err: err})
			continue
		}

		closes := make(map[time.Time]float64, len(rows))
		for _, row := range rows {
			v := row.Close
			if row.AdjustedClose != nil {
				v = *row.AdjustedClose
			}
			closes[row.Date] = v
			dates[row.Date] = struct{}{}
		}
		series[name] = closes
		columns = append(columns, name)
	}

	if len(columns) == 0 {
		return models.MacroTable{}, failures, &models.InsufficientDataError{Stage: "macro", Message: "no asset returned any data"}
	}

	return joinMacro(columns, series, dates), failures, nil
}

func joinMacro(columns []string, series map[string]map[time.Time]float64, dates map[time.Time]struct{}) models.MacroTable {
	ordered := make([]time.Time, 0, len(dates))
	for date := range dates {
		ordered = append(ordered, date)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	table := models.MacroTable{Columns: columns, Rows: make([]models.MacroRow, 0, len(ordered))}
	last := make([]models.NullFloat, len(columns))
	for _, date := range ordered {
		values := make([]models.NullFloat, len(columns))
		for i, name := range columns {
			if v, ok := series[name][date]; ok {
				last[i] = models.Float(v)
			}
			values[i] = last[i]
		}
		table.Rows = append(table.Rows, models.MacroRow{Date: date, Values: values})
	}
	return table
}
