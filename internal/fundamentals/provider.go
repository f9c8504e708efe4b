package fundamentals

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/common"
	"github.com/ternarybob/condor/internal/eodhd"
	"github.com/ternarybob/condor/internal/models"
)

// Provider is the subset of the provider client used for fundamentals.
type Provider interface {
	GetFundamentals(ctx context.Context, symbol string) (*eodhd.FundamentalsResponse, error)
}

// FromProvider builds a labelled record from a provider payload.
// The record year is the period of the latest yearly balance sheet, falling back
// to the most recent reported quarter.
func FromProvider(ticker string, resp *eodhd.FundamentalsResponse) (models.FundamentalRecord, error) {
	if resp == nil {
		return models.FundamentalRecord{}, fmt.Errorf("empty fundamentals for %s", ticker)
	}

	rec := models.FundamentalRecord{Ticker: ticker}

	var balance map[string]interface{}
	if resp.Financials != nil {
		if stmt, period, ok := resp.Financials.BalanceSheet.LatestYearly(); ok {
			balance = stmt
			rec.Year = period.Year()
		}
	}
	if rec.Year == 0 && resp.Highlights != nil && resp.Highlights.MostRecentQuarter != "" {
		if t, err := time.Parse("2006-01-02", resp.Highlights.MostRecentQuarter); err == nil {
			rec.Year = t.Year()
		}
	}
	if rec.Year == 0 {
		return models.FundamentalRecord{}, fmt.Errorf("no reporting period for %s", ticker)
	}

	if h := resp.Highlights; h != nil {
		rec.PERatio = optional(h.PERatio)
		rec.ROE = optional(h.ReturnOnEquityTTM)
		rec.DividendYield = optional(h.DividendYield)
	}
	if v := resp.Valuation; v != nil {
		if rec.PERatio.Missing() {
			rec.PERatio = optional(v.TrailingPE)
		}
		rec.PBRatio = optional(v.PriceBookMRQ)
	}

	rec.DebtToEquity = ratio(balance, "totalLiab", "totalStockholderEquity")
	rec.CurrentRatio = ratio(balance, "totalCurrentAssets", "totalCurrentLiabilities")

	return Label(rec), nil
}

// ratio divides two balance sheet items; a missing item or zero denominator is missing.
func ratio(statement map[string]interface{}, numerator, denominator string) models.NullFloat {
	if statement == nil {
		return models.Null()
	}
	num, ok := eodhd.StatementValue(statement, numerator)
	if !ok {
		return models.Null()
	}
	den, ok := eodhd.StatementValue(statement, denominator)
	if !ok || den == 0 {
		return models.Null()
	}
	return models.Float(num / den)
}

// Service fetches fundamentals for a roster from the provider.
type Service struct {
	provider Provider
	exchange string
	logger   arbor.ILogger
}

// NewService creates a fundamentals service for tickers listed on exchange.
func NewService(provider Provider, exchange string, logger arbor.ILogger) *Service {
	return &Service{
		provider: provider,
		exchange: exchange,
		logger:   logger,
	}
}

// Fetch downloads and labels the fundamentals of each ticker.
// Tickers without usable data are logged and returned in the skipped list.
func (s *Service) Fetch(ctx context.Context, tickers []string) ([]models.FundamentalRecord, []string, error) {
	var records []models.FundamentalRecord
	var skipped []string

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}

		symbol := common.ParseTicker(ticker, s.exchange).EODHDSymbol()
		resp, err := s.provider.GetFundamentals(ctx, symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Failed to fetch fundamentals")
			skipped = append(skipped, ticker)
			continue
		}

		rec, err := FromProvider(ticker, resp)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Skipping fundamentals")
			skipped = append(skipped, ticker)
			continue
		}

		s.logger.Debug().
			Str("ticker", ticker).
			Int("year", rec.Year).
			Str("health", string(rec.Health)).
			Msg("Fetched fundamentals")
		records = append(records, rec)
	}

	return Build(records), skipped, nil
}

// Build deduplicates records by (ticker, year), keeping the last occurrence,
// and orders them by ticker then year.
func Build(sources ...[]models.FundamentalRecord) []models.FundamentalRecord {
	byKey := make(map[string]models.FundamentalRecord)
	for _, records := range sources {
		for _, rec := range records {
			rec.Ticker = strings.ToUpper(strings.TrimSpace(rec.Ticker))
			byKey[rec.Key()] = rec
		}
	}

	out := make([]models.FundamentalRecord, 0, len(byKey))
	for _, rec := range byKey {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ticker != out[j].Ticker {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// Summary counts records per health label, keyed by wire spelling.
func Summary(records []models.FundamentalRecord) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		key := rec.Health.Wire()
		if key == "" {
			key = "sin_dato"
		}
		counts[key]++
	}
	return counts
}

