// Package fusion joins daily technicals with annual fundamentals and flags
// rows where an oversold oscillator meets sound financials.
package fusion

import (
	"sort"

	"github.com/ternarybob/condor/internal/models"
)

// RequireIdentifyingColumns checks that a fundamental table can be joined.
func RequireIdentifyingColumns(table models.FundamentalTable) error {
	declared := models.Index(table.Columns)
	var missing []string
	for _, col := range []string{"ticker", "year"} {
		if _, ok := declared[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &models.SchemaError{
			Table:   models.FundamentalSchema.Name,
			Version: models.FundamentalSchema.Version,
			Missing: missing,
		}
	}
	return nil
}

// Fuse left-joins technical rows to fundamentals on (ticker, year) and carries
// each fundamental field forward in date order within its ticker.
//
// Rows that still have no health label, or have no RSI, are dropped. The
// output is ordered by ticker in first-seen order, then by date.
func Fuse(technical []models.TechnicalRecord, table models.FundamentalTable) ([]models.FusedRecord, error) {
	if err := RequireIdentifyingColumns(table); err != nil {
		return nil, err
	}

	annual := make(map[string]models.FundamentalRecord, len(table.Records))
	for _, rec := range table.Records {
		annual[rec.Key()] = rec
	}

	var order []string
	groups := make(map[string][]models.TechnicalRecord)
	for _, rec := range technical {
		if _, ok := groups[rec.Ticker]; !ok {
			order = append(order, rec.Ticker)
		}
		groups[rec.Ticker] = append(groups[rec.Ticker], rec)
	}

	var fused []models.FusedRecord
	for _, ticker := range order {
		rows := groups[ticker]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

		carried := models.FundamentalRecord{Ticker: ticker}
		for _, row := range rows {
			key := models.FundamentalRecord{Ticker: ticker, Year: row.Year()}.Key()
			if rec, ok := annual[key]; ok {
				carried = carryForward(carried, rec)
			}

			if !carried.Health.Known() || !row.RSI14.Valid {
				continue
			}
			fused = append(fused, models.FusedRecord{Technical: row, Fundamental: carried})
		}
	}
	return fused, nil
}

// carryForward overlays the defined fields of next onto prev.
func carryForward(prev, next models.FundamentalRecord) models.FundamentalRecord {
	out := prev
	out.Year = next.Year
	fields := []struct {
		dst *models.NullFloat
		src models.NullFloat
	}{
		{&out.PERatio, next.PERatio},
		{&out.PBRatio, next.PBRatio},
		{&out.ROE, next.ROE},
		{&out.DebtToEquity, next.DebtToEquity},
		{&out.CurrentRatio, next.CurrentRatio},
		{&out.DividendYield, next.DividendYield},
	}
	for _, f := range fields {
		if f.src.Valid {
			*f.dst = f.src
		}
	}
	if next.Health.Known() {
		out.Health = next.Health
	}
	return out
}
