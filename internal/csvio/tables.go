package csvio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/condor/internal/models"
)

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	// Timestamps written by other tools carry a time part
	if len(s) > 10 {
		s = s[:10]
	}
	return time.Parse(models.DateLayout, s)
}

func parseVolume(d Dialect, s string) (int64, error) {
	v, err := d.ParseFloat(s)
	if err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, nil
	}
	return int64(v.Float64), nil
}

// WritePrices writes the OHLCV master table.
func WritePrices(path string, d Dialect, bars []models.PriceBar) error {
	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, []string{
			b.Date.Format(models.DateLayout),
			b.Ticker,
			d.FormatFloat(b.Open),
			d.FormatFloat(b.High),
			d.FormatFloat(b.Low),
			d.FormatFloat(b.Close),
			d.FormatNull(b.AdjClose),
			strconv.FormatInt(b.Volume, 10),
		})
	}
	return WriteTable(path, d, models.PricesSchema.Columns, rows)
}

// ReadPrices reads the OHLCV master table. Rows without a close price are skipped.
func ReadPrices(path string, d Dialect) ([]models.PriceBar, error) {
	table, err := ReadTable(path, d, models.PricesSchema)
	if err != nil {
		return nil, err
	}

	bars := make([]models.PriceBar, 0, len(table.Rows))
	for i, row := range table.Rows {
		date, err := parseDate(table.Get(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}

		values := make(map[string]models.NullFloat, 5)
		for _, col := range []string{"open", "high", "low", "close", "adj_close"} {
			v, err := d.ParseFloat(table.Get(row, col))
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", path, i+2, col, err)
			}
			values[col] = v
		}
		if !values["close"].Valid {
			continue
		}
		volume, err := parseVolume(d, table.Get(row, "volume"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d column volume: %w", path, i+2, err)
		}

		bars = append(bars, models.PriceBar{
			Ticker:   strings.TrimSpace(table.Get(row, "ticker")),
			Date:     date,
			Open:     values["open"].Or(values["close"].Float64),
			High:     values["high"].Or(values["close"].Float64),
			Low:      values["low"].Or(values["close"].Float64),
			Close:    values["close"].Float64,
			AdjClose: values["adj_close"],
			Volume:   volume,
		})
	}
	return bars, nil
}

// WriteTechnical writes the indicator table in schema column order.
func WriteTechnical(path string, d Dialect, records []models.TechnicalRecord) error {
	columns := models.TechnicalSchema.Columns
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, 0, len(columns))
		row = append(row, r.Date.Format(models.DateLayout), r.Ticker)
		for _, col := range columns[2:] {
			if col == "volume" {
				row = append(row, strconv.FormatInt(r.Volume, 10))
				continue
			}
			v, _ := r.Column(col)
			row = append(row, d.FormatNull(v))
		}
		rows = append(rows, row)
	}
	return WriteTable(path, d, columns, rows)
}

// ReadTechnical reads the indicator table. Optional indicator columns that are
// absent from the file load as missing. Rows without a close price are skipped.
func ReadTechnical(path string, d Dialect) ([]models.TechnicalRecord, error) {
	table, err := ReadTable(path, d, models.TechnicalSchema)
	if err != nil {
		return nil, err
	}

	records := make([]models.TechnicalRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		date, err := parseDate(table.Get(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		rec := models.TechnicalRecord{
			Ticker: strings.TrimSpace(table.Get(row, "ticker")),
			Date:   date,
		}

		prices := make(map[string]models.NullFloat, 4)
		for _, col := range []string{"open", "high", "low", "close"} {
			v, err := d.ParseFloat(table.Get(row, col))
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", path, i+2, col, err)
			}
			prices[col] = v
		}
		closePrice := prices["close"]
		if !closePrice.Valid {
			continue
		}
		rec.Close = closePrice.Float64
		rec.Open = prices["open"].Or(rec.Close)
		rec.High = prices["high"].Or(rec.Close)
		rec.Low = prices["low"].Or(rec.Close)

		if rec.Volume, err = parseVolume(d, table.Get(row, "volume")); err != nil {
			return nil, fmt.Errorf("%s row %d column volume: %w", path, i+2, err)
		}

		for _, col := range models.TechnicalSchema.Columns[7:] {
			if !table.Has(col) {
				continue
			}
			v, err := d.ParseFloat(table.Get(row, col))
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", path, i+2, col, err)
			}
			rec.SetColumn(col, v)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteFundamentals writes the fundamental table with wire health labels.
func WriteFundamentals(path string, d Dialect, records []models.FundamentalRecord) error {
	rows := make([][]string, 0, len(records))
	for _, f := range records {
		rows = append(rows, []string{
			f.Ticker,
			strconv.Itoa(f.Year),
			d.FormatNull(f.PERatio),
			d.FormatNull(f.PBRatio),
			d.FormatNull(f.ROE),
			d.FormatNull(f.DebtToEquity),
			d.FormatNull(f.CurrentRatio),
			d.FormatNull(f.DividendYield),
			f.Health.Wire(),
		})
	}
	return WriteTable(path, d, models.FundamentalSchema.Columns, rows)
}

// ReadFundamentals reads a fundamental table, keeping the declared columns.
func ReadFundamentals(path string, d Dialect) (models.FundamentalTable, error) {
	table, err := ReadTable(path, d, models.FundamentalSchema)
	if err != nil {
		return models.FundamentalTable{}, err
	}

	out := models.FundamentalTable{Columns: table.Header}
	for i, row := range table.Rows {
		year, err := strconv.Atoi(strings.TrimSpace(table.Get(row, "year")))
		if err != nil {
			return models.FundamentalTable{}, fmt.Errorf("%s row %d column year: %w", path, i+2, err)
		}
		health, err := models.ParseHealthLabel(table.Get(row, "salud_financiera"))
		if err != nil {
			return models.FundamentalTable{}, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}

		rec := models.FundamentalRecord{
			Ticker: strings.TrimSpace(table.Get(row, "ticker")),
			Year:   year,
			Health: health,
		}
		fields := map[string]*models.NullFloat{
			"pe_ratio":       &rec.PERatio,
			"pb_ratio":       &rec.PBRatio,
			"roe":            &rec.ROE,
			"debt_to_equity": &rec.DebtToEquity,
			"current_ratio":  &rec.CurrentRatio,
			"dividend_yield": &rec.DividendYield,
		}
		for col, dst := range fields {
			v, err := d.ParseFloat(table.Get(row, col))
			if err != nil {
				return models.FundamentalTable{}, fmt.Errorf("%s row %d column %s: %w", path, i+2, col, err)
			}
			*dst = v
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

// WriteMacro writes the macro basket with one column per series.
func WriteMacro(path string, d Dialect, table models.MacroTable) error {
	header := append([]string{"date"}, table.Columns...)
	rows := make([][]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		row := make([]string, 0, len(header))
		row = append(row, r.Date.Format(models.DateLayout))
		for _, v := range r.Values {
			row = append(row, d.FormatNull(v))
		}
		rows = append(rows, row)
	}
	return WriteTable(path, d, header, rows)
}

// ReadMacro reads the macro basket back.
func ReadMacro(path string, d Dialect) (models.MacroTable, error) {
	table, err := ReadTable(path, d, models.MacroSchema)
	if err != nil {
		return models.MacroTable{}, err
	}

	var columns []string
	for _, h := range table.Header {
		if h != "date" {
			columns = append(columns, h)
		}
	}
	out := models.MacroTable{Columns: columns}
	for i, row := range table.Rows {
		date, err := parseDate(table.Get(row, "date"))
		if err != nil {
			return models.MacroTable{}, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		values := make([]models.NullFloat, len(columns))
		for j, col := range columns {
			if values[j], err = d.ParseFloat(table.Get(row, col)); err != nil {
				return models.MacroTable{}, fmt.Errorf("%s row %d column %s: %w", path, i+2, col, err)
			}
		}
		out.Rows = append(out.Rows, models.MacroRow{Date: date, Values: values})
	}
	return out, nil
}

// ReadRoster reads the ticker universe. The ticker column is column, or "ticker"
// when column is absent; neither present is a SchemaError.
func ReadRoster(path string, d Dialect, column string) (models.Roster, error) {
	schema := models.RosterSchema
	schema.Required = nil
	table, err := ReadTable(path, d, schema)
	if err != nil {
		return models.Roster{}, err
	}

	tickerColumn := column
	if !table.Has(tickerColumn) {
		tickerColumn = "ticker"
	}
	if !table.Has(tickerColumn) {
		return models.Roster{}, &models.SchemaError{Table: schema.Name, Version: schema.Version, Missing: []string{column}}
	}

	roster := models.Roster{TickerColumn: tickerColumn, Columns: table.Header}
	seen := make(map[string]bool)
	for _, row := range table.Rows {
		ticker := strings.ToUpper(strings.TrimSpace(table.Get(row, tickerColumn)))
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true

		values := make([]string, len(table.Header))
		copy(values, row)
		values[table.index[tickerColumn]] = ticker
		roster.Entries = append(roster.Entries, models.RosterEntry{Ticker: ticker, Values: values})
	}
	return roster, nil
}

// WriteProfiles writes the roster with the cluster and personality columns appended.
func WriteProfiles(path string, d Dialect, roster models.Roster, rows []models.ProfileRow) error {
	header := append([]string{}, roster.Columns...)
	header = append(header, "cluster", "personalidad")

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := make([]string, 0, len(header))
		row = append(row, r.Entry.Values...)
		for len(row) < len(roster.Columns) {
			row = append(row, "")
		}
		cluster := ""
		if r.Cluster.Valid {
			cluster = strconv.Itoa(r.Cluster.Int)
		}
		row = append(row, cluster, string(r.Personality))
		out = append(out, row)
	}
	return WriteTable(path, d, header, out)
}

// WriteOpportunities writes the divergence table.
func WriteOpportunities(path string, d Dialect, opportunities []models.Opportunity) error {
	rows := make([][]string, 0, len(opportunities))
	for _, o := range opportunities {
		rows = append(rows, []string{
			o.Date.Format(models.DateLayout),
			o.Ticker,
			d.FormatFloat(o.Close),
			d.FormatNull(o.RSI),
			o.Health.Wire(),
			d.FormatNull(o.ROE),
			o.Rule,
		})
	}
	return WriteTable(path, d, models.OpportunitySchema.Columns, rows)
}

// ReadOpportunities reads the divergence table back. Rows without a close price are skipped.
func ReadOpportunities(path string, d Dialect) ([]models.Opportunity, error) {
	table, err := ReadTable(path, d, models.OpportunitySchema)
	if err != nil {
		return nil, err
	}

	out := make([]models.Opportunity, 0, len(table.Rows))
	for i, row := range table.Rows {
		date, err := parseDate(table.Get(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		closePrice, err := d.ParseFloat(table.Get(row, "close"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d column close: %w", path, i+2, err)
		}
		if !closePrice.Valid {
			continue
		}
		rsi, err := d.ParseFloat(table.Get(row, "rsi_14"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d column rsi_14: %w", path, i+2, err)
		}
		roe, err := d.ParseFloat(table.Get(row, "roe"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d column roe: %w", path, i+2, err)
		}
		health, err := models.ParseHealthLabel(table.Get(row, "salud_financiera"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		out = append(out, models.Opportunity{
			Rule:   table.Get(row, "rule"),
			Date:   date,
			Ticker: table.Get(row, "ticker"),
			Close:  closePrice.Float64,
			RSI:    rsi,
			Health: health,
			ROE:    roe,
		})
	}
	return out, nil
}
