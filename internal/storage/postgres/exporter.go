package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ternarybob/condor/internal/models"
)

const upsertPriceSQL = `
	INSERT INTO prices (ticker, trade_date, open, high, low, close, volume)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (ticker, trade_date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume
`

const upsertIndicatorSQL = `
	INSERT INTO indicators (
		ticker, trade_date, rsi, macd, macd_signal, macd_hist, sma_20, sma_50, sma_200,
		adx, atr, cci, stoch_k, stoch_d, psar, obv, bb_high, bb_mid, bb_low, ichimoku_a, ichimoku_b
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	ON CONFLICT (ticker, trade_date) DO UPDATE SET
		rsi = EXCLUDED.rsi,
		macd = EXCLUDED.macd,
		macd_signal = EXCLUDED.macd_signal,
		macd_hist = EXCLUDED.macd_hist,
		sma_20 = EXCLUDED.sma_20,
		sma_50 = EXCLUDED.sma_50,
		sma_200 = EXCLUDED.sma_200,
		adx = EXCLUDED.adx,
		atr = EXCLUDED.atr,
		cci = EXCLUDED.cci,
		stoch_k = EXCLUDED.stoch_k,
		stoch_d = EXCLUDED.stoch_d,
		psar = EXCLUDED.psar,
		obv = EXCLUDED.obv,
		bb_high = EXCLUDED.bb_high,
		bb_mid = EXCLUDED.bb_mid,
		bb_low = EXCLUDED.bb_low,
		ichimoku_a = EXCLUDED.ichimoku_a,
		ichimoku_b = EXCLUDED.ichimoku_b
`

const upsertFundamentalSQL = `
	INSERT INTO fundamentals (
		ticker, year, pe_ratio, pb_ratio, roe, debt_to_equity, current_ratio, dividend_yield, salud_financiera
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (ticker, year) DO UPDATE SET
		pe_ratio = EXCLUDED.pe_ratio,
		pb_ratio = EXCLUDED.pb_ratio,
		roe = EXCLUDED.roe,
		debt_to_equity = EXCLUDED.debt_to_equity,
		current_ratio = EXCLUDED.current_ratio,
		dividend_yield = EXCLUDED.dividend_yield,
		salud_financiera = EXCLUDED.salud_financiera
`

// ExportResult counts the rows written per table
type ExportResult struct {
	Prices       int
	Indicators   int
	Fundamentals int
}

// Total is the number of rows written across tables.
func (r ExportResult) Total() int {
	return r.Prices + r.Indicators + r.Fundamentals
}

// Export creates the schema and upserts every table. Each table is one transaction.
func (db *DB) Export(ctx context.Context, prices []models.PriceBar, technical []models.TechnicalRecord, fundamentals []models.FundamentalRecord) (ExportResult, error) {
	var result ExportResult

	if err := db.InitSchema(ctx); err != nil {
		return result, err
	}

	n, err := db.UpsertPrices(ctx, prices)
	if err != nil {
		return result, err
	}
	result.Prices = n

	if n, err = db.UpsertIndicators(ctx, technical); err != nil {
		return result, err
	}
	result.Indicators = n

	if n, err = db.UpsertFundamentals(ctx, fundamentals); err != nil {
		return result, err
	}
	result.Fundamentals = n

	db.logger.Info().
		Int("prices", result.Prices).
		Int("indicators", result.Indicators).
		Int("fundamentals", result.Fundamentals).
		Msg("Exported tables to PostgreSQL")

	return result, nil
}

// UpsertPrices writes price bars keyed by (ticker, trade_date)
func (db *DB) UpsertPrices(ctx context.Context, bars []models.PriceBar) (int, error) {
	return db.batch(ctx, "prices", upsertPriceSQL, len(bars), func(stmt *sql.Stmt, i int) error {
		b := bars[i]
		_, err := stmt.ExecContext(ctx, b.Ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return fmt.Errorf("failed to upsert price %s %s: %w", b.Ticker, b.Date.Format(models.DateLayout), err)
		}
		return nil
	})
}

// UpsertIndicators writes the indicator subset of the technical table
func (db *DB) UpsertIndicators(ctx context.Context, records []models.TechnicalRecord) (int, error) {
	return db.batch(ctx, "indicators", upsertIndicatorSQL, len(records), func(stmt *sql.Stmt, i int) error {
		r := records[i]
		_, err := stmt.ExecContext(ctx,
			r.Ticker, r.Date,
			r.RSI14, r.MACD, r.MACDSignal, r.MACDHist,
			r.SMA20, r.SMA50, r.SMA200,
			r.ADX14, r.ATR14, r.CCI20,
			r.StochK, r.StochD, r.PSAR, r.OBV,
			r.BBUpper, r.BBMiddle, r.BBLower,
			r.IchimokuSpanA, r.IchimokuSpanB,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert indicators %s %s: %w", r.Ticker, r.Date.Format(models.DateLayout), err)
		}
		return nil
	})
}

// UpsertFundamentals writes annual ratios keyed by (ticker, year)
func (db *DB) UpsertFundamentals(ctx context.Context, records []models.FundamentalRecord) (int, error) {
	return db.batch(ctx, "fundamentals", upsertFundamentalSQL, len(records), func(stmt *sql.Stmt, i int) error {
		r := records[i]
		var health sql.NullString
		if r.Health.Known() {
			health = sql.NullString{String: r.Health.Wire(), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			r.Ticker, r.Year,
			r.PERatio, r.PBRatio, r.ROE, r.DebtToEquity, r.CurrentRatio, r.DividendYield,
			health,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert fundamentals %s %d: %w", r.Ticker, r.Year, err)
		}
		return nil
	})
}

// batch runs exec for n rows through one prepared statement in one transaction
func (db *DB) batch(ctx context.Context, table, query string, n int, exec func(*sql.Stmt, int) error) (int, error) {
	if n == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare %s upsert: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", table, err)
	}

	db.logger.Debug().Str("table", table).Int("rows", n).Msg("Upserted rows")
	return n, nil
}
