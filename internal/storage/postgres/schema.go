package postgres

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS prices (
		id BIGSERIAL PRIMARY KEY,
		ticker VARCHAR(32) NOT NULL,
		trade_date DATE NOT NULL,
		open NUMERIC(18,6) NOT NULL,
		high NUMERIC(18,6) NOT NULL,
		low NUMERIC(18,6) NOT NULL,
		close NUMERIC(18,6) NOT NULL,
		volume BIGINT NULL,
		UNIQUE (ticker, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS indicators (
		id BIGSERIAL PRIMARY KEY,
		ticker VARCHAR(32) NOT NULL,
		trade_date DATE NOT NULL,
		rsi NUMERIC(18,6) NULL,
		macd NUMERIC(18,6) NULL,
		macd_signal NUMERIC(18,6) NULL,
		macd_hist NUMERIC(18,6) NULL,
		sma_20 NUMERIC(18,6) NULL,
		sma_50 NUMERIC(18,6) NULL,
		sma_200 NUMERIC(18,6) NULL,
		adx NUMERIC(18,6) NULL,
		atr NUMERIC(18,6) NULL,
		cci NUMERIC(18,6) NULL,
		stoch_k NUMERIC(18,6) NULL,
		stoch_d NUMERIC(18,6) NULL,
		psar NUMERIC(18,6) NULL,
		obv NUMERIC(20,6) NULL,
		bb_high NUMERIC(18,6) NULL,
		bb_mid NUMERIC(18,6) NULL,
		bb_low NUMERIC(18,6) NULL,
		ichimoku_a NUMERIC(18,6) NULL,
		ichimoku_b NUMERIC(18,6) NULL,
		UNIQUE (ticker, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS fundamentals (
		id BIGSERIAL PRIMARY KEY,
		ticker VARCHAR(32) NOT NULL,
		year INT NOT NULL,
		pe_ratio NUMERIC(18,6) NULL,
		pb_ratio NUMERIC(18,6) NULL,
		roe NUMERIC(18,6) NULL,
		debt_to_equity NUMERIC(18,6) NULL,
		current_ratio NUMERIC(18,6) NULL,
		dividend_yield NUMERIC(18,6) NULL,
		salud_financiera VARCHAR(16) NULL,
		UNIQUE (ticker, year)
	)`,
}

// InitSchema creates the export tables if they do not exist
func (db *DB) InitSchema(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
