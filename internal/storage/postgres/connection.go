// Package postgres exports the pipeline tables to PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/common"
)

// DB wraps the database connection
type DB struct {
	conn   *sql.DB
	logger arbor.ILogger
}

// NewConnection opens and pings the database named by cfg.DSN
func NewConnection(ctx context.Context, logger arbor.ILogger, cfg *common.PostgresConfig) (*DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Debug().Msg("PostgreSQL connection established")
	return &DB{conn: conn, logger: logger}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
