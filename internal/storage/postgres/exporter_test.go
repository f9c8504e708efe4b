package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/models"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{conn: sqlDB, logger: arbor.NewLogger()}, mock
}

var tradeDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestInitSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS prices").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS indicators").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS fundamentals").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, db.InitSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPrices(t *testing.T) {
	db, mock := newMockDB(t)

	bars := []models.PriceBar{
		{Ticker: "SQM-B", Date: tradeDate, Open: 40, High: 41, Low: 39, Close: 40.5, Volume: 1000},
		{Ticker: "SQM-B", Date: tradeDate.AddDate(0, 0, 1), Open: 40.5, High: 42, Low: 40, Close: 41, Volume: 1200},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO prices")
	prep.ExpectExec().WithArgs("SQM-B", tradeDate, 40.0, 41.0, 39.0, 40.5, int64(1000)).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("SQM-B", tradeDate.AddDate(0, 0, 1), 40.5, 42.0, 40.0, 41.0, int64(1200)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := db.UpsertPrices(context.Background(), bars)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertIndicatorsWritesNulls(t *testing.T) {
	db, mock := newMockDB(t)

	rec := models.TechnicalRecord{Ticker: "X", Date: tradeDate, RSI14: models.Float(28.5)}
	args := []driver.Value{"X", tradeDate, 28.5}
	for i := 0; i < 18; i++ {
		args = append(args, nil)
	}

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO indicators").ExpectExec().WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := db.UpsertIndicators(context.Background(), []models.TechnicalRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFundamentalsRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)

	records := []models.FundamentalRecord{
		{Ticker: "SQM-B", Year: 2024, ROE: models.Float(0.235), Health: models.HealthHigh},
		{Ticker: "ENELCHILE", Year: 2024},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO fundamentals")
	prep.ExpectExec().
		WithArgs("SQM-B", 2024, nil, nil, 0.235, nil, nil, nil, "Alta").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("ENELCHILE", 2024, nil, nil, nil, nil, nil, nil, nil).
		WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	n, err := db.UpsertFundamentals(context.Background(), records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENELCHILE 2024")
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertEmptyBatchSkipsTransaction(t *testing.T) {
	db, mock := newMockDB(t)

	n, err := db.UpsertPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportStopsAtFirstFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	bars := []models.PriceBar{{Ticker: "X", Date: tradeDate, Close: 1}}
	result, err := db.Export(context.Background(), bars, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	assert.Zero(t, result.Total())
	require.NoError(t, mock.ExpectationsWereMet())
}
