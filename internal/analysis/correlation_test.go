package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/condor/internal/models"
)

func rows(n int) []models.TechnicalRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.TechnicalRecord, n)
	for i := range out {
		x := float64(i)
		out[i] = models.TechnicalRecord{
			Ticker: "X",
			Date:   start.AddDate(0, 0, i),
			Close:  10 + x,
			Volume: 1000,
			RSI14:  models.Float(100 - 2*x),
			ADX14:  models.Float(25),
		}
	}
	return out
}

func TestCorrelation(t *testing.T) {
	data := rows(10)
	data[3].RSI14 = models.Null()

	m, err := Correlation(data, []string{"close", "rsi_14", "adx_14", "stoch_k"})
	require.NoError(t, err)
	assert.Equal(t, []string{"close", "rsi_14", "adx_14", "stoch_k"}, m.Columns)

	assert.InDelta(t, 1, m.Values[0][0].Float64, 1e-12)
	assert.InDelta(t, -1, m.Values[0][1].Float64, 1e-12, "pairwise-complete rows only")
	assert.Equal(t, m.Values[0][1], m.Values[1][0])
	assert.False(t, m.Values[0][2].Valid, "constant column has no correlation")
	assert.False(t, m.Values[0][3].Valid, "column never computed")
}

func TestCorrelationVolumeFeature(t *testing.T) {
	data := rows(30)
	for i := range data {
		data[i].Volume = int64(1000 + i*10)
	}

	m, err := Correlation(data, DefaultColumns)
	require.NoError(t, err)
	require.Contains(t, m.Columns, "volume_normalized_20")
	last := len(m.Columns) - 1
	assert.True(t, m.Values[0][last].Valid)
	// Linear volume growth shrinks the ratio to its own trailing mean.
	assert.Less(t, m.Values[0][last].Float64, 0.0)
}

func TestCorrelationNeedsTwoColumns(t *testing.T) {
	_, err := Correlation(rows(5), []string{"close"})
	assert.True(t, models.IsConfigurationError(err))
}

func TestCorrelationRejectsUnknownColumns(t *testing.T) {
	_, err := Correlation(rows(5), []string{"close", "rsi_14", "nope", "adx_14", "missing"})
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "correlation_columns", cfgErr.Field)
	assert.Equal(t, []string{"nope", "missing"}, cfgErr.Value)
	assert.Contains(t, err.Error(), "nope, missing")
}

func TestTopPairs(t *testing.T) {
	m := models.CorrelationMatrix{
		Columns: []string{"a", "b", "c"},
		Values: [][]models.NullFloat{
			{models.Float(1), models.Float(0.2), models.Float(-0.9)},
			{models.Float(0.2), models.Float(1), models.Null()},
			{models.Float(-0.9), models.Null(), models.Float(1)},
		},
	}

	pairs := TopPairs(m, 5)
	require.Len(t, pairs, 2)
	assert.Equal(t, models.CorrelationPair{A: "a", B: "c", R: -0.9}, pairs[0])
	assert.Equal(t, "b", pairs[1].B)

	assert.Len(t, TopPairs(m, 1), 1)
}
