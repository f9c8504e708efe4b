package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/models"
)

func syntheticBars(ticker string, n int, start time.Time) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := 0; i < n; i++ {
		c := 100 + 10*math.Sin(float64(i)/10) + float64(i)*0.1
		bars[i] = models.PriceBar{
			Ticker: ticker,
			Date:   start.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: int64(1000 + (i%7)*100),
		}
	}
	return bars
}

func TestComputeWarmupIsMissing(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	long := syntheticBars("SQM-B", 260, start)
	short := syntheticBars("CHILE", 10, start)

	// Feed in reverse with a duplicate to check ordering and de-duplication
	input := append([]models.PriceBar{}, short...)
	for i := len(long) - 1; i >= 0; i-- {
		input = append(input, long[i])
	}
	input = append(input, long[5])

	calc := NewCalculator(DefaultConfig(), arbor.NewLogger())
	records := calc.Compute(input)
	require.Len(t, records, 270)

	// Tickers sorted, then dates ascending
	assert.Equal(t, "CHILE", records[0].Ticker)
	assert.Equal(t, "SQM-B", records[10].Ticker)
	for i := 11; i < len(records); i++ {
		assert.True(t, records[i-1].Date.Before(records[i].Date))
	}

	sqm := records[10:]

	assert.False(t, sqm[198].SMA200.Valid)
	require.True(t, sqm[199].SMA200.Valid)
	sum := 0.0
	for i := 0; i < 200; i++ {
		sum += long[i].Close
	}
	assert.InDelta(t, sum/200, sqm[199].SMA200.Float64, 1e-6)

	assert.False(t, sqm[13].RSI14.Valid)
	require.True(t, sqm[14].RSI14.Valid)
	for _, r := range sqm[14:] {
		assert.GreaterOrEqual(t, r.RSI14.Float64, 0.0)
		assert.LessOrEqual(t, r.RSI14.Float64, 100.0)
	}

	assert.False(t, sqm[26].ADX14.Valid)
	assert.True(t, sqm[27].ADX14.Valid)
	assert.False(t, sqm[13].ATR14.Valid)
	assert.True(t, sqm[14].ATR14.Valid)
	assert.False(t, sqm[32].MACD.Valid)
	assert.True(t, sqm[33].MACDSignal.Valid)
	assert.False(t, sqm[16].StochK.Valid)
	assert.True(t, sqm[17].StochD.Valid)
	assert.True(t, sqm[0].OBV.Valid)
	assert.True(t, sqm[19].VolumeSMA20.Valid)
	assert.False(t, sqm[18].VolumeSMA20.Valid)

	assert.True(t, sqm[8].IchimokuTenkan.Valid)
	assert.False(t, sqm[7].IchimokuTenkan.Valid)
	assert.False(t, sqm[50].IchimokuSpanA.Valid)
	assert.True(t, sqm[51].IchimokuSpanA.Valid)
	assert.False(t, sqm[76].IchimokuSpanB.Valid)
	assert.True(t, sqm[77].IchimokuSpanB.Valid)

	// Ten bars are not enough for the long windows: missing, never zero
	chile := records[:10]
	for _, r := range chile {
		assert.False(t, r.SMA200.Valid)
		assert.False(t, r.ADX14.Valid)
		assert.False(t, r.RSI14.Valid)
		assert.False(t, r.MACD.Valid)
	}
	assert.True(t, chile[4].SMA5.Valid)
}

func TestGroupByTickerLastDuplicateWins(t *testing.T) {
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	groups := GroupByTicker([]models.PriceBar{
		{Ticker: "COPEC", Date: day, Close: 1},
		{Ticker: "COPEC", Date: day, Close: 2},
	})
	require.Len(t, groups["COPEC"], 1)
	assert.Equal(t, 2.0, groups["COPEC"][0].Close)
}
