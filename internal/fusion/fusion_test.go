package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/condor/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tech(ticker string, when time.Time, rsi float64) models.TechnicalRecord {
	return models.TechnicalRecord{Ticker: ticker, Date: when, Close: 100, RSI14: models.Float(rsi)}
}

func fundamentals(records ...models.FundamentalRecord) models.FundamentalTable {
	return models.NewFundamentalTable(records)
}

func TestDetectDivergencesScenario(t *testing.T) {
	fund := fundamentals(models.FundamentalRecord{Ticker: "X", Year: 2024, ROE: models.Float(0.2), Health: models.HealthHigh})

	tests := []struct {
		rsi  float64
		want string
	}{
		{25, RuleOversoldHigh},
		{33, RuleNearOversoldHigh},
		{45, ""},
	}
	for _, tt := range tests {
		got, err := DetectDivergences([]models.TechnicalRecord{tech("X", date(2024, 3, 1), tt.rsi)}, fund)
		require.NoError(t, err)
		if tt.want == "" {
			assert.Nil(t, got)
			continue
		}
		require.Len(t, got, 1)
		assert.Equal(t, tt.want, got[0].Rule)
		assert.Equal(t, "X", got[0].Ticker)
		assert.Equal(t, date(2024, 3, 1), got[0].Date)
		assert.Equal(t, models.Float(tt.rsi), got[0].RSI)
		assert.Equal(t, models.HealthHigh, got[0].Health)
		assert.Equal(t, models.Float(0.2), got[0].ROE)
	}
}

func TestFuseForwardFillsAcrossYears(t *testing.T) {
	rec := models.FundamentalRecord{Ticker: "X", Year: 2023, PERatio: models.Float(8), ROE: models.Float(0.2), Health: models.HealthStable}
	rows := []models.TechnicalRecord{
		tech("X", date(2024, 6, 3), 50),
		tech("X", date(2022, 12, 30), 50),
		tech("X", date(2023, 1, 2), 50),
		tech("X", date(2024, 1, 2), 50),
	}

	fused, err := Fuse(rows, fundamentals(rec))
	require.NoError(t, err)
	require.Len(t, fused, 3, "the 2022 row has nothing to inherit")

	assert.Equal(t, date(2023, 1, 2), fused[0].Technical.Date)
	assert.Equal(t, date(2024, 1, 2), fused[1].Technical.Date)
	assert.Equal(t, date(2024, 6, 3), fused[2].Technical.Date)
	for _, f := range fused {
		assert.Equal(t, rec, f.Fundamental)
	}
}

func TestFuseFillsFieldsIndependently(t *testing.T) {
	fund := fundamentals(
		models.FundamentalRecord{Ticker: "X", Year: 2023, PERatio: models.Float(8), ROE: models.Float(0.1), Health: models.HealthStable},
		models.FundamentalRecord{Ticker: "X", Year: 2024, ROE: models.Float(0.3), Health: models.HealthHigh},
	)
	fused, err := Fuse([]models.TechnicalRecord{tech("X", date(2023, 5, 2), 40), tech("X", date(2024, 5, 2), 40)}, fund)
	require.NoError(t, err)
	require.Len(t, fused, 2)

	assert.Equal(t, models.Float(8), fused[1].Fundamental.PERatio, "PE not reported in 2024 is carried")
	assert.Equal(t, models.Float(0.3), fused[1].Fundamental.ROE)
	assert.Equal(t, models.HealthHigh, fused[1].Fundamental.Health)
	assert.Equal(t, 2024, fused[1].Fundamental.Year)
}

func TestFuseDropsMissingRSIAndKeepsTickerOrder(t *testing.T) {
	fund := fundamentals(
		models.FundamentalRecord{Ticker: "B", Year: 2024, Health: models.HealthHigh},
		models.FundamentalRecord{Ticker: "A", Year: 2024, Health: models.HealthHigh},
	)
	noRSI := tech("B", date(2024, 1, 3), 0)
	noRSI.RSI14 = models.Null()
	rows := []models.TechnicalRecord{
		tech("B", date(2024, 1, 4), 20),
		tech("A", date(2024, 1, 2), 20),
		noRSI,
		tech("B", date(2024, 1, 2), 20),
		tech("C", date(2024, 1, 2), 20),
	}

	fused, err := Fuse(rows, fund)
	require.NoError(t, err)
	require.Len(t, fused, 3)
	assert.Equal(t, "B", fused[0].Technical.Ticker)
	assert.Equal(t, date(2024, 1, 2), fused[0].Technical.Date)
	assert.Equal(t, date(2024, 1, 4), fused[1].Technical.Date)
	assert.Equal(t, "A", fused[2].Technical.Ticker)
}

func TestDetectDivergencesGroupsByRulePriority(t *testing.T) {
	fund := fundamentals(
		models.FundamentalRecord{Ticker: "HIGH", Year: 2024, Health: models.HealthHigh},
		models.FundamentalRecord{Ticker: "STABLE", Year: 2024, Health: models.HealthStable},
		models.FundamentalRecord{Ticker: "RISK", Year: 2024, Health: models.HealthAtRisk},
	)
	rows := []models.TechnicalRecord{
		tech("STABLE", date(2024, 2, 1), 29),
		tech("HIGH", date(2024, 2, 1), 34),
		tech("HIGH", date(2024, 2, 2), 29.99),
		tech("HIGH", date(2024, 2, 3), 35),
		tech("RISK", date(2024, 2, 1), 10),
		tech("STABLE", date(2024, 2, 2), 30),
		tech("HIGH", date(2024, 2, 4), 30),
	}

	got, err := DetectDivergences(rows, fund)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, RuleOversoldHigh, got[0].Rule)
	assert.Equal(t, date(2024, 2, 2), got[0].Date)
	assert.Equal(t, RuleNearOversoldHigh, got[1].Rule)
	assert.Equal(t, date(2024, 2, 1), got[1].Date)
	assert.Equal(t, RuleNearOversoldHigh, got[2].Rule)
	assert.Equal(t, date(2024, 2, 4), got[2].Date)
	assert.Equal(t, RuleOversoldStable, got[3].Rule)
	assert.Equal(t, "STABLE", got[3].Ticker)

	assert.Equal(t, map[string]int{RuleOversoldHigh: 1, RuleNearOversoldHigh: 2, RuleOversoldStable: 1}, CountByRule(got))
}

func TestRuleExclusivity(t *testing.T) {
	fund := fundamentals(
		models.FundamentalRecord{Ticker: "H", Year: 2024, Health: models.HealthHigh},
		models.FundamentalRecord{Ticker: "S", Year: 2024, Health: models.HealthStable},
	)
	var rows []models.TechnicalRecord
	for i := 0; i < 50; i++ {
		rows = append(rows, tech("H", date(2024, 1, 1).AddDate(0, 0, i), float64(i)))
		rows = append(rows, tech("S", date(2024, 1, 1).AddDate(0, 0, i), float64(i)))
	}

	fused, err := Fuse(rows, fund)
	require.NoError(t, err)
	got := Classify(fused, Rules())

	rules := Rules()
	priority := map[string]int{}
	for i, r := range rules {
		priority[r.Name] = i
	}
	for _, o := range got {
		row := models.FusedRecord{
			Technical:   models.TechnicalRecord{RSI14: o.RSI},
			Fundamental: models.FundamentalRecord{Health: o.Health},
		}
		for _, higher := range rules[:priority[o.Rule]] {
			assert.False(t, higher.Match(row), "%s on %s also matches %s", o.Ticker, o.Date, higher.Name)
		}
	}
	assert.Len(t, got, 65) // 30 oversold high, 5 near-oversold high, 30 oversold stable
}

func TestDetectDivergencesIsIdempotent(t *testing.T) {
	fund := fundamentals(models.FundamentalRecord{Ticker: "X", Year: 2024, Health: models.HealthHigh})
	rows := []models.TechnicalRecord{tech("X", date(2024, 1, 2), 20), tech("X", date(2024, 1, 3), 32)}

	first, err := DetectDivergences(rows, fund)
	require.NoError(t, err)
	second, err := DetectDivergences(rows, fund)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDetectDivergencesSchemaError(t *testing.T) {
	table := models.FundamentalTable{
		Columns: []string{"ticker", "roe", "salud_financiera"},
		Records: []models.FundamentalRecord{{Ticker: "X", Health: models.HealthHigh}},
	}
	_, err := DetectDivergences([]models.TechnicalRecord{tech("X", date(2024, 1, 2), 20)}, table)

	var schemaErr *models.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"year"}, schemaErr.Missing)
}

func TestDetectDivergencesEmpty(t *testing.T) {
	got, err := DetectDivergences(nil, fundamentals())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = DetectDivergences([]models.TechnicalRecord{tech("X", date(2024, 1, 2), 20)}, fundamentals())
	require.NoError(t, err)
	assert.Nil(t, got)
}
