// Package indicators builds the per-(ticker, date) technical indicator table.
package indicators

import (
	"fmt"
	"sort"

	"github.com/markcheno/go-talib"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/models"
)

// Config holds the indicator periods.
type Config struct {
	EMAPeriods   []int
	SMAPeriods   []int
	RSIPeriod    int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	BBPeriod     int
	BBDeviations float64
	StochFastK   int
	StochSlowK   int
	StochSlowD   int
	CCIPeriod    int
	ADXPeriod    int
	ATRPeriod    int
	SARAccel     float64
	SARMax       float64
	TenkanPeriod int
	KijunPeriod  int
	SenkouPeriod int
	VolumePeriod int
}

// DefaultConfig returns the periods used for the technical table.
func DefaultConfig() Config {
	return Config{
		EMAPeriods:   []int{9, 12, 26},
		SMAPeriods:   []int{5, 20, 50, 200},
		RSIPeriod:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		BBPeriod:     20,
		BBDeviations: 2,
		StochFastK:   14,
		StochSlowK:   3,
		StochSlowD:   3,
		CCIPeriod:    20,
		ADXPeriod:    14,
		ATRPeriod:    14,
		SARAccel:     0.02,
		SARMax:       0.2,
		TenkanPeriod: 9,
		KijunPeriod:  26,
		SenkouPeriod: 52,
		VolumePeriod: 20,
	}
}

// Calculator computes indicator rows from price bars.
type Calculator struct {
	config Config
	logger arbor.ILogger
}

// NewCalculator creates a calculator.
func NewCalculator(config Config, logger arbor.ILogger) *Calculator {
	return &Calculator{config: config, logger: logger}
}

// Compute returns one TechnicalRecord per bar, ordered by ticker then date.
// Bars are grouped per ticker so no indicator window crosses tickers.
func (c *Calculator) Compute(bars []models.PriceBar) []models.TechnicalRecord {
	groups := GroupByTicker(bars)

	tickers := make([]string, 0, len(groups))
	for ticker := range groups {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var out []models.TechnicalRecord
	for _, ticker := range tickers {
		series := groups[ticker]
		records := c.computeSeries(series)
		out = append(out, records...)

		c.logger.Debug().
			Str("ticker", ticker).
			Int("rows", len(records)).
			Msg("Indicators computed")
	}
	return out
}

// GroupByTicker splits bars per ticker, sorted by date with duplicate dates removed.
// The last bar seen for a date wins.
func GroupByTicker(bars []models.PriceBar) map[string][]models.PriceBar {
	byKey := make(map[string]map[string]models.PriceBar)
	for _, b := range bars {
		if byKey[b.Ticker] == nil {
			byKey[b.Ticker] = make(map[string]models.PriceBar)
		}
		byKey[b.Ticker][b.Date.Format(models.DateLayout)] = b
	}

	groups := make(map[string][]models.PriceBar, len(byKey))
	for ticker, days := range byKey {
		series := make([]models.PriceBar, 0, len(days))
		for _, b := range days {
			series = append(series, b)
		}
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
		groups[ticker] = series
	}
	return groups
}

// computeSeries runs every indicator over one ticker's ordered bars.
func (c *Calculator) computeSeries(series []models.PriceBar) []models.TechnicalRecord {
	n := len(series)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)

	records := make([]models.TechnicalRecord, n)
	for i, b := range series {
		high[i], low[i], closes[i], volume[i] = b.High, b.Low, b.Close, float64(b.Volume)
		records[i] = models.TechnicalRecord{
			Ticker: b.Ticker,
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}

	set := func(name string, values []float64, lookback int) {
		for i := range records {
			if values == nil || i < lookback || i >= len(values) {
				records[i].SetColumn(name, models.Null())
				continue
			}
			records[i].SetColumn(name, models.Float(values[i]))
		}
	}

	cfg := c.config

	for _, p := range cfg.EMAPeriods {
		lb := p - 1
		set(fmt.Sprintf("ema_%d", p), guard(n, lb, func() []float64 { return talib.Ema(closes, p) }), lb)
	}
	for _, p := range cfg.SMAPeriods {
		lb := p - 1
		set(fmt.Sprintf("sma_%d", p), guard(n, lb, func() []float64 { return talib.Sma(closes, p) }), lb)
	}

	lb := cfg.RSIPeriod
	set("rsi_14", guard(n, lb, func() []float64 { return talib.Rsi(closes, cfg.RSIPeriod) }), lb)

	lb = cfg.MACDSlow - 1 + cfg.MACDSignal - 1
	if n > lb {
		macd, signal, hist := talib.Macd(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
		set("macd", macd, lb)
		set("macd_signal", signal, lb)
		set("macd_hist", hist, lb)
	} else {
		set("macd", nil, lb)
		set("macd_signal", nil, lb)
		set("macd_hist", nil, lb)
	}

	lb = cfg.BBPeriod - 1
	if n > lb {
		upper, middle, lower := talib.BBands(closes, cfg.BBPeriod, cfg.BBDeviations, cfg.BBDeviations, talib.SMA)
		set("bb_upper", upper, lb)
		set("bb_middle", middle, lb)
		set("bb_lower", lower, lb)
	} else {
		set("bb_upper", nil, lb)
		set("bb_middle", nil, lb)
		set("bb_lower", nil, lb)
	}

	lb = cfg.StochFastK - 1 + cfg.StochSlowK - 1 + cfg.StochSlowD - 1
	if n > lb {
		k, d := talib.Stoch(high, low, closes, cfg.StochFastK, cfg.StochSlowK, talib.SMA, cfg.StochSlowD, talib.SMA)
		set("stoch_k", k, lb)
		set("stoch_d", d, lb)
	} else {
		set("stoch_k", nil, lb)
		set("stoch_d", nil, lb)
	}

	lb = cfg.CCIPeriod - 1
	set("cci_20", guard(n, lb, func() []float64 { return talib.Cci(high, low, closes, cfg.CCIPeriod) }), lb)

	lb = 2*cfg.ADXPeriod - 1
	set("adx_14", guard(n, lb, func() []float64 { return talib.Adx(high, low, closes, cfg.ADXPeriod) }), lb)

	lb = 1
	set("psar", guard(n, lb, func() []float64 { return talib.Sar(high, low, cfg.SARAccel, cfg.SARMax) }), lb)

	lb = cfg.ATRPeriod
	set("atr_14", guard(n, lb, func() []float64 { return talib.Atr(high, low, closes, cfg.ATRPeriod) }), lb)

	set("obv", guard(n, 0, func() []float64 { return talib.Obv(closes, volume) }), 0)
	set("ad", guard(n, 0, func() []float64 { return talib.Ad(high, low, closes, volume) }), 0)

	lb = cfg.VolumePeriod - 1
	set("volume_sma_20", guard(n, lb, func() []float64 { return talib.Sma(volume, cfg.VolumePeriod) }), lb)

	ichimoku := computeIchimoku(high, low, cfg.TenkanPeriod, cfg.KijunPeriod, cfg.SenkouPeriod)
	for i := range records {
		records[i].IchimokuTenkan = ichimoku.tenkan[i]
		records[i].IchimokuKijun = ichimoku.kijun[i]
		records[i].IchimokuSpanA = ichimoku.spanA[i]
		records[i].IchimokuSpanB = ichimoku.spanB[i]
	}

	return records
}

// guard only calls fn when the series is longer than the lookback window.
func guard(n, lookback int, fn func() []float64) []float64 {
	if n <= lookback {
		return nil
	}
	return fn()
}
