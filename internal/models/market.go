package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in every table.
const DateLayout = "2006-01-02"

// PriceBar is one daily OHLCV bar for a ticker.
type PriceBar struct {
	Ticker   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose NullFloat
	Volume   int64
}

// Key returns the unique storage key of the bar.
func (b PriceBar) Key() string {
	return RowKey(b.Ticker, b.Date)
}

// TechnicalRecord is one (ticker, date) row of the indicator table.
// Every indicator is missing inside its warm-up window.
type TechnicalRecord struct {
	Ticker string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64

	EMA9  NullFloat
	EMA12 NullFloat
	EMA26 NullFloat

	SMA5   NullFloat
	SMA20  NullFloat
	SMA50  NullFloat
	SMA200 NullFloat

	RSI14 NullFloat

	MACD       NullFloat
	MACDSignal NullFloat
	MACDHist   NullFloat

	BBUpper  NullFloat
	BBMiddle NullFloat
	BBLower  NullFloat

	StochK NullFloat
	StochD NullFloat

	CCI20 NullFloat
	ADX14 NullFloat
	PSAR  NullFloat
	ATR14 NullFloat
	OBV   NullFloat
	AD    NullFloat

	IchimokuTenkan NullFloat
	IchimokuKijun  NullFloat
	IchimokuSpanA  NullFloat
	IchimokuSpanB  NullFloat

	VolumeSMA20 NullFloat
}

// Key returns the unique storage key of the record.
func (r TechnicalRecord) Key() string {
	return RowKey(r.Ticker, r.Date)
}

// Year returns the calendar year of the trading day.
func (r TechnicalRecord) Year() int {
	return r.Date.Year()
}

// Column returns a numeric column by its table name.
// Price columns are always present; unknown names report false.
func (r TechnicalRecord) Column(name string) (NullFloat, bool) {
	switch name {
	case "open":
		return Float(r.Open), true
	case "high":
		return Float(r.High), true
	case "low":
		return Float(r.Low), true
	case "close":
		return Float(r.Close), true
	case "volume":
		return Float(float64(r.Volume)), true
	case "ema_9":
		return r.EMA9, true
	case "ema_12":
		return r.EMA12, true
	case "ema_26":
		return r.EMA26, true
	case "sma_5":
		return r.SMA5, true
	case "sma_20":
		return r.SMA20, true
	case "sma_50":
		return r.SMA50, true
	case "sma_200":
		return r.SMA200, true
	case "rsi_14":
		return r.RSI14, true
	case "macd":
		return r.MACD, true
	case "macd_signal":
		return r.MACDSignal, true
	case "macd_hist":
		return r.MACDHist, true
	case "bb_upper":
		return r.BBUpper, true
	case "bb_middle":
		return r.BBMiddle, true
	case "bb_lower":
		return r.BBLower, true
	case "stoch_k":
		return r.StochK, true
	case "stoch_d":
		return r.StochD, true
	case "cci_20":
		return r.CCI20, true
	case "adx_14":
		return r.ADX14, true
	case "psar":
		return r.PSAR, true
	case "atr_14":
		return r.ATR14, true
	case "obv":
		return r.OBV, true
	case "ad":
		return r.AD, true
	case "ichimoku_tenkan":
		return r.IchimokuTenkan, true
	case "ichimoku_kijun":
		return r.IchimokuKijun, true
	case "ichimoku_span_a":
		return r.IchimokuSpanA, true
	case "ichimoku_span_b":
		return r.IchimokuSpanB, true
	case "volume_sma_20":
		return r.VolumeSMA20, true
	}
	return NullFloat{}, false
}

// SetColumn assigns an indicator column by its table name.
// Price columns are not settable through this method.
func (r *TechnicalRecord) SetColumn(name string, v NullFloat) bool {
	var dst *NullFloat
	switch name {
	case "ema_9":
		dst = &r.EMA9
	case "ema_12":
		dst = &r.EMA12
	case "ema_26":
		dst = &r.EMA26
	case "sma_5":
		dst = &r.SMA5
	case "sma_20":
		dst = &r.SMA20
	case "sma_50":
		dst = &r.SMA50
	case "sma_200":
		dst = &r.SMA200
	case "rsi_14":
		dst = &r.RSI14
	case "macd":
		dst = &r.MACD
	case "macd_signal":
		dst = &r.MACDSignal
	case "macd_hist":
		dst = &r.MACDHist
	case "bb_upper":
		dst = &r.BBUpper
	case "bb_middle":
		dst = &r.BBMiddle
	case "bb_lower":
		dst = &r.BBLower
	case "stoch_k":
		dst = &r.StochK
	case "stoch_d":
		dst = &r.StochD
	case "cci_20":
		dst = &r.CCI20
	case "adx_14":
		dst = &r.ADX14
	case "psar":
		dst = &r.PSAR
	case "atr_14":
		dst = &r.ATR14
	case "obv":
		dst = &r.OBV
	case "ad":
		dst = &r.AD
	case "ichimoku_tenkan":
		dst = &r.IchimokuTenkan
	case "ichimoku_kijun":
		dst = &r.IchimokuKijun
	case "ichimoku_span_a":
		dst = &r.IchimokuSpanA
	case "ichimoku_span_b":
		dst = &r.IchimokuSpanB
	case "volume_sma_20":
		dst = &r.VolumeSMA20
	default:
		return false
	}
	*dst = v
	return true
}

// MacroRow is one date of the macro basket. Values align with MacroTable.Columns.
type MacroRow struct {
	Date   time.Time
	Values []NullFloat
}

// MacroTable is the outer-joined, forward-filled close series of the macro basket.
type MacroTable struct {
	Columns []string
	Rows    []MacroRow
}

// RowKey builds the "ticker|date" key shared by prices and indicator rows.
func RowKey(ticker string, date time.Time) string {
	return fmt.Sprintf("%s|%s", ticker, date.Format(DateLayout))
}
