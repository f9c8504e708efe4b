package eodhd

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// EODData represents a single day's end-of-day price data.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose *float64  `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// FundamentalsResponse is the subset of the fundamentals payload the pipeline reads.
// Pointer fields distinguish a reported zero from a value the provider did not send.
type FundamentalsResponse struct {
	General    *GeneralInfo `json:"General"`
	Highlights *Highlights  `json:"Highlights"`
	Valuation  *Valuation   `json:"Valuation"`
	Financials *Financials  `json:"Financials"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code         string `json:"Code"`
	Name         string `json:"Name"`
	Exchange     string `json:"Exchange"`
	CurrencyCode string `json:"CurrencyCode"`
	Sector       string `json:"Sector"`
	Industry     string `json:"Industry"`
}

// Highlights contains key financial highlights.
type Highlights struct {
	MarketCapitalization *float64 `json:"MarketCapitalization"`
	PERatio              *float64 `json:"PERatio"`
	DividendYield        *float64 `json:"DividendYield"`
	ReturnOnEquityTTM    *float64 `json:"ReturnOnEquityTTM"`
	MostRecentQuarter    string   `json:"MostRecentQuarter"`
}

// Valuation contains valuation metrics.
type Valuation struct {
	TrailingPE   *float64 `json:"TrailingPE"`
	PriceBookMRQ *float64 `json:"PriceBookMRQ"`
}

// Financials contains financial statements.
type Financials struct {
	BalanceSheet *FinancialStatement `json:"Balance_Sheet"`
}

// FinancialStatement represents a financial statement with quarterly and yearly data.
// Statement values arrive as strings, numbers or null depending on the filing.
type FinancialStatement struct {
	Currency  string                            `json:"currency"`
	Quarterly map[string]map[string]interface{} `json:"quarterly"`
	Yearly    map[string]map[string]interface{} `json:"yearly"`
}

// LatestYearly returns the most recent yearly statement and its period date.
func (s *FinancialStatement) LatestYearly() (map[string]interface{}, time.Time, bool) {
	if s == nil || len(s.Yearly) == 0 {
		return nil, time.Time{}, false
	}

	periods := make([]string, 0, len(s.Yearly))
	for period := range s.Yearly {
		periods = append(periods, period)
	}
	sort.Strings(periods)

	for i := len(periods) - 1; i >= 0; i-- {
		t, err := time.Parse("2006-01-02", periods[i])
		if err != nil {
			continue
		}
		return s.Yearly[periods[i]], t, true
	}
	return nil, time.Time{}, false
}

// StatementValue reads a numeric line item. The second result is false when the
// item is absent, null or unparseable.
func StatementValue(statement map[string]interface{}, item string) (float64, bool) {
	raw, ok := statement[item]
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
