// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "SN:SQM-B", "NYSE:ECH")
type Ticker struct {
	// Exchange is the exchange code (e.g., "SN", "NYSE")
	Exchange string
	// Code is the security code as listed on the exchange (e.g., "SQM-B", "ENELCHILE")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps exchange codes to EODHD API suffixes.
var ExchangeToSuffix = map[string]string{
	"SN":     ".SN", // Bolsa de Santiago
	"BCS":    ".SN",
	"NYSE":   ".US",
	"NASDAQ": ".US",
	"US":     ".US",
	"INDX":   ".INDX",
	"FOREX":  ".FOREX",
	"CC":     ".CC",
	"COMM":   ".COMM",
}

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "SN:SQM-B" -> Exchange="SN", Code="SQM-B"
//   - "SN.SQM-B" -> Exchange="SN", Code="SQM-B" (only for known exchanges)
//   - "sqm-b" -> Exchange=defaultExchange, Code="SQM-B"
//
// Use EODHDSymbol() to convert to the provider's CODE.EXCHANGE format.
func ParseTicker(ticker, defaultExchange string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(strings.TrimSpace(ticker[idx+1:])),
			Raw:      ticker,
		}
	}

	// Only match a dot prefix when it is a known exchange, codes may contain dots
	if idx := strings.Index(ticker, "."); idx > 0 {
		possibleExchange := strings.ToUpper(ticker[:idx])
		if _, ok := ExchangeToSuffix[possibleExchange]; ok {
			return Ticker{
				Exchange: possibleExchange,
				Code:     strings.ToUpper(ticker[idx+1:]),
				Raw:      ticker,
			}
		}
	}

	return Ticker{
		Exchange: strings.ToUpper(defaultExchange),
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// EODHDSymbol returns the EODHD API symbol format.
// Example: "SN:SQM-B" -> "SQM-B.SN"
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		suffix = "." + t.Exchange
	}
	return t.Code + suffix
}
