package models

import (
	"fmt"
	"strings"
)

// HealthLabel is the categorical financial-soundness classification of a fundamental record.
type HealthLabel string

const (
	HealthUnknown HealthLabel = ""
	HealthHigh    HealthLabel = "High"
	HealthStable  HealthLabel = "Stable"
	HealthAtRisk  HealthLabel = "AtRisk"
)

// Wire spellings used by the curated CSV files.
var healthWire = map[HealthLabel]string{
	HealthHigh:   "Alta",
	HealthStable: "Estable",
	HealthAtRisk: "Riesgo",
}

// ParseHealthLabel accepts either the English name or the wire spelling.
// An empty string is HealthUnknown without error.
func ParseHealthLabel(s string) (HealthLabel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return HealthUnknown, nil
	}
	for label, wire := range healthWire {
		if strings.EqualFold(s, wire) || strings.EqualFold(s, string(label)) {
			return label, nil
		}
	}
	return HealthUnknown, fmt.Errorf("unknown health label %q", s)
}

// Wire returns the spelling written to CSV files and databases.
func (h HealthLabel) Wire() string {
	return healthWire[h]
}

// Known reports whether the label is one of the three defined categories.
func (h HealthLabel) Known() bool {
	_, ok := healthWire[h]
	return ok
}

// FundamentalRecord holds the annual ratios of a ticker.
type FundamentalRecord struct {
	Ticker        string
	Year          int
	PERatio       NullFloat
	PBRatio       NullFloat
	ROE           NullFloat
	DebtToEquity  NullFloat
	CurrentRatio  NullFloat
	DividendYield NullFloat
	Health        HealthLabel
}

// Key returns the unique storage key of the record.
func (f FundamentalRecord) Key() string {
	return fmt.Sprintf("%s|%04d", f.Ticker, f.Year)
}

// FundamentalTable is the fundamental input together with the columns its source declared.
// Sources that lose the identifying columns are rejected with a SchemaError.
type FundamentalTable struct {
	Columns []string
	Records []FundamentalRecord
}

// NewFundamentalTable wraps records built in memory with the full schema.
func NewFundamentalTable(records []FundamentalRecord) FundamentalTable {
	return FundamentalTable{Columns: FundamentalSchema.Columns, Records: records}
}
