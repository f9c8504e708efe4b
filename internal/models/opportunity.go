package models

import (
	"fmt"
	"time"
)

// FusedRecord is a technical row joined to the fundamentals in force on its date.
type FusedRecord struct {
	Technical   TechnicalRecord
	Fundamental FundamentalRecord
}

// Opportunity is a fused row selected by one divergence rule.
type Opportunity struct {
	Rule   string
	Date   time.Time
	Ticker string
	Close  float64
	RSI    NullFloat
	Health HealthLabel
	ROE    NullFloat
}

// Key returns a storage key unique within a run.
func (o Opportunity) Key(runID string, index int) string {
	return fmt.Sprintf("%s|%06d", runID, index)
}

// CorrelationMatrix is a symmetric Pearson matrix over named columns.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]NullFloat
}

// CorrelationPair is one off-diagonal cell of a matrix.
type CorrelationPair struct {
	A string
	B string
	R float64
}
