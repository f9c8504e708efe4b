// Package fundamentals builds the annual fundamental table and its health labels.
package fundamentals

import "github.com/ternarybob/condor/internal/models"

// Health thresholds.
const (
	HighROE         = 0.15
	MaxDebtToEquity = 1.0
	MinCurrentRatio = 1.0
)

// DeriveHealth classifies a record from its ratios. High wins over AtRisk;
// a missing operand fails the condition it appears in.
func DeriveHealth(roe, debtToEquity, currentRatio models.NullFloat) models.HealthLabel {
	if roe.Greater(HighROE) && debtToEquity.Less(MaxDebtToEquity) {
		return models.HealthHigh
	}
	if currentRatio.Less(MinCurrentRatio) {
		return models.HealthAtRisk
	}
	return models.HealthStable
}

// Label fills in the health of a record from its own ratios.
func Label(rec models.FundamentalRecord) models.FundamentalRecord {
	rec.Health = DeriveHealth(rec.ROE, rec.DebtToEquity, rec.CurrentRatio)
	return rec
}
