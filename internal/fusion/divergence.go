package fusion

import "github.com/ternarybob/condor/internal/models"

// DetectDivergences fuses the tables and applies the divergence rules.
// A nil result with a nil error means no row qualified.
func DetectDivergences(technical []models.TechnicalRecord, fundamental models.FundamentalTable) ([]models.Opportunity, error) {
	fused, err := Fuse(technical, fundamental)
	if err != nil {
		return nil, err
	}
	return Classify(fused, Rules()), nil
}

// CountByRule tallies opportunities per rule name.
func CountByRule(opportunities []models.Opportunity) map[string]int {
	counts := make(map[string]int)
	for _, o := range opportunities {
		counts[o.Rule]++
	}
	return counts
}
