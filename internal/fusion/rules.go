package fusion

import "github.com/ternarybob/condor/internal/models"

// Oscillator thresholds.
const (
	OversoldRSI     = 30.0
	NearOversoldRSI = 35.0
)

// Rule names.
const (
	RuleOversoldHigh     = "Oversold + High Health"
	RuleNearOversoldHigh = "Near-Oversold + High Health"
	RuleOversoldStable   = "Oversold + Stable Health"
)

// Rule is one named divergence condition.
type Rule struct {
	Name  string
	Match func(models.FusedRecord) bool
}

// Rules returns the divergence rules in priority order.
func Rules() []Rule {
	return []Rule{
		{
			Name: RuleOversoldHigh,
			Match: func(r models.FusedRecord) bool {
				return r.Technical.RSI14.Less(OversoldRSI) && r.Fundamental.Health == models.HealthHigh
			},
		},
		{
			Name: RuleNearOversoldHigh,
			Match: func(r models.FusedRecord) bool {
				return r.Technical.RSI14.Less(NearOversoldRSI) && r.Fundamental.Health == models.HealthHigh
			},
		},
		{
			Name: RuleOversoldStable,
			Match: func(r models.FusedRecord) bool {
				return r.Technical.RSI14.Less(OversoldRSI) && r.Fundamental.Health == models.HealthStable
			},
		},
	}
}

// Classify assigns each row to the first rule it matches and returns the
// matches grouped by rule in priority order. Within a group rows keep their
// input order. Rows that match nothing are discarded.
func Classify(rows []models.FusedRecord, rules []Rule) []models.Opportunity {
	groups := make([][]models.Opportunity, len(rules))
	for _, row := range rows {
		for i, rule := range rules {
			if rule.Match(row) {
				groups[i] = append(groups[i], opportunity(rule.Name, row))
				break
			}
		}
	}

	var out []models.Opportunity
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func opportunity(rule string, r models.FusedRecord) models.Opportunity {
	return models.Opportunity{
		Rule:   rule,
		Date:   r.Technical.Date,
		Ticker: r.Technical.Ticker,
		Close:  r.Technical.Close,
		RSI:    r.Technical.RSI14,
		Health: r.Fundamental.Health,
		ROE:    r.Fundamental.ROE,
	}
}
