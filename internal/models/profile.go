package models

// Personality is the semantic label attached to a behavioural cluster.
type Personality string

const (
	PersonalityTrendRocket Personality = "Trend Rocket"
	PersonalityValueTurtle Personality = "Value Turtle (Range-bound)"
	PersonalityUndecided   Personality = "Undecided (Transitioning)"
)

// FeatureNames lists the profiling feature vector in order.
var FeatureNames = []string{"adx_14", "rsi_14", "atr_normalized", "dist_sma200", "volume_normalized_20"}

// Feature positions inside a profile vector.
const (
	FeatureADX = iota
	FeatureRSI
	FeatureATRNormalized
	FeatureDistSMA200
	FeatureVolumeNormalized
	FeatureCount
)

// TickerProfile is the averaged behaviour of one ticker and its cluster assignment.
type TickerProfile struct {
	Ticker      string
	Features    [FeatureCount]float64
	Rows        int
	Cluster     int
	Personality Personality
}

// RosterEntry is one ticker of the universe plus the extra columns its file carried.
type RosterEntry struct {
	Ticker string
	Values []string
}

// Roster is the ticker universe in file order.
type Roster struct {
	TickerColumn string
	Columns      []string
	Entries      []RosterEntry
}

// Tickers returns the roster codes in order.
func (r Roster) Tickers() []string {
	out := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Ticker)
	}
	return out
}

// ProfileRow is a roster entry left-joined to its profile.
// Cluster is invalid and Personality empty when the ticker could not be profiled.
type ProfileRow struct {
	Entry       RosterEntry
	Cluster     NullInt
	Personality Personality
}

// ElbowPoint is the clustering inertia for one k.
type ElbowPoint struct {
	K       int
	Inertia float64
}
