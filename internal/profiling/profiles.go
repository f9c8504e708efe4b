package profiling

import (
	"fmt"

	"github.com/ternarybob/condor/internal/models"
)

// Profile clusters every ticker that has at least one complete feature row.
// Profiles are returned in ticker order with their mean features, cluster id
// and personality.
func Profile(technical []models.TechnicalRecord, cfg Config) ([]models.TickerProfile, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	profiles := tickerMeans(technical)
	if len(profiles) == 0 {
		return nil, &models.InsufficientDataError{
			Stage:   "profiling",
			Message: "no ticker has a row with every feature defined",
		}
	}
	if cfg.Clusters > len(profiles) {
		return nil, &models.ConfigurationError{
			Field:   "clusters",
			Value:   cfg.Clusters,
			Message: fmt.Sprintf("exceeds the %d tickers with complete features", len(profiles)),
		}
	}

	scaler, scaled := standardise(profiles)
	result := fitKMeans(scaled, cfg.Clusters, cfg)
	names := Personalities(scaler.Inverse(result.Centroids))

	for i := range profiles {
		profiles[i].Cluster = result.Labels[i]
		profiles[i].Personality = names[result.Labels[i]]
	}
	return profiles, nil
}

func standardise(profiles []models.TickerProfile) (Scaler, [][]float64) {
	rows := make([][]float64, len(profiles))
	for i, p := range profiles {
		rows[i] = append([]float64(nil), p.Features[:]...)
	}
	scaler := FitScaler(rows)
	return scaler, scaler.Transform(rows)
}

// JoinRoster attaches profiles to the roster in roster order.
// Tickers without a profile keep an empty cluster and personality.
func JoinRoster(roster models.Roster, profiles []models.TickerProfile) []models.ProfileRow {
	byTicker := make(map[string]models.TickerProfile, len(profiles))
	for _, p := range profiles {
		byTicker[p.Ticker] = p
	}

	rows := make([]models.ProfileRow, 0, len(roster.Entries))
	for _, entry := range roster.Entries {
		row := models.ProfileRow{Entry: entry}
		if p, ok := byTicker[entry.Ticker]; ok {
			row.Cluster = models.Int(p.Cluster)
			row.Personality = p.Personality
		}
		rows = append(rows, row)
	}
	return rows
}

// ComputeProfiles profiles the technical table and joins the result onto the roster.
func ComputeProfiles(technical []models.TechnicalRecord, roster models.Roster, cfg Config) ([]models.ProfileRow, error) {
	profiles, err := Profile(technical, cfg)
	if err != nil {
		return nil, err
	}
	return JoinRoster(roster, profiles), nil
}

// Distribution counts tickers per personality.
func Distribution(rows []models.ProfileRow) map[models.Personality]int {
	counts := make(map[models.Personality]int)
	for _, r := range rows {
		if r.Cluster.Valid {
			counts[r.Personality]++
		}
	}
	return counts
}
