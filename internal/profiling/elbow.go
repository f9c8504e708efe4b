package profiling

import "github.com/ternarybob/condor/internal/models"

// Elbow returns the clustering inertia for k = 1 .. min(maxK, n-1), where n is
// the number of tickers with complete features. The features, scaling and seed
// are the ones Profile uses. Fewer than two tickers give an empty curve.
func Elbow(technical []models.TechnicalRecord, maxK int, cfg Config) ([]models.ElbowPoint, error) {
	if maxK < 1 {
		return nil, &models.ConfigurationError{Field: "elbow_max_k", Value: maxK, Message: "must be at least 1"}
	}
	cfg.Clusters = 1
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	profiles := tickerMeans(technical)
	if len(profiles) == 0 {
		return nil, &models.InsufficientDataError{
			Stage:   "elbow",
			Message: "no ticker has a row with every feature defined",
		}
	}

	upper := maxK
	if n := len(profiles) - 1; n < upper {
		upper = n
	}

	_, scaled := standardise(profiles)
	points := make([]models.ElbowPoint, 0, upper)
	for k := 1; k <= upper; k++ {
		result := fitKMeans(scaled, k, cfg)
		points = append(points, models.ElbowPoint{K: k, Inertia: result.Inertia})
	}
	return points, nil
}
