// Package profiling groups tickers into behavioural clusters.
//
// Each ticker is summarised by the mean of five per-row features over the rows
// where all of them are defined. The summaries are z-scored, partitioned with
// seeded K-Means and the clusters are named from their centroids.
package profiling

import "github.com/ternarybob/condor/internal/models"

// Config controls the clustering run.
type Config struct {
	Clusters      int
	Restarts      int
	Seed          uint64
	MaxIterations int
	Tolerance     float64
}

// DefaultConfig returns k=3 with ten seeded restarts.
func DefaultConfig() Config {
	return Config{
		Clusters:      3,
		Restarts:      10,
		Seed:          42,
		MaxIterations: 300,
		Tolerance:     1e-4,
	}
}

func (c Config) validate() error {
	if c.Clusters < 1 {
		return &models.ConfigurationError{Field: "clusters", Value: c.Clusters, Message: "must be at least 1"}
	}
	if c.Restarts < 1 {
		return &models.ConfigurationError{Field: "restarts", Value: c.Restarts, Message: "must be at least 1"}
	}
	if c.MaxIterations < 1 {
		return &models.ConfigurationError{Field: "max_iterations", Value: c.MaxIterations, Message: "must be at least 1"}
	}
	if c.Tolerance < 0 {
		return &models.ConfigurationError{Field: "tolerance", Value: c.Tolerance, Message: "must not be negative"}
	}
	return nil
}
