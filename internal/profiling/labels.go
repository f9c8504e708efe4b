package profiling

import "github.com/ternarybob/condor/internal/models"

// Personalities names clusters from their centroids on the original scale.
//
// The highest mean ADX is the Trend Rocket. Among the remaining clusters the
// lowest normalised ATR is the Value Turtle. Everything else is Undecided.
// Ties go to the lowest cluster id, so the mapping is total for any k.
func Personalities(centroids [][]float64) []models.Personality {
	out := make([]models.Personality, len(centroids))
	if len(centroids) == 0 {
		return out
	}
	for c := range out {
		out[c] = models.PersonalityUndecided
	}

	rocket := 0
	for c := range centroids {
		if centroids[c][models.FeatureADX] > centroids[rocket][models.FeatureADX] {
			rocket = c
		}
	}
	out[rocket] = models.PersonalityTrendRocket

	turtle := -1
	for c := range centroids {
		if c == rocket {
			continue
		}
		if turtle < 0 || centroids[c][models.FeatureATRNormalized] < centroids[turtle][models.FeatureATRNormalized] {
			turtle = c
		}
	}
	if turtle >= 0 {
		out[turtle] = models.PersonalityValueTurtle
	}
	return out
}
