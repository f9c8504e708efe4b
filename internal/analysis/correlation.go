// Package analysis computes the supporting statistics of the technical table.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/ternarybob/condor/internal/models"
	"github.com/ternarybob/condor/internal/profiling"
)

// DefaultColumns is the indicator set of the correlation matrix.
var DefaultColumns = []string{"close", "rsi_14", "stoch_k", "cci_20", "adx_14", "volume_normalized_20"}

// Correlation computes Pearson r between every pair of columns over the rows
// where both values are present. Pairs with fewer than two such rows or without
// variance are missing. Unknown column names are a configuration error.
func Correlation(technical []models.TechnicalRecord, columns []string) (models.CorrelationMatrix, error) {
	series, names, unknown := extract(technical, columns)
	if len(unknown) > 0 {
		return models.CorrelationMatrix{}, &models.ConfigurationError{
			Field:   "correlation_columns",
			Value:   unknown,
			Message: fmt.Sprintf("unknown columns: %s", strings.Join(unknown, ", ")),
		}
	}
	if len(names) < 2 {
		return models.CorrelationMatrix{}, &models.ConfigurationError{
			Field:   "correlation_columns",
			Value:   columns,
			Message: fmt.Sprintf("need at least two columns, got %d", len(names)),
		}
	}

	values := make([][]models.NullFloat, len(names))
	for i := range values {
		values[i] = make([]models.NullFloat, len(names))
	}
	for i := range names {
		for j := i; j < len(names); j++ {
			r := pearson(series[i], series[j])
			values[i][j] = r
			values[j][i] = r
		}
	}
	return models.CorrelationMatrix{Columns: names, Values: values}, nil
}

func extract(technical []models.TechnicalRecord, columns []string) ([][]models.NullFloat, []string, []string) {
	var features []profiling.FeatureVector
	var names, unknown []string
	var series [][]models.NullFloat

	for _, col := range columns {
		values := make([]models.NullFloat, len(technical))
		switch {
		case col == models.FeatureNames[models.FeatureVolumeNormalized] ||
			col == models.FeatureNames[models.FeatureATRNormalized] ||
			col == models.FeatureNames[models.FeatureDistSMA200]:
			if features == nil {
				features = profiling.RowFeatures(technical)
			}
			pos := featureIndex(col)
			for i := range technical {
				values[i] = features[i][pos]
			}
		default:
			if _, ok := (models.TechnicalRecord{}).Column(col); !ok {
				unknown = append(unknown, col)
				continue
			}
			for i, rec := range technical {
				values[i], _ = rec.Column(col)
			}
		}
		names = append(names, col)
		series = append(series, values)
	}
	return series, names, unknown
}

func featureIndex(name string) int {
	for i, n := range models.FeatureNames {
		if n == name {
			return i
		}
	}
	return -1
}

func pearson(a, b []models.NullFloat) models.NullFloat {
	var x, y []float64
	for i := range a {
		if a[i].Valid && b[i].Valid {
			x = append(x, a[i].Float64)
			y = append(y, b[i].Float64)
		}
	}
	if len(x) < 2 {
		return models.Null()
	}
	return models.Float(stat.Correlation(x, y, nil))
}

// TopPairs returns the n strongest off-diagonal correlations by absolute value.
func TopPairs(m models.CorrelationMatrix, n int) []models.CorrelationPair {
	var pairs []models.CorrelationPair
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			if v := m.Values[i][j]; v.Valid {
				pairs = append(pairs, models.CorrelationPair{A: m.Columns[i], B: m.Columns[j], R: v.Float64})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
	})
	if n >= 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}
