package profiling

import (
	"sort"

	"github.com/ternarybob/condor/internal/models"
)

// VolumeWindow is the trailing window of the volume normalisation.
const VolumeWindow = 20

// FeatureVector holds the per-row features in models.FeatureNames order.
type FeatureVector [models.FeatureCount]models.NullFloat

// Complete reports whether every feature is defined.
func (v FeatureVector) Complete() bool {
	for _, f := range v {
		if !f.Valid {
			return false
		}
	}
	return true
}

// groupRows returns row indexes per ticker, each group in date order.
// Tickers are returned in sorted order.
func groupRows(technical []models.TechnicalRecord) ([]string, map[string][]int) {
	groups := make(map[string][]int)
	for i, rec := range technical {
		groups[rec.Ticker] = append(groups[rec.Ticker], i)
	}

	tickers := make([]string, 0, len(groups))
	for ticker, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			return technical[idx[a]].Date.Before(technical[idx[b]].Date)
		})
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers, groups
}

// RowFeatures computes the feature vector of every row, aligned with technical.
// The trailing volume mean never crosses tickers and needs a full window.
func RowFeatures(technical []models.TechnicalRecord) []FeatureVector {
	out := make([]FeatureVector, len(technical))
	_, groups := groupRows(technical)

	for _, idx := range groups {
		var windowSum float64
		for pos, i := range idx {
			rec := technical[i]
			windowSum += float64(rec.Volume)
			if pos >= VolumeWindow {
				windowSum -= float64(technical[idx[pos-VolumeWindow]].Volume)
			}

			volMean := models.Null()
			if pos >= VolumeWindow-1 {
				volMean = models.Float(windowSum / VolumeWindow)
			}
			out[i] = rowFeatures(rec, volMean)
		}
	}
	return out
}

func rowFeatures(rec models.TechnicalRecord, volMean models.NullFloat) FeatureVector {
	var v FeatureVector
	v[models.FeatureADX] = rec.ADX14
	v[models.FeatureRSI] = rec.RSI14

	v[models.FeatureATRNormalized] = models.Null()
	if rec.ATR14.Valid && rec.Close != 0 {
		v[models.FeatureATRNormalized] = models.Float(rec.ATR14.Float64 / rec.Close)
	}
	v[models.FeatureDistSMA200] = models.Null()
	if rec.SMA200.Valid && rec.SMA200.Float64 != 0 {
		v[models.FeatureDistSMA200] = models.Float((rec.Close - rec.SMA200.Float64) / rec.SMA200.Float64)
	}
	v[models.FeatureVolumeNormalized] = models.Null()
	if volMean.Valid && volMean.Float64 != 0 {
		v[models.FeatureVolumeNormalized] = models.Float(float64(rec.Volume) / volMean.Float64)
	}
	return v
}

// tickerMeans averages the complete feature vectors of each ticker.
// Tickers without a single complete row are left out.
func tickerMeans(technical []models.TechnicalRecord) []models.TickerProfile {
	features := RowFeatures(technical)
	tickers, groups := groupRows(technical)

	profiles := make([]models.TickerProfile, 0, len(tickers))
	for _, ticker := range tickers {
		var sum [models.FeatureCount]float64
		n := 0
		for _, i := range groups[ticker] {
			if !features[i].Complete() {
				continue
			}
			for f := range sum {
				sum[f] += features[i][f].Float64
			}
			n++
		}
		if n == 0 {
			continue
		}

		p := models.TickerProfile{Ticker: ticker, Rows: n}
		for f := range sum {
			p.Features[f] = sum[f] / float64(n)
		}
		profiles = append(profiles, p)
	}
	return profiles
}
