package profiling

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/condor/internal/models"
)

type shape struct {
	adx, rsi, atrNorm, dist float64
}

// series builds n daily rows whose features settle on s once the volume window fills.
func series(ticker string, n int, s shape) []models.TechnicalRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.TechnicalRecord, n)
	for i := range out {
		out[i] = models.TechnicalRecord{
			Ticker: ticker,
			Date:   start.AddDate(0, 0, i),
			Close:  100,
			Volume: 1000,
			ADX14:  models.Float(s.adx),
			RSI14:  models.Float(s.rsi),
			ATR14:  models.Float(s.atrNorm * 100),
			SMA200: models.Float(100 / (1 + s.dist)),
		}
	}
	return out
}

func table(parts ...[]models.TechnicalRecord) []models.TechnicalRecord {
	var out []models.TechnicalRecord
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func testConfig(k int) Config {
	cfg := DefaultConfig()
	cfg.Clusters = k
	return cfg
}

func byTicker(profiles []models.TickerProfile) map[string]models.TickerProfile {
	out := make(map[string]models.TickerProfile)
	for _, p := range profiles {
		out[p.Ticker] = p
	}
	return out
}

func TestRowFeaturesVolumeWindowStaysInsideTicker(t *testing.T) {
	a := series("A", 25, shape{adx: 20, rsi: 50, atrNorm: 0.02, dist: 0.1})
	b := series("B", 20, shape{adx: 20, rsi: 50, atrNorm: 0.02, dist: 0.1})
	for i := range b {
		b[i].Volume = int64(i + 1)
	}
	rows := table(a, b)

	features := RowFeatures(rows)
	require.Len(t, features, 45)

	assert.False(t, features[18].Complete(), "A has no full window at its 19th row")
	assert.True(t, features[19].Complete())
	assert.InDelta(t, 1.0, features[19][models.FeatureVolumeNormalized].Float64, 1e-12)

	assert.False(t, features[25+18][models.FeatureVolumeNormalized].Valid, "B window does not borrow A rows")
	assert.InDelta(t, 20/10.5, features[25+19][models.FeatureVolumeNormalized].Float64, 1e-12)
	assert.InDelta(t, 0.02, features[25+19][models.FeatureATRNormalized].Float64, 1e-12)
	assert.InDelta(t, 0.1, features[25+19][models.FeatureDistSMA200].Float64, 1e-12)
}

func TestRowFeaturesMissingOperands(t *testing.T) {
	rows := series("A", 20, shape{adx: 20, rsi: 50, atrNorm: 0.02, dist: 0.1})
	rows[19].Close = 0
	rows[19].SMA200 = models.Null()

	features := RowFeatures(rows)
	assert.False(t, features[19][models.FeatureATRNormalized].Valid)
	assert.False(t, features[19][models.FeatureDistSMA200].Valid)
}

func TestProfileLabelsExtremes(t *testing.T) {
	rows := table(
		series("ROCKET", 30, shape{adx: 40, rsi: 60, atrNorm: 0.03, dist: 0.2}),
		series("TURTLE", 30, shape{adx: 15, rsi: 50, atrNorm: 0.01, dist: 0.0}),
		series("OTHER", 30, shape{adx: 22, rsi: 45, atrNorm: 0.02, dist: -0.1}),
	)

	profiles, err := Profile(rows, testConfig(3))
	require.NoError(t, err)
	got := byTicker(profiles)

	assert.Equal(t, models.PersonalityTrendRocket, got["ROCKET"].Personality)
	assert.Equal(t, models.PersonalityValueTurtle, got["TURTLE"].Personality)
	assert.Equal(t, models.PersonalityUndecided, got["OTHER"].Personality)
	assert.Equal(t, 11, got["ROCKET"].Rows)
	assert.InDelta(t, 40, got["ROCKET"].Features[models.FeatureADX], 1e-9)
}

func TestProfileTwoClusters(t *testing.T) {
	rows := table(
		series("A", 25, shape{adx: 40, rsi: 60, atrNorm: 0.03, dist: 0.2}),
		series("B", 25, shape{adx: 15, rsi: 50, atrNorm: 0.01, dist: 0.0}),
	)

	profiles, err := Profile(rows, testConfig(2))
	require.NoError(t, err)
	got := byTicker(profiles)
	assert.Equal(t, models.PersonalityTrendRocket, got["A"].Personality)
	assert.Equal(t, models.PersonalityValueTurtle, got["B"].Personality)
}

func TestProfileSingleCluster(t *testing.T) {
	rows := table(
		series("A", 25, shape{adx: 40, rsi: 60, atrNorm: 0.03, dist: 0.2}),
		series("B", 25, shape{adx: 15, rsi: 50, atrNorm: 0.01, dist: 0.0}),
	)

	profiles, err := Profile(rows, testConfig(1))
	require.NoError(t, err)
	for _, p := range profiles {
		assert.Equal(t, 0, p.Cluster)
		assert.Equal(t, models.PersonalityTrendRocket, p.Personality)
	}
}

func groupedUniverse() []models.TechnicalRecord {
	var rows []models.TechnicalRecord
	groups := []shape{
		{adx: 40, rsi: 65, atrNorm: 0.035, dist: 0.25},
		{adx: 14, rsi: 48, atrNorm: 0.008, dist: 0.01},
		{adx: 24, rsi: 40, atrNorm: 0.02, dist: -0.15},
	}
	for g, base := range groups {
		for i := 0; i < 3; i++ {
			jitter := float64(i) * 0.01
			s := shape{adx: base.adx * (1 + jitter), rsi: base.rsi * (1 - jitter), atrNorm: base.atrNorm * (1 + jitter), dist: base.dist + jitter/10}
			rows = append(rows, series(fmt.Sprintf("G%d_%d", g, i), 30, s)...)
		}
	}
	return rows
}

func TestProfileIsDeterministic(t *testing.T) {
	rows := groupedUniverse()

	first, err := Profile(rows, testConfig(3))
	require.NoError(t, err)
	for run := 0; run < 3; run++ {
		again, err := Profile(rows, testConfig(3))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestProfilePartitionAndLabelUniqueness(t *testing.T) {
	profiles, err := Profile(groupedUniverse(), testConfig(3))
	require.NoError(t, err)
	require.Len(t, profiles, 9)

	sizes := map[int]int{}
	labels := map[int]models.Personality{}
	for _, p := range profiles {
		sizes[p.Cluster]++
		if prev, ok := labels[p.Cluster]; ok {
			assert.Equal(t, prev, p.Personality, "one label per cluster")
		}
		labels[p.Cluster] = p.Personality
	}

	total := 0
	for _, n := range sizes {
		total += n
	}
	assert.Equal(t, 9, total)
	require.Len(t, labels, 3)

	seen := map[models.Personality]int{}
	for _, l := range labels {
		seen[l]++
	}
	assert.Equal(t, map[models.Personality]int{
		models.PersonalityTrendRocket: 1,
		models.PersonalityValueTurtle: 1,
		models.PersonalityUndecided:   1,
	}, seen)

	got := byTicker(profiles)
	assert.Equal(t, got["G0_0"].Cluster, got["G0_2"].Cluster)
	assert.Equal(t, models.PersonalityTrendRocket, got["G0_1"].Personality)
	assert.Equal(t, models.PersonalityValueTurtle, got["G1_1"].Personality)
}

func TestProfileErrors(t *testing.T) {
	rows := table(
		series("A", 25, shape{adx: 40, rsi: 60, atrNorm: 0.03, dist: 0.2}),
		series("B", 25, shape{adx: 15, rsi: 50, atrNorm: 0.01, dist: 0.0}),
		series("SHORT", 10, shape{adx: 15, rsi: 50, atrNorm: 0.01, dist: 0.0}),
	)

	_, err := Profile(rows, testConfig(3))
	assert.True(t, models.IsConfigurationError(err), "SHORT has no complete row, so k exceeds two tickers")

	_, err = Profile(rows, testConfig(0))
	assert.True(t, models.IsConfigurationError(err))

	_, err = Profile(series("SHORT", 10, shape{adx: 1, rsi: 1, atrNorm: 0.01}), testConfig(1))
	assert.True(t, models.IsInsufficientDataError(err))

	_, err = Profile(nil, testConfig(1))
	assert.True(t, models.IsInsufficientDataError(err))
}

func TestPersonalitiesTies(t *testing.T) {
	centroids := [][]float64{
		{30, 50, 0.02, 0, 1},
		{30, 50, 0.01, 0, 1},
		{10, 50, 0.01, 0, 1},
		{20, 50, 0.05, 0, 1},
	}
	got := Personalities(centroids)
	assert.Equal(t, []models.Personality{
		models.PersonalityTrendRocket,
		models.PersonalityValueTurtle,
		models.PersonalityUndecided,
		models.PersonalityUndecided,
	}, got)

	// The calmest cluster is also the strongest trend.
	got = Personalities([][]float64{
		{40, 50, 0.01, 0, 1},
		{10, 50, 0.03, 0, 1},
		{20, 50, 0.02, 0, 1},
	})
	assert.Equal(t, []models.Personality{
		models.PersonalityTrendRocket,
		models.PersonalityUndecided,
		models.PersonalityValueTurtle,
	}, got)
}

func TestComputeProfilesJoinsRoster(t *testing.T) {
	rows := table(
		series("A", 25, shape{adx: 40, rsi: 60, atrNorm: 0.03, dist: 0.2}),
		series("B", 25, shape{adx: 15, rsi: 50, atrNorm: 0.01, dist: 0.0}),
	)
	roster := models.Roster{Entries: []models.RosterEntry{{Ticker: "NEW"}, {Ticker: "B"}, {Ticker: "A"}}}

	out, err := ComputeProfiles(rows, roster, testConfig(2))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "NEW", out[0].Entry.Ticker)
	assert.False(t, out[0].Cluster.Valid)
	assert.Empty(t, out[0].Personality)
	assert.Equal(t, models.PersonalityValueTurtle, out[1].Personality)
	assert.Equal(t, models.PersonalityTrendRocket, out[2].Personality)

	assert.Equal(t, map[models.Personality]int{
		models.PersonalityTrendRocket: 1,
		models.PersonalityValueTurtle: 1,
	}, Distribution(out))
}

func TestScalerRoundTrip(t *testing.T) {
	rows := [][]float64{{1, 5}, {3, 5}, {5, 5}}
	s := FitScaler(rows)

	assert.InDelta(t, 3, s.Mean[0], 1e-12)
	assert.InDelta(t, 1.632993161855452, s.Std[0], 1e-12, "population std")
	assert.Equal(t, 1.0, s.Std[1], "constant column is not scaled")

	z := s.Transform(rows)
	assert.InDelta(t, 0, z[1][0], 1e-12)
	assert.Equal(t, 0.0, z[0][1])

	back := s.Inverse(z)
	for i := range rows {
		assert.InDeltaSlice(t, rows[i], back[i], 1e-12)
	}
}

func TestElbow(t *testing.T) {
	rows := groupedUniverse()

	points, err := Elbow(rows, 20, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, points, 8)
	assert.Equal(t, 1, points[0].K)
	// Volume is flat, so four z-scored columns carry the whole spread.
	assert.InDelta(t, 9*4, points[0].Inertia, 1e-9)
	for _, p := range points[1:] {
		assert.LessOrEqual(t, p.Inertia, points[0].Inertia)
	}

	points, err = Elbow(rows, 3, DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, points, 3)

	points, err = Elbow(series("A", 25, shape{adx: 1, rsi: 1, atrNorm: 0.01}), 5, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, points)

	_, err = Elbow(rows, 0, DefaultConfig())
	assert.True(t, models.IsConfigurationError(err))
}

func TestKMeansDuplicatePointsKeepEveryClusterPopulated(t *testing.T) {
	points := [][]float64{{0, 0}, {0, 0}, {0, 0}, {1, 1}}

	c := fitKMeans(points, 3, DefaultConfig())

	counts := make([]int, 3)
	for _, l := range c.Labels {
		counts[l]++
	}
	for cluster, n := range counts {
		assert.Positive(t, n, "cluster %d is empty", cluster)
	}
	for i := 0; i < 3; i++ {
		assert.NotEqual(t, c.Labels[3], c.Labels[i])
	}
	assert.InDelta(t, 0, c.Inertia, 1e-12)
}
