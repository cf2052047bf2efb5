package report

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/election-toolkit/internal/geo"
	"github.com/sells-group/election-toolkit/internal/mapbind"
	"github.com/sells-group/election-toolkit/internal/model"
	"github.com/sells-group/election-toolkit/internal/rating"
)

type fakeShapes map[string]bool

func (f fakeShapes) Has(id string) bool { return f[id] }

func (f fakeShapes) IDs() []string {
	ids := make([]string, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cand(name, party string, votes float64) model.Candidate {
	return model.Candidate{Name: name, Party: party, Votes: votes}
}

func intPtr(i int) *int { return &i }

func defaultOptions() Options {
	return Options{
		Thresholds: rating.DefaultThresholds(),
		Colors:     mapbind.DefaultColorScheme(),
	}
}

func presidentEntries() []model.RaceEntry {
	return []model.RaceEntry{
		{
			State:          "PA",
			ElectoralVotes: 19,
			Cands:          []model.Candidate{cand("Alice", "D", 100), cand("Bob", "R", 90)},
			Counties: []model.County{
				{Name: "Allegheny County", Cands: []model.Candidate{cand("Alice", "D", 70), cand("Bob", "R", 30)}},
				{Name: "Butler County", Cands: []model.Candidate{cand("Alice", "D", 30), cand("Bob", "R", 60)}},
			},
		},
		{
			State:          "Texas",
			ElectoralVotes: 40,
			Cands:          []model.Candidate{cand("Bob", "R", 200), cand("Alice", "D", 100)},
		},
	}
}

func TestBuild_President(t *testing.T) {
	rep, err := Build(model.KindPresident, presidentEntries(), defaultOptions())
	require.NoError(t, err)

	_, err = uuid.Parse(rep.ID)
	require.NoError(t, err)
	assert.Equal(t, model.KindPresident, rep.Kind)
	assert.Equal(t, mapbind.LevelState, rep.Level)

	require.Len(t, rep.Rows, 4)
	assert.Equal(t, TotalsRow{GeoKey: "PA", Party: "D", Candidate: "Alice", Votes: 100, Pct: 52.63}, rep.Rows[0])
	assert.Equal(t, TotalsRow{GeoKey: "TX", Party: "D", Candidate: "Alice", Votes: 100, Pct: 33.33}, rep.Rows[2])

	require.Len(t, rep.Ratings, 2)
	assert.Equal(t, "Lean Democratic", rep.Ratings[0].Label())
	assert.Equal(t, 5.26, rep.Ratings[0].MarginPct)
	assert.Equal(t, "Safe Republican", rep.Ratings[1].Label())

	assert.Equal(t, rating.TotalsKey, rep.Totals.GeoKey)
	assert.Equal(t, "R", rep.Totals.Winner)
	assert.Equal(t, 18.37, rep.Totals.MarginPct)
	assert.Equal(t, map[string]int{"D": 1, "R": 1}, rep.Totals.Seats)
	assert.Equal(t, map[string]int{"D": 19, "R": 40}, rep.Totals.ElectoralVotes)

	assert.Equal(t, map[string]string{"PA": "#8AAFFF", "TX": "#BF1D29"}, rep.ColorMap.Colors)
	assert.Nil(t, rep.Coverage)
	assert.Empty(t, rep.Counties)
}

func TestBuild_NonWeightedKindHasNoElectoralVotes(t *testing.T) {
	rep, err := Build(model.KindSenate, presidentEntries(), defaultOptions())
	require.NoError(t, err)
	assert.Nil(t, rep.Totals.ElectoralVotes)
	assert.Equal(t, 2, rep.Totals.Seats["D"]+rep.Totals.Seats["R"])
}

func TestBuild_DistrictLevel(t *testing.T) {
	entries := []model.RaceEntry{
		{State: "PA", District: intPtr(7), Cands: []model.Candidate{cand("A", "D", 52), cand("B", "R", 48)}},
		{State: "AK", District: intPtr(0), Cands: []model.Candidate{cand("C", "R", 60), cand("D", "D", 40)}},
	}
	rep, err := Build(model.KindHouse, entries, defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, mapbind.LevelDistrict, rep.Level)
	assert.Equal(t, map[string]string{"PA-07": "#8AAFFF", "AK-AL": "#BF1D29"}, rep.ColorMap.Colors)
}

func TestBuild_ShapesCoverage(t *testing.T) {
	opts := defaultOptions()
	opts.Shapes = map[mapbind.Level]ShapeSource{
		mapbind.LevelState: fakeShapes{"PA": true, "OH": true},
	}

	rep, err := Build(model.KindPresident, presidentEntries(), opts)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"PA": "#8AAFFF"}, rep.ColorMap.Colors)
	assert.Equal(t, []string{"TX"}, rep.ColorMap.Unmatched)
	require.NotNil(t, rep.Coverage)
	assert.Equal(t, []string{"OH"}, rep.Coverage.Uncolored)
	assert.False(t, rep.Coverage.Complete())
}

func TestBuild_CountyDrillDown(t *testing.T) {
	opts := defaultOptions()
	opts.Counties = true
	opts.CountyShapes = func(state string) ShapeSource {
		if state != "PA" {
			return nil
		}
		return fakeShapes{"allegheny": true, "butler": true, "erie": true}
	}

	rep, err := Build(model.KindPresident, presidentEntries(), opts)
	require.NoError(t, err)
	require.Len(t, rep.Counties, 1)

	cr := rep.Counties[0]
	assert.Equal(t, "PA", cr.State)
	require.Len(t, cr.Ratings, 2)
	assert.Equal(t, "Safe Democratic", cr.Ratings[0].Label())
	assert.Equal(t, "Safe Republican", cr.Ratings[1].Label())
	assert.Equal(t, map[string]string{"allegheny": "#1C408C", "butler": "#BF1D29"}, cr.ColorMap.Colors)
	assert.Equal(t, map[string]int{"D": 1, "R": 1}, cr.Totals.Seats)
	require.NotNil(t, cr.Coverage)
	assert.Equal(t, []string{"erie"}, cr.Coverage.Uncolored)
	assert.Nil(t, cr.FIPS)
}

func TestBuild_CountyFIPS(t *testing.T) {
	opts := defaultOptions()
	opts.Counties = true
	opts.Registry = geo.NewCountyRegistry([]geo.County{
		{StateFIPS: "42", CountyFIPS: "003", Name: "Allegheny"},
		{StateFIPS: "39", CountyFIPS: "019", Name: "Butler"},
	})

	rep, err := Build(model.KindPresident, presidentEntries(), opts)
	require.NoError(t, err)
	require.Len(t, rep.Counties, 1)
	assert.Equal(t, map[string]string{"allegheny": "42003"}, rep.Counties[0].FIPS)
}

func TestBuild_DegenerateInput(t *testing.T) {
	entries := []model.RaceEntry{
		{State: "VT"},
		{State: "NH", Cands: []model.Candidate{cand("A", "D", 0), cand("B", "R", 0)}},
	}
	rep, err := Build(model.KindGovernor, entries, defaultOptions())
	require.NoError(t, err)
	for _, r := range rep.Ratings {
		assert.Equal(t, rating.Tilt, r.Tier)
		assert.Zero(t, r.MarginPct)
		assert.Empty(t, r.Winner)
	}
	assert.Equal(t, mapbind.NeutralColor, rep.ColorMap.Colors["VT"])
	assert.Equal(t, rating.Tilt, rep.Totals.Tier)
}

func TestBuild_InvalidOptions(t *testing.T) {
	opts := defaultOptions()
	opts.Thresholds = rating.Thresholds{TiltMax: 7, LeanMax: 3, LikelyMax: 12}
	_, err := Build(model.KindPresident, presidentEntries(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report: president")

	opts = defaultOptions()
	opts.Colors = mapbind.ColorScheme{"D": {rating.Safe: "blue"}}
	_, err = Build(model.KindPresident, presidentEntries(), opts)
	require.Error(t, err)
}

func TestBuildAll(t *testing.T) {
	sf := &model.Savefile{Elections: map[model.ElectionKind][]model.RaceEntry{
		model.KindHouse: {
			{State: "PA", District: intPtr(1), Cands: []model.Candidate{cand("A", "D", 10), cand("B", "R", 5)}},
		},
		model.KindPresident: presidentEntries(),
		model.KindSenate:    presidentEntries(),
	}}

	reports, err := BuildAll(context.Background(), sf, defaultOptions())
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, model.KindPresident, reports[0].Kind)
	assert.Equal(t, model.KindSenate, reports[1].Kind)
	assert.Equal(t, model.KindHouse, reports[2].Kind)
	assert.NotEqual(t, reports[0].ID, reports[1].ID)

	rep, ok := Select(reports, model.KindHouse)
	require.True(t, ok)
	assert.Equal(t, mapbind.LevelDistrict, rep.Level)

	_, ok = Select(reports, model.KindGovernor)
	assert.False(t, ok)
}

func TestBuildAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sf := &model.Savefile{Elections: map[model.ElectionKind][]model.RaceEntry{
		model.KindPresident: presidentEntries(),
	}}
	_, err := BuildAll(ctx, sf, defaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestBuildAll_InvalidOptions(t *testing.T) {
	opts := defaultOptions()
	opts.Thresholds = rating.Thresholds{}
	_, err := BuildAll(context.Background(), &model.Savefile{}, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, rating.ErrInvalidThresholds)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := defaultOptions()
	opts.Metrics = NewMetrics(reg)
	opts.Counties = true
	opts.Shapes = map[mapbind.Level]ShapeSource{
		mapbind.LevelState: fakeShapes{"PA": true},
	}

	_, err := Build(model.KindPresident, presidentEntries(), opts)
	require.NoError(t, err)
	_, err = Build(model.KindPresident, presidentEntries(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(opts.Metrics.reports.WithLabelValues("president")))
	assert.Equal(t, 4.0, testutil.ToFloat64(opts.Metrics.units.WithLabelValues("president", "state")))
	assert.Equal(t, 4.0, testutil.ToFloat64(opts.Metrics.units.WithLabelValues("president", "county")))
	assert.Equal(t, 2.0, testutil.ToFloat64(opts.Metrics.unmatched.WithLabelValues("state")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.observe(&Report{}, 0) })
}
