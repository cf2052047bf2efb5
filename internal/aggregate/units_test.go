package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/election-toolkit/internal/model"
)

func TestEntryKey(t *testing.T) {
	assert.Equal(t, "PA", EntryKey(model.RaceEntry{State: "Pennsylvania"}))
	assert.Equal(t, "PA", EntryKey(model.RaceEntry{State: "pa"}))
	assert.Equal(t, "PA-07", EntryKey(model.RaceEntry{State: "PA", District: intPtr(7)}))
	assert.Equal(t, "AK-AL", EntryKey(model.RaceEntry{State: "AK", District: intPtr(0)}))
	assert.Equal(t, "Atlantis", EntryKey(model.RaceEntry{State: " Atlantis "}))
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "Pennsylvania", EntryName(model.RaceEntry{State: "PA"}))
	assert.Equal(t, "PA-07", EntryName(model.RaceEntry{State: "PA", District: intPtr(7)}))
}

func TestRollupCounties(t *testing.T) {
	counties := []model.County{
		{Name: "Adams", Cands: []model.Candidate{cand("Smith", "D", 100), cand("Lee", "R", 200)}},
		{Name: "Bucks", Cands: []model.Candidate{cand("Lee", "R", 50), cand("Smith", "D", 300), cand("Jones", "D", 10)}},
	}

	out := RollupCounties(counties)
	require.Len(t, out, 3)
	assert.Equal(t, "Smith", out[0].Name)
	assert.InDelta(t, 400, out[0].Votes, 1e-9)
	assert.Equal(t, "Lee", out[1].Name)
	assert.InDelta(t, 250, out[1].Votes, 1e-9)
	assert.Equal(t, "Jones", out[2].Name)
	assert.InDelta(t, 10, out[2].Votes, 1e-9)
}

func TestEntryCandidates_RollsUpWhenStateListMissing(t *testing.T) {
	e := model.RaceEntry{
		State: "PA",
		Counties: []model.County{
			{Name: "Adams", Cands: []model.Candidate{cand("Smith", "D", 100)}},
			{Name: "Bucks", Cands: []model.Candidate{cand("Smith", "D", 50)}},
		},
	}
	cands := EntryCandidates(e)
	require.Len(t, cands, 1)
	assert.InDelta(t, 150, cands[0].Votes, 1e-9)

	e.Cands = []model.Candidate{cand("Smith", "D", 999)}
	assert.InDelta(t, 999, EntryCandidates(e)[0].Votes, 1e-9)
}

func TestCountyUnits(t *testing.T) {
	e := model.RaceEntry{
		State: "MD",
		Counties: []model.County{
			{Name: "St. Mary's County", Cands: []model.Candidate{cand("Smith", "D", 100), cand("Lee", "R", 200)}},
			{Name: "Prince George's County", Cands: []model.Candidate{cand("Smith", "D", 900), cand("Lee", "R", 100)}},
		},
	}
	units := CountyUnits(e)
	require.Len(t, units, 2)
	assert.Equal(t, "saint_marys", units[0].Key)
	assert.Equal(t, "St. Mary's County", units[0].Name)

	s := Aggregate(units, Options{})
	assert.Equal(t, 1, s.Seats("D"))
	assert.Equal(t, 1, s.Seats("R"))
	assert.InDelta(t, 1300, s.TotalVotes, 1e-9)
}
