package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/election-toolkit/internal/model"
)

func cand(name, party string, votes float64) model.Candidate {
	return model.Candidate{Name: name, Party: party, Votes: votes}
}

func sumResults(r Race) float64 {
	var s float64
	for _, p := range r.Results {
		s += p.Votes
	}
	return s
}

func TestConsolidate_WinningFusion(t *testing.T) {
	race := Consolidate([]model.Candidate{
		cand("Smith", "D", 600),
		cand("Jones", "D", 50),
		cand("Lee", "R", 500),
	})

	require.Len(t, race.Results, 2)
	assert.Equal(t, model.PartyResult{Party: "D", Candidate: "Smith", Votes: 650, Pct: 56.52}, race.Results[0])
	assert.Equal(t, model.PartyResult{Party: "R", Candidate: "Lee", Votes: 500, Pct: 43.48}, race.Results[1])
	assert.InDelta(t, 1150, race.Total, 1e-9)

	w, ok := race.Winner()
	require.True(t, ok)
	assert.Equal(t, "D", w.Party)
}

func TestConsolidate_NonWinningFusion(t *testing.T) {
	race := Consolidate([]model.Candidate{
		cand("Adams", "D", 300),
		cand("Baker", "D", 20),
		cand("Clark", "R", 500),
	})

	require.Len(t, race.Results, 3)
	assert.Equal(t, "D", race.Results[0].Party)
	assert.Equal(t, "Adams", race.Results[0].Candidate)
	assert.InDelta(t, 300, race.Results[0].Votes, 1e-9)
	assert.Equal(t, "R", race.Results[1].Party)
	assert.Equal(t, "Clark", race.Results[1].Candidate)
	assert.InDelta(t, 500, race.Results[1].Votes, 1e-9)
	assert.Equal(t, "I", race.Results[2].Party)
	assert.Equal(t, "Baker", race.Results[2].Candidate)
	assert.InDelta(t, 20, race.Results[2].Votes, 1e-9)
	assert.InDelta(t, 820, race.Total, 1e-9)
}

func TestConsolidate_RedirectIntoExistingIndependent(t *testing.T) {
	race := Consolidate([]model.Candidate{
		cand("Adams", "D", 300),
		cand("Baker", "D", 20),
		cand("Clark", "R", 500),
		cand("Doyle", "I", 40),
	})

	require.Len(t, race.Results, 3)
	ind, ok := race.Party("I")
	require.True(t, ok)
	assert.Equal(t, "Doyle", ind.Candidate)
	assert.InDelta(t, 60, ind.Votes, 1e-9)
	assert.InDelta(t, race.Total, sumResults(race), 1e-9)
}

func TestConsolidate_ThreeLineNonWinningFusion(t *testing.T) {
	race := Consolidate([]model.Candidate{
		cand("Adams", "D", 300),
		cand("Baker", "D", 20),
		cand("Cole", "D", 35),
		cand("Clark", "R", 500),
	})

	d, _ := race.Party("D")
	assert.InDelta(t, 300, d.Votes, 1e-9)
	ind, ok := race.Party("I")
	require.True(t, ok)
	assert.Equal(t, "Baker", ind.Candidate)
	assert.InDelta(t, 55, ind.Votes, 1e-9)
	assert.InDelta(t, 855, sumResults(race), 1e-9)
}

func TestConsolidate_IndependentFusionStaysInOwnBucket(t *testing.T) {
	race := Consolidate([]model.Candidate{
		cand("Clark", "R", 500),
		cand("Ivy", "I", 80),
		cand("Ives", "I", 10),
	})

	require.Len(t, race.Results, 2)
	ind, _ := race.Party("I")
	assert.Equal(t, "Ivy", ind.Candidate)
	assert.InDelta(t, 90, ind.Votes, 1e-9)
}

func TestConsolidate_SingleCandidatePartiesUnchanged(t *testing.T) {
	race := Consolidate([]model.Candidate{
		cand("Green", "G", 10),
		cand("Lee", "R", 500),
		cand("Ivy", "I", 30),
		cand("Smith", "D", 400),
		cand("Lib", "L", 5),
	})

	parties := make([]string, 0, len(race.Results))
	for _, p := range race.Results {
		parties = append(parties, p.Party)
	}
	assert.Equal(t, []string{"D", "R", "I", "G", "L"}, parties)
	g, _ := race.Party("G")
	assert.Equal(t, "Green", g.Candidate)
	assert.InDelta(t, 10, g.Votes, 1e-9)
}

func TestConsolidate_Empty(t *testing.T) {
	race := Consolidate(nil)
	assert.Empty(t, race.Results)
	assert.Zero(t, race.Total)
	_, ok := race.Winner()
	assert.False(t, ok)
}

func TestConsolidate_ZeroVotes(t *testing.T) {
	race := Consolidate([]model.Candidate{cand("A", "D", 0), cand("B", "R", 0)})
	require.Len(t, race.Results, 2)
	for _, p := range race.Results {
		assert.Zero(t, p.Pct)
	}
	_, ok := race.Winner()
	assert.False(t, ok)
}

func TestConsolidate_TieGoesToFirstEncountered(t *testing.T) {
	race := Consolidate([]model.Candidate{
		cand("Rex", "R", 500),
		cand("Dee", "D", 500),
	})
	w, ok := race.Winner()
	require.True(t, ok)
	assert.Equal(t, "R", w.Party)
	r, ok := race.RunnerUp()
	require.True(t, ok)
	assert.Equal(t, "D", r.Party)
	// Canonical display order is independent of the tie-break.
	assert.Equal(t, "D", race.Results[0].Party)
}

func TestConsolidate_TiedFusionTopIsWinner(t *testing.T) {
	// Both D lines tie at the top; the first listed is the overall winner.
	race := Consolidate([]model.Candidate{
		cand("Smith", "D", 300),
		cand("Smith (WFP)", "D", 300),
		cand("Lee", "R", 200),
	})
	d, _ := race.Party("D")
	assert.Equal(t, "Smith", d.Candidate)
	assert.InDelta(t, 600, d.Votes, 1e-9)
}

func TestConsolidate_Properties(t *testing.T) {
	races := [][]model.Candidate{
		{cand("Smith", "D", 600), cand("Jones", "D", 50), cand("Lee", "R", 500)},
		{cand("Adams", "D", 300), cand("Baker", "D", 20), cand("Clark", "R", 500)},
		{cand("A", "D", 1), cand("B", "R", 2), cand("C", "I", 3), cand("D", "G", 4)},
		{cand("A", "D", 123.5), cand("B", "D", 0.5), cand("C", "R", 77), cand("E", "R", 1), cand("F", "I", 9)},
		{cand("Solo", "R", 42)},
	}

	for _, cands := range races {
		race := Consolidate(cands)
		assert.InDelta(t, model.TotalVotes(cands), sumResults(race), 1e-9, "votes conserved")

		var pct float64
		for _, p := range race.Results {
			assert.GreaterOrEqual(t, p.Pct, 0.0)
			assert.LessOrEqual(t, p.Pct, 100.0)
			pct += p.Pct
		}
		assert.InDelta(t, 100, pct, 0.01*float64(len(race.Results)), "percentages sum to 100")
	}
}
