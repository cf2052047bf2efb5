package aggregate

import (
	"strings"

	"github.com/sells-group/election-toolkit/internal/fusion"
	"github.com/sells-group/election-toolkit/internal/geo"
	"github.com/sells-group/election-toolkit/internal/model"
)

// EntryKey returns the geographic key of a race entry: the state postal code,
// or the district identifier for districted races. Unknown states fall back to
// the raw state string so the unit stays visible in tables.
func EntryKey(e model.RaceEntry) string {
	if e.District != nil {
		if id := geo.DistrictID(e.State, *e.District); id != "" {
			return id
		}
	} else if id := geo.NormalizeStateID(e.State); id != "" {
		return id
	}
	return strings.TrimSpace(e.State)
}

// EntryName returns a display name for a race entry.
func EntryName(e model.RaceEntry) string {
	name := geo.StateName(strings.TrimSpace(e.State))
	if e.District == nil {
		return name
	}
	return EntryKey(e)
}

// EntryCandidates returns the entry's candidates. When the entry only carries a
// county breakdown the state list is rolled up from it.
func EntryCandidates(e model.RaceEntry) []model.Candidate {
	if len(e.Cands) == 0 && len(e.Counties) > 0 {
		return RollupCounties(e.Counties)
	}
	return e.Cands
}

// Units consolidates each entry into a unit, preserving input order.
func Units(entries []model.RaceEntry) []Unit {
	units := make([]Unit, 0, len(entries))
	for _, e := range entries {
		units = append(units, Unit{
			Key:    EntryKey(e),
			Name:   EntryName(e),
			Weight: e.Weight(),
			Race:   fusion.Consolidate(EntryCandidates(e)),
		})
	}
	return units
}

// CountyUnits consolidates each county of an entry independently; the fusion
// winner is decided per county.
func CountyUnits(e model.RaceEntry) []Unit {
	units := make([]Unit, 0, len(e.Counties))
	for _, c := range e.Counties {
		units = append(units, Unit{
			Key:  geo.NormalizeID(c.Name),
			Name: c.Name,
			Race: fusion.Consolidate(c.Cands),
		})
	}
	return units
}

// RollupCounties sums county-level votes per candidate identity (name and party)
// in first-appearance order. Electoral-vote allocations keep the largest value
// seen, flags come from the first occurrence.
func RollupCounties(counties []model.County) []model.Candidate {
	type key struct{ name, party string }
	idx := make(map[key]int)
	var out []model.Candidate
	for _, county := range counties {
		for _, c := range county.Cands {
			k := key{c.Name, c.Party}
			i, ok := idx[k]
			if !ok {
				idx[k] = len(out)
				out = append(out, c)
				continue
			}
			out[i].Votes += c.Votes
			if c.ElectoralVotes > out[i].ElectoralVotes {
				out[i].ElectoralVotes = c.ElectoralVotes
			}
		}
	}
	return out
}
