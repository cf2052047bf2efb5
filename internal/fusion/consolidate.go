// Package fusion reduces a race's per-candidate, per-party-line records to one
// vote figure per party, resolving cross-filed (fusion) candidacies.
package fusion

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/election-toolkit/internal/model"
)

// Race is the consolidated result of one geographic unit.
type Race struct {
	// Results holds one entry per party in canonical order (D, R, I, then
	// others by first appearance).
	Results []model.PartyResult `json:"results"`
	// Ranked holds the same entries by votes descending. Equal totals keep the
	// order in which the party first appeared in the input.
	Ranked []model.PartyResult `json:"-"`
	// Seen lists party codes in the order they first appear in the input.
	Seen  []string `json:"-"`
	Total float64  `json:"total"`
}

// Winner returns the top-ranked party. There is no winner when the unit has no
// candidates or no votes.
func (r Race) Winner() (model.PartyResult, bool) {
	if len(r.Ranked) == 0 || r.Total <= 0 {
		return model.PartyResult{}, false
	}
	return r.Ranked[0], true
}

// RunnerUp returns the second-ranked party, if any.
func (r Race) RunnerUp() (model.PartyResult, bool) {
	if len(r.Ranked) < 2 {
		return model.PartyResult{}, false
	}
	return r.Ranked[1], true
}

// Party returns the consolidated entry for a party code.
func (r Race) Party(code string) (model.PartyResult, bool) {
	for _, p := range r.Results {
		if p.Party == code {
			return p, true
		}
	}
	return model.PartyResult{}, false
}

type bucket struct {
	party string
	name  string
	votes float64
	first int
}

type partyGroup struct {
	party   string
	members []int
}

type redirect struct {
	name  string
	votes float64
	at    int
}

// Consolidate produces one result per party line.
//
// A party with one candidate passes through unchanged. For a party with several
// candidates the overall top-vote candidate across all parties is found first:
//   - if the party's own top candidate is that overall winner, every candidate
//     of the party is summed under the winner's name;
//   - otherwise the party keeps only its top candidate's votes, and the votes of
//     its remaining candidates move to the Independent bucket, which is created
//     under the name of the party's lowest-vote candidate when absent.
//
// Votes are only moved, never created or dropped, so the sum of Results equals
// the sum of the raw candidate votes. Ties for top or lowest go to the candidate
// that appears first in cands.
func Consolidate(cands []model.Candidate) Race {
	total := model.TotalVotes(cands)
	if len(cands) == 0 {
		return Race{Results: []model.PartyResult{}, Ranked: []model.PartyResult{}, Seen: []string{}}
	}

	winner := 0
	for i, c := range cands {
		if c.Votes > cands[winner].Votes {
			winner = i
		}
	}

	var groups []*partyGroup
	byParty := make(map[string]*partyGroup)
	for i, c := range cands {
		g, ok := byParty[c.Party]
		if !ok {
			g = &partyGroup{party: c.Party}
			byParty[c.Party] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, i)
	}

	buckets := make(map[string]*bucket)
	var order []*bucket
	add := func(party, name string, votes float64, at int) {
		b, ok := buckets[party]
		if !ok {
			b = &bucket{party: party, name: name, first: at}
			buckets[party] = b
			order = append(order, b)
		}
		b.votes += votes
	}

	var redirects []redirect
	for _, g := range groups {
		if len(g.members) == 1 {
			i := g.members[0]
			add(g.party, cands[i].Name, cands[i].Votes, i)
			continue
		}

		top := g.members[0]
		for _, i := range g.members[1:] {
			if cands[i].Votes > cands[top].Votes {
				top = i
			}
		}

		if top == winner {
			var sum float64
			for _, i := range g.members {
				sum += cands[i].Votes
			}
			add(g.party, cands[top].Name, sum, g.members[0])
			continue
		}

		add(g.party, cands[top].Name, cands[top].Votes, g.members[0])

		low := -1
		for _, i := range g.members {
			if i == top {
				continue
			}
			if low < 0 || cands[i].Votes < cands[low].Votes {
				low = i
			}
		}
		for _, i := range g.members {
			if i == top {
				continue
			}
			redirects = append(redirects, redirect{name: cands[low].Name, votes: cands[i].Votes, at: low})
		}
		zap.L().Debug("fusion: redirecting non-winning fusion line to independent",
			zap.String("party", g.party),
			zap.String("candidate", cands[low].Name),
			zap.Int("lines", len(g.members)-1),
		)
	}

	// Redirects land after every party has its own entry so an existing
	// Independent line keeps its name.
	for _, rd := range redirects {
		add(model.PartyIndependent, rd.name, rd.votes, rd.at)
	}

	sort.SliceStable(order, func(i, j int) bool {
		ri, rj := model.PartyRank(order[i].party), model.PartyRank(order[j].party)
		if ri != rj {
			return ri < rj
		}
		return order[i].first < order[j].first
	})

	race := Race{
		Results: make([]model.PartyResult, 0, len(order)),
		Total:   total,
	}
	for _, b := range order {
		race.Results = append(race.Results, model.PartyResult{
			Party:     b.party,
			Candidate: b.name,
			Votes:     b.votes,
			Pct:       model.Percent(b.votes, total),
		})
	}

	firstSeen := make(map[string]int, len(order))
	for _, b := range order {
		firstSeen[b.party] = b.first
		race.Seen = append(race.Seen, b.party)
	}
	sort.SliceStable(race.Seen, func(i, j int) bool {
		return firstSeen[race.Seen[i]] < firstSeen[race.Seen[j]]
	})
	race.Ranked = make([]model.PartyResult, len(race.Results))
	copy(race.Ranked, race.Results)
	sort.SliceStable(race.Ranked, func(i, j int) bool {
		a, b := race.Ranked[i], race.Ranked[j]
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		return firstSeen[a.Party] < firstSeen[b.Party]
	})

	return race
}
