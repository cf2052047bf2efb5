// Package aggregate sums consolidated party votes across geographic units and
// counts the units (seats) and electoral votes each party wins.
package aggregate

import (
	"sort"

	"github.com/sells-group/election-toolkit/internal/fusion"
	"github.com/sells-group/election-toolkit/internal/model"
)

// Unit is one consolidated geographic unit: a state, district, or county.
type Unit struct {
	Key    string      `json:"key"`
	Name   string      `json:"name"`
	Weight int         `json:"weight,omitempty"`
	Race   fusion.Race `json:"race"`
}

// Options controls an aggregation pass.
type Options struct {
	// Weighted credits each unit's Weight (electoral votes) to its winner.
	Weighted bool
}

// PartyTotal is one party's line in an aggregate summary.
type PartyTotal struct {
	Party          string  `json:"party"`
	Votes          float64 `json:"votes"`
	Pct            float64 `json:"pct"`
	Seats          int     `json:"seats"`
	ElectoralVotes int     `json:"electoral_votes"`
}

// Summary is the result of an aggregation pass.
type Summary struct {
	Units []Unit `json:"units"`
	// Totals has every party seen in any unit, in canonical order. Parties that
	// won nothing carry zero seats and zero electoral votes.
	Totals []PartyTotal `json:"totals"`
	// Ranked holds the aggregate party totals by votes descending, ties going
	// to the party encountered first in the input.
	Ranked     []model.PartyResult `json:"-"`
	TotalVotes float64             `json:"total_votes"`
	Decided    int                 `json:"decided"`
	Undecided  int                 `json:"undecided"`
	Weighted   bool                `json:"weighted"`
}

// Seats returns the number of units won by party.
func (s Summary) Seats(party string) int {
	for _, t := range s.Totals {
		if t.Party == party {
			return t.Seats
		}
	}
	return 0
}

// Accumulator collects running totals for one aggregation pass. It is not safe
// for concurrent use; every pass gets its own.
type Accumulator struct {
	opts    Options
	votes   map[string]float64
	seats   map[string]int
	ev      map[string]int
	first   map[string]int
	seen    int
	total   float64
	units   []Unit
	undec   int
	parties []string
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator(opts Options) *Accumulator {
	return &Accumulator{
		opts:  opts,
		votes: make(map[string]float64),
		seats: make(map[string]int),
		ev:    make(map[string]int),
		first: make(map[string]int),
	}
}

// Add folds one consolidated unit into the running totals.
func (a *Accumulator) Add(u Unit) {
	a.units = append(a.units, u)
	a.total += u.Race.Total

	seen := u.Race.Seen
	if len(seen) == 0 {
		for _, p := range u.Race.Results {
			seen = append(seen, p.Party)
		}
	}
	for _, party := range seen {
		if _, ok := a.first[party]; !ok {
			a.first[party] = a.seen
			a.seen++
			a.parties = append(a.parties, party)
		}
	}
	for _, p := range u.Race.Results {
		a.votes[p.Party] += p.Votes
	}

	w, ok := u.Race.Winner()
	if !ok {
		a.undec++
		return
	}
	a.seats[w.Party]++
	if a.opts.Weighted {
		a.ev[w.Party] += u.Weight
	}
}

// Summary returns the totals collected so far.
func (a *Accumulator) Summary() Summary {
	s := Summary{
		Units:      a.units,
		TotalVotes: a.total,
		Decided:    len(a.units) - a.undec,
		Undecided:  a.undec,
		Weighted:   a.opts.Weighted,
	}
	if s.Units == nil {
		s.Units = []Unit{}
	}

	parties := make([]string, len(a.parties))
	copy(parties, a.parties)
	sort.SliceStable(parties, func(i, j int) bool {
		return model.PartyRank(parties[i]) < model.PartyRank(parties[j])
	})

	s.Totals = make([]PartyTotal, 0, len(parties))
	for _, p := range parties {
		s.Totals = append(s.Totals, PartyTotal{
			Party:          p,
			Votes:          a.votes[p],
			Pct:            model.Percent(a.votes[p], a.total),
			Seats:          a.seats[p],
			ElectoralVotes: a.ev[p],
		})
	}

	s.Ranked = make([]model.PartyResult, 0, len(a.parties))
	for _, p := range a.parties {
		s.Ranked = append(s.Ranked, model.PartyResult{
			Party: p,
			Votes: a.votes[p],
			Pct:   model.Percent(a.votes[p], a.total),
		})
	}
	sort.SliceStable(s.Ranked, func(i, j int) bool {
		return s.Ranked[i].Votes > s.Ranked[j].Votes
	})

	return s
}

// Aggregate runs one aggregation pass over already-consolidated units.
func Aggregate(units []Unit, opts Options) Summary {
	acc := NewAccumulator(opts)
	for _, u := range units {
		acc.Add(u)
	}
	return acc.Summary()
}

// AggregateEntries consolidates each entry and aggregates the result.
func AggregateEntries(entries []model.RaceEntry, opts Options) Summary {
	return Aggregate(Units(entries), opts)
}
