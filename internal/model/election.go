package model

import "sort"

// Party line codes used by the three-bucket display model.
const (
	PartyDemocratic  = "D"
	PartyRepublican  = "R"
	PartyIndependent = "I"
)

// ElectionKind names one tab of a savefile (president, senate, house, ...).
type ElectionKind string

const (
	KindPresident ElectionKind = "president"
	KindSenate    ElectionKind = "senate"
	KindHouse     ElectionKind = "house"
	KindGovernor  ElectionKind = "governor"
	KindDefault   ElectionKind = "default"
)

// Weighted reports whether units of this kind carry electoral-vote weights.
func (k ElectionKind) Weighted() bool {
	return k == KindPresident
}

// Candidate is one party line on the ballot within a race or county.
type Candidate struct {
	Name           string  `json:"name"`
	Party          string  `json:"party"`
	Votes          float64 `json:"votes"`
	ElectoralVotes int     `json:"electoralVotes,omitempty"`
	Incumbent      bool    `json:"incumbent,omitempty"`
	Caucus         string  `json:"caucus,omitempty"`
}

// County holds the county-scoped vote breakdown for a race.
type County struct {
	Name  string      `json:"name"`
	Cands []Candidate `json:"cands"`
}

// RaceEntry is one geographic unit of a race: a state, or a district within a state.
type RaceEntry struct {
	State          string      `json:"state"`
	District       *int        `json:"district,omitempty"`
	Cands          []Candidate `json:"cands"`
	Counties       []County    `json:"counties,omitempty"`
	ElectoralVotes int         `json:"electoralVotes,omitempty"`
}

// TotalVotes sums the raw votes of every candidate.
func TotalVotes(cands []Candidate) float64 {
	var total float64
	for _, c := range cands {
		total += c.Votes
	}
	return total
}

// Weight returns the electoral-vote weight of the unit. An explicit entry weight
// wins; otherwise the largest per-candidate allocation is used, which covers both
// savefiles that stamp the state total on every candidate and those that stamp it
// only on the winner.
func (e RaceEntry) Weight() int {
	if e.ElectoralVotes > 0 {
		return e.ElectoralVotes
	}
	w := 0
	for _, c := range e.Cands {
		if c.ElectoralVotes > w {
			w = c.ElectoralVotes
		}
	}
	return w
}

// Savefile is a decoded election savefile: race entries per election kind.
type Savefile struct {
	Elections map[ElectionKind][]RaceEntry `json:"elections"`
}

// Kinds returns the election kinds in the savefile in a stable order:
// president, senate, house, governor, then the rest alphabetically.
func (s *Savefile) Kinds() []ElectionKind {
	rank := map[ElectionKind]int{KindPresident: 0, KindSenate: 1, KindHouse: 2, KindGovernor: 3}
	kinds := make([]ElectionKind, 0, len(s.Elections))
	for k := range s.Elections {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		ri, iok := rank[kinds[i]]
		rj, jok := rank[kinds[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		}
		return kinds[i] < kinds[j]
	})
	return kinds
}
