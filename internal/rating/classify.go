// Package rating classifies unit margins into competitiveness tiers.
package rating

import (
	"math"

	"github.com/sells-group/election-toolkit/internal/aggregate"
	"github.com/sells-group/election-toolkit/internal/model"
)

// Tier is a competitiveness label.
type Tier string

// Tiers from most to least competitive.
const (
	Tilt   Tier = "Tilt"
	Lean   Tier = "Lean"
	Likely Tier = "Likely"
	Safe   Tier = "Safe"
)

// Tiers lists every tier from most to least competitive.
func Tiers() []Tier {
	return []Tier{Tilt, Lean, Likely, Safe}
}

// Classify returns the tier for a margin percentage:
//   - Tilt:   margin <= TiltMax
//   - Lean:   margin <= LeanMax
//   - Likely: margin <= LikelyMax
//   - Safe:   otherwise
//
// Thresholds are not validated here; see Thresholds.Validate.
func Classify(marginPct float64, t Thresholds) Tier {
	switch {
	case marginPct <= t.TiltMax:
		return Tilt
	case marginPct <= t.LeanMax:
		return Lean
	case marginPct <= t.LikelyMax:
		return Likely
	}
	return Safe
}

// Result is the rating of one geographic unit.
type Result struct {
	GeoKey    string  `json:"geo_key"`
	Name      string  `json:"name"`
	Margin    float64 `json:"margin"`
	MarginPct float64 `json:"margin_pct"`
	TotalVote float64 `json:"total_vote"`
	Winner    string  `json:"winner"`
	Tier      Tier    `json:"tier"`
	// RatingLabel is Label() captured for serialized output.
	RatingLabel string `json:"rating_label"`
}

// Label joins the tier with the winner's party name, e.g. "Safe Republican".
// Units without a winner are labeled with the tier alone.
func (r Result) Label() string {
	if r.Winner == "" {
		return string(r.Tier)
	}
	return string(r.Tier) + " " + model.PartyName(r.Winner)
}

// Margin returns the vote gap between the top two entries of ranked and that gap
// as a percentage of total, rounded to 2 decimals. A lone entry is measured
// against zero; a zero total gives a zero percentage.
func Margin(ranked []model.PartyResult, total float64) (float64, float64) {
	if len(ranked) == 0 {
		return 0, 0
	}
	top1 := ranked[0].Votes
	var top2 float64
	if len(ranked) > 1 {
		top2 = ranked[1].Votes
	}
	margin := math.Abs(top1 - top2)
	return margin, model.Percent(margin, total)
}

// Rate rates one unit from its ranked party totals.
func Rate(key, name string, ranked []model.PartyResult, total float64, t Thresholds) Result {
	margin, pct := Margin(ranked, total)
	r := Result{
		GeoKey:    key,
		Name:      name,
		Margin:    margin,
		MarginPct: pct,
		TotalVote: total,
	}
	if total <= 0 {
		r.Margin = 0
		r.MarginPct = 0
		r.Tier = Tilt
		r.RatingLabel = r.Label()
		return r
	}
	r.Winner = ranked[0].Party
	r.Tier = Classify(pct, t)
	r.RatingLabel = r.Label()
	return r
}

// RateUnits rates each unit in order.
func RateUnits(units []aggregate.Unit, t Thresholds) []Result {
	out := make([]Result, 0, len(units))
	for _, u := range units {
		out = append(out, Rate(u.Key, u.Name, u.Race.Ranked, u.Race.Total, t))
	}
	return out
}

// TotalsKey is the geographic key of the aggregate row.
const TotalsKey = "TOTALS"

// Totals is the aggregate rating row: the margin between the top two aggregate
// party totals, plus the seats and electoral votes each party won.
type Totals struct {
	Result
	Seats          map[string]int `json:"seats"`
	ElectoralVotes map[string]int `json:"electoral_votes,omitempty"`
}

// RateSummary rates the aggregate totals of a pass.
func RateSummary(s aggregate.Summary, t Thresholds) Totals {
	tot := Totals{
		Result: Rate(TotalsKey, TotalsKey, s.Ranked, s.TotalVotes, t),
		Seats:  make(map[string]int, len(s.Totals)),
	}
	if s.Weighted {
		tot.ElectoralVotes = make(map[string]int, len(s.Totals))
	}
	for _, pt := range s.Totals {
		tot.Seats[pt.Party] = pt.Seats
		if s.Weighted {
			tot.ElectoralVotes[pt.Party] = pt.ElectoralVotes
		}
	}
	return tot
}
