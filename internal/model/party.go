package model

// PartyName returns the display name for a party code. Codes outside the
// three-bucket model are displayed as-is.
func PartyName(code string) string {
	switch code {
	case PartyDemocratic:
		return "Democratic"
	case PartyRepublican:
		return "Republican"
	case PartyIndependent:
		return "Independent"
	}
	return code
}

// PartyRank orders party codes canonically: D, R, I, then everything else.
// Unknown codes share the same rank; callers break ties by input order.
func PartyRank(code string) int {
	switch code {
	case PartyDemocratic:
		return 0
	case PartyRepublican:
		return 1
	case PartyIndependent:
		return 2
	}
	return 3
}

// PartyResult is the consolidated vote figure for one party line in one unit.
type PartyResult struct {
	Party     string  `json:"party"`
	Candidate string  `json:"candidate"`
	Votes     float64 `json:"votes"`
	Pct       float64 `json:"pct"`
}
