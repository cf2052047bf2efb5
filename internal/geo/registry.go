// Package geo is the geographic registry: state and county codes, their display
// names, and the identifier normalization that joins result rows to map shapes.
package geo

import (
	"strings"
)

// State is one entry of the static state table.
type State struct {
	Postal string
	Name   string
	FIPS   string
}

var states = []State{
	{"AL", "Alabama", "01"},
	{"AK", "Alaska", "02"},
	{"AZ", "Arizona", "04"},
	{"AR", "Arkansas", "05"},
	{"CA", "California", "06"},
	{"CO", "Colorado", "08"},
	{"CT", "Connecticut", "09"},
	{"DE", "Delaware", "10"},
	{"DC", "District of Columbia", "11"},
	{"FL", "Florida", "12"},
	{"GA", "Georgia", "13"},
	{"HI", "Hawaii", "15"},
	{"ID", "Idaho", "16"},
	{"IL", "Illinois", "17"},
	{"IN", "Indiana", "18"},
	{"IA", "Iowa", "19"},
	{"KS", "Kansas", "20"},
	{"KY", "Kentucky", "21"},
	{"LA", "Louisiana", "22"},
	{"ME", "Maine", "23"},
	{"MD", "Maryland", "24"},
	{"MA", "Massachusetts", "25"},
	{"MI", "Michigan", "26"},
	{"MN", "Minnesota", "27"},
	{"MS", "Mississippi", "28"},
	{"MO", "Missouri", "29"},
	{"MT", "Montana", "30"},
	{"NE", "Nebraska", "31"},
	{"NV", "Nevada", "32"},
	{"NH", "New Hampshire", "33"},
	{"NJ", "New Jersey", "34"},
	{"NM", "New Mexico", "35"},
	{"NY", "New York", "36"},
	{"NC", "North Carolina", "37"},
	{"ND", "North Dakota", "38"},
	{"OH", "Ohio", "39"},
	{"OK", "Oklahoma", "40"},
	{"OR", "Oregon", "41"},
	{"PA", "Pennsylvania", "42"},
	{"RI", "Rhode Island", "44"},
	{"SC", "South Carolina", "45"},
	{"SD", "South Dakota", "46"},
	{"TN", "Tennessee", "47"},
	{"TX", "Texas", "48"},
	{"UT", "Utah", "49"},
	{"VT", "Vermont", "50"},
	{"VA", "Virginia", "51"},
	{"WA", "Washington", "53"},
	{"WV", "West Virginia", "54"},
	{"WI", "Wisconsin", "55"},
	{"WY", "Wyoming", "56"},
	{"PR", "Puerto Rico", "72"},
}

var (
	statesByPostal = make(map[string]State, len(states))
	statesByFIPS   = make(map[string]State, len(states))
	statesByName   = make(map[string]State, len(states))
)

func init() {
	for _, s := range states {
		statesByPostal[s.Postal] = s
		statesByFIPS[s.FIPS] = s
		statesByName[NormalizeID(s.Name)] = s
	}
}

// States returns a copy of the static state table in FIPS order.
func States() []State {
	out := make([]State, len(states))
	copy(out, states)
	return out
}

// LookupState resolves a postal code, FIPS code, or full state name.
func LookupState(s string) (State, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return State{}, false
	}
	if st, ok := statesByPostal[strings.ToUpper(s)]; ok && len(s) == 2 {
		return st, true
	}
	if isDigits(s) {
		st, ok := statesByFIPS[NormalizeFIPSState(s)]
		return st, ok
	}
	st, ok := statesByName[NormalizeID(s)]
	return st, ok
}

// StateName returns the display name for a state in any accepted form, or the
// input unchanged when it is not a known state.
func StateName(s string) string {
	if st, ok := LookupState(s); ok {
		return st.Name
	}
	return s
}

// StatePostal returns the postal code for a state display name or code, or "".
func StatePostal(s string) string {
	if st, ok := LookupState(s); ok {
		return st.Postal
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
