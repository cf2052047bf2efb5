package geo

import "strings"

// padFIPS left-pads a FIPS code with zeros to width. Blank codes stay blank;
// codes at or over width are returned trimmed but otherwise unchanged.
func padFIPS(code string, width int) string {
	code = strings.TrimSpace(code)
	if code == "" || len(code) >= width {
		return code
	}
	return strings.Repeat("0", width-len(code)) + code
}

// NormalizeFIPSState pads a state FIPS code to 2 digits.
func NormalizeFIPSState(code string) string { return padFIPS(code, 2) }

// NormalizeFIPSCounty pads a county FIPS code to 3 digits.
func NormalizeFIPSCounty(code string) string { return padFIPS(code, 3) }

// CombineFIPS joins state and county codes into a 5-digit county GEOID, or ""
// when either part is blank.
func CombineFIPS(state, county string) string {
	s, c := NormalizeFIPSState(state), NormalizeFIPSCounty(county)
	if s == "" || c == "" {
		return ""
	}
	return s + c
}
