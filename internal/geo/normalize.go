package geo

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Separator joins the tokens of a canonical identifier.
const Separator = "_"

// jurisdictionSuffixes are stripped from the end of county names because map
// shape identifiers omit them. Longer suffixes come first.
var jurisdictionSuffixes = [][]string{
	{"city", "and", "borough"},
	{"census", "area"},
	{"municipality"},
	{"borough"},
	{"parish"},
	{"county"},
}

// abbreviations fold common abbreviated tokens to one spelling.
var abbreviations = map[string]string{
	"st":  "saint",
	"ste": "sainte",
	"ft":  "fort",
	"mt":  "mount",
}

var apostrophes = strings.NewReplacer(
	"'", "",
	"’", "",
	"‘", "",
	"`", "",
	"ʻ", "",
)

// NormalizeID returns the canonical identifier for a county-level name. It
// lowercases, folds diacritics, drops apostrophes, splits on any other
// punctuation or whitespace, folds abbreviations, strips trailing jurisdiction
// suffixes and joins the remaining tokens with Separator:
//
//	"St. Mary's County" -> "saint_marys"
//	"Doña Ana County"   -> "dona_ana"
//	"Miami-Dade"        -> "miami_dade"
//
// The result is stable and NormalizeID(NormalizeID(x)) == NormalizeID(x).
func NormalizeID(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}

	// Transformers built by Chain hold state; build one per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}

	s = strings.ToLower(s)
	s = apostrophes.Replace(s)
	s = strings.ReplaceAll(s, "&", " and ")

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, tok := range tokens {
		if full, ok := abbreviations[tok]; ok {
			tokens[i] = full
		}
	}
	tokens = trimJurisdictionSuffixes(tokens)

	return strings.Join(tokens, Separator)
}

// trimJurisdictionSuffixes strips suffixes until none match, but never strips a
// name down to nothing ("Borough" alone stays "borough").
func trimJurisdictionSuffixes(tokens []string) []string {
	for {
		trimmed := false
		for _, suf := range jurisdictionSuffixes {
			if len(tokens) > len(suf) && hasTokenSuffix(tokens, suf) {
				tokens = tokens[:len(tokens)-len(suf)]
				trimmed = true
				break
			}
		}
		if !trimmed {
			return tokens
		}
	}
}

func hasTokenSuffix(tokens, suffix []string) bool {
	off := len(tokens) - len(suffix)
	for i, s := range suffix {
		if tokens[off+i] != s {
			return false
		}
	}
	return true
}

// NormalizeStateID returns the uppercase two-letter postal code for a state given
// as a postal code, FIPS code, or full name. Unknown states yield "".
func NormalizeStateID(s string) string {
	return StatePostal(s)
}

// DistrictID returns the identifier of a congressional district, e.g. "PA-07".
// District 0 is the at-large seat ("AK-AL"). Unknown states yield "".
func DistrictID(state string, district int) string {
	postal := NormalizeStateID(state)
	if postal == "" {
		return ""
	}
	if district <= 0 {
		return postal + "-AL"
	}
	return fmt.Sprintf("%s-%02d", postal, district)
}

// NormalizeDistrictID canonicalizes a district identifier such as "pa-7",
// "PA 07" or "Alaska-AL" to the DistrictID form. Unparseable input yields "".
func NormalizeDistrictID(s string) string {
	s = strings.TrimSpace(s)
	i := strings.LastIndexAny(s, "- ")
	if i <= 0 {
		return ""
	}
	state, num := strings.TrimSpace(s[:i]), strings.ToUpper(strings.TrimSpace(s[i+1:]))
	if num == "AL" {
		return DistrictID(state, 0)
	}
	if !isDigits(num) {
		return ""
	}
	n := 0
	for _, r := range num {
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return ""
	}
	return DistrictID(state, n)
}
