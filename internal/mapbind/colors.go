package mapbind

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/election-toolkit/internal/model"
	"github.com/sells-group/election-toolkit/internal/rating"
)

// NeutralColor fills units whose (party, tier) pair has no scheme color.
const NeutralColor = "#BDBDBD"

var validate = validator.New()

// ColorScheme maps party code → tier → hex color.
type ColorScheme map[string]map[rating.Tier]string

// DefaultColorScheme returns the stock Democratic / Republican / Independent
// palette, darkest for Safe.
func DefaultColorScheme() ColorScheme {
	return ColorScheme{
		model.PartyDemocratic: {
			rating.Tilt:   "#949BB3",
			rating.Lean:   "#8AAFFF",
			rating.Likely: "#577CCC",
			rating.Safe:   "#1C408C",
		},
		model.PartyRepublican: {
			rating.Tilt:   "#CF8980",
			rating.Lean:   "#FF8B98",
			rating.Likely: "#FF5865",
			rating.Safe:   "#BF1D29",
		},
		model.PartyIndependent: {
			rating.Tilt:   "#A5D6A7",
			rating.Lean:   "#81C784",
			rating.Likely: "#4CAF50",
			rating.Safe:   "#2E7D32",
		},
	}
}

// Color returns the color for a (party, tier) pair.
func (c ColorScheme) Color(party string, tier rating.Tier) (string, bool) {
	tiers, ok := c[party]
	if !ok {
		return "", false
	}
	color, ok := tiers[tier]
	return color, ok && color != ""
}

// Validate checks that every configured color is a hex color.
func (c ColorScheme) Validate() error {
	for party, tiers := range c {
		for tier, color := range tiers {
			if err := validate.Var(color, "required,hexcolor"); err != nil {
				return eris.Errorf("mapbind: color for %s/%s: %q is not a hex color", party, tier, color)
			}
		}
	}
	return nil
}

// ParseTier resolves a tier name case-insensitively.
func ParseTier(s string) (rating.Tier, bool) {
	for _, t := range rating.Tiers() {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// LoadColorScheme reads a YAML color preset of the form
//
//	D:
//	  safe: "#1C408C"
//	  likely: "#577CCC"
//
// Parties missing from the file keep no colors; callers usually merge the
// result over DefaultColorScheme.
func LoadColorScheme(path string) (ColorScheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mapbind: read color scheme %s", path)
	}

	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "mapbind: parse color scheme %s", path)
	}
	return ParseColorScheme(raw)
}

// ParseColorScheme builds a scheme from party → tier name → color entries.
// Party codes are uppercased and tier names matched case-insensitively.
func ParseColorScheme(raw map[string]map[string]string) (ColorScheme, error) {
	scheme := make(ColorScheme, len(raw))
	for party, tiers := range raw {
		party = strings.ToUpper(strings.TrimSpace(party))
		scheme[party] = make(map[rating.Tier]string, len(tiers))
		for name, color := range tiers {
			tier, ok := ParseTier(name)
			if !ok {
				return nil, eris.Errorf("mapbind: unknown tier %q for party %s", name, party)
			}
			scheme[party][tier] = color
		}
	}

	if err := scheme.Validate(); err != nil {
		return nil, err
	}
	return scheme, nil
}

// Merge returns a copy of c with every color in over applied on top.
func (c ColorScheme) Merge(over ColorScheme) ColorScheme {
	out := make(ColorScheme, len(c)+len(over))
	for party, tiers := range c {
		out[party] = make(map[rating.Tier]string, len(tiers))
		for t, color := range tiers {
			out[party][t] = color
		}
	}
	for party, tiers := range over {
		if out[party] == nil {
			out[party] = make(map[rating.Tier]string, len(tiers))
		}
		for t, color := range tiers {
			out[party][t] = color
		}
	}
	return out
}
