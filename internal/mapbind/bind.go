// Package mapbind turns rating results into a geographic-ID → color mapping for
// a choropleth renderer.
package mapbind

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/election-toolkit/internal/geo"
	"github.com/sells-group/election-toolkit/internal/rating"
)

// Level selects how geographic names are normalized into map keys.
type Level string

// Map levels.
const (
	LevelState    Level = "state"
	LevelDistrict Level = "district"
	LevelCounty   Level = "county"
)

// ParseLevel resolves a level name; the empty string means state.
func ParseLevel(s string) (Level, bool) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelState:
		return LevelState, true
	case LevelDistrict:
		return LevelDistrict, true
	case LevelCounty:
		return LevelCounty, true
	}
	return "", false
}

// Key normalizes a geographic name for the given level: postal codes for
// states, "PA-07" identifiers for districts, NormalizeID for counties.
func Key(level Level, name string) string {
	switch level {
	case LevelState:
		return geo.NormalizeStateID(name)
	case LevelDistrict:
		return geo.NormalizeDistrictID(name)
	}
	return geo.NormalizeID(name)
}

// ShapeSet reports whether a canonical identifier has a map shape.
type ShapeSet interface {
	Has(id string) bool
}

// Options configures BuildColorMap.
type Options struct {
	Level Level
	// Shapes, when set, restricts the map to identifiers with a shape; the
	// rest are reported as unmatched.
	Shapes ShapeSet
}

// ColorMap is the color assignment for one report.
type ColorMap struct {
	Level  Level             `json:"level"`
	Colors map[string]string `json:"colors"`
	// Unmatched lists names that produced no key, or keys with no shape.
	Unmatched []string `json:"unmatched,omitempty"`
	// Duplicates lists keys produced by more than one rating; the first wins.
	Duplicates []string `json:"duplicates,omitempty"`
}

// BuildColorMap colors each rating by (winner, tier), falling back to
// NeutralColor. Units that cannot be keyed are left out of Colors and listed in
// Unmatched; a miss never fails the build.
func BuildColorMap(ratings []rating.Result, scheme ColorScheme, opts Options) ColorMap {
	level := opts.Level
	if level == "" {
		level = LevelState
	}

	cm := ColorMap{
		Level:  level,
		Colors: make(map[string]string, len(ratings)),
	}

	for _, r := range ratings {
		name := r.Name
		if name == "" {
			name = r.GeoKey
		}

		key := Key(level, name)
		if key == "" {
			cm.Unmatched = append(cm.Unmatched, name)
			continue
		}
		if opts.Shapes != nil && !opts.Shapes.Has(key) {
			cm.Unmatched = append(cm.Unmatched, key)
			continue
		}
		if _, dup := cm.Colors[key]; dup {
			cm.Duplicates = append(cm.Duplicates, key)
			continue
		}

		color, ok := scheme.Color(r.Winner, r.Tier)
		if !ok {
			color = NeutralColor
		}
		cm.Colors[key] = color
	}

	if len(cm.Unmatched) > 0 {
		zap.L().Debug("mapbind: unmatched identifiers",
			zap.String("level", string(level)),
			zap.Int("unmatched", len(cm.Unmatched)),
			zap.Strings("ids", cm.Unmatched),
		)
	}

	return cm
}
