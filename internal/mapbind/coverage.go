package mapbind

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// Miss is an unmatched identifier with the closest known shape identifier.
type Miss struct {
	ID         string `json:"id"`
	Suggestion string `json:"suggestion,omitempty"`
	Distance   int    `json:"distance,omitempty"`
}

// Coverage summarizes how well a color map covers a set of shapes.
type Coverage struct {
	Matched   int      `json:"matched"`
	Unmatched []Miss   `json:"unmatched"`
	Uncolored []string `json:"uncolored"`
}

// Complete reports whether every rating matched a shape and every shape got a
// color.
func (c Coverage) Complete() bool {
	return len(c.Unmatched) == 0 && len(c.Uncolored) == 0
}

// CheckCoverage compares a color map against the identifiers of the available
// shapes. Each unmatched identifier gets the nearest shape identifier as a
// suggestion when the edit distance is small relative to its length.
func CheckCoverage(cm ColorMap, shapeIDs []string) Coverage {
	cov := Coverage{
		Matched:   len(cm.Colors),
		Unmatched: make([]Miss, 0, len(cm.Unmatched)),
		Uncolored: []string{},
	}

	for _, id := range cm.Unmatched {
		cov.Unmatched = append(cov.Unmatched, nearest(id, shapeIDs))
	}

	for _, id := range shapeIDs {
		if _, ok := cm.Colors[id]; !ok {
			cov.Uncolored = append(cov.Uncolored, id)
		}
	}
	sort.Strings(cov.Uncolored)

	return cov
}

func nearest(id string, candidates []string) Miss {
	miss := Miss{ID: id}
	best := -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(id, c)
		if best < 0 || d < best || (d == best && c < miss.Suggestion) {
			best = d
			miss.Suggestion = c
		}
	}

	limit := len([]rune(id)) / 3
	if limit < 2 {
		limit = 2
	}
	if best < 0 || best > limit {
		return Miss{ID: id}
	}
	miss.Distance = best
	return miss
}
