// Package report runs the consolidate → aggregate → classify → bind pipeline
// for one election kind and shapes the result into report tables.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/election-toolkit/internal/aggregate"
	"github.com/sells-group/election-toolkit/internal/geo"
	"github.com/sells-group/election-toolkit/internal/mapbind"
	"github.com/sells-group/election-toolkit/internal/model"
	"github.com/sells-group/election-toolkit/internal/rating"
)

// ShapeSource is a set of map shapes a color map can be checked against.
type ShapeSource interface {
	mapbind.ShapeSet
	IDs() []string
}

// Options carries the configuration of one report pass. Nothing in it is
// modified by Build.
type Options struct {
	Thresholds rating.Thresholds
	Colors     mapbind.ColorScheme
	// Shapes holds the shape set for the state and district levels.
	Shapes map[mapbind.Level]ShapeSource
	// CountyShapes returns the county shapes for one state, or nil.
	CountyShapes func(state string) ShapeSource
	// Counties adds a county drill-down for every entry with counties.
	Counties bool
	// Registry, when set, resolves drill-down counties to FIPS codes.
	Registry *geo.CountyRegistry
	Metrics  *Metrics
}

// TotalsRow is one line of the consolidated totals table.
type TotalsRow struct {
	GeoKey    string  `json:"geo_key"`
	Party     string  `json:"party"`
	Candidate string  `json:"candidate"`
	Votes     float64 `json:"votes"`
	Pct       float64 `json:"pct"`
}

// Report is the output of one pass.
type Report struct {
	ID          string             `json:"id"`
	Kind        model.ElectionKind `json:"kind"`
	Level       mapbind.Level      `json:"level"`
	GeneratedAt time.Time          `json:"generated_at"`
	Rows        []TotalsRow        `json:"rows"`
	Ratings     []rating.Result    `json:"ratings"`
	Totals      rating.Totals      `json:"totals"`
	Summary     aggregate.Summary  `json:"-"`
	ColorMap    mapbind.ColorMap   `json:"color_map"`
	Coverage    *mapbind.Coverage  `json:"coverage,omitempty"`
	Counties    []*CountyReport    `json:"counties,omitempty"`
}

// CountyReport is the county drill-down of one state entry.
type CountyReport struct {
	State    string            `json:"state"`
	Rows     []TotalsRow       `json:"rows"`
	Ratings  []rating.Result   `json:"ratings"`
	Totals   rating.Totals     `json:"totals"`
	ColorMap mapbind.ColorMap  `json:"color_map"`
	Coverage *mapbind.Coverage `json:"coverage,omitempty"`
	// FIPS maps county keys to 5-digit county FIPS codes where known.
	FIPS map[string]string `json:"fips,omitempty"`
}

// Validate checks the configuration before any pass runs.
func (o Options) Validate() error {
	if err := o.Thresholds.Validate(); err != nil {
		return err
	}
	if err := o.Colors.Validate(); err != nil {
		return err
	}
	return nil
}

// Build runs the full pipeline over the entries of one election kind.
func Build(kind model.ElectionKind, entries []model.RaceEntry, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, eris.Wrapf(err, "report: %s", kind)
	}
	start := time.Now()

	level := mapbind.LevelState
	for _, e := range entries {
		if e.District != nil {
			level = mapbind.LevelDistrict
			break
		}
	}

	units := aggregate.Units(entries)
	summary := aggregate.Aggregate(units, aggregate.Options{Weighted: kind.Weighted()})
	ratings := rating.RateUnits(units, opts.Thresholds)

	var shapes ShapeSource
	if opts.Shapes != nil {
		shapes = opts.Shapes[level]
	}

	rep := &Report{
		ID:          uuid.New().String(),
		Kind:        kind,
		Level:       level,
		GeneratedAt: start.UTC(),
		Rows:        totalsRows(units),
		Ratings:     ratings,
		Totals:      rating.RateSummary(summary, opts.Thresholds),
		Summary:     summary,
	}
	rep.ColorMap, rep.Coverage = bind(ratings, opts.Colors, level, shapes)

	if opts.Counties {
		for _, e := range entries {
			if len(e.Counties) == 0 {
				continue
			}
			var cs ShapeSource
			if opts.CountyShapes != nil {
				cs = opts.CountyShapes(e.State)
			}
			rep.Counties = append(rep.Counties, buildCounty(e, opts, cs))
		}
	}

	zap.L().Info("report: built",
		zap.String("id", rep.ID),
		zap.String("kind", string(kind)),
		zap.String("level", string(level)),
		zap.Int("units", len(units)),
		zap.Int("unmatched", len(rep.ColorMap.Unmatched)),
		zap.Int("county_reports", len(rep.Counties)),
	)
	opts.Metrics.observe(rep, time.Since(start))

	return rep, nil
}

func buildCounty(e model.RaceEntry, opts Options, shapes ShapeSource) *CountyReport {
	units := aggregate.CountyUnits(e)
	summary := aggregate.Aggregate(units, aggregate.Options{})
	ratings := rating.RateUnits(units, opts.Thresholds)

	cr := &CountyReport{
		State:   aggregate.EntryKey(e),
		Rows:    totalsRows(units),
		Ratings: ratings,
		Totals:  rating.RateSummary(summary, opts.Thresholds),
	}
	cr.ColorMap, cr.Coverage = bind(ratings, opts.Colors, mapbind.LevelCounty, shapes)

	if opts.Registry.Len() > 0 {
		cr.FIPS = make(map[string]string, len(ratings))
		for _, r := range ratings {
			if c, ok := opts.Registry.Lookup(e.State, r.Name); ok {
				cr.FIPS[r.GeoKey] = c.GEOID()
			}
		}
	}
	return cr
}

func bind(ratings []rating.Result, colors mapbind.ColorScheme, level mapbind.Level, shapes ShapeSource) (mapbind.ColorMap, *mapbind.Coverage) {
	bindOpts := mapbind.Options{Level: level}
	if shapes != nil {
		bindOpts.Shapes = shapes
	}
	cm := mapbind.BuildColorMap(ratings, colors, bindOpts)
	if shapes == nil {
		return cm, nil
	}
	cov := mapbind.CheckCoverage(cm, shapes.IDs())
	return cm, &cov
}

func totalsRows(units []aggregate.Unit) []TotalsRow {
	rows := make([]TotalsRow, 0, len(units)*2)
	for _, u := range units {
		for _, p := range u.Race.Results {
			rows = append(rows, TotalsRow{
				GeoKey:    u.Key,
				Party:     p.Party,
				Candidate: p.Candidate,
				Votes:     p.Votes,
				Pct:       p.Pct,
			})
		}
	}
	return rows
}
