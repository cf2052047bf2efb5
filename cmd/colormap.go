package main

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/election-toolkit/internal/geo"
	"github.com/sells-group/election-toolkit/internal/loader"
	"github.com/sells-group/election-toolkit/internal/mapbind"
	"github.com/sells-group/election-toolkit/internal/model"
	"github.com/sells-group/election-toolkit/internal/report"
	"github.com/sells-group/election-toolkit/internal/shapes"
)

var (
	colormapFile    string
	colormapKind    string
	colormapState   string
	colormapShapes  string
	colormapOutput  string
	colormapGeoJSON string
)

// mapView is one color map with the shapes it was checked against.
type mapView struct {
	Kind     model.ElectionKind `json:"kind"`
	State    string             `json:"state,omitempty"`
	ColorMap mapbind.ColorMap   `json:"color_map"`
	Coverage *mapbind.Coverage  `json:"coverage,omitempty"`
	FIPS     map[string]string  `json:"fips,omitempty"`
	shapes   *shapes.Index
}

var colormapCmd = &cobra.Command{
	Use:   "colormap",
	Short: "Print the geographic ID → color map for one election kind",
	Example: `  tpp colormap --file results.json --kind president
  tpp colormap --file results.json --kind president --state PA --shapes tl_2024_us_county.shp --geojson pa.geojson`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}
		view, err := buildMapView(cmd, colormapFile, colormapKind, colormapState, colormapShapes)
		if err != nil {
			return err
		}

		w, closeFn, err := openOutput(colormapOutput)
		if err != nil {
			return eris.Wrap(err, "colormap")
		}
		defer closeFn()

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return eris.Wrap(err, "colormap: encode")
		}

		if colormapGeoJSON != "" {
			if view.shapes == nil {
				return eris.New("colormap: --geojson needs shapes for the map level")
			}
			f, closeGeo, err := openOutput(colormapGeoJSON)
			if err != nil {
				return eris.Wrap(err, "colormap")
			}
			defer closeGeo()
			if err := shapes.WriteGeoJSON(f, view.shapes, view.ColorMap); err != nil {
				return err
			}
		}
		return nil
	},
}

// buildMapView runs one report and picks out its state/district map, or the
// county map of one state. shapePath, when set, overrides the configured
// shapefile for the selected level.
func buildMapView(cmd *cobra.Command, file, kind, state, shapePath string) (*mapView, error) {
	sf, err := loader.LoadFile(file)
	if err != nil {
		return nil, err
	}
	kind = strings.ToLower(kind)
	if kind == "" {
		kinds := sf.Kinds()
		if len(kinds) != 1 {
			return nil, eris.Errorf("--kind is required when the savefile has several election kinds (%v)", kinds)
		}
		kind = string(kinds[0])
	}
	sf, err = selectKind(sf, kind)
	if err != nil {
		return nil, err
	}
	entries := sf.Elections[model.ElectionKind(kind)]

	level := mapbind.LevelState
	if state != "" {
		level = mapbind.LevelCounty
	} else {
		for _, e := range entries {
			if e.District != nil {
				level = mapbind.LevelDistrict
				break
			}
		}
	}

	sc := cfg.Shapes
	if shapePath != "" {
		switch level {
		case mapbind.LevelState:
			sc.State = shapePath
		case mapbind.LevelDistrict:
			sc.District = shapePath
		default:
			sc.County = shapePath
		}
	}
	layers, err := loadShapes(cmd.Context(), sc, cfg.Store)
	if err != nil {
		return nil, err
	}
	opts, err := reportOptions(cfg, layers)
	if err != nil {
		return nil, err
	}
	opts.Counties = state != ""

	reports, err := report.BuildAll(cmd.Context(), sf, opts)
	if err != nil {
		return nil, err
	}
	rep := reports[0]

	if state == "" {
		return &mapView{
			Kind:     rep.Kind,
			ColorMap: rep.ColorMap,
			Coverage: rep.Coverage,
			shapes:   layers.index(level, ""),
		}, nil
	}

	key := geo.NormalizeStateID(state)
	for _, c := range rep.Counties {
		if c.State == key {
			return &mapView{
				Kind:     rep.Kind,
				State:    key,
				ColorMap: c.ColorMap,
				Coverage: c.Coverage,
				FIPS:     c.FIPS,
				shapes:   layers.index(mapbind.LevelCounty, key),
			}, nil
		}
	}
	return nil, eris.Errorf("no county results for state %q", state)
}

func init() {
	colormapCmd.Flags().StringVar(&colormapFile, "file", "", "results savefile (JSON)")
	colormapCmd.Flags().StringVar(&colormapKind, "kind", "", "election kind (required when the savefile has several)")
	colormapCmd.Flags().StringVar(&colormapState, "state", "", "map the counties of one state")
	colormapCmd.Flags().StringVar(&colormapShapes, "shapes", "", "shapefile for the map level (overrides config)")
	colormapCmd.Flags().StringVar(&colormapOutput, "output", "", "output file path (default stdout)")
	colormapCmd.Flags().StringVar(&colormapGeoJSON, "geojson", "", "also write a colored GeoJSON FeatureCollection to this path")
	_ = colormapCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(colormapCmd)
}
