package shapes

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/election-toolkit/internal/mapbind"
)

// FeatureCollection builds a GeoJSON feature collection of every shape with a
// geometry. Each feature carries its id, name and a "fill" color taken from the
// color map; shapes without a rating get mapbind.NeutralColor and rated=false.
func FeatureCollection(idx *Index, cm mapbind.ColorMap) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, idx.Len())}
	for _, s := range idx.shapes {
		if s.Geometry == nil {
			continue
		}
		color, rated := cm.Colors[s.ID]
		if !rated {
			color = mapbind.NeutralColor
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       s.ID,
			Geometry: s.Geometry,
			Properties: map[string]interface{}{
				"id":    s.ID,
				"name":  s.Name,
				"geoid": s.GEOID,
				"fill":  color,
				"rated": rated,
			},
		})
	}
	return fc
}

// WriteGeoJSON writes the colored feature collection to w.
func WriteGeoJSON(w io.Writer, idx *Index, cm mapbind.ColorMap) error {
	if err := json.NewEncoder(w).Encode(FeatureCollection(idx, cm)); err != nil {
		return eris.Wrap(err, "shapes: encode geojson")
	}
	return nil
}
