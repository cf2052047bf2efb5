// Package shapes loads map-shape identifiers and geometry from TIGER-style
// shapefiles so rating keys can be checked against, and joined to, real shapes.
package shapes

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/election-toolkit/internal/geo"
	"github.com/sells-group/election-toolkit/internal/mapbind"
)

// Shape is one map shape with its canonical identifier.
type Shape struct {
	ID        string
	Name      string
	GEOID     string
	StateFIPS string
	Geometry  geom.T
}

// LoadOptions narrows and overrides what Load reads.
type LoadOptions struct {
	// StateFIPS keeps only shapes in one state (county and district layers).
	StateFIPS string
	// NameField overrides the attribute used as the shape name.
	NameField string
}

// Load reads a shapefile and indexes its shapes by canonical identifier for the
// given level. County names repeat across states, so national county layers
// should be read with LoadByState or a StateFIPS filter.
func Load(shpPath string, level mapbind.Level, opts LoadOptions) (*Index, error) {
	shapes, err := Read(shpPath, level, opts)
	if err != nil {
		return nil, err
	}
	return NewIndex(level, shapes), nil
}

// LoadByState reads a shapefile into one index per state.
func LoadByState(shpPath string, level mapbind.Level, opts LoadOptions) (StateIndexes, error) {
	shapes, err := Read(shpPath, level, opts)
	if err != nil {
		return nil, err
	}
	return GroupByState(level, shapes), nil
}

// Read reads the shapes of a shapefile in file order. Field names follow the
// Census TIGER conventions: STUSPS/NAME for states, STATEFP + CD###FP for
// congressional districts, and STATEFP/COUNTYFP/NAME for counties. Records
// that yield no identifier are skipped.
func Read(shpPath string, level mapbind.Level, opts LoadOptions) ([]Shape, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "shapes: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	cdField := ""
	for i, f := range fields {
		name := strings.ToLower(strings.TrimRight(f.String(), "\x00"))
		fieldIdx[name] = i
		if strings.HasPrefix(name, "cd") && strings.HasSuffix(name, "fp") {
			cdField = name
		}
	}

	attr := func(name string) string {
		idx, ok := fieldIdx[strings.ToLower(name)]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	nameField := opts.NameField
	if nameField == "" {
		nameField = "name"
	}
	if _, ok := fieldIdx[strings.ToLower(nameField)]; !ok {
		return nil, eris.Errorf("shapes: %s has no %s field", shpPath, nameField)
	}
	if level == mapbind.LevelDistrict && cdField == "" {
		return nil, eris.Errorf("shapes: %s has no congressional district field", shpPath)
	}

	wantState := geo.NormalizeFIPSState(opts.StateFIPS)
	var out []Shape
	var skipped int

	for reader.Next() {
		_, s := reader.Shape()

		shape := Shape{
			Name:      attr(nameField),
			StateFIPS: geo.NormalizeFIPSState(attr("statefp")),
			GEOID:     attr("geoid"),
		}
		if wantState != "" && shape.StateFIPS != wantState {
			continue
		}
		if shape.GEOID == "" && level == mapbind.LevelCounty {
			shape.GEOID = geo.CombineFIPS(shape.StateFIPS, attr("countyfp"))
		}

		switch level {
		case mapbind.LevelState:
			shape.ID = geo.NormalizeStateID(attr("stusps"))
			if shape.ID == "" {
				shape.ID = geo.NormalizeStateID(shape.Name)
			}
		case mapbind.LevelDistrict:
			shape.ID = districtID(shape.StateFIPS, attr(cdField))
		default:
			shape.ID = geo.NormalizeID(shape.Name)
		}

		if shape.ID == "" {
			skipped++
			continue
		}
		shape.Geometry = toGeometry(s)
		out = append(out, shape)
	}

	if skipped > 0 {
		zap.L().Debug("shapes: skipped records without identifier",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return out, nil
}

func districtID(stateFIPS, cd string) string {
	n, err := strconv.Atoi(cd)
	if err != nil {
		return ""
	}
	return geo.DistrictID(stateFIPS, n)
}

// Index is a read-only set of shapes keyed by canonical identifier.
type Index struct {
	level  mapbind.Level
	shapes []Shape
	byID   map[string]int
}

// NewIndex indexes shapes by ID. When two shapes share an ID the first is kept.
func NewIndex(level mapbind.Level, shapes []Shape) *Index {
	idx := &Index{
		level: level,
		byID:  make(map[string]int, len(shapes)),
	}
	for _, s := range shapes {
		if _, dup := idx.byID[s.ID]; dup {
			continue
		}
		idx.byID[s.ID] = len(idx.shapes)
		idx.shapes = append(idx.shapes, s)
	}
	return idx
}

// Level returns the level the index was built for.
func (i *Index) Level() mapbind.Level { return i.level }

// Len returns the number of indexed shapes.
func (i *Index) Len() int { return len(i.shapes) }

// Has reports whether a shape exists for the identifier.
func (i *Index) Has(id string) bool {
	_, ok := i.byID[id]
	return ok
}

// Get returns the shape for an identifier.
func (i *Index) Get(id string) (Shape, bool) {
	n, ok := i.byID[id]
	if !ok {
		return Shape{}, false
	}
	return i.shapes[n], true
}

// IDs returns every identifier in sorted order.
func (i *Index) IDs() []string {
	ids := make([]string, 0, len(i.byID))
	for id := range i.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Shapes returns the shapes in file order.
func (i *Index) Shapes() []Shape {
	out := make([]Shape, len(i.shapes))
	copy(out, i.shapes)
	return out
}

// Counties builds a county registry from a county-level index.
func (i *Index) Counties() *geo.CountyRegistry {
	return geo.NewCountyRegistry(i.countyList())
}

func (i *Index) countyList() []geo.County {
	counties := make([]geo.County, 0, len(i.shapes))
	for _, s := range i.shapes {
		if len(s.GEOID) != 5 {
			continue
		}
		counties = append(counties, geo.County{
			StateFIPS:  s.GEOID[:2],
			CountyFIPS: s.GEOID[2:],
			Name:       s.Name,
		})
	}
	return counties
}

// StateIndexes holds one index per state, keyed by two-digit state FIPS.
type StateIndexes map[string]*Index

// GroupByState splits shapes by state FIPS and indexes each group.
func GroupByState(level mapbind.Level, shapes []Shape) StateIndexes {
	groups := make(map[string][]Shape)
	for _, s := range shapes {
		groups[s.StateFIPS] = append(groups[s.StateFIPS], s)
	}
	out := make(StateIndexes, len(groups))
	for fips, g := range groups {
		out[fips] = NewIndex(level, g)
	}
	return out
}

// ForState returns the index for a state given as postal code, name or FIPS.
func (s StateIndexes) ForState(state string) (*Index, bool) {
	st, ok := geo.LookupState(state)
	if !ok {
		return nil, false
	}
	idx, ok := s[st.FIPS]
	return idx, ok
}

// Counties builds a county registry covering every state.
func (s StateIndexes) Counties() *geo.CountyRegistry {
	var counties []geo.County
	for _, idx := range s {
		counties = append(counties, idx.countyList()...)
	}
	return geo.NewCountyRegistry(counties)
}
