package geo

// County is one county-equivalent known to the registry.
type County struct {
	StateFIPS  string
	CountyFIPS string
	Name       string
}

// GEOID returns the 5-digit state+county FIPS code.
func (c County) GEOID() string {
	return CombineFIPS(c.StateFIPS, c.CountyFIPS)
}

// CountyRegistry maps county FIPS codes to display names and back. It is built
// once (usually from a county shapefile) and read-only afterwards.
type CountyRegistry struct {
	byGEOID map[string]County
	byName  map[string]County
}

// NewCountyRegistry indexes the given counties. Later duplicates of a GEOID or a
// state-scoped normalized name are ignored.
func NewCountyRegistry(counties []County) *CountyRegistry {
	r := &CountyRegistry{
		byGEOID: make(map[string]County, len(counties)),
		byName:  make(map[string]County, len(counties)),
	}
	for _, c := range counties {
		c.StateFIPS = NormalizeFIPSState(c.StateFIPS)
		c.CountyFIPS = NormalizeFIPSCounty(c.CountyFIPS)
		if id := c.GEOID(); id != "" {
			if _, dup := r.byGEOID[id]; !dup {
				r.byGEOID[id] = c
			}
		}
		key := c.StateFIPS + "/" + NormalizeID(c.Name)
		if _, dup := r.byName[key]; !dup {
			r.byName[key] = c
		}
	}
	return r
}

// Len returns the number of counties indexed by GEOID.
func (r *CountyRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byGEOID)
}

// ByGEOID returns the county with the given FIPS code. Codes that lost their
// leading zero ("6037") are padded to 5 digits first.
func (r *CountyRegistry) ByGEOID(geoid string) (County, bool) {
	if r == nil {
		return County{}, false
	}
	c, ok := r.byGEOID[padFIPS(geoid, 5)]
	return c, ok
}

// Lookup finds a county by state (postal, FIPS or name) and county name. The
// name is matched through NormalizeID, so "St. Mary's County" finds "St. Mary's".
func (r *CountyRegistry) Lookup(state, name string) (County, bool) {
	if r == nil {
		return County{}, false
	}
	st, ok := LookupState(state)
	if !ok {
		return County{}, false
	}
	c, ok := r.byName[st.FIPS+"/"+NormalizeID(name)]
	return c, ok
}
