package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/election-toolkit/internal/config"
	"github.com/sells-group/election-toolkit/internal/fetcher"
	"github.com/sells-group/election-toolkit/internal/mapbind"
	"github.com/sells-group/election-toolkit/internal/model"
	"github.com/sells-group/election-toolkit/internal/report"
	"github.com/sells-group/election-toolkit/internal/shapes"
	"github.com/sells-group/election-toolkit/internal/store"
)

// shapeLayers holds the shape indexes loaded for a command.
type shapeLayers struct {
	state    *shapes.Index
	district *shapes.Index
	county   shapes.StateIndexes
}

// loadShapes reads every shapefile configured in sc, downloading remote
// sources into the cache first. Empty sources leave the layer empty. The
// download catalog is only opened when a source is remote.
func loadShapes(ctx context.Context, sc config.ShapesConfig, stc config.StoreConfig) (*shapeLayers, error) {
	layers := &shapeLayers{}
	opts := shapes.LoadOptions{NameField: sc.NameField}

	ropts := shapes.ResolveOptions{CacheDir: sc.CacheDir, MaxAge: sc.MaxAge}
	if anyRemote(sc.State, sc.District, sc.County) {
		catalog, err := openCatalog(ctx, sc, stc)
		if err != nil {
			return nil, err
		}
		defer catalog.Close() //nolint:errcheck
		ropts.Catalog = catalog
	}

	f := newShapeFetcher(sc)
	resolve := func(source string) (string, error) {
		return shapes.Resolve(ctx, f, source, ropts)
	}

	if sc.State != "" {
		path, err := resolve(sc.State)
		if err != nil {
			return nil, err
		}
		idx, err := shapes.Load(path, mapbind.LevelState, opts)
		if err != nil {
			return nil, err
		}
		layers.state = idx
	}
	if sc.District != "" {
		// District layers are named by NAMELSAD; identifiers come from STATEFP/CD###FP.
		path, err := resolve(sc.District)
		if err != nil {
			return nil, err
		}
		idx, err := shapes.Load(path, mapbind.LevelDistrict, shapes.LoadOptions{NameField: "NAMELSAD"})
		if err != nil {
			return nil, err
		}
		layers.district = idx
	}
	if sc.County != "" {
		path, err := resolve(sc.County)
		if err != nil {
			return nil, err
		}
		byState, err := shapes.LoadByState(path, mapbind.LevelCounty, opts)
		if err != nil {
			return nil, err
		}
		layers.county = byState
	}

	zap.L().Debug("shapes loaded",
		zap.Bool("state", layers.state != nil),
		zap.Bool("district", layers.district != nil),
		zap.Int("county_states", len(layers.county)),
	)
	return layers, nil
}

// index returns the shape index for a level, scoped to state for counties.
func (l *shapeLayers) index(level mapbind.Level, state string) *shapes.Index {
	switch level {
	case mapbind.LevelState:
		return l.state
	case mapbind.LevelDistrict:
		return l.district
	}
	if l.county == nil {
		return nil
	}
	idx, _ := l.county.ForState(state)
	return idx
}

// reportOptions assembles report options from the loaded config and shapes.
func reportOptions(c *config.Config, layers *shapeLayers) (report.Options, error) {
	scheme, err := c.ColorScheme()
	if err != nil {
		return report.Options{}, err
	}

	opts := report.Options{
		Thresholds: c.Rating,
		Colors:     scheme,
		Counties:   c.Report.Counties,
		Shapes:     make(map[mapbind.Level]report.ShapeSource),
	}
	if layers == nil {
		return opts, nil
	}
	if layers.state != nil {
		opts.Shapes[mapbind.LevelState] = layers.state
	}
	if layers.district != nil {
		opts.Shapes[mapbind.LevelDistrict] = layers.district
	}
	if layers.county != nil {
		opts.Registry = layers.county.Counties()
		opts.CountyShapes = func(state string) report.ShapeSource {
			if idx, ok := layers.county.ForState(state); ok {
				return idx
			}
			return nil
		}
	}
	return opts, nil
}

// selectKind narrows a savefile to one election kind. An empty kind keeps the
// savefile as is.
func selectKind(sf *model.Savefile, kind string) (*model.Savefile, error) {
	if kind == "" {
		return sf, nil
	}
	k := model.ElectionKind(kind)
	entries, ok := sf.Elections[k]
	if !ok {
		return nil, eris.Errorf("no results for election kind %q (have %v)", kind, sf.Kinds())
	}
	return &model.Savefile{Elections: map[model.ElectionKind][]model.RaceEntry{k: entries}}, nil
}

func newShapeFetcher(sc config.ShapesConfig) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  sc.UserAgent,
		Timeout:    sc.FetchTimeout,
		MaxRetries: sc.FetchRetries,
	})
}

func anyRemote(sources ...string) bool {
	for _, s := range sources {
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			return true
		}
	}
	return false
}

// openCatalog opens and migrates the shape download catalog. Without a DSN it
// lives next to the cached downloads.
func openCatalog(ctx context.Context, sc config.ShapesConfig, stc config.StoreConfig) (store.Store, error) {
	dsn := stc.DSN
	if dsn == "" {
		if err := os.MkdirAll(sc.CacheDir, 0o755); err != nil {
			return nil, eris.Wrap(err, "create shapes cache dir")
		}
		dsn = filepath.Join(sc.CacheDir, "catalog.db")
	}

	st, err := store.Open(ctx, dsn, &store.PoolConfig{MaxConns: stc.MaxConns, MinConns: stc.MinConns})
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// openOutput returns the named file, or stdout when path is empty.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output file %s", path)
	}
	return f, func() { _ = f.Close() }, nil
}
