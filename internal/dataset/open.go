package dataset

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/boundary-lookup/internal/boundary"
	"github.com/sells-group/boundary-lookup/internal/config"
	"github.com/sells-group/boundary-lookup/internal/db"
)

// Supported drivers.
const (
	DriverAuto      = "auto"
	DriverGeoJSON   = "geojson"
	DriverShapefile = "shapefile"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
)

// Open returns the source described by cfg. Nothing is read until Load.
func Open(cfg config.DatasetConfig) (boundary.Source, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverAuto
	}
	spec := TableSpec{
		Table:            cfg.Table,
		IDColumn:         cfg.IDColumn,
		GeomColumn:       cfg.GeomColumn,
		PropertiesColumn: cfg.PropertiesColumn,
	}

	switch driver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, eris.New("dataset: postgres driver requires dataset.database_url")
		}
		return &postgresURL{url: cfg.DatabaseURL, spec: spec, pool: PoolConfig(cfg)}, nil
	case DriverSQLite:
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = cfg.Path
		}
		if dsn == "" {
			return nil, eris.New("dataset: sqlite driver requires dataset.database_url or dataset.path")
		}
		return &SQLite{DSN: dsn, Spec: spec}, nil
	case DriverAuto, DriverGeoJSON, DriverShapefile:
	default:
		return nil, eris.Errorf("dataset: unknown driver %q", cfg.Driver)
	}

	paths := cfg.Paths
	if len(paths) == 0 && cfg.Path != "" {
		paths = []string{cfg.Path}
	}
	if len(paths) == 0 {
		return nil, eris.New("dataset: no dataset.path configured")
	}

	sources := make([]boundary.Source, 0, len(paths))
	for _, p := range paths {
		src, err := fileSource(driver, p, cfg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return Multi(sources), nil
}

func fileSource(driver, p string, cfg config.DatasetConfig) (boundary.Source, error) {
	if IsRemote(p) {
		return &remote{url: p, driver: driver, cfg: cfg}, nil
	}
	if driver == DriverAuto {
		driver = driverForPath(p)
		if driver == "" {
			return nil, eris.Errorf("dataset: cannot infer driver for %s", p)
		}
	}
	switch driver {
	case DriverShapefile:
		return &Shapefile{Path: p, IDProperty: cfg.IDProperty}, nil
	case DriverSQLite:
		return &SQLite{DSN: p, Spec: TableSpec{
			Table:            cfg.Table,
			IDColumn:         cfg.IDColumn,
			GeomColumn:       cfg.GeomColumn,
			PropertiesColumn: cfg.PropertiesColumn,
		}}, nil
	default:
		return &GeoJSONFile{Path: p, IDProperty: cfg.IDProperty}, nil
	}
}

// driverForPath infers a driver from a file extension.
func driverForPath(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".geojson", ".json":
		return DriverGeoJSON
	case ".shp":
		return DriverShapefile
	case ".sqlite", ".db", ".gpkg":
		return DriverSQLite
	default:
		return ""
	}
}

// Multi loads several sources concurrently and concatenates their features
// in source order.
type Multi []boundary.Source

// Load implements boundary.Source.
func (m Multi) Load(ctx context.Context) ([]*boundary.Feature, error) {
	results := make([][]*boundary.Feature, len(m))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range m {
		g.Go(func() error {
			fs, err := src.Load(gctx)
			if err != nil {
				return err
			}
			results[i] = fs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, fs := range results {
		total += len(fs)
	}
	out := make([]*boundary.Feature, 0, total)
	for _, fs := range results {
		out = append(out, fs...)
	}
	return out, nil
}

// postgresURL connects for the duration of a single Load.
type postgresURL struct {
	url  string
	spec TableSpec
	pool *db.PoolConfig
}

// PoolConfig returns the connection pool settings of cfg.
func PoolConfig(cfg config.DatasetConfig) *db.PoolConfig {
	return &db.PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns}
}

func (s *postgresURL) Load(ctx context.Context) ([]*boundary.Feature, error) {
	pool, err := db.Connect(ctx, s.url, s.pool)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: connect postgres")
	}
	defer pool.Close()

	return (&PostGIS{Pool: pool, Spec: s.spec}).Load(ctx)
}

// remote downloads the dataset on Load and reads the local copy.
type remote struct {
	url    string
	driver string
	cfg    config.DatasetConfig
}

func (s *remote) Load(ctx context.Context) ([]*boundary.Feature, error) {
	local, err := Fetch(ctx, nil, s.url, s.cfg.TempDir)
	if err != nil {
		return nil, err
	}
	src, err := fileSource(s.driver, local, s.cfg)
	if err != nil {
		return nil, err
	}
	return src.Load(ctx)
}
