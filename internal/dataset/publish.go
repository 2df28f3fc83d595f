package dataset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boundary-lookup/internal/boundary"
	"github.com/sells-group/boundary-lookup/internal/db"
	"github.com/sells-group/boundary-lookup/internal/geo"
)

// publishBatch bounds the rows sent per upsert transaction.
const publishBatch = 5000

// EnsureTable creates the boundary table read by PostGIS if it is missing.
func EnsureTable(ctx context.Context, pool db.Pool, spec TableSpec) error {
	spec = spec.withDefaults()
	if err := spec.validate(); err != nil {
		return err
	}

	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (%s text PRIMARY KEY, %s jsonb NOT NULL DEFAULT '{}', %s geometry(Geometry, %d))`,
		spec.Table, spec.IDColumn, spec.PropertiesColumn, spec.GeomColumn, geo.SRID,
	)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return eris.Wrapf(err, "dataset: create %s", spec.Table)
	}
	return nil
}

// Publish writes features into a PostGIS table, replacing rows with the
// same id. Features without polygon geometry are stored with a NULL
// geometry. Rows are validated before the first write, so a duplicate id
// leaves the table untouched. It returns the number of rows written.
func Publish(ctx context.Context, pool db.Pool, spec TableSpec, features []*boundary.Feature) (int64, error) {
	spec = spec.withDefaults()
	if err := spec.validate(); err != nil {
		return 0, err
	}
	rows, err := publishRows(features)
	if err != nil {
		return 0, err
	}

	cfg := db.UpsertConfig{
		Table:        spec.Table,
		Columns:      spec.columns(),
		ConflictKeys: []string{spec.IDColumn},
	}

	var total int64
	for start := 0; start < len(rows); start += publishBatch {
		end := min(start+publishBatch, len(rows))
		n, err := db.BulkUpsert(ctx, pool, cfg, rows[start:end])
		if err != nil {
			return total, err
		}
		total += n
	}

	zap.L().Info("dataset: published",
		zap.String("table", spec.Table),
		zap.Int64("rows", total),
	)
	return total, nil
}

// Replace swaps the contents of a PostGIS table for features in a single
// transaction. Rows missing from features are removed.
func Replace(ctx context.Context, pool db.Pool, spec TableSpec, features []*boundary.Feature) (int64, error) {
	spec = spec.withDefaults()
	if err := spec.validate(); err != nil {
		return 0, err
	}
	rows, err := publishRows(features)
	if err != nil {
		return 0, err
	}

	n, err := db.ReplaceAll(ctx, pool, spec.Table, spec.columns(), rows)
	if err != nil {
		return 0, err
	}

	zap.L().Info("dataset: replaced",
		zap.String("table", spec.Table),
		zap.Int64("rows", n),
	)
	return n, nil
}

// publishRows encodes features as table rows and rejects duplicate ids.
func publishRows(features []*boundary.Feature) ([][]any, error) {
	seen := make(map[string]bool, len(features))
	rows := make([][]any, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		if seen[f.ID] {
			return nil, eris.Errorf("dataset: duplicate feature id %q", f.ID)
		}
		seen[f.ID] = true

		row, err := publishRow(f)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func publishRow(f *boundary.Feature) ([]any, error) {
	props := f.Properties
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: properties of %s", f.ID)
	}

	g, err := geo.EWKB(f.Geometry)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: geometry of %s", f.ID)
	}

	var geomVal any
	if g != nil {
		geomVal = g
	}
	return []any{f.ID, string(propsJSON), geomVal}, nil
}
