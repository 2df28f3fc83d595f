package dataset

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boundary-lookup/internal/boundary"
	"github.com/sells-group/boundary-lookup/internal/db"
)

// PostGIS reads boundaries from a PostGIS table.
type PostGIS struct {
	Pool db.Pool
	Spec TableSpec
}

// Load implements boundary.Source.
func (s *PostGIS) Load(ctx context.Context) ([]*boundary.Feature, error) {
	spec := s.Spec.withDefaults()
	if err := spec.validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT %s::text, COALESCE(%s::text, '{}'), ST_AsBinary(%s) FROM %s ORDER BY %s`,
		spec.IDColumn, spec.PropertiesColumn, spec.GeomColumn, spec.Table, spec.IDColumn,
	)
	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: query %s", spec.Table)
	}
	defer rows.Close()

	var features []*boundary.Feature
	for rows.Next() {
		var (
			id      string
			props   string
			geomWKB []byte
		)
		if err := rows.Scan(&id, &props, &geomWKB); err != nil {
			return nil, eris.Wrapf(err, "dataset: scan %s", spec.Table)
		}
		f, err := decodeRow(id, []byte(props), geomWKB)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "dataset: iterate %s", spec.Table)
	}

	zap.L().Info("dataset: postgis table loaded",
		zap.String("table", spec.Table),
		zap.Int("features", len(features)),
	)
	return features, nil
}
