package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

// SQLite reads boundaries from a SQLite table whose geometry column holds
// WKB and whose properties column holds a JSON object.
type SQLite struct {
	DSN  string
	Spec TableSpec
}

// Load implements boundary.Source.
func (s *SQLite) Load(ctx context.Context) ([]*boundary.Feature, error) {
	spec := s.Spec.withDefaults()
	if err := spec.validate(); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", s.DSN)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: sqlite open")
	}
	defer conn.Close() //nolint:errcheck

	features, err := loadSQL(ctx, conn, spec)
	if err != nil {
		return nil, err
	}

	zap.L().Info("dataset: sqlite table loaded",
		zap.String("table", spec.Table),
		zap.Int("features", len(features)),
	)
	return features, nil
}

func loadSQL(ctx context.Context, conn *sql.DB, spec TableSpec) ([]*boundary.Feature, error) {
	query := fmt.Sprintf(
		`SELECT CAST(%s AS TEXT), %s, %s FROM %s`,
		spec.IDColumn, spec.PropertiesColumn, spec.GeomColumn, spec.Table,
	)
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: query %s", spec.Table)
	}
	defer rows.Close() //nolint:errcheck

	var features []*boundary.Feature
	for rows.Next() {
		var (
			id      sql.NullString
			props   sql.NullString
			geomWKB []byte
		)
		if err := rows.Scan(&id, &props, &geomWKB); err != nil {
			return nil, eris.Wrapf(err, "dataset: scan %s", spec.Table)
		}
		f, err := decodeRow(id.String, []byte(props.String), geomWKB)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "dataset: iterate %s", spec.Table)
	}
	return features, nil
}
