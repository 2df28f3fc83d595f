package dataset

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

func writeSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boundaries.sqlite")

	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	_, err = conn.Exec(`CREATE TABLE boundaries (id INTEGER PRIMARY KEY, properties TEXT, geom BLOB)`)
	require.NoError(t, err)

	_, err = conn.Exec(`INSERT INTO boundaries (id, properties, geom) VALUES (?, ?, ?)`,
		110001, `{"name":"Connaught Place"}`, squareWKB(t, 0, 0, 10, 10))
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO boundaries (id, properties, geom) VALUES (?, NULL, ?)`,
		110002, pointWKB(t, 1, 1))
	require.NoError(t, err)
	return path
}

func TestSQLite_Load(t *testing.T) {
	path := writeSQLite(t)

	features, err := (&SQLite{DSN: path, Spec: TableSpec{Table: "boundaries"}}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, features, 2)

	byID := map[string]*boundary.Feature{}
	for _, f := range features {
		byID[f.ID] = f
	}
	require.Contains(t, byID, "110001")
	assert.Equal(t, "Connaught Place", byID["110001"].Properties["name"])
	assert.Equal(t, boundary.KindPolygon, byID["110001"].Geometry.Kind)

	require.Contains(t, byID, "110002")
	assert.Empty(t, byID["110002"].Properties)
	assert.Equal(t, boundary.KindUnsupported, byID["110002"].Geometry.Kind)
}

func TestSQLite_MissingTable(t *testing.T) {
	path := writeSQLite(t)

	_, err := (&SQLite{DSN: path, Spec: TableSpec{Table: "regions"}}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query regions")
}

func TestSQLite_BuildsService(t *testing.T) {
	path := writeSQLite(t)

	svc := boundary.NewService(&SQLite{DSN: path, Spec: TableSpec{Table: "boundaries"}})
	m, err := svc.Resolve(context.Background(), boundary.LatLng(5, 5))
	require.NoError(t, err)
	require.True(t, m.Found())
	assert.Equal(t, "110001", m.Feature().ID)

	stats, ok := svc.Stats()
	require.True(t, ok)
	assert.Equal(t, 2, stats.Features)
	assert.Equal(t, 1, stats.Polygons)
	assert.Equal(t, 1, stats.SkippedFeatures)
}
