package dataset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

func squareWKB(t *testing.T, x0, y0, x1, y1 float64) []byte {
	t.Helper()
	p, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{{
		{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0},
	}})
	require.NoError(t, err)
	data, err := wkb.Marshal(p, wkb.NDR)
	require.NoError(t, err)
	return data
}

func pointWKB(t *testing.T, x, y float64) []byte {
	t.Helper()
	data, err := wkb.Marshal(geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{x, y}), wkb.NDR)
	require.NoError(t, err)
	return data
}

func TestTableSpec_Defaults(t *testing.T) {
	spec := TableSpec{Table: "boundaries"}.withDefaults()
	assert.Equal(t, "id", spec.IDColumn)
	assert.Equal(t, "geom", spec.GeomColumn)
	assert.Equal(t, "properties", spec.PropertiesColumn)
	assert.NoError(t, spec.validate())
}

func TestTableSpec_RejectsInjection(t *testing.T) {
	for _, table := range []string{"", "boundaries; DROP TABLE x", "1abc", "a.b.c", `"quoted"`} {
		spec := TableSpec{Table: table}.withDefaults()
		assert.Error(t, spec.validate(), table)
	}
	assert.NoError(t, TableSpec{Table: "geo.pincodes"}.withDefaults().validate())
}

func TestDecodeRow(t *testing.T) {
	f, err := decodeRow("110001", []byte(`{"name":"Connaught Place","area":4.5}`), squareWKB(t, 0, 0, 1, 1))
	require.NoError(t, err)

	assert.Equal(t, "110001", f.ID)
	assert.Equal(t, "Connaught Place", f.Properties["name"])
	assert.Equal(t, json.Number("4.5"), f.Properties["area"])
	assert.Equal(t, boundary.KindPolygon, f.Geometry.Kind)
}

func TestDecodeRow_NullsAndPoints(t *testing.T) {
	f, err := decodeRow("1", []byte("null"), nil)
	require.NoError(t, err)
	assert.Empty(t, f.Properties)
	assert.Equal(t, boundary.KindUnsupported, f.Geometry.Kind)

	f, err = decodeRow("2", nil, pointWKB(t, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, "Point", f.Geometry.TypeName)
}

func TestDecodeRow_Errors(t *testing.T) {
	_, err := decodeRow("1", []byte(`{not json`), nil)
	assert.Error(t, err)

	_, err = decodeRow("1", nil, []byte{0x01, 0x02})
	assert.Error(t, err)
}
