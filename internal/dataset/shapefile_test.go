package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

// clockwise square from (x0,y0) to (x1,y1), closed.
func cwSquare(x0, y0, x1, y1 float64) []shp.Point {
	return []shp.Point{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}, {X: x0, Y: y0}}
}

// counter-clockwise square, closed.
func ccwSquare(x0, y0, x1, y1 float64) []shp.Point {
	return []shp.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}
}

func TestShapeGeometry_SinglePart(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points:   cwSquare(-80, 25, -79, 26),
	}

	g := shapeGeometry(poly)
	assert.Equal(t, boundary.KindPolygon, g.Kind)
	require.Len(t, g.Polygons, 1)
	require.Len(t, g.Polygons[0], 1)
	assert.Len(t, g.Polygons[0][0], 5)
}

func TestShapeGeometry_HoleFollowsOuter(t *testing.T) {
	points := append(cwSquare(0, 0, 10, 10), ccwSquare(4, 4, 6, 6)...)
	poly := &shp.Polygon{NumParts: 2, Parts: []int32{0, 5}, Points: points}

	g := shapeGeometry(poly)
	assert.Equal(t, boundary.KindPolygon, g.Kind)
	require.Len(t, g.Polygons, 1)
	assert.Len(t, g.Polygons[0], 2)
}

func TestShapeGeometry_MultiPart(t *testing.T) {
	var points []shp.Point
	points = append(points, cwSquare(0, 0, 10, 10)...)
	points = append(points, ccwSquare(4, 4, 6, 6)...)
	points = append(points, cwSquare(20, 20, 30, 30)...)
	poly := &shp.Polygon{NumParts: 3, Parts: []int32{0, 5, 10}, Points: points}

	g := shapeGeometry(poly)
	assert.Equal(t, boundary.KindMultiPolygon, g.Kind)
	require.Len(t, g.Polygons, 2)
	assert.Len(t, g.Polygons[0], 2)
	assert.Len(t, g.Polygons[1], 1)
}

func TestShapeGeometry_PolygonZ(t *testing.T) {
	poly := &shp.PolygonZ{NumParts: 1, Parts: []int32{0}, Points: cwSquare(0, 0, 1, 1)}

	g := shapeGeometry(poly)
	assert.Equal(t, boundary.KindPolygon, g.Kind)
}

func TestShapeGeometry_Unsupported(t *testing.T) {
	tests := []struct {
		shape shp.Shape
		want  string
	}{
		{&shp.Point{X: 1, Y: 1}, "Point"},
		{&shp.PolyLine{NumParts: 1, Parts: []int32{0}, Points: cwSquare(0, 0, 1, 1)}, "LineString"},
		{&shp.Null{}, "null"},
		{nil, "null"},
	}
	for _, tt := range tests {
		g := shapeGeometry(tt.shape)
		assert.Equal(t, boundary.KindUnsupported, g.Kind)
		assert.Equal(t, tt.want, g.TypeName)
	}
}

func TestSignedArea(t *testing.T) {
	toRing := func(ps []shp.Point) boundary.Ring {
		r := make(boundary.Ring, len(ps))
		for i, p := range ps {
			r[i] = boundary.Point{X: p.X, Y: p.Y}
		}
		return r
	}
	assert.Less(t, signedArea(toRing(cwSquare(0, 0, 1, 1))), 0.0)
	assert.Greater(t, signedArea(toRing(ccwSquare(0, 0, 1, 1))), 0.0)
}

func TestShapeID(t *testing.T) {
	props := map[string]any{"PINCODE": "110001", "EMPTY": ""}
	assert.Equal(t, "110001", shapeID(props, "PINCODE", 3))
	assert.Equal(t, "3", shapeID(props, "EMPTY", 3))
	assert.Equal(t, "3", shapeID(props, "", 3))
}

func writeShapefile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pincodes.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("PINCODE", 10),
		shp.StringField("NAME", 32),
	}))

	withHole := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		cwSquare(0, 0, 10, 10),
		ccwSquare(4, 4, 6, 6),
	}))
	n := w.Write(&withHole)
	require.NoError(t, w.WriteAttribute(int(n), 0, "110001"))
	require.NoError(t, w.WriteAttribute(int(n), 1, "Connaught Place"))

	simple := shp.Polygon(*shp.NewPolyLine([][]shp.Point{cwSquare(20, 20, 30, 30)}))
	n = w.Write(&simple)
	require.NoError(t, w.WriteAttribute(int(n), 0, "400001"))
	require.NoError(t, w.WriteAttribute(int(n), 1, "Fort"))

	w.Close()

	// shp.Create drops the dot from the attribute table name.
	base := strings.TrimSuffix(path, ".shp")
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	return path
}

func TestShapefile_LoadMissingDbf(t *testing.T) {
	path := writeShapefile(t)
	require.NoError(t, os.Remove(dbfPath(path)))

	_, err := (&Shapefile{Path: path, IDProperty: "PINCODE"}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no attribute table")
}

func TestDbfPath(t *testing.T) {
	assert.Equal(t, "/data/pincodes.dbf", dbfPath("/data/pincodes.shp"))
	assert.Equal(t, "/data/pincodes.dbf", dbfPath("/data/pincodes.SHP"))
}

func TestShapefile_Load(t *testing.T) {
	path := writeShapefile(t)

	features, err := (&Shapefile{Path: path, IDProperty: "PINCODE"}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, features, 2)

	assert.Equal(t, "110001", features[0].ID)
	assert.Equal(t, "Connaught Place", features[0].Properties["NAME"])
	assert.Equal(t, boundary.KindPolygon, features[0].Geometry.Kind)
	assert.Len(t, features[0].Geometry.Polygons[0], 2)
	assert.Equal(t, "400001", features[1].ID)
}

func TestShapefile_LoadMissing(t *testing.T) {
	_, err := (&Shapefile{Path: filepath.Join(t.TempDir(), "missing.shp")}).Load(context.Background())
	assert.Error(t, err)
}
