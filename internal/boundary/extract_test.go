package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Polygon(t *testing.T) {
	f := &Feature{
		ID:         "110001",
		Properties: map[string]any{"state": "Delhi"},
		Geometry:   NewPolygonGeometry(square(0, 0, 10, 10), square(4, 4, 6, 6)),
	}

	var ex Extractor
	polys := ex.Extract(f)

	require.Len(t, polys, 1)
	assert.Equal(t, 0, polys[0].ID)
	assert.Equal(t, square(0, 0, 10, 10), polys[0].Polygon.Outer)
	require.Len(t, polys[0].Polygon.Holes, 1)
	assert.Equal(t, square(4, 4, 6, 6), polys[0].Polygon.Holes[0])
	assert.Same(t, f, polys[0].Feature)
}

func TestExtract_MultiPolygon(t *testing.T) {
	f := &Feature{
		ID:         "islands",
		Properties: map[string]any{"district": "Andaman"},
		Geometry: NewMultiPolygonGeometry(
			[]Ring{square(0, 0, 1, 1)},
			[]Ring{square(5, 5, 6, 6), square(5.2, 5.2, 5.4, 5.4)},
			[]Ring{square(10, 10, 11, 11)},
		),
	}

	var ex Extractor
	polys := ex.Extract(f)

	require.Len(t, polys, 3)
	for i, p := range polys {
		assert.Equal(t, i, p.ID)
		assert.Same(t, f, p.Feature, "parts share the feature")
	}
	assert.Len(t, polys[1].Polygon.Holes, 1)
	assert.Empty(t, polys[0].Polygon.Holes)
}

func TestExtract_IDsIncreaseAcrossFeatures(t *testing.T) {
	var ex Extractor
	a := ex.Extract(&Feature{Geometry: NewPolygonGeometry(square(0, 0, 1, 1))})
	b := ex.Extract(&Feature{Geometry: NewMultiPolygonGeometry(
		[]Ring{square(2, 2, 3, 3)},
		[]Ring{square(4, 4, 5, 5)},
	)})

	require.Len(t, a, 1)
	require.Len(t, b, 2)
	assert.Equal(t, 0, a[0].ID)
	assert.Equal(t, 1, b[0].ID)
	assert.Equal(t, 2, b[1].ID)
	assert.Equal(t, 3, ex.Emitted())
}

func TestExtract_SkipsUnsupported(t *testing.T) {
	var ex Extractor

	assert.Empty(t, ex.Extract(&Feature{Geometry: Unsupported("LineString")}))
	assert.Empty(t, ex.Extract(&Feature{Geometry: Unsupported("Point")}))
	assert.Empty(t, ex.Extract(nil))
	assert.Equal(t, 3, ex.Skipped())
	assert.Equal(t, 0, ex.Emitted())
}

func TestExtract_SkipsEmptyOuterRing(t *testing.T) {
	var ex Extractor

	assert.Empty(t, ex.Extract(&Feature{Geometry: NewPolygonGeometry()}))
	assert.Empty(t, ex.Extract(&Feature{Geometry: NewPolygonGeometry(Ring{})}))
	assert.Empty(t, ex.Extract(&Feature{Geometry: Geometry{Kind: KindPolygon}}))
	assert.Equal(t, 3, ex.Skipped())
}

func TestExtract_MultiPolygonSkipsEmptyPart(t *testing.T) {
	var ex Extractor
	polys := ex.Extract(&Feature{Geometry: NewMultiPolygonGeometry(
		[]Ring{},
		[]Ring{square(0, 0, 1, 1)},
	)})

	require.Len(t, polys, 1)
	assert.Equal(t, 0, polys[0].ID)
	assert.Equal(t, 0, ex.Skipped())
}
