// Package boundary resolves coordinates to the administrative boundary
// polygon that contains them. A Service loads a static dataset once,
// bulk-loads an R-tree over the polygons' bounding boxes, and answers point
// queries with an index search followed by an exact ray-casting test.
package boundary

import "context"

// Point is a planar coordinate. X is longitude and Y is latitude; every
// coordinate in this package uses that order.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LatLng builds a Point from a latitude-first pair.
func LatLng(lat, lng float64) Point {
	return Point{X: lng, Y: lat}
}

// Ring is a closed loop of points. Repeating the first point at the end is
// allowed but not required.
type Ring []Point

// Polygon is one outer ring plus zero or more holes.
type Polygon struct {
	Outer Ring
	Holes []Ring
}

// GeometryKind tags the variant held by a Geometry.
type GeometryKind int

// Geometry kinds.
const (
	KindUnsupported GeometryKind = iota
	KindPolygon
	KindMultiPolygon
)

// String returns the GeoJSON type name for the kind.
func (k GeometryKind) String() string {
	switch k {
	case KindPolygon:
		return "Polygon"
	case KindMultiPolygon:
		return "MultiPolygon"
	default:
		return "Unsupported"
	}
}

// Geometry is a feature's shape. Polygons holds the rings of each polygon,
// ring 0 being the outer boundary: exactly one entry for KindPolygon, one
// per part for KindMultiPolygon, and nothing for KindUnsupported.
type Geometry struct {
	Kind     GeometryKind
	Polygons [][]Ring
	// TypeName is the source geometry type, kept for diagnostics.
	TypeName string
}

// NewPolygonGeometry returns a KindPolygon geometry.
func NewPolygonGeometry(rings ...Ring) Geometry {
	return Geometry{Kind: KindPolygon, Polygons: [][]Ring{rings}, TypeName: "Polygon"}
}

// NewMultiPolygonGeometry returns a KindMultiPolygon geometry.
func NewMultiPolygonGeometry(parts ...[]Ring) Geometry {
	return Geometry{Kind: KindMultiPolygon, Polygons: parts, TypeName: "MultiPolygon"}
}

// Unsupported returns a geometry the extractor will skip.
func Unsupported(typeName string) Geometry {
	return Geometry{Kind: KindUnsupported, TypeName: typeName}
}

// Feature is one boundary record. Features are immutable once loaded and
// shared by every IndexedPolygon decomposed from them.
type Feature struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"-"`
}

// IndexedPolygon is a simple polygon registered in the index.
type IndexedPolygon struct {
	ID      int
	Polygon Polygon
	Feature *Feature
	Box     BBox
}

// BBox is an axis-aligned bounding box tagged with the id of the polygon it
// bounds.
type BBox struct {
	MinX      float64 `json:"min_x"`
	MinY      float64 `json:"min_y"`
	MaxX      float64 `json:"max_x"`
	MaxY      float64 `json:"max_y"`
	PolygonID int     `json:"-"`
}

// PointBox returns the degenerate box covering only p.
func PointBox(p Point) BBox {
	return BBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y, PolygonID: -1}
}

// Overlaps reports whether b and o share at least one point. Touching
// boundaries count as overlap.
func (b BBox) Overlaps(o BBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX &&
		b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Source yields the fully parsed boundary dataset.
type Source interface {
	Load(ctx context.Context) ([]*Feature, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]*Feature, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) ([]*Feature, error) {
	return f(ctx)
}
