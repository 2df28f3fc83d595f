// Package geo converts between go-geom geometries and boundary geometries
// and validates incoming coordinates.
package geo

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

// FromGeom converts a decoded go-geom geometry. Polygons and multi-polygons
// keep their rings; every other type, including nil, becomes an unsupported
// geometry that the extractor skips.
func FromGeom(g geom.T) boundary.Geometry {
	switch t := g.(type) {
	case *geom.Polygon:
		if t == nil {
			return boundary.Unsupported("null")
		}
		return boundary.NewPolygonGeometry(polygonRings(t)...)
	case *geom.MultiPolygon:
		if t == nil {
			return boundary.Unsupported("null")
		}
		parts := make([][]boundary.Ring, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			parts = append(parts, polygonRings(t.Polygon(i)))
		}
		return boundary.NewMultiPolygonGeometry(parts...)
	default:
		return boundary.Unsupported(TypeName(g))
	}
}

func polygonRings(p *geom.Polygon) []boundary.Ring {
	rings := make([]boundary.Ring, 0, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		rings = append(rings, toRing(p.LinearRing(i).Coords()))
	}
	return rings
}

func toRing(coords []geom.Coord) boundary.Ring {
	r := make(boundary.Ring, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		r = append(r, boundary.Point{X: c[0], Y: c[1]})
	}
	return r
}

// TypeName returns the GeoJSON type name of g.
func TypeName(g geom.T) string {
	switch g.(type) {
	case nil:
		return "null"
	case *geom.Point:
		return "Point"
	case *geom.MultiPoint:
		return "MultiPoint"
	case *geom.LineString:
		return "LineString"
	case *geom.MultiLineString:
		return "MultiLineString"
	case *geom.LinearRing:
		return "LinearRing"
	case *geom.Polygon:
		return "Polygon"
	case *geom.MultiPolygon:
		return "MultiPolygon"
	case *geom.GeometryCollection:
		return "GeometryCollection"
	default:
		return "Unknown"
	}
}

// ToGeom converts a boundary geometry back to go-geom for rendering.
// Unsupported geometries return nil.
func ToGeom(g boundary.Geometry) (geom.T, error) {
	switch g.Kind {
	case boundary.KindPolygon:
		if len(g.Polygons) == 0 {
			return nil, nil
		}
		p, err := geom.NewPolygon(geom.XY).SetCoords(toCoords(g.Polygons[0]))
		if err != nil {
			return nil, eris.Wrap(err, "geo: build polygon")
		}
		return p, nil
	case boundary.KindMultiPolygon:
		parts := make([][][]geom.Coord, 0, len(g.Polygons))
		for _, rings := range g.Polygons {
			parts = append(parts, toCoords(rings))
		}
		mp, err := geom.NewMultiPolygon(geom.XY).SetCoords(parts)
		if err != nil {
			return nil, eris.Wrap(err, "geo: build multipolygon")
		}
		return mp, nil
	default:
		return nil, nil
	}
}

func toCoords(rings []boundary.Ring) [][]geom.Coord {
	out := make([][]geom.Coord, 0, len(rings))
	for _, r := range rings {
		cs := make([]geom.Coord, 0, len(r))
		for _, p := range r {
			cs = append(cs, geom.Coord{p.X, p.Y})
		}
		out = append(out, cs)
	}
	return out
}

// GeoJSON encodes a boundary geometry as a GeoJSON geometry object.
// Unsupported geometries encode as JSON null.
func GeoJSON(g boundary.Geometry) (json.RawMessage, error) {
	t, err := ToGeom(g)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return json.RawMessage("null"), nil
	}
	data, err := geojson.Marshal(t)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode geojson")
	}
	return data, nil
}
