package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

// Shapefile reads an ESRI shapefile and its .dbf attributes.
type Shapefile struct {
	Path string
	// IDProperty names the DBF field used as feature id; the record number
	// is used when empty or missing.
	IDProperty string
}

// Load implements boundary.Source.
func (s *Shapefile) Load(ctx context.Context) ([]*boundary.Feature, error) {
	// shp.Reader treats a missing attribute table as zero fields.
	if _, err := os.Stat(dbfPath(s.Path)); err != nil {
		return nil, eris.Wrapf(err, "dataset: shapefile %s has no attribute table", s.Path)
	}

	reader, err := shp.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open shapefile %s", s.Path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var features []*boundary.Feature
	var unsupported int
	for reader.Next() {
		if len(features)%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "dataset: read shapefile")
			}
		}

		n, shape := reader.Shape()

		props := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			props[name] = val
		}

		g := shapeGeometry(shape)
		if g.Kind == boundary.KindUnsupported {
			unsupported++
		}

		features = append(features, &boundary.Feature{
			ID:         shapeID(props, s.IDProperty, n),
			Properties: props,
			Geometry:   g,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "dataset: read shapefile %s", s.Path)
	}

	zap.L().Info("dataset: shapefile loaded",
		zap.String("path", s.Path),
		zap.Int("features", len(features)),
		zap.Int("non_polygon", unsupported),
	)
	return features, nil
}

// dbfPath returns the attribute table next to a .shp file.
func dbfPath(shpPath string) string {
	return strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".dbf"
}

func shapeID(props map[string]any, idProperty string, n int) string {
	if idProperty != "" {
		if v, ok := props[idProperty].(string); ok && v != "" {
			return v
		}
	}
	return strconv.Itoa(n)
}

// shapeGeometry converts a shapefile polygon into boundary rings. Parts
// wound clockwise start a new polygon; counter-clockwise parts are holes of
// the polygon before them.
func shapeGeometry(s shp.Shape) boundary.Geometry {
	parts, points, ok := polygonParts(s)
	if !ok {
		return boundary.Unsupported(shapeTypeName(s))
	}
	if len(parts) == 0 || len(points) == 0 {
		return boundary.NewPolygonGeometry()
	}

	var polys [][]boundary.Ring
	for i := range parts {
		start := parts[i]
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || start >= end {
			continue
		}

		ring := make(boundary.Ring, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, boundary.Point{X: points[j].X, Y: points[j].Y})
		}

		if signedArea(ring) <= 0 || len(polys) == 0 {
			polys = append(polys, []boundary.Ring{ring})
			continue
		}
		last := len(polys) - 1
		polys[last] = append(polys[last], ring)
	}

	if len(polys) == 1 {
		return boundary.NewPolygonGeometry(polys[0]...)
	}
	return boundary.NewMultiPolygonGeometry(polys...)
}

// polygonParts returns the part offsets and points of any polygon shape.
func polygonParts(s shp.Shape) ([]int32, []shp.Point, bool) {
	switch p := s.(type) {
	case *shp.Polygon:
		if p == nil {
			return nil, nil, false
		}
		return p.Parts, p.Points, true
	case *shp.PolygonZ:
		if p == nil {
			return nil, nil, false
		}
		return p.Parts, p.Points, true
	case *shp.PolygonM:
		if p == nil {
			return nil, nil, false
		}
		return p.Parts, p.Points, true
	default:
		return nil, nil, false
	}
}

// signedArea returns twice the signed area of r; negative for clockwise.
func signedArea(r boundary.Ring) float64 {
	var a float64
	for i, j := 0, len(r)-1; i < len(r); j, i = i, i+1 {
		a += r[j].X*r[i].Y - r[i].X*r[j].Y
	}
	return a
}

func shapeTypeName(s shp.Shape) string {
	switch s.(type) {
	case nil:
		return "null"
	case *shp.Null:
		return "null"
	case *shp.Point, *shp.PointZ, *shp.PointM:
		return "Point"
	case *shp.PolyLine, *shp.PolyLineZ, *shp.PolyLineM:
		return "LineString"
	case *shp.MultiPoint, *shp.MultiPointZ, *shp.MultiPointM:
		return "MultiPoint"
	default:
		return "Unknown"
	}
}
