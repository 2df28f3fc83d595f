package boundary

import "go.uber.org/zap"

// Extractor decomposes features into IndexedPolygons and assigns their ids.
// Ids start at 0 and increase by one per emitted polygon, so an id is also
// the polygon's position in the slice built from successive Extract calls.
type Extractor struct {
	nextID  int
	skipped int
}

// Extract returns the simple polygons of f. Polygon geometries yield one
// polygon, multi-polygons one per part sharing f. Unsupported geometries and
// parts without an outer ring yield nothing.
func (e *Extractor) Extract(f *Feature) []*IndexedPolygon {
	if f == nil {
		e.skipped++
		return nil
	}

	var parts [][]Ring
	switch f.Geometry.Kind {
	case KindPolygon:
		if len(f.Geometry.Polygons) > 0 {
			parts = f.Geometry.Polygons[:1]
		}
	case KindMultiPolygon:
		parts = f.Geometry.Polygons
	default:
		zap.L().Debug("boundary: skipping unsupported geometry",
			zap.String("feature", f.ID),
			zap.String("type", f.Geometry.TypeName),
		)
		e.skipped++
		return nil
	}

	var out []*IndexedPolygon
	for _, rings := range parts {
		if len(rings) == 0 || len(rings[0]) == 0 {
			continue
		}
		out = append(out, &IndexedPolygon{
			ID:      e.nextID,
			Polygon: Polygon{Outer: rings[0], Holes: rings[1:]},
			Feature: f,
		})
		e.nextID++
	}
	if len(out) == 0 {
		e.skipped++
	}
	return out
}

// Emitted returns the number of polygons produced so far.
func (e *Extractor) Emitted() int { return e.nextID }

// Skipped returns the number of features that produced no polygon.
func (e *Extractor) Skipped() int { return e.skipped }
