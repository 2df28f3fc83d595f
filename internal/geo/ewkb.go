package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

// SRID is the spatial reference of every stored boundary (WGS 84).
const SRID = 4326

// EWKB encodes g as EWKB with SRID 4326 for PostGIS. Unsupported geometries
// return nil, nil.
func EWKB(g boundary.Geometry) ([]byte, error) {
	t, err := ToGeom(g)
	if err != nil || t == nil {
		return nil, err
	}

	switch v := t.(type) {
	case *geom.Polygon:
		t = v.SetSRID(SRID)
	case *geom.MultiPolygon:
		t = v.SetSRID(SRID)
	}

	data, err := ewkb.Marshal(t, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode EWKB")
	}
	return data, nil
}
