// Package dataset loads boundary features from GeoJSON files, ESRI
// shapefiles, PostGIS tables and SQLite tables.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/boundary-lookup/internal/boundary"
	"github.com/sells-group/boundary-lookup/internal/geo"
)

// GeoJSONFile reads a GeoJSON FeatureCollection from disk.
type GeoJSONFile struct {
	Path string
	// IDProperty names the property used as feature id. When empty, the
	// GeoJSON "id" member is used, then the feature's ordinal.
	IDProperty string
}

// rawFeature keeps the id undecoded because datasets use both string and
// numeric ids.
type rawFeature struct {
	ID         json.RawMessage   `json:"id"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
}

type rawCollection struct {
	Type     string        `json:"type"`
	Features []*rawFeature `json:"features"`
}

// Load implements boundary.Source.
func (s *GeoJSONFile) Load(ctx context.Context) ([]*boundary.Feature, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open geojson %s", s.Path)
	}
	defer f.Close() //nolint:errcheck

	features, err := DecodeGeoJSON(ctx, f, s.IDProperty)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", s.Path)
	}

	zap.L().Info("dataset: geojson loaded",
		zap.String("path", s.Path),
		zap.Int("features", len(features)),
	)
	return features, nil
}

// DecodeGeoJSON parses a FeatureCollection.
func DecodeGeoJSON(ctx context.Context, r io.Reader, idProperty string) ([]*boundary.Feature, error) {
	var fc rawCollection
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "dataset: decode geojson")
	}
	if fc.Type != "FeatureCollection" {
		return nil, eris.Errorf("dataset: expected FeatureCollection, got %q", fc.Type)
	}

	features := make([]*boundary.Feature, 0, len(fc.Features))
	for i, rf := range fc.Features {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "dataset: decode geojson")
			}
		}
		if rf == nil {
			continue
		}

		g := boundary.Unsupported("null")
		if rf.Geometry != nil {
			t, err := rf.Geometry.Decode()
			if err != nil {
				return nil, eris.Wrapf(err, "dataset: feature %d geometry", i)
			}
			g = geo.FromGeom(t)
		}

		features = append(features, &boundary.Feature{
			ID:         featureID(rf.ID, rf.Properties, idProperty, i),
			Properties: rf.Properties,
			Geometry:   g,
		})
	}
	return features, nil
}

// featureID picks the configured property, then the GeoJSON id, then the
// ordinal.
func featureID(raw json.RawMessage, props map[string]any, idProperty string, ordinal int) string {
	if idProperty != "" {
		if v, ok := props[idProperty]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return string(raw)
	}
	return strconv.Itoa(ordinal)
}
