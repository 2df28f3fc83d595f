package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boundary-lookup/internal/boundary"
	"github.com/sells-group/boundary-lookup/internal/config"
)

const testCollection = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"pincode":"110001","office":"Connaught Place"},
   "geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]],[[4,4],[6,4],[6,6],[4,6],[4,4]]]}},
  {"type":"Feature","properties":{"pincode":"999999"},"geometry":{"type":"Point","coordinates":[50,50]}}
]}`

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "lookup", "index", "import"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "boundary-lookup", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestLookupCommand_Flags(t *testing.T) {
	for _, name := range []string{"lat", "lng", "geometry"} {
		assert.NotNil(t, lookupCmd.Flags().Lookup(name), "lookup should have --%s flag", name)
	}
}

func TestImportCommand_Flags(t *testing.T) {
	for _, name := range []string{"database-url", "table", "create", "replace"} {
		assert.NotNil(t, importCmd.Flags().Lookup(name), "import should have --%s flag", name)
	}
	assert.Equal(t, "true", importCmd.Flags().Lookup("create").DefValue)
	assert.Equal(t, "false", importCmd.Flags().Lookup("replace").DefValue)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(errNoMatch))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestPrintMatch(t *testing.T) {
	f := &boundary.Feature{
		ID:         "110001",
		Properties: map[string]any{"office": "Connaught Place"},
		Geometry: boundary.NewPolygonGeometry(boundary.Ring{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0},
		}),
	}
	m := boundary.Match{Polygon: &boundary.IndexedPolygon{Feature: f}}

	var out, errOut bytes.Buffer
	require.NoError(t, printMatch(&out, &errOut, m, true))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "110001", got["id"])
	assert.Equal(t, "Polygon", got["geometry"].(map[string]any)["type"])
	assert.Empty(t, errOut.String())
}

func TestPrintMatch_NotFound(t *testing.T) {
	var out, errOut bytes.Buffer
	err := printMatch(&out, &errOut, boundary.Match{}, false)

	assert.ErrorIs(t, err, errNoMatch)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "not found")
}

func TestPrintStats(t *testing.T) {
	s := boundary.Stats{
		BuildID:       "b1",
		Features:      3,
		Polygons:      4,
		Bounds:        &boundary.BBox{MinX: 68, MinY: 6, MaxX: 97, MaxY: 37},
		BuildDuration: 1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	require.NoError(t, printStats(&buf, s, false))
	assert.Contains(t, buf.String(), "indexed polygons:  4")
	assert.Contains(t, buf.String(), "[68, 6] - [97, 37]")

	buf.Reset()
	require.NoError(t, printStats(&buf, s, true))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.EqualValues(t, 4, got["polygons"])
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pincodes.geojson")
	require.NoError(t, os.WriteFile(path, []byte(testCollection), 0o644))

	return &config.Config{
		Dataset: config.DatasetConfig{Driver: "auto", Path: path, IDProperty: "pincode"},
		Index:   config.IndexConfig{MinChildren: 2, MaxChildren: 4},
		Server:  config.ServerConfig{Port: 8080},
	}
}

func TestNewService(t *testing.T) {
	c := testConfig(t)

	svc, err := newService(c, "lookup")
	require.NoError(t, err)
	assert.False(t, svc.Ready())

	m, err := svc.Resolve(context.Background(), boundary.LatLng(1, 1))
	require.NoError(t, err)
	require.True(t, m.Found())
	assert.Equal(t, "110001", m.Feature().ID)

	stats, ok := svc.Stats()
	require.True(t, ok)
	assert.Equal(t, 2, stats.Features)
	assert.Equal(t, 1, stats.SkippedFeatures)
}

func TestNewService_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.Index.MaxChildren = 3

	_, err := newService(c, "index")
	assert.Error(t, err)

	c = testConfig(t)
	c.Dataset.Driver = "kml"
	_, err = newService(c, "lookup")
	assert.Error(t, err)
}
