package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

func TestBuildObserver_Success(t *testing.T) {
	before := testutil.ToFloat64(BuildsTotal.WithLabelValues("success"))

	BuildObserver{}.BuildFinished(boundary.Stats{Polygons: 42, BuildDuration: 2 * time.Second}, nil)

	assert.InDelta(t, before+1, testutil.ToFloat64(BuildsTotal.WithLabelValues("success")), 0.001)
	assert.InDelta(t, 42, testutil.ToFloat64(IndexedPolygons), 0.001)
}

func TestBuildObserver_Error(t *testing.T) {
	before := testutil.ToFloat64(BuildsTotal.WithLabelValues("error"))
	polygons := testutil.ToFloat64(IndexedPolygons)

	BuildObserver{}.BuildFinished(boundary.Stats{}, errors.New("load failed"))

	assert.InDelta(t, before+1, testutil.ToFloat64(BuildsTotal.WithLabelValues("error")), 0.001)
	assert.InDelta(t, polygons, testutil.ToFloat64(IndexedPolygons), 0.001, "gauge untouched on failure")
}

func TestObserveLookup(t *testing.T) {
	found := testutil.ToFloat64(LookupsTotal.WithLabelValues(ResultFound))
	missed := testutil.ToFloat64(LookupsTotal.WithLabelValues(ResultNotFound))

	ObserveLookup(boundary.Match{Polygon: &boundary.IndexedPolygon{}, Candidates: 2, Tested: 1})
	ObserveLookup(boundary.Match{})

	assert.InDelta(t, found+1, testutil.ToFloat64(LookupsTotal.WithLabelValues(ResultFound)), 0.001)
	assert.InDelta(t, missed+1, testutil.ToFloat64(LookupsTotal.WithLabelValues(ResultNotFound)), 0.001)
}

func TestObserveFailure(t *testing.T) {
	before := testutil.ToFloat64(LookupsTotal.WithLabelValues(ResultInvalid))
	ObserveFailure(ResultInvalid)
	assert.InDelta(t, before+1, testutil.ToFloat64(LookupsTotal.WithLabelValues(ResultInvalid)), 0.001)
}

func TestHandler(t *testing.T) {
	ObserveLookup(boundary.Match{})

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "boundary_lookups_total")
	assert.Contains(t, rec.Body.String(), "boundary_lookup_candidates")
}

func TestBuildObserver_SatisfiesInterface(t *testing.T) {
	var _ boundary.BuildObserver = BuildObserver{}
}
