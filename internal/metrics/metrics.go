// Package metrics exposes prometheus collectors for index builds and
// lookups.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

// Lookup outcomes used as the result label of LookupsTotal.
const (
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

var (
	BuildDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "boundary_build_duration_seconds",
		Help:    "Time spent loading the dataset and building the index",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
	BuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boundary_builds_total",
		Help: "Index builds by result",
	}, []string{"result"})
	IndexedPolygons = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "boundary_indexed_polygons",
		Help: "Simple polygons held by the current index",
	})
	LookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boundary_lookups_total",
		Help: "Point lookups by result",
	}, []string{"result"})
	LookupCandidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "boundary_lookup_candidates",
		Help:    "Bounding boxes returned by the index per lookup",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
)

func init() {
	prometheus.MustRegister(BuildDurationSeconds)
	prometheus.MustRegister(BuildsTotal)
	prometheus.MustRegister(IndexedPolygons)
	prometheus.MustRegister(LookupsTotal)
	prometheus.MustRegister(LookupCandidates)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// BuildObserver records build outcomes. Pass it to boundary.WithObserver.
type BuildObserver struct{}

// BuildFinished implements boundary.BuildObserver.
func (BuildObserver) BuildFinished(stats boundary.Stats, err error) {
	if err != nil {
		BuildsTotal.WithLabelValues("error").Inc()
		return
	}
	BuildsTotal.WithLabelValues("success").Inc()
	BuildDurationSeconds.Observe(stats.BuildDuration.Seconds())
	IndexedPolygons.Set(float64(stats.Polygons))
}

// ObserveLookup records the outcome of a lookup.
func ObserveLookup(m boundary.Match) {
	LookupCandidates.Observe(float64(m.Candidates))
	if m.Found() {
		LookupsTotal.WithLabelValues(ResultFound).Inc()
		return
	}
	LookupsTotal.WithLabelValues(ResultNotFound).Inc()
}

// ObserveFailure records a lookup that produced no match because of an
// invalid request or an error.
func ObserveFailure(result string) {
	LookupsTotal.WithLabelValues(result).Inc()
}
