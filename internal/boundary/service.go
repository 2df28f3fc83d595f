package boundary

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNotBuilt is returned by Lookup when the index has not been built.
var ErrNotBuilt = eris.New("boundary: index not built")

// BuildObserver is notified when a build attempt finishes.
type BuildObserver interface {
	BuildFinished(stats Stats, err error)
}

// Option configures a Service.
type Option func(*Service)

// WithNodeSize sets the R-tree node fan-out.
func WithNodeSize(minChildren, maxChildren int) Option {
	return func(s *Service) {
		s.minChildren = minChildren
		s.maxChildren = maxChildren
	}
}

// WithLogger sets the logger used for build events.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithObserver registers a build observer.
func WithObserver(o BuildObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// Stats describes a built index.
type Stats struct {
	BuildID         string        `json:"build_id"`
	Features        int           `json:"features"`
	Polygons        int           `json:"polygons"`
	SkippedFeatures int           `json:"skipped_features"`
	Bounds          *BBox         `json:"bounds,omitempty"`
	BuildDuration   time.Duration `json:"build_duration_ns"`
	BuiltAt         time.Time     `json:"built_at"`
}

// Match is the outcome of a lookup. A zero Polygon means no boundary
// contains the point.
type Match struct {
	Polygon *IndexedPolygon
	// Candidates is the number of boxes returned by the index.
	Candidates int
	// Tested is the number of exact containment tests run.
	Tested int
}

// Found reports whether a polygon matched.
func (m Match) Found() bool { return m.Polygon != nil }

// Feature returns the matched feature, or nil.
func (m Match) Feature() *Feature {
	if m.Polygon == nil {
		return nil
	}
	return m.Polygon.Feature
}

// snapshot is the immutable Ready state.
type snapshot struct {
	index    *Index
	polygons []*IndexedPolygon
	stats    Stats
}

// Service answers point lookups against a dataset loaded on first Build.
// It starts Unbuilt and becomes Ready once a Build succeeds; a Ready
// service never reloads its source. Lookups are safe for concurrent use.
type Service struct {
	src         Source
	minChildren int
	maxChildren int
	log         *zap.Logger
	observer    BuildObserver

	ready  atomic.Pointer[snapshot]
	flight singleflight.Group
}

// NewService creates an unbuilt Service over src.
func NewService(src Source, opts ...Option) *Service {
	s := &Service{
		src:         src,
		minChildren: DefaultMinChildren,
		maxChildren: DefaultMaxChildren,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.L()
	}
	s.log = s.log.With(zap.String("component", "boundary.service"))
	return s
}

// Build loads the dataset and builds the index. Concurrent callers share a
// single build and all receive its result. Once the service is Ready,
// Build returns the existing index without touching the source. A failed
// build leaves the service unbuilt so a later call can retry.
//
// The shared build ignores cancellation of the caller that started it; each
// caller stops waiting when its own ctx is done.
func (s *Service) Build(ctx context.Context) (*Index, error) {
	if snap := s.ready.Load(); snap != nil {
		return snap.index, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan("build", func() (any, error) {
		if snap := s.ready.Load(); snap != nil {
			return snap, nil
		}
		snap, err := s.build(buildCtx)
		if s.observer != nil {
			var st Stats
			if snap != nil {
				st = snap.stats
			}
			s.observer.BuildFinished(st, err)
		}
		if err != nil {
			return nil, err
		}
		s.ready.Store(snap)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "boundary: wait for build")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*snapshot).index, nil
	}
}

func (s *Service) build(ctx context.Context) (*snapshot, error) {
	start := time.Now()
	s.log.Info("building boundary index")

	features, err := s.src.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: load dataset")
	}
	var ex Extractor
	var polygons []*IndexedPolygon
	for _, f := range features {
		polygons = append(polygons, ex.Extract(f)...)
	}

	boxes := make([]BBox, len(polygons))
	for i, p := range polygons {
		b := RingBounds(p.Polygon.Outer)
		b.PolygonID = p.ID
		p.Box = b
		boxes[i] = b
	}

	index, err := NewIndexWithNodeSize(boxes, s.minChildren, s.maxChildren)
	if err != nil {
		return nil, err
	}

	stats := Stats{
		BuildID:         uuid.NewString(),
		Features:        len(features),
		Polygons:        len(polygons),
		SkippedFeatures: ex.Skipped(),
		BuildDuration:   time.Since(start),
		BuiltAt:         time.Now().UTC(),
	}
	if b, ok := index.Bounds(); ok {
		stats.Bounds = &b
	}

	s.log.Info("boundary index built",
		zap.String("build_id", stats.BuildID),
		zap.Int("features", stats.Features),
		zap.Int("polygons", stats.Polygons),
		zap.Int("skipped", stats.SkippedFeatures),
		zap.Duration("elapsed", stats.BuildDuration),
	)

	return &snapshot{index: index, polygons: polygons, stats: stats}, nil
}

// Lookup returns the first indexed polygon containing p. The candidate order
// is whatever the index returns. It fails only with ErrNotBuilt.
func (s *Service) Lookup(p Point) (Match, error) {
	snap := s.ready.Load()
	if snap == nil {
		return Match{}, ErrNotBuilt
	}

	boxes := snap.index.SearchPoint(p)
	m := Match{Candidates: len(boxes)}
	for _, b := range boxes {
		poly := snap.polygons[b.PolygonID]
		m.Tested++
		if PolygonContains(p, poly.Polygon) {
			m.Polygon = poly
			return m, nil
		}
	}
	return m, nil
}

// Resolve builds the index if needed and looks up p.
func (s *Service) Resolve(ctx context.Context, p Point) (Match, error) {
	if _, err := s.Build(ctx); err != nil {
		return Match{}, err
	}
	return s.Lookup(p)
}

// Ready reports whether the index has been built.
func (s *Service) Ready() bool {
	return s.ready.Load() != nil
}

// Stats returns the stats of the built index. ok is false while unbuilt.
func (s *Service) Stats() (Stats, bool) {
	snap := s.ready.Load()
	if snap == nil {
		return Stats{}, false
	}
	return snap.stats, true
}

// Polygon returns the indexed polygon with the given id.
func (s *Service) Polygon(id int) (*IndexedPolygon, bool) {
	snap := s.ready.Load()
	if snap == nil || id < 0 || id >= len(snap.polygons) {
		return nil, false
	}
	return snap.polygons[id], true
}
