// Package api serves boundary lookups over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/boundary-lookup/internal/boundary"
	"github.com/sells-group/boundary-lookup/internal/geo"
	"github.com/sells-group/boundary-lookup/internal/metrics"
)

// cacheControl is sent with successful lookups. Boundaries are static for
// the life of the process.
const cacheControl = "private, max-age=86400"

// Resolver is the part of boundary.Service the server uses.
type Resolver interface {
	Resolve(ctx context.Context, p boundary.Point) (boundary.Match, error)
	Ready() bool
	Stats() (boundary.Stats, bool)
}

// Options configures a Server.
type Options struct {
	// RateLimit is the sustained requests per second across all clients.
	// Zero disables limiting.
	RateLimit float64
	// RateBurst is the limiter bucket size; defaults to 1 when limiting.
	RateBurst   int
	CORSOrigins []string
	Logger      *zap.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	resolver Resolver
	limiter  *rate.Limiter
	origins  []string
	log      *zap.Logger
}

// NewServer creates a Server over r.
func NewServer(r Resolver, opts Options) *Server {
	s := &Server{resolver: r, origins: opts.CORSOrigins, log: opts.Logger}
	if s.log == nil {
		s.log = zap.L()
	}
	s.log = s.log.With(zap.String("component", "api"))

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(responseTime)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{responseTimeHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(rateLimit(s.limiter))
		}
		r.Get("/api/search", s.handleSearch)
		r.Get("/stats", s.handleStats)
	})
	return r
}

type searchQuery struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type searchResult struct {
	ID         string          `json:"id,omitempty"`
	Properties map[string]any  `json:"properties,omitempty"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
}

type searchResponse struct {
	Query  searchQuery  `json:"query"`
	Result searchResult `json:"result"`
	Error  string       `json:"error,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp := searchResponse{Query: searchQuery{
		Latitude:  q.Get("latitude"),
		Longitude: q.Get("longitude"),
	}}

	p, err := geo.ParseLatLng(resp.Query.Latitude, resp.Query.Longitude)
	if err != nil {
		metrics.ObserveFailure(metrics.ResultInvalid)
		resp.Error = geo.ErrInvalidCoordinates.Error()
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	m, err := s.resolver.Resolve(r.Context(), p)
	if err != nil {
		metrics.ObserveFailure(metrics.ResultError)
		s.log.Error("lookup failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		resp.Error = "boundary index unavailable"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	metrics.ObserveLookup(m)

	if !m.Found() {
		writeJSON(w, http.StatusNotFound, resp)
		return
	}

	f := m.Feature()
	resp.Result = searchResult{ID: f.ID, Properties: f.Properties}
	if withGeometry, _ := strconv.ParseBool(q.Get("geometry")); withGeometry {
		g, err := geo.GeoJSON(f.Geometry)
		if err != nil {
			s.log.Error("encode geometry", zap.String("id", f.ID), zap.Error(err))
			resp.Result = searchResult{}
			resp.Error = "encode geometry"
			writeJSON(w, http.StatusInternalServerError, resp)
			return
		}
		resp.Result.Geometry = g
	}

	w.Header().Set("Cache-Control", cacheControl)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ready":  s.resolver.Ready(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats, ok := s.resolver.Stats()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ready": true,
		"stats": stats,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}
