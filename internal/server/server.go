// Package server exposes geocoding and spatial enrichment over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geo-cli/internal/enrich"
	"github.com/sells-group/geo-cli/internal/geocode"
	"github.com/sells-group/geo-cli/internal/layers"
	"github.com/sells-group/geo-cli/internal/store"
)

// Geocoder answers free-form location queries. *geocode.Composite
// satisfies it.
type Geocoder interface {
	Search(ctx context.Context, q geocode.Query) (*geocode.SearchResult, error)
}

// Enricher runs a full enrichment. *enrich.Engine satisfies it.
type Enricher interface {
	Run(ctx context.Context, req enrich.Request) (*enrich.Report, error)
}

// Server wires the geocoder, resolver, and enrichment engine behind a REST
// API. The store is optional; without it enrichment reports are not
// persisted and the history endpoints return 404.
type Server struct {
	geocoder Geocoder
	enricher Enricher
	res      enrich.LayerResolver
	reg      *layers.Registry
	store    *store.Store
}

// New creates a Server.
func New(g Geocoder, e Enricher, res enrich.LayerResolver, reg *layers.Registry, st *store.Store) *Server {
	return &Server{geocoder: g, enricher: e, res: res, reg: reg, store: st}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/geocode", s.handleGeocode)
		r.Get("/layers", s.handleLayers)
		r.Get("/layers/{id}/features", s.handleLayerFeatures)
		r.Post("/enrich", s.handleEnrich)
		r.Get("/enrichments", s.handleListEnrichments)
		r.Get("/enrichments/{id}", s.handleGetEnrichment)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("q")
	if text == "" {
		writeError(w, http.StatusBadRequest, eris.New("query parameter q is required"))
		return
	}
	mode, err := geocode.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.geocoder.Search(r.Context(), geocode.Query{Text: text, Mode: mode})
	if err != nil {
		status := http.StatusBadGateway
		if eris.Is(err, geocode.ErrNoAdapters) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"layers": s.reg.All()})
}

func (s *Server) handleLayerFeatures(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.reg.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	lat, lon, err := parsePoint(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	radius := 0.0
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, eris.Errorf("invalid radius %q", raw))
			return
		}
	}

	result, err := s.res.Resolve(r.Context(), cfg, lat, lon, radius)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	fc := toFeatureCollection(result.Features)
	body, err := json.Marshal(fc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, eris.Wrap(err, "encode feature collection"))
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrich.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
		writeError(w, http.StatusBadRequest, eris.New("lat/lon out of range"))
		return
	}

	report, err := s.enricher.Run(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if s.store != nil {
		reportJSON, err := json.Marshal(report)
		if err == nil {
			_, err = s.store.SaveEnrichment(r.Context(), report.RunID, report.Lat, report.Lon, reportJSON)
		}
		if err != nil {
			zap.L().Warn("failed to persist enrichment", zap.String("run_id", report.RunID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListEnrichments(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, eris.New("enrichment history is not enabled"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	records, err := s.store.ListEnrichments(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enrichments": records})
}

func (s *Server) handleGetEnrichment(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, eris.New("enrichment history is not enabled"))
		return
	}
	record, err := s.store.GetEnrichment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func parsePoint(r *http.Request) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return 0, 0, eris.New("query parameter lat is required and must be a number")
	}
	lon, err = strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		return 0, 0, eris.New("query parameter lon is required and must be a number")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, eris.New("lat/lon out of range")
	}
	return lat, lon, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
