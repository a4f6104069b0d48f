// Package http is the inbound HTTP surface: health, readiness, metrics,
// and the analysis endpoint.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/floodscope/flood-exposure-service/internal/domain"
	"github.com/floodscope/flood-exposure-service/internal/pipeline"
)

const analyzeTimeout = 2 * time.Minute

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AnalysisRunner executes one flood-exposure analysis per request.
type AnalysisRunner interface {
	Run(ctx context.Context, area domain.AnalysisArea, opts pipeline.Options) (pipeline.Result, error)
}

// Server exposes health, readiness, metrics, and analysis HTTP endpoints.
type Server struct {
	httpServer *http.Server
	analyzer   AnalysisRunner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /v1/analyze routes.
func NewServer(addr string, analyzer AnalysisRunner, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Analyses hold the connection until the run finishes.
			WriteTimeout: analyzeTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/analyze", s.handleAnalyze)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// analyzeRequest carries the area polygon as GeoJSON geometry plus the
// hazard tier for the single-tier sections.
type analyzeRequest struct {
	Area json.RawMessage `json:"area"`
	Tier string          `json:"tier"`
}

type failureResponse struct {
	Status  string              `json:"status"`
	Class   domain.FailureClass `json:"class"`
	Message string              `json:"message"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	area, err := areaFromGeoJSON(req.Area)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	result, err := s.analyzer.Run(ctx, area, pipeline.Options{
		ActiveTier: domain.HazardTier(req.Tier),
	})
	if err != nil {
		s.logger.Error("analysis failed", "error", err)
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// areaFromGeoJSON converts a GeoJSON Polygon geometry into an analysis
// area. The closing vertex of the outer ring is dropped; holes are ignored.
func areaFromGeoJSON(raw json.RawMessage) (domain.AnalysisArea, error) {
	if len(raw) == 0 {
		return domain.AnalysisArea{}, errors.New("missing area geometry")
	}

	geom, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return domain.AnalysisArea{}, errors.New("area is not valid GeoJSON geometry")
	}
	polygon, ok := geom.Geometry().(orb.Polygon)
	if !ok || len(polygon) == 0 {
		return domain.AnalysisArea{}, errors.New("area must be a GeoJSON Polygon")
	}

	ring := polygon[0]
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	vertices := make([]domain.LatLng, 0, len(ring))
	for _, pt := range ring {
		vertices = append(vertices, domain.LatLng{Lat: pt.Y(), Lng: pt.X()})
	}
	return domain.NewAnalysisArea(vertices)
}

func writeFailure(w http.ResponseWriter, err error) {
	class := domain.Classify(err)

	status := http.StatusInternalServerError
	message := "analysis failed"
	switch {
	case errors.Is(err, pipeline.ErrRunDeclined):
		status = http.StatusUnprocessableEntity
		message = "analysis declined: too many features for this area"
	case class == domain.FailureAreaTooLarge:
		status = http.StatusUnprocessableEntity
		message = "analysis area too large for the upstream services, try a smaller area"
	case class == domain.FailureServiceUnavailable:
		status = http.StatusBadGateway
		message = "upstream services unavailable, try again later"
	}

	writeJSON(w, status, failureResponse{Status: "failed", Class: class, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
