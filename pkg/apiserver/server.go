// Package apiserver exposes the router's admin surface: health, stats,
// the algorithm catalog and cache maintenance.
package apiserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/algoinsight/trace-router/pkg/observability/logging"
	"github.com/algoinsight/trace-router/pkg/router"
)

// Server is the admin HTTP server.
type Server struct {
	router *router.Router
}

// NewServer wraps a router for admin access.
func NewServer(r *router.Router) *Server {
	return &Server{router: r}
}

// Handler returns the admin route set, exposed for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start runs the admin server on the given port. Blocks until the
// listener fails.
func (s *Server) Start(port int) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logging.Infof("Admin API server listening on port %d", port)
	return srv.ListenAndServe()
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/algorithms", s.handleAlgorithms)
	mux.HandleFunc("GET /api/v1/algorithms/{id}", s.handleAlgorithmInfo)
	mux.HandleFunc("POST /api/v1/cache/clear", s.handleCacheClear)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy", "service": "trace-router"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.router.Stats())
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	ids := s.router.AvailableAlgorithms()
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"algorithms": ids,
		"count":      len(ids),
	})
}

func (s *Server) handleAlgorithmInfo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	info := s.router.AlgorithmInfo(id)
	if info == nil {
		s.writeErrorResponse(w, http.StatusNotFound, "UNKNOWN_ALGORITHM",
			fmt.Sprintf("no algorithm %q in the library", id))
		return
	}
	s.writeJSONResponse(w, http.StatusOK, info)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.router.ClearCaches()
	logging.Infof("All cache tiers cleared via admin API")
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":     "cleared",
		"cleared_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	s.writeJSONResponse(w, statusCode, map[string]any{
		"error": map[string]any{
			"code":      errorCode,
			"message":   message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}
