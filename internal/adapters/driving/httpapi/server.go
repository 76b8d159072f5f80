// Package httpapi exposes the ingestion service over HTTP with a JSON
// API: connection management, file browsing, ingestion jobs and
// collection statistics.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/vectorbridge/internal/core/ports/driving"
)

// Server is the HTTP API front end.
type Server struct {
	connections driving.ConnectionManager
	jobs        driving.JobManager
	logger      *slog.Logger
	httpServer  *http.Server
}

// NewServer creates a server bound to addr.
func NewServer(addr string, connections driving.ConnectionManager, jobs driving.JobManager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		connections: connections,
		jobs:        jobs,
		logger:      logger.With("component", "httpapi"),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// routes builds the request multiplexer.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /sources", s.handleListSources)

	mux.HandleFunc("POST /connections", s.handleConnect)
	mux.HandleFunc("GET /connections", s.handleListConnections)
	mux.HandleFunc("GET /connections/{id}", s.handleGetConnection)
	mux.HandleFunc("DELETE /connections/{id}", s.handleRemoveConnection)
	mux.HandleFunc("GET /connections/{id}/files", s.handleListFiles)
	mux.HandleFunc("GET /connections/{id}/files/search", s.handleSearchFiles)

	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("POST /ingest/batch", s.handleIngestBatch)
	mux.HandleFunc("GET /ingest/status/{jobID}", s.handleJobStatus)
	mux.HandleFunc("GET /ingest/collections/stats", s.handleCollectionStats)

	return s.logRequests(mux)
}

// Handler returns the routed handler, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http api listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// logRequests logs each request with its duration and status.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
