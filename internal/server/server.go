// Package server provides the HTTP API for photostory.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/photostory/internal/chaptering"
	"github.com/hyperjump/photostory/internal/config"
	"github.com/hyperjump/photostory/internal/export"
	"github.com/hyperjump/photostory/internal/metrics"
	"github.com/hyperjump/photostory/internal/objectstore"
)

// Server is the HTTP server for the photostory API.
type Server struct {
	chapters *chaptering.Service
	exporter *export.Exporter
	uploads  objectstore.Issuer // nil when object storage is not configured
	metrics  *metrics.Collector // nil disables /metrics
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	now      func() time.Time
}

// NewServer creates a server with the given dependencies. uploads and collector may be nil.
func NewServer(
	chapters *chaptering.Service,
	exporter *export.Exporter,
	uploads objectstore.Issuer,
	collector *metrics.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		chapters: chapters,
		exporter: exporter,
		uploads:  uploads,
		metrics:  collector,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(instrument(s.metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/chapters", s.handleListChapters)
		r.Post("/chapters", s.handleCreateChapter)
		r.Delete("/chapters", s.handleDeleteChapters)
		r.Get("/chapters/search", s.handleSearchChapters)
		r.Get("/chapters/{id}", s.handleGetChapter)
		r.Post("/analyze-image", s.handleAnalyzeImage)
		r.Get("/export", s.handleExport)
		r.Post("/upload-url", s.handleUploadURL)
	})
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
