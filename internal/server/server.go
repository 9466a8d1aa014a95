package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jsvoboda/geoattend/internal/config"
	"github.com/jsvoboda/geoattend/internal/database"
	"github.com/jsvoboda/geoattend/internal/recognize"
	"github.com/jsvoboda/geoattend/internal/storage"
)

// EmbeddingProvider computes a face embedding for an enrollment photo.
type EmbeddingProvider interface {
	ComputeFaceEmbedding(ctx context.Context, imageData []byte) ([]float32, error)
}

// Server represents the attendance web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	db         *database.DB
	snapshots  *storage.SnapshotStore
	recognizer recognize.Recognizer
	embeddings EmbeddingProvider
	index      *recognize.Index
	checker    *recognize.FaceChecker
	limiter    *rateLimiter
}

// NewServer creates a new attendance server
func NewServer(cfg *config.Config, port int, host string, db *database.DB, snapshots *storage.SnapshotStore,
	recognizer recognize.Recognizer, embeddings EmbeddingProvider, index *recognize.Index,
	checker *recognize.FaceChecker) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:     cfg,
		router:     r,
		db:         db,
		snapshots:  snapshots,
		recognizer: recognizer,
		embeddings: embeddings,
		index:      index,
		checker:    checker,
		limiter:    newRateLimiter(time.Duration(cfg.Server.RateWindowMS) * time.Millisecond),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting attendance server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down attendance server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
