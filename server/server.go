// Package server is the web application around the parsing pipeline: an
// upload and review UI for stored permit PDFs, plus the JSON API consumed
// by the CLI download command.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/PavelSyomin/oks-checker/cache"
	"github.com/PavelSyomin/oks-checker/config"
	"github.com/PavelSyomin/oks-checker/geo"
	"github.com/PavelSyomin/oks-checker/morph"
	"github.com/PavelSyomin/oks-checker/parser"
)

// Server owns the HTTP server, the parser with its dictionaries and the
// snapshot store. One Server instance handles all requests concurrently;
// the parser is read-only after construction.
type Server struct {
	cfg    *config.Manager
	parser *parser.Parser
	tasks  *taskManager
	logger *slog.Logger

	httpServer *http.Server

	storeMu  sync.Mutex
	store    *cache.Store
	storeDir string

	mu      sync.RWMutex
	running bool
}

// New loads the morphological dictionary and the geo index, opens the
// snapshot store and registers all routes.
func New(cfg *config.Manager, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dict, err := morph.NewDictionary()
	if err != nil {
		return nil, fmt.Errorf("loading dictionary: %w", err)
	}
	index, err := geo.NewIndex(dict)
	if err != nil {
		return nil, fmt.Errorf("loading geo index: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		parser: parser.New(dict, index),
		tasks:  newTaskManager(),
		logger: logger,
	}
	s.storeDir = cfg.Get().CacheDir
	s.store = cache.New(s.storeDir)

	// The snapshot store follows cache_dir across config reloads.
	cfg.OnChange(func(c *config.Config) {
		s.storeMu.Lock()
		if c.CacheDir != s.storeDir {
			s.storeDir = c.CacheDir
			s.store = cache.New(c.CacheDir)
		}
		s.storeMu.Unlock()
	})

	s.httpServer = &http.Server{
		Addr:         cfg.Get().Address(),
		Handler:      s.logRequests(s.routes()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/{$}", s.handleIndex)
	mux.HandleFunc("GET /upload", s.handleUploadPage)
	mux.HandleFunc("GET /view", s.handleView)
	mux.HandleFunc("GET /parse", s.handleParse)
	mux.HandleFunc("GET /download", s.handleDownload)
	mux.HandleFunc("GET /delete", s.handleDelete)
	mux.HandleFunc("GET /thumbnails/{file}", s.handleThumbnail)

	mux.HandleFunc("GET /devplans", s.handleDevplans)
	mux.HandleFunc("POST /devplans/{$}", s.handleUpload)
	mux.HandleFunc("GET /devplans/{id}/status", s.handleDevplanStatus)
	mux.HandleFunc("GET /devplans/{id}/json", s.handleDevplanJSON)
	mux.HandleFunc("GET /devplans/{id}/xlsx", s.handleDevplanExcel)

	mux.HandleFunc("GET /batch", s.handleBatchPage)
	mux.HandleFunc("POST /batch/process", s.handleBatchProcess)
	mux.HandleFunc("GET /batch/tasks/{id}", s.handleBatchTask)
	mux.HandleFunc("GET /batch/tasks/{id}/{type}", s.handleBatchTaskResult)

	return mux
}

// Start runs the server until the context is cancelled or the listener
// fails. The configured directories are created on startup.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.cfg.Get().EnsureDirs(); err != nil {
		s.setNotRunning()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning reports whether Start is active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// snapshots returns the current snapshot store; the store is swapped when a
// config reload moves cache_dir.
func (s *Server) snapshots() *cache.Store {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	return s.store
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
