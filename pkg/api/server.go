package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yourusername/reversi/pkg/engine"
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host           string        // Host to bind to (default "localhost")
	Port           int           // Port to listen on (default 8080)
	ReadTimeout    time.Duration // Read timeout (default 30s)
	WriteTimeout   time.Duration // Write timeout (default 60s; searches can be slow)
	IdleTimeout    time.Duration // Idle timeout (default 60s)
	MaxFastWorkers int           // Max concurrent rule queries (default 100)
	MaxSlowWorkers int           // Max concurrent searches and rollouts (default 4)
}

// DefaultConfig returns a ServerConfig with sensible defaults.
func DefaultConfig() ServerConfig {
	pool := DefaultPoolConfig()
	return ServerConfig{
		Host:           "localhost",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxFastWorkers: pool.MaxFastWorkers,
		MaxSlowWorkers: pool.MaxSlowWorkers,
	}
}

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	handlers *Handlers
	server   *http.Server
	pool     *WorkerPool
	version  string
}

// NewServer creates a new API server.
func NewServer(e *engine.Engine, config ServerConfig, version string) *Server {
	pool := NewWorkerPool(PoolConfig{
		MaxFastWorkers: config.MaxFastWorkers,
		MaxSlowWorkers: config.MaxSlowWorkers,
	})

	return &Server{
		config:   config,
		handlers: NewHandlersWithPool(e, version, pool),
		pool:     pool,
		version:  version,
	}
}

// Pool returns the worker pool for monitoring.
func (s *Server) Pool() *WorkerPool {
	return s.pool
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request with its request ID and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Printf("[%s] %s %s %d %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

// Routes builds the API router.
func (s *Server) Routes() http.Handler {
	return NewRouter(s.handlers)
}

// NewRouter wires the handlers into a chi router with the standard middleware.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(loggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/newgame", h.NewGame)
		r.Post("/encode", h.Encode)
		r.Post("/moves", h.Moves)
		r.Post("/place", h.Place)
		r.Post("/pass", h.Pass)
		r.Post("/best", h.Best)
		r.Get("/best/stream", h.BestSSE)
		r.Post("/rollout", h.Rollout)
		r.Get("/rollout/stream", h.RolloutSSE)
		r.Get("/ws", h.WebSocket)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	log.Printf("Starting reversi analysis server v%s on %s", s.version, addr)
	log.Printf("Endpoints:")
	log.Printf("  GET  /api/health          - Health check")
	log.Printf("  GET  /api/newgame         - Standard opening (?size=N)")
	log.Printf("  POST /api/encode          - Text rows to position ID")
	log.Printf("  POST /api/moves           - Legal placements")
	log.Printf("  POST /api/place           - Apply a placement")
	log.Printf("  POST /api/pass            - Apply a forced pass")
	log.Printf("  POST /api/best            - Alpha-beta best move")
	log.Printf("  GET  /api/best/stream     - Best move with streamed candidates (SSE)")
	log.Printf("  POST /api/rollout         - Monte Carlo rollout")
	log.Printf("  GET  /api/rollout/stream  - Rollout with streamed progress (SSE)")
	log.Printf("  WS   /api/ws              - WebSocket for real-time analysis")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown starts the server and handles shutdown signals.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	errChan := make(chan error, 1)

	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped gracefully")
	return nil
}
