package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rbeezley/myk9q-scoring/internal/catalog"
	"github.com/rbeezley/myk9q-scoring/internal/config"
	"github.com/rbeezley/myk9q-scoring/internal/realtime"
	"github.com/rbeezley/myk9q-scoring/internal/scoring"
	"github.com/rbeezley/myk9q-scoring/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	repo           storage.Repository
	scoring        *scoring.Service
	catalog        *catalog.Loader
	hub            *realtime.Hub
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	repo storage.Repository,
	svc *scoring.Service,
	loader *catalog.Loader,
	hub *realtime.Hub,
) *Server {
	s := &Server{
		config:         cfg,
		repo:           repo,
		scoring:        svc,
		catalog:        loader,
		hub:            hub,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// Health check (outside versioned API - public)
	r.With(middleware.Timeout(timeout)).Get("/health", s.handleHealth)
	r.With(middleware.Timeout(timeout)).Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)
		perm := s.authMiddleware.RequirePermission
		limit := middleware.Timeout(timeout)

		r.Route("/timing", func(r chi.Router) {
			r.Use(limit, perm("timing:read"))
			r.Post("/parse", s.handleParse)
			r.Post("/format", s.handleFormat)
			r.Post("/areas", s.handleAreas)
			r.Post("/preset", s.handlePreset)
			r.Post("/validate", s.handleValidate)
		})

		r.With(limit, perm("classes:read")).Get("/catalog", s.handleListCatalog)

		r.Route("/classes", func(r chi.Router) {
			r.Use(perm("classes:read"))
			// websockets are long-lived and stay outside the request timeout
			r.Get("/{id}/ws", s.handleClassWS)

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Get("/", s.handleListClasses)
				r.Get("/{id}", s.handleGetClass)
				r.Get("/{id}/entries", s.handleListEntries)
			})
		})

		r.With(limit, perm("scores:write")).Post("/entries/{id}/sessions", s.handleCreateSession)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(limit, perm("scores:write"))
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/start", s.handleStartTimer)
			r.Post("/stop", s.handleStopTimer)
			r.Post("/reset", s.handleResetTimer)
			r.Put("/areas/{area}", s.handleSetAreaTime)
			r.Post("/submit", s.handleSubmit)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
