// Package web serves the import API: schema listing, template downloads,
// and the upload -> mapping -> preview -> confirm flow of an import session.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/returnsdesk/internal/config"
	"github.com/JonMunkholm/returnsdesk/internal/session"
	"github.com/JonMunkholm/returnsdesk/internal/store"
	mw "github.com/JonMunkholm/returnsdesk/internal/web/middleware"
)

// ImportHistory lists and undoes persisted imports.
type ImportHistory interface {
	Imports(ctx context.Context, limit int) ([]store.ImportBatch, error)
	Rollback(ctx context.Context, importID string) (store.RollbackResult, error)
}

// Deps are the services the handlers call.
type Deps struct {
	Sessions  *session.Manager
	Persister session.Persister
	History   ImportHistory // Optional; history routes return 404 without it
}

// Server is the HTTP server.
type Server struct {
	cfg       *config.Config
	sessions  *session.Manager
	persister session.Persister
	history   ImportHistory

	router *chi.Mux
	server *http.Server

	limiter       *rateLimiter
	uploadLimiter *rateLimiter
}

// NewServer wires routes and middleware.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		sessions:  deps.Sessions,
		persister: deps.Persister,
		history:   deps.History,
		router:    chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.limiter = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
		s.uploadLimiter = newRateLimiter(cfg.Rate.UploadLimit, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
	if s.limiter != nil {
		s.router.Use(s.limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security))

		r.Route("/schemas", func(r chi.Router) {
			r.Get("/", s.handleListSchemas)
			r.Get("/{recordType}", s.handleGetSchema)
			r.Get("/{recordType}/template", s.handleDownloadTemplate)
			r.With(s.uploadRateLimit).Post("/{recordType}/imports", s.handleCreateImport)
		})

		r.Route("/imports/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetImport)
			r.Delete("/", s.handleDiscardImport)
			r.Put("/mappings", s.handleUpdateMappings)
			r.Post("/preview", s.handlePreview)
			r.Post("/remap", s.handleRemap)
			r.Post("/confirm", s.handleConfirm)
			r.Get("/report", s.handleReport)
			r.Get("/invalid-rows", s.handleInvalidRows)
		})

		r.Get("/history", s.handleHistory)
		r.Post("/history/{importID}/rollback", s.handleRollback)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones, and stops
// the rate limiter cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
		s.uploadLimiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
		"parses":   s.sessions.Limiter().Status(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with the given status. Encoding errors are logged
// since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
