// Package web provides the HTTP server and JSON API for the master-data
// governance service.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mastergate/internal/config"
	"mastergate/internal/core"
	mw "mastergate/internal/web/middleware"
)

// Pinger reports whether the backing database is reachable.
// Satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server exposing the governance API.
type Server struct {
	service *core.Service
	audit   *core.AuditLog // nil hides the audit endpoint's content
	db      Pinger
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance. audit and db may be nil.
func NewServer(service *core.Service, audit *core.AuditLog, db Pinger, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		audit:   audit,
		db:      db,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(stampRequestInfo)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Master listing and provisioning
		r.Get("/masters", s.handleListMasters)
		r.Post("/masters", s.handleCreateMaster)

		r.Route("/masters/{master}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteMaster)

			// Schema definition
			r.Get("/schema", s.handleGetSchema)
			r.Put("/schema", s.handleUpdateSchema)

			// Table contents
			r.Get("/data", s.handleLoadData)
			r.Post("/data", s.handleSaveData)

			// Dry-run inspection
			r.Post("/inspect", s.handleInspect)
		})

		// Audit trail
		r.Get("/audit-log", s.handleAuditLog)
	})
}

// Start begins listening for HTTP requests.
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

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
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
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"error":  "database unreachable",
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// stampRequestInfo copies the client IP and user agent into the request
// context so audit entries recorded deep in the core can carry them.
func stampRequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithIPAddress(r.Context(), r.RemoteAddr)
		ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
