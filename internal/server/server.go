package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/me/cinedex/internal/authz"
	"github.com/me/cinedex/internal/catalog"
	"github.com/me/cinedex/internal/config"
	"github.com/me/cinedex/internal/ui"
)

// Version is reported by the discovery and health endpoints.
const Version = "0.3.0"

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the cinedex HTTP server: JSON API, web UI and metrics.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	catalog   *catalog.Service
	sessions  *ui.SessionManager
	authz     *authz.Enforcer
	pinger    Pinger // optional; health reports "unknown" without it
	ui        *ui.UI
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithPinger sets the database used by the health check.
func WithPinger(p Pinger) Option {
	return func(s *Server) {
		s.pinger = p
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, svc *catalog.Service, sessions *ui.SessionManager, enf *authz.Enforcer, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		catalog:   svc,
		sessions:  sessions,
		authz:     enf,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ui = ui.New(svc, sessions, enf, logger, ui.Config{
		Secure: cfg.UI.SecureCookies,
	})

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Handle("/metrics", promhttp.Handler())

	// UI routes (HTML)
	s.ui.RegisterRoutes(r)

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		if s.config.RateLimit.Requests > 0 {
			r.Use(httprate.LimitByIP(s.config.RateLimit.Requests, s.config.RateLimit.Window))
		}
		r.Use(s.sessionMiddleware)

		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Sessions
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/me", s.handleMe)

		// Reviews and bookmarks
		r.Post("/reviews/{id}/vote", s.handleVote)
		r.Get("/bookmarks", s.handleListBookmarks)

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authorize(authz.ObjCache, authz.ActWrite))
			r.Get("/cache", s.handleCacheStats)
			r.Post("/cache/invalidate", s.handleInvalidateCache)
		})

		// Catalog
		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Put("/", s.handleUpdate)
				r.Delete("/", s.handleDelete)
				r.Get("/reviews", s.handleListReviews)
				r.Post("/reviews", s.handleCreateReview)
				r.Post("/bookmark", s.handleToggleBookmark)
			})
		})
	})
}
