// Package api provides the HTTP API server and handlers for the Boatyard application.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/boatyard/boatyard-server/internal/auth"
	"github.com/boatyard/boatyard-server/internal/http/response"
	"github.com/boatyard/boatyard-server/internal/logger"
	"github.com/boatyard/boatyard-server/internal/ratelimit"
)

const (
	allowedMethods      = "GET, POST, PUT, PATCH, DELETE"
	msgMethodNotAllowed = "Unaccepted method"
	msgRouteNotFound    = "Not found"
)

// Pinger reports whether a backing component is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options holds the deployment-specific server settings.
type Options struct {
	// PublicURL replaces the request scheme and host in self and next links.
	PublicURL   string
	CORSOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For or X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool
	// SecureCookies marks the login cookie Secure. Enable behind HTTPS.
	SecureCookies bool
	// LoginLimiter bounds /mid and /oauth per client address. Nil disables it.
	LoginLimiter *ratelimit.KeyedRateLimiter
	// Health lists the components probed by /health, keyed by name.
	Health map[string]Pinger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	verifier auth.TokenVerifier
	opts     Options
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, verifier auth.TokenVerifier, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		services: services,
		verifier: verifier,
		opts:     opts,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupAPI()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(logger.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Allow"},
		MaxAge:         300,
	}))
	s.router.Use(authMiddleware(s.verifier, s.logger))
	s.router.Use(s.baseURLMiddleware)
}

// setupAPI creates the huma API on top of the chi router.
func (s *Server) setupAPI() {
	humaConfig := huma.DefaultConfig("Boatyard API", "1.0.0")
	humaConfig.Info.Description = "Boats, loads and the assignments between them."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	// Bodies carry the resource fields only, without a $schema link.
	humaConfig.CreateHooks = nil
	humaConfig.Transformers = nil

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(s.logger)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerBoatRoutes()
	s.registerLoadRoutes()
	s.registerRelationshipRoutes()
	s.registerUserRoutes()
	s.registerWebRoutes()

	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, allowedMethods, msgMethodNotAllowed, s.logger)
	})
	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, msgRouteNotFound, s.logger)
	})
}
