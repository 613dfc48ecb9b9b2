package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"phalanx/internal/api/handlers"
	apimiddleware "phalanx/internal/api/middleware"
	"phalanx/internal/config"
	"phalanx/internal/infrastructure/cache"
	"phalanx/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, h *handlers.Handlers, c *cache.RedisCache, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Rate limiting
	if r.config.RateLimit.Enabled && r.cache != nil {
		router.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit))
	}

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
	})

	// API v1 routes (authenticated)
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKeys))

		// Message analysis
		api.Route("/messages", func(msgs chi.Router) {
			msgs.Post("/analyze", r.handlers.Messages.Analyze)
			msgs.Get("/verdicts", r.handlers.Messages.ListVerdicts)
			msgs.Get("/{id}/verdict", r.handlers.Messages.GetVerdict)
		})

		// Standalone URL inspection
		api.Route("/url", func(url chi.Router) {
			url.Post("/check", r.handlers.URL.Check)
			url.Post("/preview", r.handlers.URL.Preview)
		})

		// Allow/block rules
		api.Route("/rules", func(rules chi.Router) {
			rules.Get("/", r.handlers.Rules.List)
			rules.Post("/", r.handlers.Rules.Create)
			rules.Get("/{id}", r.handlers.Rules.Get)
			rules.Delete("/{id}", r.handlers.Rules.Delete)
		})

		// Sender packs
		api.Route("/packs", func(packs chi.Router) {
			packs.Get("/", r.handlers.Packs.Status)
			packs.Post("/", r.handlers.Packs.Load)
		})
	})

	return router
}
