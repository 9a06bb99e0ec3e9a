package api

import (
    "context"
    "fmt"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/go-chi/cors"
    "github.com/rs/zerolog/log"

    "github.com/bilemo/catalog-server/internal/access"
    "github.com/bilemo/catalog-server/internal/auth"
    "github.com/bilemo/catalog-server/internal/cache"
    "github.com/bilemo/catalog-server/internal/config"
    "github.com/bilemo/catalog-server/internal/events"
    "github.com/bilemo/catalog-server/internal/metrics"
    "github.com/bilemo/catalog-server/internal/pagination"
    "github.com/bilemo/catalog-server/internal/storage"
    "github.com/bilemo/catalog-server/internal/validation"
    "github.com/bilemo/catalog-server/internal/view"
)

// Deps are the collaborators of the server. Only Store is required.
type Deps struct {
    Store storage.Store
    // Tenants serves tenant lookups of the auth path, usually a Redis cache
    // in front of Store.
    Tenants   cache.TenantSource
    Publisher events.Publisher
    Metrics   *metrics.Metrics
}

// RESTServer represents the REST API server
type RESTServer struct {
    config    *config.Config
    store     storage.Store
    tenants   cache.TenantSource
    events    events.Publisher
    metrics   *metrics.Metrics
    auth      *auth.JWTManager
    validator *validation.Validator
    policy    *access.Engine
    projector *view.Projector
    router    chi.Router
    server    *http.Server

    userPaging    pagination.Defaults
    productPaging pagination.Defaults
}

// NewRESTServer creates a new REST API server
func NewRESTServer(cfg *config.Config, deps Deps) (*RESTServer, error) {
    if deps.Store == nil {
        return nil, fmt.Errorf("rest server: store is required")
    }
    userPaging, err := cfg.UserPagination()
    if err != nil {
        return nil, fmt.Errorf("user pagination: %w", err)
    }
    productPaging, err := cfg.ProductPagination()
    if err != nil {
        return nil, fmt.Errorf("product pagination: %w", err)
    }

    s := &RESTServer{
        config:        cfg,
        store:         deps.Store,
        tenants:       deps.Tenants,
        events:        deps.Publisher,
        metrics:       deps.Metrics,
        auth:          auth.NewJWTManager(&cfg.JWT),
        validator:     validation.NewValidator(),
        projector:     view.NewProjector(view.NewCatalog(cfg.API.BaseURL)),
        router:        chi.NewRouter(),
        userPaging:    userPaging,
        productPaging: productPaging,
    }
    if s.tenants == nil {
        s.tenants = deps.Store
    }
    if s.events == nil {
        s.events = events.NopPublisher{}
    }

    var opts []access.Option
    if s.metrics != nil {
        opts = append(opts, access.WithObserver(s.metrics.ObserveDecision))
    }
    s.policy = access.NewEngine(opts...)

    s.setupRoutes()

    s.server = &http.Server{
        Handler:      s.router,
        ReadTimeout:  15 * time.Second,
        WriteTimeout: cfg.API.RequestTimeout + 5*time.Second,
        IdleTimeout:  60 * time.Second,
    }

    return s, nil
}

// setupRoutes configures all routes
func (s *RESTServer) setupRoutes() {
    // Middleware
    s.router.Use(middleware.RequestID)
    s.router.Use(middleware.RealIP)
    s.router.Use(requestLogger)
    s.router.Use(middleware.Recoverer)
    if s.metrics != nil {
        s.router.Use(s.metrics.Middleware)
    }
    s.router.Use(middleware.Timeout(s.config.API.RequestTimeout))

    // CORS
    s.router.Use(cors.Handler(cors.Options{
        AllowedOrigins:   s.config.API.CORSOrigins,
        AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
        AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
        ExposedHeaders:   []string{"Location"},
        AllowCredentials: false,
        MaxAge:           300,
    }))

    s.router.Get("/health", s.HandleHealth)
    if s.metrics != nil {
        s.router.Handle("/metrics", s.metrics.Handler())
    }

    // API routes
    s.router.Route("/api", func(r chi.Router) {
        s.setupAPIRoutes(r)
    })
}

// Handler returns the root handler
func (s *RESTServer) Handler() http.Handler {
    return s.router
}

// ListenAndServe starts the server
func (s *RESTServer) ListenAndServe(addr string) error {
    s.server.Addr = addr
    log.Info().Str("addr", addr).Msg("Starting REST API server")
    if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        return err
    }
    return nil
}

// Shutdown gracefully shuts down the server
func (s *RESTServer) Shutdown(ctx context.Context) error {
    return s.server.Shutdown(ctx)
}
