package main

import (
    "context"
    "flag"
    "fmt"
    "os"
    "os/signal"
    "sync"
    "syscall"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/bilemo/catalog-server/internal/api"
    "github.com/bilemo/catalog-server/internal/cache"
    "github.com/bilemo/catalog-server/internal/config"
    "github.com/bilemo/catalog-server/internal/events"
    "github.com/bilemo/catalog-server/internal/metrics"
    "github.com/bilemo/catalog-server/internal/storage"
)

func main() {
    // Command line flags
    var (
        configFile string
        validate   bool
    )
    flag.StringVar(&configFile, "config", "config/catalog-server.yml", "Configuration file path")
    flag.BoolVar(&validate, "validate", false, "Validate the configuration and exit")
    flag.Parse()

    // Setup logging
    log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
    zerolog.SetGlobalLevel(zerolog.InfoLevel)

    // Load configuration
    cfg, err := config.Load(configFile)
    if err != nil {
        log.Fatal().Err(err).Msg("Failed to load configuration")
    }
    if validate {
        fmt.Println("configuration ok")
        return
    }

    setupLogging(cfg.Log)

    // Create context
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    store, err := openStore(ctx, cfg.Database)
    if err != nil {
        log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open store")
    }
    defer store.Close()

    deps := api.Deps{
        Store:   store,
        Metrics: metrics.New("catalog"),
    }

    // Optional: Redis tenant cache
    var tenantCache *cache.TenantCache
    if cfg.Redis.Addr != "" {
        client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
        if err != nil {
            log.Warn().Err(err).Msg("Failed to connect to Redis, tenant lookups go to the store")
        } else {
            defer client.Close()
            tenantCache = cache.NewTenantCache(client, store, cfg.Redis.KeyPrefix, cfg.Redis.TenantTTL)
            deps.Tenants = tenantCache
            log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
        }
    }

    // WaitGroup for services
    var wg sync.WaitGroup

    // Optional: NATS events
    if cfg.NATS.URL != "" {
        log.Info().Str("url", cfg.NATS.URL).Msg("Connecting to NATS...")

        nc, err := events.Connect(events.Options{
            URL:               cfg.NATS.URL,
            Name:              cfg.Server.Name,
            Username:          cfg.NATS.Username,
            Password:          cfg.NATS.Password,
            MaxReconnects:     cfg.NATS.MaxReconnects,
            ReconnectInterval: cfg.NATS.ReconnectInterval,
        })
        if err != nil {
            log.Warn().Err(err).Msg("Failed to connect to NATS, continuing without events")
        } else {
            defer nc.Close()
            log.Info().Msg("Connected to NATS")

            deps.Publisher = events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)

            var invalidator events.TenantInvalidator
            if tenantCache != nil {
                invalidator = tenantCache
            }
            subscriber := events.NewSubscriber(nc, cfg.NATS.SubjectPrefix, invalidator)

            wg.Add(1)
            go func() {
                defer wg.Done()
                log.Info().Msg("Starting NATS subscriber")
                if err := subscriber.Start(ctx); err != nil {
                    log.Error().Err(err).Msg("NATS subscriber stopped")
                }
            }()
        }
    } else {
        log.Info().Msg("NATS not configured, events are not published")
    }

    apiServer, err := api.NewRESTServer(cfg, deps)
    if err != nil {
        log.Fatal().Err(err).Msg("Failed to create REST API server")
    }

    // Start API server
    wg.Add(1)
    go func() {
        defer wg.Done()
        if err := apiServer.ListenAndServe(cfg.API.Addr()); err != nil {
            log.Fatal().Err(err).Msg("REST API server failed")
        }
    }()

    // Wait for signal
    sigChan := make(chan os.Signal, 1)
    signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

    sig := <-sigChan
    log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

    // Cancel context
    cancel()

    // Shutdown API server
    shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
    defer stop()
    if err := apiServer.Shutdown(shutdownCtx); err != nil {
        log.Error().Err(err).Msg("Failed to shutdown API server gracefully")
    }

    // Wait for all services
    wg.Wait()

    log.Info().Msg("Catalog server stopped")
}

func setupLogging(cfg config.LogConfig) {
    if cfg.Format == "json" {
        log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
    }

    level, err := zerolog.ParseLevel(cfg.Level)
    if err != nil {
        level = zerolog.InfoLevel
    }
    zerolog.SetGlobalLevel(level)
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
    switch cfg.Driver {
    case config.DriverMemory:
        log.Warn().Msg("Using the in-memory store, data is lost on exit")
        return storage.NewMemoryStore(), nil
    default:
        store, err := storage.NewPostgresStore(ctx, cfg.DSN, storage.PoolConfig{
            MaxOpenConns:    cfg.MaxOpenConns,
            MaxIdleConns:    cfg.MaxIdleConns,
            ConnMaxLifetime: cfg.ConnMaxLifetime,
        })
        if err != nil {
            return nil, err
        }
        log.Info().Msg("Connected to database")
        return store, nil
    }
}
