package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"phalanx/internal/api"
	"phalanx/internal/api/handlers"
	"phalanx/internal/config"
	"phalanx/internal/domain/services"
	"phalanx/internal/infrastructure/cache"
	"phalanx/internal/infrastructure/database"
	"phalanx/internal/infrastructure/database/repository"
	"phalanx/internal/intel"
	"phalanx/internal/streaming"
	"phalanx/pkg/logger"
)

// defaultPackPublicKey verifies sender pack signatures when no key is
// configured. Hex-encoded Ed25519 public key.
const defaultPackPublicKey = "302a65f45f6d8b2c86d1b9e5a7c4e1f09d837a2b54c6e0f1a2b3c4d5e6f70819"

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting Phalanx")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Initialize repositories
	var repos *repository.Repositories
	if db != nil {
		repos = repository.New(db.Pool())
		log.Info().Msg("repositories initialized with database")
	} else {
		log.Warn().Msg("running without database - rules and verdict history unavailable")
	}

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		var err error
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without real-time streaming")
		} else {
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}
	eventBus := streaming.NewEventBus(natsPublisher, log)
	log.Info().Bool("nats_enabled", natsPublisher != nil).Msg("event bus initialized")

	// Public-suffix rules
	suffixes := services.NewDefaultSuffixList()
	if cfg.Analysis.SuffixFile != "" {
		loaded, err := services.LoadSuffixList(cfg.Analysis.SuffixFile)
		if err != nil {
			log.Warn().Err(err).Str("file", cfg.Analysis.SuffixFile).Msg("failed to load suffix rules, using embedded table")
		} else {
			suffixes = loaded
		}
	}

	// Analysis pipeline
	profiler := services.NewDomainProfiler(suffixes, log)
	extractor := services.NewLinkExtractor(suffixes)
	expander := services.NewURLExpander(kvStore(redisCache), cfg.Analysis.ExpanderLRU, log)
	var preview *services.PreviewService
	if cfg.Analysis.PreviewEnabled {
		preview = services.NewPreviewService(log)
	}

	var checkers []services.ReputationChecker
	if cfg.Intel.SafeBrowsing.Enabled {
		checkers = append(checkers, intel.NewSafeBrowsingClient(cfg.Intel.SafeBrowsing.APIKey, log))
	}
	if cfg.Intel.URLhaus.Enabled {
		checkers = append(checkers, intel.NewURLhausClient(log))
	}
	reputation := services.NewReputationAggregator(checkers, kvStore(redisCache), eventBus, log)
	log.Info().Int("checkers", len(checkers)).Msg("reputation aggregator initialized")

	// Sender packs
	packRepo := services.NewSenderPackRepository(packSource(cfg.Packs), packPublicKey(cfg.Packs, log), eventBus, log)
	if cfg.Packs.DefaultRegion != "" {
		if err := packRepo.LoadPack(ctx, cfg.Packs.DefaultRegion); err != nil {
			log.Warn().Err(err).Str("region", cfg.Packs.DefaultRegion).Msg("failed to load default sender pack")
		}
	}

	ruleEngine := services.NewRuleEngine(log)
	engine := services.NewVerdictEngine(profiler, expander, reputation, ruleEngine, packRepo, extractor, eventBus, log)
	log.Info().Msg("verdict engine initialized")

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Config:    *cfg,
		Verdicts:  engine,
		Expander:  expander,
		Profiler:  profiler,
		Preview:   preview,
		Extractor: extractor,
		Packs:     packRepo,
		Cache:     redisCache,
		Repos:     repos,
		Logger:    log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	eventBus.Close()
	log.Info().Msg("shutdown complete")
}

// initInfrastructure connects Postgres and Redis. Both are optional: a failed
// connection logs a warning and the service runs degraded.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	var db *database.PostgresDB
	if cfg.Database.Host != "" {
		var err error
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL unavailable")
			db = nil
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Host != "" {
		var err error
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, persistent cache tiers disabled")
			redisCache = nil
		}
	}

	return db, redisCache, nil
}

// kvStore converts a possibly-nil RedisCache into the expander/aggregator
// far-tier interface without producing a typed nil.
func kvStore(c *cache.RedisCache) services.KVStore {
	if c == nil {
		return nil
	}
	return c
}

func packSource(cfg config.PacksConfig) services.PackSource {
	if cfg.URL != "" {
		return &services.HTTPPackSource{BaseURL: cfg.URL}
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "packs"
	}
	return &services.DirPackSource{Dir: dir}
}

func packPublicKey(cfg config.PacksConfig, log *logger.Logger) ed25519.PublicKey {
	keyHex := cfg.PublicKey
	if keyHex == "" {
		keyHex = defaultPackPublicKey
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != ed25519.PublicKeySize {
		log.Warn().Msg("invalid sender pack public key, falling back to embedded key")
		key, _ = hex.DecodeString(defaultPackPublicKey)
	}
	return ed25519.PublicKey(key)
}
