package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estateleads_backend/internal/agents"
	"estateleads_backend/internal/campaigns"
	"estateleads_backend/internal/distribution"
	"estateleads_backend/internal/events"
	apphttp "estateleads_backend/internal/http"
	"estateleads_backend/internal/http/router"
	"estateleads_backend/internal/leads"
	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/internal/notification"
	"estateleads_backend/internal/reports"
	"estateleads_backend/platform/config"
	"estateleads_backend/platform/db"
	"estateleads_backend/platform/logger"
	"estateleads_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	agentRepo := agents.New(pool)
	campaignDirectory := initCampaignDirectory(ctx, cfg, pool, log)
	notifier := notification.New(cfg, log)

	leadsModule, err := leads.NewModule(pool, campaignDirectory, agentRepo, agentRepo, notifier, eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}
	leadsModule.RegisterHandlers(eventBus)

	distributionModule := distribution.NewModule(
		leadsModule.Repository(),
		leadsModule.Policy(),
		leadsModule.Lifecycle(),
		leadsModule.Engine(),
		campaignDirectory,
		cfg,
		log,
	)

	reportsModule := reports.NewModule(pool, initReportStore(ctx, cfg, log), log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			distributionModule,
			reportsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initCampaignDirectory layers the Redis cache over the pgx directory when
// Redis is configured; without it, lookups go straight to the database.
func initCampaignDirectory(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) ports.CampaignDirectory {
	repo := campaigns.New(pool)

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; campaign cache disabled")
		return repo
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Warn("invalid REDIS_URL; campaign cache disabled", "error", err)
		return repo
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable; campaign cache disabled", "error", err)
		return repo
	}

	return campaigns.NewCachedDirectory(repo, rdb, cfg.GetCampaignCacheTTL(), log)
}

// initReportStore sets up MinIO-backed report storage when configured.
func initReportStore(ctx context.Context, cfg *config.Config, log *logger.Logger) reports.Uploader {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MinIO not configured; XLSX reports served inline only")
		return nil
	}

	store, err := reports.NewMinIOStore(cfg)
	if err != nil {
		log.Error("failed to initialize report storage", "error", err)
		panic("failed to initialize report storage: " + err.Error())
	}

	if err := withRetry(ctx, log, "ensure reports bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure reports bucket exists", "error", err, "bucket", cfg.GetMinioBucketReports())
		panic("failed to ensure reports bucket exists: " + err.Error())
	}

	return store
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
