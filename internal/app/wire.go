package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	s3blob "github.com/alanyoungcy/optjournal/internal/blob/s3"
	"github.com/alanyoungcy/optjournal/internal/cache/local"
	"github.com/alanyoungcy/optjournal/internal/cache/redis"
	"github.com/alanyoungcy/optjournal/internal/config"
	"github.com/alanyoungcy/optjournal/internal/domain"
	"github.com/alanyoungcy/optjournal/internal/notify"
	"github.com/alanyoungcy/optjournal/internal/server/handler"
	"github.com/alanyoungcy/optjournal/internal/service"
	"github.com/alanyoungcy/optjournal/internal/store/postgres"
	"github.com/alanyoungcy/optjournal/internal/store/sqlite"
	"github.com/alanyoungcy/optjournal/internal/trace"
)

// Dependencies bundles everything the commands need. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	Executions domain.ExecutionStore
	Days       domain.DayStore
	Audit      domain.AuditStore

	// Shared state. Cache is nil without Redis.
	Locks   domain.LockManager
	Limiter domain.RateLimiter
	Bus     domain.SignalBus
	Cache   domain.SummaryCache

	// Object storage. Both are nil when no bucket is configured.
	Blobs    domain.BlobReader
	Archiver domain.Archiver

	Notifier *notify.Notifier

	Journal *service.JournalService
	Imports *service.ImportService

	// Checks feeds /api/health, one probe per backend.
	Checks map[string]handler.Check

	StorageName string
	CacheName   string
}

// Wire constructs the concrete implementations selected by cfg and returns
// them with a cleanup function that releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config, version string, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Checks: make(map[string]handler.Check)}

	// --- Tracing ---
	if err := trace.Init(cfg.Tracing.Enabled, version, os.Stderr); err != nil {
		return nil, nil, fmt.Errorf("wire: tracing: %w", err)
	}
	closers = append(closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(shutdownCtx)
	})

	// --- Storage ---
	switch strings.ToLower(cfg.Storage.Driver) {
	case "postgres":
		pg := cfg.Storage.Postgres
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      pg.DSN,
			Host:     pg.Host,
			Port:     pg.Port,
			Database: pg.Database,
			User:     pg.User,
			Password: pg.Password,
			SSLMode:  pg.SSLMode,
			MaxConns: pg.PoolMaxConns,
			MinConns: pg.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if pg.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Executions = postgres.NewExecutionStore(pool)
		deps.Days = postgres.NewDayStore(pool)
		deps.Audit = postgres.NewAuditStore(pool)
		deps.Checks["postgres"] = pgClient.Ping
		deps.StorageName = "postgres"
	default:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLite.Path)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: sqlite: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })

		deps.Executions = sqlite.NewExecutionStore(db)
		deps.Days = sqlite.NewDayStore(db)
		deps.Audit = sqlite.NewAuditStore(db)
		deps.Checks["sqlite"] = db.Ping
		deps.StorageName = "sqlite"
	}

	// --- Redis, or in-process fallbacks ---
	if cfg.RedisEnabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Locks = redis.NewLockManager(redisClient)
		deps.Limiter = redis.NewRateLimiter(redisClient)
		deps.Bus = redis.NewSignalBus(redisClient)
		deps.Cache = redis.NewSummaryCache(redisClient, cfg.Redis.CacheTTL.Duration)
		deps.Checks["redis"] = redisClient.Ping
		deps.CacheName = "redis"
	} else {
		logger.Info("redis not configured, using in-process locks and bus")
		deps.Locks = local.NewLockManager()
		deps.Limiter = local.NewRateLimiter()
		deps.Bus = local.NewBus()
		deps.CacheName = "local"
	}

	// --- S3 blob storage ---
	if cfg.S3Enabled() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			Prefix:         cfg.S3.Prefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Blobs = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.Days, deps.Audit)
		deps.Checks["s3"] = s3Client.Health
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Services ---
	deps.Journal = service.NewJournalService(
		deps.Executions,
		deps.Days,
		deps.Audit,
		deps.Locks,
		deps.Cache,
		deps.Bus,
		service.JournalConfig{
			LockTTL:  cfg.Import.LockTTL.Duration,
			LockWait: cfg.Import.LockWait.Duration,
		},
		logger,
	)

	var rawArchiver domain.Archiver
	if cfg.Import.ArchiveRaw && deps.Archiver != nil {
		rawArchiver = deps.Archiver
	}
	deps.Imports = service.NewImportService(
		deps.Journal,
		rawArchiver,
		deps.Notifier,
		service.ImportConfig{ArchiveRaw: rawArchiver != nil},
		logger,
	)

	return deps, cleanup, nil
}
