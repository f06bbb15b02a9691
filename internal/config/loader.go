package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load builds the configuration: Defaults, then the TOML file at path (if
// path is non-empty), then a .env file in the working directory if present,
// then JOURNAL_* variables. Unknown TOML keys are an error. The result is
// not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides overwrites fields whose JOURNAL_* variable is set, so
// secrets can be injected at deploy time.
func applyEnvOverrides(cfg *Config) {
	// storage
	setStr(&cfg.Storage.Driver, "JOURNAL_STORAGE_DRIVER")
	setStr(&cfg.Storage.SQLite.Path, "JOURNAL_SQLITE_PATH")
	setStr(&cfg.Storage.Postgres.DSN, "JOURNAL_POSTGRES_DSN")
	setStr(&cfg.Storage.Postgres.DSN, "DATABASE_URL")
	setStr(&cfg.Storage.Postgres.Host, "JOURNAL_POSTGRES_HOST")
	setInt(&cfg.Storage.Postgres.Port, "JOURNAL_POSTGRES_PORT")
	setStr(&cfg.Storage.Postgres.Database, "JOURNAL_POSTGRES_DATABASE")
	setStr(&cfg.Storage.Postgres.User, "JOURNAL_POSTGRES_USER")
	setStr(&cfg.Storage.Postgres.Password, "JOURNAL_POSTGRES_PASSWORD")
	setStr(&cfg.Storage.Postgres.SSLMode, "JOURNAL_POSTGRES_SSL_MODE")
	setInt(&cfg.Storage.Postgres.PoolMaxConns, "JOURNAL_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Storage.Postgres.PoolMinConns, "JOURNAL_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Storage.Postgres.RunMigrations, "JOURNAL_POSTGRES_RUN_MIGRATIONS")

	// redis
	setStr(&cfg.Redis.Addr, "JOURNAL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "JOURNAL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "JOURNAL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "JOURNAL_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "JOURNAL_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "JOURNAL_REDIS_KEY_PREFIX")
	setDuration(&cfg.Redis.CacheTTL, "JOURNAL_REDIS_CACHE_TTL")

	// s3
	setStr(&cfg.S3.Endpoint, "JOURNAL_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "JOURNAL_S3_REGION")
	setStr(&cfg.S3.Bucket, "JOURNAL_S3_BUCKET")
	setStr(&cfg.S3.Prefix, "JOURNAL_S3_PREFIX")
	setStr(&cfg.S3.AccessKey, "JOURNAL_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "JOURNAL_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "JOURNAL_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "JOURNAL_S3_FORCE_PATH_STYLE")

	// import
	setStr(&cfg.Import.InboxDir, "JOURNAL_INBOX_DIR")
	setBool(&cfg.Import.ImportExisting, "JOURNAL_IMPORT_EXISTING")
	setDuration(&cfg.Import.Debounce, "JOURNAL_IMPORT_DEBOUNCE")
	setBool(&cfg.Import.ArchiveRaw, "JOURNAL_IMPORT_ARCHIVE_RAW")
	setDuration(&cfg.Import.LockWait, "JOURNAL_IMPORT_LOCK_WAIT")
	setDuration(&cfg.Import.LockTTL, "JOURNAL_IMPORT_LOCK_TTL")

	// server
	setInt(&cfg.Server.Port, "JOURNAL_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "JOURNAL_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "JOURNAL_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "JOURNAL_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "JOURNAL_SERVER_RATE_WINDOW")

	// notify
	setStr(&cfg.Notify.TelegramToken, "JOURNAL_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "JOURNAL_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "JOURNAL_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "JOURNAL_NOTIFY_EVENTS")

	// export
	setStr(&cfg.Export.Cron, "JOURNAL_EXPORT_CRON")
	setInt(&cfg.Export.WindowDays, "JOURNAL_EXPORT_WINDOW_DAYS")

	setBool(&cfg.Tracing.Enabled, "JOURNAL_TRACING_ENABLED")
	setStr(&cfg.LogLevel, "JOURNAL_LOG_LEVEL")
}

// Typed env helpers. Each only touches dst when the variable is non-empty
// and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var cleaned []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}
