// Package config defines the journal configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/optjournal/internal/pipeline"
)

// Config is the root configuration. Fields come from a TOML file layered
// over Defaults and are then overridden by JOURNAL_* environment variables.
type Config struct {
	Storage  StorageConfig `toml:"storage"`
	Redis    RedisConfig   `toml:"redis"`
	S3       S3Config      `toml:"s3"`
	Import   ImportConfig  `toml:"import"`
	Server   ServerConfig  `toml:"server"`
	Notify   NotifyConfig  `toml:"notify"`
	Export   ExportConfig  `toml:"export"`
	Tracing  TracingConfig `toml:"tracing"`
	LogLevel string        `toml:"log_level"`
}

// StorageConfig selects and configures the primary store.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver   string         `toml:"driver"`
	SQLite   SQLiteConfig   `toml:"sqlite"`
	Postgres PostgresConfig `toml:"postgres"`
}

type SQLiteConfig struct {
	Path string `toml:"path"`
}

// PostgresConfig holds PostgreSQL connection parameters. DSN wins over the
// discrete fields when set.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig is optional: an empty Addr selects in-process locks, rate
// limiting and event bus, and disables the summary cache.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	KeyPrefix  string   `toml:"key_prefix"`
	CacheTTL   duration `toml:"cache_ttl"`
}

// S3Config is optional: an empty Bucket disables archiving, export and
// s3:// import locations.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

type ImportConfig struct {
	InboxDir       string   `toml:"inbox_dir"`
	ImportExisting bool     `toml:"import_existing"`
	Debounce       duration `toml:"debounce"`
	ArchiveRaw     bool     `toml:"archive_raw"`
	LockWait       duration `toml:"lock_wait"`
	LockTTL        duration `toml:"lock_ttl"`
}

type ServerConfig struct {
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// ExportConfig schedules the JSONL export. An empty Cron disables it.
type ExportConfig struct {
	Cron       string `toml:"cron"`
	WindowDays int    `toml:"window_days"`
}

type TracingConfig struct {
	Enabled bool `toml:"enabled"`
}

// duration lets TOML carry Go duration strings such as "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a configuration that runs on a local SQLite file with no
// external services.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "journal.db"},
			Postgres: PostgresConfig{
				Host:          "localhost",
				Port:          5432,
				Database:      "journal",
				User:          "postgres",
				SSLMode:       "disable",
				PoolMaxConns:  10,
				PoolMinConns:  1,
				RunMigrations: true,
			},
		},
		Redis: RedisConfig{
			PoolSize:   10,
			MaxRetries: 3,
			KeyPrefix:  "optjournal:",
			CacheTTL:   duration{10 * time.Minute},
		},
		S3: S3Config{
			Region:         "us-east-1",
			Prefix:         "journal",
			UseSSL:         true,
			ForcePathStyle: true,
		},
		Import: ImportConfig{
			InboxDir:   "inbox",
			Debounce:   duration{2 * time.Second},
			ArchiveRaw: true,
			LockWait:   duration{10 * time.Second},
			LockTTL:    duration{30 * time.Second},
		},
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"import_completed", "import_failed"},
		},
		Export: ExportConfig{
			WindowDays: 30,
		},
		LogLevel: "info",
	}
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool { return strings.TrimSpace(c.Redis.Addr) != "" }

// S3Enabled reports whether object storage is configured.
func (c *Config) S3Enabled() bool { return strings.TrimSpace(c.S3.Bucket) != "" }

var validDrivers = map[string]bool{"sqlite": true, "postgres": true}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	switch driver := strings.ToLower(c.Storage.Driver); {
	case !validDrivers[driver]:
		errs = append(errs, fmt.Sprintf("storage: unknown driver %q (valid: sqlite, postgres)", c.Storage.Driver))
	case driver == "sqlite":
		if strings.TrimSpace(c.Storage.SQLite.Path) == "" {
			errs = append(errs, "storage.sqlite: path must not be empty")
		}
	case driver == "postgres":
		pg := c.Storage.Postgres
		if strings.TrimSpace(pg.DSN) == "" {
			if pg.Host == "" {
				errs = append(errs, "storage.postgres: host must not be empty (or set dsn)")
			}
			if pg.Port <= 0 || pg.Port > 65535 {
				errs = append(errs, fmt.Sprintf("storage.postgres: port must be 1-65535, got %d", pg.Port))
			}
			if pg.Database == "" {
				errs = append(errs, "storage.postgres: database must not be empty")
			}
		}
		if pg.PoolMaxConns < 1 {
			errs = append(errs, "storage.postgres: pool_max_conns must be >= 1")
		}
		if pg.PoolMinConns < 0 || pg.PoolMinConns > pg.PoolMaxConns {
			errs = append(errs, "storage.postgres: pool_min_conns must be between 0 and pool_max_conns")
		}
	}

	if c.RedisEnabled() && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}
	if c.S3Enabled() && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty")
	}

	if c.Import.LockWait.Duration < 0 {
		errs = append(errs, "import: lock_wait must not be negative")
	}
	if c.Import.LockTTL.Duration <= 0 {
		errs = append(errs, "import: lock_ttl must be > 0")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if c.Export.Cron != "" {
		if !c.S3Enabled() {
			errs = append(errs, "export: cron requires s3.bucket")
		}
		if _, err := pipeline.ParseSchedule(c.Export.Cron); err != nil {
			errs = append(errs, "export: "+err.Error())
		}
	}
	if c.Export.WindowDays < 1 {
		errs = append(errs, "export: window_days must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
