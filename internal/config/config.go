// Package config defines the top-level configuration for the odds arbitrage
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ODDSARB_* environment
// variables.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Resolver ResolverConfig `toml:"resolver"`
	Collect  CollectConfig  `toml:"collect"`
	Scan     ScanConfig     `toml:"scan"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
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

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ResolverConfig holds canonical event resolution parameters.
type ResolverConfig struct {
	// StartTolerance bounds how far two sources' kickoff times may drift
	// and still identify the same match, e.g. "3h".
	StartTolerance duration `toml:"start_tolerance"`
}

// FeedConfig describes one odds feed. Exactly one of URL or Path should be
// set: URL for HTTP feeds, Path for local fixture files.
type FeedConfig struct {
	// Name identifies the feed and the bookmaker it belongs to; the source
	// is registered under this name at startup.
	Name string `toml:"name"`
	URL  string `toml:"url"`
	Path string `toml:"path"`
}

// CollectConfig holds feed polling parameters.
type CollectConfig struct {
	Enabled  bool         `toml:"enabled"`
	Interval duration     `toml:"interval"`
	Feeds    []FeedConfig `toml:"feeds"`
}

// ScanConfig holds detection parameters.
type ScanConfig struct {
	Enabled  bool     `toml:"enabled"`
	Sports   []string `toml:"sports"`
	Markets  []string `toml:"markets"` // empty means all markets
	Interval duration `toml:"interval"`
	// Window is how far ahead of now the scan looks for upcoming events.
	Window duration `toml:"window"`
	// TotalStake is the notional bankroll split across the legs of each
	// reported opportunity.
	TotalStake   float64 `toml:"total_stake"`
	MinProfitPct float64 `toml:"min_profit_pct"`
	MinProfitAbs float64 `toml:"min_profit_abs"`
	// UseLock skips a scan pass when another replica holds the scan lock.
	UseLock  bool     `toml:"use_lock"`
	LockTTL  duration `toml:"lock_ttl"`
	AlertTTL duration `toml:"alert_ttl"`
}

// ArchiveConfig holds cold-storage archival parameters.
type ArchiveConfig struct {
	Enabled   bool     `toml:"enabled"`
	Retention duration `toml:"retention"`
	Interval  duration `toml:"interval"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "oddsarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "oddsarb-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Resolver: ResolverConfig{
			StartTolerance: duration{3 * time.Hour},
		},
		Collect: CollectConfig{
			Enabled:  true,
			Interval: duration{2 * time.Minute},
		},
		Scan: ScanConfig{
			Enabled:      true,
			Sports:       []string{"soccer"},
			Interval:     duration{30 * time.Second},
			Window:       duration{48 * time.Hour},
			TotalStake:   1000,
			MinProfitPct: 0.5,
			MinProfitAbs: 0,
			UseLock:      true,
			LockTTL:      duration{time.Minute},
			AlertTTL:     duration{30 * time.Minute},
		},
		Archive: ArchiveConfig{
			Enabled:   false,
			Retention: duration{90 * 24 * time.Hour},
			Interval:  duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   0,
			RateWindow:  duration{time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"ingest": true,
	"scan":   true,
	"serve":  true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: ingest, scan, serve, full)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Database
	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 — only required when archival is on.
	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.Archive.Retention.Duration <= 0 {
			errs = append(errs, "archive: retention must be > 0")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be > 0")
		}
	}

	// Resolver
	if c.Resolver.StartTolerance.Duration <= 0 {
		errs = append(errs, "resolver: start_tolerance must be > 0")
	}

	// Collect
	needsCollect := c.Collect.Enabled && (c.Mode == "ingest" || c.Mode == "full")
	if needsCollect {
		if c.Collect.Interval.Duration <= 0 {
			errs = append(errs, "collect: interval must be > 0")
		}
		if len(c.Collect.Feeds) == 0 {
			errs = append(errs, "collect: at least one feed is required for mode "+c.Mode)
		}
		for i, f := range c.Collect.Feeds {
			if strings.TrimSpace(f.Name) == "" {
				errs = append(errs, fmt.Sprintf("collect: feed %d: name must not be empty", i))
			}
			if (f.URL == "") == (f.Path == "") {
				errs = append(errs, fmt.Sprintf("collect: feed %q: exactly one of url or path must be set", f.Name))
			}
		}
	}

	// Scan
	needsScan := c.Scan.Enabled && (c.Mode == "scan" || c.Mode == "full")
	if needsScan {
		if len(c.Scan.Sports) == 0 {
			errs = append(errs, "scan: at least one sport is required for mode "+c.Mode)
		}
		if c.Scan.Interval.Duration <= 0 {
			errs = append(errs, "scan: interval must be > 0")
		}
		if c.Scan.Window.Duration <= 0 {
			errs = append(errs, "scan: window must be > 0")
		}
		if c.Scan.TotalStake <= 0 {
			errs = append(errs, "scan: total_stake must be > 0")
		}
		if c.Scan.MinProfitPct < 0 {
			errs = append(errs, "scan: min_profit_pct must be >= 0")
		}
		if c.Scan.UseLock && c.Scan.LockTTL.Duration <= 0 {
			errs = append(errs, "scan: lock_ttl must be > 0 when use_lock is set")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	// Notify — token and chat id travel together.
	tg := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tg != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must both be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
