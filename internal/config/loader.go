package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ODDSARB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ODDSARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "ODDSARB_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "ODDSARB_DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "ODDSARB_DATABASE_HOST")
	setInt(&cfg.Database.Port, "ODDSARB_DATABASE_PORT")
	setStr(&cfg.Database.Database, "ODDSARB_DATABASE_NAME")
	setStr(&cfg.Database.User, "ODDSARB_DATABASE_USER")
	setStr(&cfg.Database.Password, "ODDSARB_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "ODDSARB_DATABASE_SSLMODE")
	setStr(&cfg.Database.SSLMode, "ODDSARB_DATABASE_SSL_MODE") // compatibility alias
	setInt(&cfg.Database.PoolMaxConns, "ODDSARB_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "ODDSARB_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "ODDSARB_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ODDSARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ODDSARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ODDSARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ODDSARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ODDSARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ODDSARB_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ODDSARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ODDSARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "ODDSARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ODDSARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ODDSARB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ODDSARB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ODDSARB_S3_FORCE_PATH_STYLE")

	// ── Resolver ──
	setDuration(&cfg.Resolver.StartTolerance, "ODDSARB_RESOLVER_START_TOLERANCE")

	// ── Collect ──
	setBool(&cfg.Collect.Enabled, "ODDSARB_COLLECT_ENABLED")
	setDuration(&cfg.Collect.Interval, "ODDSARB_COLLECT_INTERVAL")

	// ── Scan ──
	setBool(&cfg.Scan.Enabled, "ODDSARB_SCAN_ENABLED")
	setStringSlice(&cfg.Scan.Sports, "ODDSARB_SCAN_SPORTS")
	setStringSlice(&cfg.Scan.Markets, "ODDSARB_SCAN_MARKETS")
	setDuration(&cfg.Scan.Interval, "ODDSARB_SCAN_INTERVAL")
	setDuration(&cfg.Scan.Window, "ODDSARB_SCAN_WINDOW")
	setFloat64(&cfg.Scan.TotalStake, "ODDSARB_SCAN_TOTAL_STAKE")
	setFloat64(&cfg.Scan.MinProfitPct, "ODDSARB_SCAN_MIN_PROFIT_PCT")
	setFloat64(&cfg.Scan.MinProfitAbs, "ODDSARB_SCAN_MIN_PROFIT_ABS")
	setBool(&cfg.Scan.UseLock, "ODDSARB_SCAN_USE_LOCK")
	setDuration(&cfg.Scan.LockTTL, "ODDSARB_SCAN_LOCK_TTL")
	setDuration(&cfg.Scan.AlertTTL, "ODDSARB_SCAN_ALERT_TTL")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "ODDSARB_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Retention, "ODDSARB_ARCHIVE_RETENTION")
	setDuration(&cfg.Archive.Interval, "ODDSARB_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ODDSARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ODDSARB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ODDSARB_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ODDSARB_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "ODDSARB_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "ODDSARB_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ODDSARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ODDSARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ODDSARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ODDSARB_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ODDSARB_MODE")
	setStr(&cfg.LogLevel, "ODDSARB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
