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
// built-in defaults, applies SKEWD_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. An empty path skips the
// file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SKEWD_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "SKEWD_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "SKEWD_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.EventLimit, "SKEWD_POLYMARKET_EVENT_LIMIT")
	setDuration(&cfg.Polymarket.PollInterval, "SKEWD_POLYMARKET_POLL_INTERVAL")

	// ── Binance ──
	setStr(&cfg.Binance.WsHost, "SKEWD_BINANCE_WS_HOST")
	setStringSlice(&cfg.Binance.Symbols, "SKEWD_BINANCE_SYMBOLS")

	// ── Feeds ──
	setInt(&cfg.Feeds.MaxReconnectAttempts, "SKEWD_FEEDS_MAX_RECONNECT_ATTEMPTS")
	setInt(&cfg.Feeds.MaxKeys, "SKEWD_FEEDS_MAX_KEYS")

	// ── Scoring ──
	setFloat64(&cfg.Scoring.MultiDeviationMax, "SKEWD_SCORING_MULTI_DEVIATION_MAX")
	setFloat64(&cfg.Scoring.EdgeThreshold, "SKEWD_SCORING_EDGE_THRESHOLD")
	setInt(&cfg.Scoring.MinConfidence, "SKEWD_SCORING_MIN_CONFIDENCE")
	setInt(&cfg.Scoring.VerifiedConfidence, "SKEWD_SCORING_VERIFIED_CONFIDENCE")

	// ── Ledger ──
	setStr(&cfg.Ledger.Backend, "SKEWD_LEDGER_BACKEND")
	setStr(&cfg.Ledger.FilePath, "SKEWD_LEDGER_FILE_PATH")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SKEWD_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SKEWD_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SKEWD_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SKEWD_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SKEWD_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SKEWD_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SKEWD_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SKEWD_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SKEWD_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SKEWD_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SKEWD_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SKEWD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SKEWD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SKEWD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SKEWD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SKEWD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SKEWD_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SKEWD_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SKEWD_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SKEWD_S3_REGION")
	setStr(&cfg.S3.Bucket, "SKEWD_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SKEWD_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SKEWD_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SKEWD_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SKEWD_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.Prefix, "SKEWD_S3_PREFIX")
	setDuration(&cfg.S3.ArchiveInterval, "SKEWD_S3_ARCHIVE_INTERVAL")

	// ── News ──
	setBool(&cfg.News.Enabled, "SKEWD_NEWS_ENABLED")
	setStr(&cfg.News.BaseURL, "SKEWD_NEWS_BASE_URL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SKEWD_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SKEWD_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SKEWD_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SKEWD_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SKEWD_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SKEWD_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SKEWD_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SKEWD_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "SKEWD_LOG_LEVEL")
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
