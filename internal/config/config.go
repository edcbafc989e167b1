// Package config defines the top-level configuration for the skewd daemon
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SKEWD_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Binance    BinanceConfig    `toml:"binance"`
	Feeds      FeedsConfig      `toml:"feeds"`
	Scoring    ScoringConfig    `toml:"scoring"`
	Ledger     LedgerConfig     `toml:"ledger"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	News       NewsConfig       `toml:"news"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints and polling parameters.
type PolymarketConfig struct {
	GammaHost    string   `toml:"gamma_host"`
	WsHost       string   `toml:"ws_host"`
	EventLimit   int      `toml:"event_limit"`
	PollInterval duration `toml:"poll_interval"`
}

// BinanceConfig holds the spot price stream parameters.
type BinanceConfig struct {
	WsHost  string   `toml:"ws_host"`
	Symbols []string `toml:"symbols"`
}

// FeedsConfig holds the tuning knobs shared by both stream connectors.
// Zero values fall back to the per-feed defaults.
type FeedsConfig struct {
	MaxReconnectAttempts int `toml:"max_reconnect_attempts"`
	MaxKeys              int `toml:"max_keys"`
}

// ScoringConfig holds the scoring cutoffs.
type ScoringConfig struct {
	MultiDeviationMax  float64 `toml:"multi_deviation_max"`
	EdgeThreshold      float64 `toml:"edge_threshold"`
	MinConfidence      int     `toml:"min_confidence"`
	VerifiedConfidence int     `toml:"verified_confidence"`
}

// LedgerConfig selects where the alpha ledger persists.
type LedgerConfig struct {
	// Backend is "file" or "postgres".
	Backend  string `toml:"backend"`
	FilePath string `toml:"file_path"`
}

// PostgresConfig holds PostgreSQL connection parameters.
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

// RedisConfig holds Redis connection parameters for the price mirror.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for ledger archives.
type S3Config struct {
	Enabled         bool     `toml:"enabled"`
	Endpoint        string   `toml:"endpoint"`
	Region          string   `toml:"region"`
	Bucket          string   `toml:"bucket"`
	AccessKey       string   `toml:"access_key"`
	SecretKey       string   `toml:"secret_key"`
	UseSSL          bool     `toml:"use_ssl"`
	ForcePathStyle  bool     `toml:"force_path_style"`
	Prefix          string   `toml:"prefix"`
	ArchiveInterval duration `toml:"archive_interval"`
}

// NewsConfig holds the headline feed parameters.
type NewsConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
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
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:    "https://gamma-api.polymarket.com",
			WsHost:       "wss://ws-subscriptions-clob.polymarket.com",
			EventLimit:   200,
			PollInterval: duration{time.Minute},
		},
		Binance: BinanceConfig{
			WsHost:  "wss://stream.binance.com:9443",
			Symbols: []string{"BTC", "ETH", "SOL"},
		},
		Feeds: FeedsConfig{
			MaxReconnectAttempts: 10,
			MaxKeys:              500,
		},
		Scoring: ScoringConfig{
			MultiDeviationMax:  15,
			EdgeThreshold:      0.5,
			MinConfidence:      50,
			VerifiedConfidence: 80,
		},
		Ledger: LedgerConfig{
			Backend:  "file",
			FilePath: "alpha_ledger.json",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "skewd",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:         false,
			Endpoint:        "http://localhost:9000",
			Region:          "us-east-1",
			Bucket:          "skewd-archive",
			ForcePathStyle:  true,
			Prefix:          "alpha",
			ArchiveInterval: duration{time.Hour},
		},
		News: NewsConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"edge_detected", "lag_signal", "feed_down"},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLedgerBackends enumerates the accepted values for Ledger.Backend.
var validLedgerBackends = map[string]bool{
	"file":     true,
	"postgres": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.WsHost == "" {
		errs = append(errs, "polymarket: ws_host must not be empty")
	}
	if c.Polymarket.EventLimit < 1 {
		errs = append(errs, "polymarket: event_limit must be >= 1")
	}
	if c.Polymarket.PollInterval.Duration <= 0 {
		errs = append(errs, "polymarket: poll_interval must be positive")
	}

	if c.Binance.WsHost == "" {
		errs = append(errs, "binance: ws_host must not be empty")
	}
	if len(c.Binance.Symbols) == 0 {
		errs = append(errs, "binance: at least one symbol is required")
	}

	if c.Feeds.MaxReconnectAttempts < 1 {
		errs = append(errs, "feeds: max_reconnect_attempts must be >= 1")
	}
	if c.Feeds.MaxKeys < 1 {
		errs = append(errs, "feeds: max_keys must be >= 1")
	}

	if c.Scoring.MinConfidence < 0 || c.Scoring.MinConfidence > 100 {
		errs = append(errs, fmt.Sprintf("scoring: min_confidence must be 0-100, got %d", c.Scoring.MinConfidence))
	}
	if c.Scoring.VerifiedConfidence < c.Scoring.MinConfidence {
		errs = append(errs, "scoring: verified_confidence must not be below min_confidence")
	}
	if c.Scoring.EdgeThreshold < 0 {
		errs = append(errs, "scoring: edge_threshold must be >= 0")
	}

	backend := strings.ToLower(c.Ledger.Backend)
	if !validLedgerBackends[backend] {
		errs = append(errs, fmt.Sprintf("ledger: unknown backend %q (valid: file, postgres)", c.Ledger.Backend))
	}
	if backend == "file" && strings.TrimSpace(c.Ledger.FilePath) == "" {
		errs = append(errs, "ledger: file_path must not be empty for the file backend")
	}
	if backend == "postgres" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
		if c.S3.ArchiveInterval.Duration <= 0 {
			errs = append(errs, "s3: archive_interval must be positive")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Notify: token and chat id must be set together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
