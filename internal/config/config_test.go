package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
log_level = "debug"

[polymarket]
event_limit = 50
poll_interval = "30s"

[ledger]
backend = "postgres"

[server]
port = 9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	if cfg.Polymarket.EventLimit != 50 {
		t.Errorf("event_limit = %d", cfg.Polymarket.EventLimit)
	}
	if cfg.Polymarket.PollInterval.Duration != 30*time.Second {
		t.Errorf("poll_interval = %v", cfg.Polymarket.PollInterval.Duration)
	}
	if cfg.Ledger.Backend != "postgres" {
		t.Errorf("ledger backend = %q", cfg.Ledger.Backend)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	// Untouched sections keep their defaults.
	if cfg.Binance.WsHost != "wss://stream.binance.com:9443" {
		t.Errorf("binance ws_host = %q", cfg.Binance.WsHost)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("SKEWD_SERVER_PORT", "8081")
	t.Setenv("SKEWD_BINANCE_SYMBOLS", "BTC, ETH")
	t.Setenv("SKEWD_REDIS_ENABLED", "true")
	t.Setenv("SKEWD_POLYMARKET_POLL_INTERVAL", "2m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if len(cfg.Binance.Symbols) != 2 || cfg.Binance.Symbols[1] != "ETH" {
		t.Errorf("symbols = %v", cfg.Binance.Symbols)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis not enabled")
	}
	if cfg.Polymarket.PollInterval.Duration != 2*time.Minute {
		t.Errorf("poll_interval = %v", cfg.Polymarket.PollInterval.Duration)
	}
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Polymarket.GammaHost = ""
	cfg.Ledger.Backend = "sqlite"
	cfg.Server.Port = 0
	cfg.Notify.TelegramToken = "token-without-chat"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("want validation error")
	}
	for _, want := range []string{"log_level", "gamma_host", "backend", "port", "telegram"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestValidatePostgresBackendRequiresConnection(t *testing.T) {
	cfg := Defaults()
	cfg.Ledger.Backend = "postgres"
	cfg.Postgres.Host = ""
	cfg.Postgres.DSN = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "postgres: host") {
		t.Fatalf("err = %v", err)
	}

	cfg.Postgres.DSN = "postgres://u:p@db:5432/skewd"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dsn should satisfy connection check: %v", err)
	}
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "topsecret"
	cfg.Server.APIKey = "apikey"
	cfg.Notify.TelegramToken = "bot:token"

	red := RedactedConfig(&cfg)

	if red.Postgres.Password != "***" || red.S3.SecretKey != "***" ||
		red.Server.APIKey != "***" || red.Notify.TelegramToken != "***" {
		t.Errorf("secrets not redacted: %+v", red)
	}
	// Original untouched.
	if cfg.Postgres.Password != "hunter2" {
		t.Error("original mutated")
	}
	// Copied slices are independent.
	red.Server.CORSOrigins[0] = "mutated"
	if cfg.Server.CORSOrigins[0] == "mutated" {
		t.Error("slice shared with original")
	}
}
