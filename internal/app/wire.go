package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skewmarket/skewd/internal/alpha"
	s3blob "github.com/skewmarket/skewd/internal/blob/s3"
	"github.com/skewmarket/skewd/internal/cache/redis"
	"github.com/skewmarket/skewd/internal/config"
	"github.com/skewmarket/skewd/internal/deals"
	"github.com/skewmarket/skewd/internal/domain"
	"github.com/skewmarket/skewd/internal/feed"
	"github.com/skewmarket/skewd/internal/news"
	"github.com/skewmarket/skewd/internal/notify"
	"github.com/skewmarket/skewd/internal/platform/polymarket"
	"github.com/skewmarket/skewd/internal/scoring"
	"github.com/skewmarket/skewd/internal/server"
	"github.com/skewmarket/skewd/internal/server/handler"
	"github.com/skewmarket/skewd/internal/server/ws"
	"github.com/skewmarket/skewd/internal/store/file"
	"github.com/skewmarket/skewd/internal/store/postgres"
)

// Dependencies bundles every component the daemon runs. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Ledger       *alpha.Ledger
	OddsFeed     *feed.Connector
	SpotFeed     *feed.Connector
	Orchestrator *deals.Orchestrator
	News         *news.Service
	Hub          *ws.Hub
	Server       *server.Server
	Archiver     *s3blob.Archiver
	Alerts       *notify.Alerts
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}
	startedAt := time.Now().UTC()

	// --- Ledger persistence ---
	var store domain.AlphaStore
	switch strings.ToLower(cfg.Ledger.Backend) {
	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		store = postgres.NewAlphaStore(pgClient.Pool())
	default:
		store = file.NewAlphaStore(cfg.Ledger.FilePath)
	}

	deps.Ledger = alpha.New(store, logger)
	if err := deps.Ledger.Load(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: ledger load: %w", err)
	}

	// --- Feeds ---
	oddsCfg := feed.DefaultOddsConfig()
	spotCfg := feed.DefaultSpotConfig()
	if cfg.Feeds.MaxReconnectAttempts > 0 {
		oddsCfg.MaxReconnectAttempts = cfg.Feeds.MaxReconnectAttempts
		spotCfg.MaxReconnectAttempts = cfg.Feeds.MaxReconnectAttempts
	}
	if cfg.Feeds.MaxKeys > 0 {
		oddsCfg.MaxKeys = cfg.Feeds.MaxKeys
	}

	oddsURL := strings.TrimSuffix(cfg.Polymarket.WsHost, "/") + "/ws/market"
	deps.OddsFeed = feed.New(feed.NewOddsAdapter(oddsURL), oddsCfg, logger)
	deps.SpotFeed = feed.New(feed.NewSpotAdapter(cfg.Binance.WsHost, cfg.Binance.Symbols), spotCfg, logger)

	// --- Redis price mirror (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.OddsFeed.SetMirror(redis.NewPriceCache(redisClient, 0))
	}

	// --- Orchestrator ---
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	params := scoring.Params{
		MultiDeviationMax:  cfg.Scoring.MultiDeviationMax,
		EdgeThreshold:      cfg.Scoring.EdgeThreshold,
		MinConfidence:      cfg.Scoring.MinConfidence,
		VerifiedConfidence: cfg.Scoring.VerifiedConfidence,
	}
	deps.Orchestrator = deals.New(gamma, deps.Ledger, deps.OddsFeed, params, deals.Config{
		PollInterval: cfg.Polymarket.PollInterval.Duration,
		EventLimit:   cfg.Polymarket.EventLimit,
	}, logger)

	// --- News ---
	if cfg.News.Enabled {
		deps.News = news.NewService(cfg.News.BaseURL, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Alerts = notify.NewAlerts(notify.NewNotifier(senders, cfg.Notify.Events, logger))
	deps.Ledger.SetOnTrack(func(entry domain.AlphaEntry) {
		deps.Alerts.EdgeDetected(context.WithoutCancel(ctx), entry)
	})

	// --- WebSocket hub ---
	deps.Hub = ws.NewHub(logger, ws.Config{
		StartedAt: startedAt,
		Status: func() any {
			return map[string]domain.ConnStatus{
				"odds": deps.OddsFeed.Status(),
				"spot": deps.SpotFeed.Status(),
			}
		},
	})
	deps.OddsFeed.SetOnFlush(func(s domain.FeedSnapshot) {
		deps.Hub.Publish(ws.ChannelOdds, feedPayload(s))
	})
	deps.SpotFeed.SetOnFlush(func(s domain.FeedSnapshot) {
		deps.Hub.Publish(ws.ChannelSpot, feedPayload(s))
	})

	// --- S3 ledger archive (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3 bucket check: %w", err)
		}

		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client),
			deps.Ledger,
			cfg.S3.ArchiveInterval.Duration,
			cfg.S3.Prefix,
			logger,
		)
	}

	// --- HTTP server (optional) ---
	if cfg.Server.Enabled {
		handlers := server.Handlers{
			Health: handler.NewHealthHandler(deps.OddsFeed, deps.SpotFeed, deps.Orchestrator, startedAt, logger),
			Deals:  handler.NewDealsHandler(deps.Orchestrator, deps.OddsFeed, logger),
			Lag:    handler.NewLagHandler(deps.Orchestrator, deps.SpotFeed, logger),
			Alpha:  handler.NewAlphaHandler(deps.Ledger, logger),
		}
		if deps.News != nil {
			handlers.News = handler.NewNewsHandler(deps.News, deps.Orchestrator, logger)
		}
		deps.Server = server.NewServer(server.Config{
			Port:        cfg.Server.Port,
			CORSOrigins: cfg.Server.CORSOrigins,
			APIKey:      cfg.Server.APIKey,
		}, handlers, deps.Hub, logger)
	}

	return deps, cleanup, nil
}

// feedPayload shapes a connector flush for WebSocket clients.
func feedPayload(s domain.FeedSnapshot) map[string]any {
	return map[string]any{
		"prices":     s.Prices,
		"directions": s.Directions,
		"status":     s.Status,
	}
}
