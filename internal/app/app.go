// Package app provides the top-level lifecycle for the skewd daemon. It
// wires the ledger, feeds, orchestrator, news, notifications, and the API
// server, starts them as a goroutine group, and blocks until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skewmarket/skewd/internal/cexlag"
	"github.com/skewmarket/skewd/internal/config"
	"github.com/skewmarket/skewd/internal/domain"
	"github.com/skewmarket/skewd/internal/feed"
	"github.com/skewmarket/skewd/internal/server/ws"
)

const (
	// lagScanInterval is how often the lag analyzer re-runs against the
	// latest snapshot and spot prices.
	lagScanInterval = 30 * time.Second

	// shutdownTimeout bounds the HTTP server's graceful drain.
	shutdownTimeout = 10 * time.Second
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts every long-running component, and
// blocks until the context is cancelled or a component fails fatally.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting daemon",
		slog.String("log_level", a.cfg.LogLevel),
		slog.String("ledger_backend", a.cfg.Ledger.Backend),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return deps.Hub.Run(ctx) })
	g.Go(func() error { return deps.Orchestrator.Run(ctx) })
	g.Go(func() error { return a.runFeed(ctx, "odds", deps.OddsFeed, deps) })
	g.Go(func() error { return a.runFeed(ctx, "spot", deps.SpotFeed, deps) })
	g.Go(func() error { return a.lagLoop(ctx, deps) })

	if deps.Archiver != nil {
		g.Go(func() error { return deps.Archiver.Run(ctx) })
	}

	if deps.Server != nil {
		g.Go(deps.Server.Start)
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := deps.Server.Shutdown(sctx); err != nil {
				a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
			}
			return ctx.Err()
		})
	}

	return g.Wait()
}

// runFeed keeps one connector running. A feed that exhausts its reconnect
// budget stays down until restart; the rest of the daemon keeps serving the
// last snapshot, so the error is reported but not propagated.
func (a *App) runFeed(ctx context.Context, name string, f *feed.Connector, deps *Dependencies) error {
	err := f.Run(ctx)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, domain.ErrWSDisconnect) {
		a.logger.Error("feed entered terminal error state", slog.String("feed", name))
		deps.Alerts.FeedDown(context.WithoutCancel(ctx), name)
		return nil
	}
	return fmt.Errorf("app: %s feed: %w", name, err)
}

// lagLoop periodically recomputes lag signals, streams them to WebSocket
// clients, and raises alerts for high-confidence ones.
func (a *App) lagLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(lagScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		spot := deps.SpotFeed.Snapshot()
		signals := cexlag.Analyze(deps.Orchestrator.ActiveEvents(), spot.Prices, time.Now())
		if len(signals) == 0 {
			continue
		}

		deps.Hub.Publish(ws.ChannelLag, signals)
		for _, sig := range signals {
			deps.Alerts.LagSignal(ctx, sig)
		}
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down daemon")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
