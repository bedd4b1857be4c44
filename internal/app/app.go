// Package app provides the top-level application lifecycle for the
// marketplace daemon. It wires together the store, engine, event bus, object
// storage, and HTTP surface, and starts the goroutines for the configured
// operating mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nftbay/marketd/internal/config"
	"github.com/nftbay/marketd/internal/server"
	"github.com/nftbay/marketd/internal/server/handler"
	"github.com/nftbay/marketd/internal/server/middleware"
	"github.com/nftbay/marketd/internal/server/ws"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
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

// Run is the main entry point. It wires all dependencies, starts the
// goroutines for the configured mode, and blocks until the context is
// cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch strings.ToLower(a.cfg.Mode) {
	case "serve", "standalone":
		return a.serve(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// serve runs the HTTP API plus, when wired, the WebSocket hub and the event
// archiver. It returns once the context is cancelled and the server has
// drained.
func (a *App) serve(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(deps.Engine.Custodian(), a.logger),
		Listings: handler.NewListingHandler(deps.Engine, a.logger),
		Auctions: handler.NewAuctionHandler(deps.Engine, a.logger),
		Admin:    handler.NewAdminHandler(deps.Engine, a.logger),
		Query:    handler.NewQueryHandler(deps.Store, a.logger),
	}
	if deps.ArchiveReader != nil {
		handlers.Archives = handler.NewArchiveHandler(deps.ArchiveReader, a.logger)
	}

	var hub *ws.Hub
	if deps.EventBus != nil {
		hub = ws.NewHub(deps.EventBus, a.logger)
		g.Go(func() error {
			if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	if deps.Archiver != nil {
		g.Go(func() error {
			if err := deps.Archiver.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	var limiter middleware.Limiter
	if deps.RateLimiter != nil {
		limiter = deps.RateLimiter
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimitPerSec: a.cfg.Server.RateLimitPerSec,
	}, handlers, hub, limiter, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
