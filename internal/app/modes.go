package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/oddsarb/internal/arb"
	"github.com/alanyoungcy/oddsarb/internal/collect"
	"github.com/alanyoungcy/oddsarb/internal/ingest"
	"github.com/alanyoungcy/oddsarb/internal/notify"
	"github.com/alanyoungcy/oddsarb/internal/scan"
	"github.com/alanyoungcy/oddsarb/internal/server"
	"github.com/alanyoungcy/oddsarb/internal/server/handler"
	"github.com/alanyoungcy/oddsarb/internal/server/ws"
)

// IngestMode polls the configured odds feeds and writes normalized records to
// the odds store. No detection runs and no API is served.
func (a *App) IngestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting ingest mode")

	g, ctx := errgroup.WithContext(ctx)

	runner, _, err := a.buildCollector(ctx, deps)
	if err != nil {
		return fmt.Errorf("ingest mode: %w", err)
	}
	g.Go(func() error {
		return runner.RunLoop(ctx)
	})

	return g.Wait()
}

// ScanMode runs the detection loop over odds already in the store, plus the
// archive loop when enabled. Feeds are not polled.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	g, ctx := errgroup.WithContext(ctx)

	scanner := a.buildScanner(deps)
	g.Go(func() error {
		return scanner.RunLoop(ctx)
	})

	a.startArchiver(ctx, g, deps)

	return g.Wait()
}

// ServeMode starts only the HTTP + WebSocket API over the existing stores.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	idx, err := ingest.LoadAliasIndex(ctx, deps.AliasStore)
	if err != nil {
		return fmt.Errorf("serve mode: load aliases: %w", err)
	}
	a.startHTTPServer(ctx, g, deps, idx)

	return g.Wait()
}

// FullMode runs the entire pipeline: feed collection, detection, archival,
// and the HTTP + WebSocket API.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	var idx *ingest.AliasIndex
	if a.cfg.Collect.Enabled {
		runner, aliasIdx, err := a.buildCollector(ctx, deps)
		if err != nil {
			return fmt.Errorf("full mode: %w", err)
		}
		idx = aliasIdx
		g.Go(func() error {
			return runner.RunLoop(ctx)
		})
	}
	if idx == nil {
		loaded, err := ingest.LoadAliasIndex(ctx, deps.AliasStore)
		if err != nil {
			return fmt.Errorf("full mode: load aliases: %w", err)
		}
		idx = loaded
	}

	if a.cfg.Scan.Enabled {
		scanner := a.buildScanner(deps)
		g.Go(func() error {
			return scanner.RunLoop(ctx)
		})
	}

	a.startArchiver(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, idx)
	}

	return g.Wait()
}

// buildCollector registers every configured feed as a source, builds the
// matching fetchers, and returns the collection runner together with the
// alias index shared with the resolver.
func (a *App) buildCollector(ctx context.Context, deps *Dependencies) (*collect.Runner, *ingest.AliasIndex, error) {
	idx, err := ingest.LoadAliasIndex(ctx, deps.AliasStore)
	if err != nil {
		return nil, nil, fmt.Errorf("load aliases: %w", err)
	}

	resolver := ingest.NewResolver(deps.EventStore, idx, ingest.ResolverConfig{
		StartTolerance: a.cfg.Resolver.StartTolerance.Duration,
	}, a.logger)
	ingestor := ingest.NewIngestor(resolver, deps.OddsStore, a.logger)

	fetchers := make([]collect.Fetcher, 0, len(a.cfg.Collect.Feeds))
	for _, feed := range a.cfg.Collect.Feeds {
		src, err := deps.SourceStore.Register(ctx, feed.Name, feed.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("register source %q: %w", feed.Name, err)
		}

		var f collect.Fetcher
		if feed.URL != "" {
			f = collect.NewHTTPFetcher(feed.Name, feed.URL)
		} else {
			f = collect.NewFileFetcher(feed.Name, feed.Path)
		}
		fetchers = append(fetchers, collect.WithSource(f, src.ID))
	}

	runner := collect.NewRunner(fetchers, ingestor, a.cfg.Collect.Interval.Duration, a.logger)
	return runner, idx, nil
}

// buildScanner assembles the detection engine and its driver from config.
func (a *App) buildScanner(deps *Dependencies) *scan.Scanner {
	engine := arb.NewEngine(arb.EngineConfig{
		TotalStake:   a.cfg.Scan.TotalStake,
		MinProfitPct: a.cfg.Scan.MinProfitPct,
		MinProfitAbs: a.cfg.Scan.MinProfitAbs,
	}, a.logger)

	locks := deps.LockManager
	if !a.cfg.Scan.UseLock {
		locks = nil
	}

	var notifier scan.Notifier
	if deps.Notifier != nil {
		notifier = notify.NewAlertNotifier(deps.Notifier)
	}

	return scan.NewScanner(
		scan.Config{
			Sports:   a.cfg.Scan.Sports,
			Markets:  a.cfg.Scan.Markets,
			Window:   a.cfg.Scan.Window.Duration,
			Interval: a.cfg.Scan.Interval.Duration,
			LockTTL:  a.cfg.Scan.LockTTL.Duration,
			AlertTTL: a.cfg.Scan.AlertTTL.Duration,
		},
		deps.OddsStore,
		deps.OpportunityStore,
		engine,
		locks,
		deps.SignalBus,
		deps.AlertCache,
		notifier,
		a.logger,
	)
}

// startArchiver launches the cold-storage archive loop when enabled and an
// archiver was wired.
func (a *App) startArchiver(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Archive.Enabled || deps.Archiver == nil {
		return
	}
	runner := scan.NewArchiveRunner(
		deps.Archiver,
		a.cfg.Archive.Retention.Duration,
		a.cfg.Archive.Interval.Duration,
		a.logger,
	)
	g.Go(func() error {
		return runner.RunLoop(ctx)
	})
}

// startHTTPServer builds the HTTP handlers, WebSocket hub, and server, and
// launches the serving goroutines plus a context-driven graceful shutdown.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, idx *ingest.AliasIndex) {
	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	var reload func(ctx context.Context) error
	if idx != nil {
		reload = func(ctx context.Context) error {
			return idx.Reload(ctx, deps.AliasStore)
		}
	}

	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(a.logger),
		Opportunities: handler.NewOpportunityHandler(deps.OpportunityStore, a.logger),
		Odds:          handler.NewOddsHandler(deps.OddsStore, a.logger),
		Sources:       handler.NewSourceHandler(deps.SourceStore, a.logger),
		Aliases:       handler.NewAliasHandler(deps.AliasStore, reload, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
}
