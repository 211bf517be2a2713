package collect

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/oddsarb/internal/ingest"
)

// Runner polls every configured fetcher on a fixed interval and pushes the
// results through the ingestor. Feeds run concurrently; one broken feed
// never stalls the others.
type Runner struct {
	fetchers []Fetcher
	ingestor *ingest.Ingestor
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner creates a Runner over the given fetchers.
func NewRunner(fetchers []Fetcher, ingestor *ingest.Ingestor, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		fetchers: fetchers,
		ingestor: ingestor,
		interval: interval,
		logger:   logger.With(slog.String("component", "collector")),
	}
}

// Run executes a single collection pass: every fetcher is polled once and
// its records ingested. Fetch failures are logged per feed, not returned;
// a pass only fails when the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, f := range r.fetchers {
		g.Go(func() error {
			records, err := f.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Warn("feed fetch failed",
					slog.String("feed", f.Name()),
					slog.String("error", err.Error()))
				return nil
			}

			ok := r.ingestor.IngestBatch(ctx, records)
			r.logger.Info("feed collected",
				slog.String("feed", f.Name()),
				slog.Int("records", len(records)),
				slog.Int("ingested", ok))
			return nil
		})
	}

	return g.Wait()
}

// RunLoop runs the collector on a repeating interval until the context is
// cancelled.
func (r *Runner) RunLoop(ctx context.Context) error {
	// Run immediately on start.
	if err := r.Run(ctx); err != nil {
		r.logger.Error("collection pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("collector loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Run(ctx); err != nil {
				r.logger.Error("collection pass failed", slog.String("error", err.Error()))
			}
		}
	}
}
