package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// ArchiveRunner moves aged odds history and opportunities to cold storage
// on a fixed schedule.
type ArchiveRunner struct {
	archiver  domain.Archiver
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewArchiveRunner creates a new ArchiveRunner. Rows older than retention
// are archived on every pass.
func NewArchiveRunner(archiver domain.Archiver, retention, interval time.Duration, logger *slog.Logger) *ArchiveRunner {
	return &ArchiveRunner{
		archiver:  archiver,
		retention: retention,
		interval:  interval,
		logger:    logger.With(slog.String("component", "archiver")),
	}
}

// Run executes a single archive pass.
func (a *ArchiveRunner) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-a.retention)
	a.logger.Info("starting archive pass", slog.Time("cutoff", cutoff))

	histArchived, err := a.archiver.ArchiveOddsHistory(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving odds history before %v: %w", cutoff, err)
	}

	oppsArchived, err := a.archiver.ArchiveOpportunities(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving opportunities before %v: %w", cutoff, err)
	}

	a.logger.Info("archive pass complete",
		slog.Int64("odds_history_archived", histArchived),
		slog.Int64("opportunities_archived", oppsArchived),
	)
	return nil
}

// RunLoop runs the archiver on a repeating interval until the context is
// cancelled.
func (a *ArchiveRunner) RunLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("archiver loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.Run(ctx); err != nil {
				a.logger.Error("archive pass failed", slog.String("error", err.Error()))
			}
		}
	}
}
