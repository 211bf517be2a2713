package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/oddsarb/internal/arb"
	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// opportunitiesChannel is the bus channel new opportunities are published on.
const opportunitiesChannel = "opportunities"

// scanLockKey guards against overlapping scans across replicas. Missing the
// lock only skips work; the opportunity store's uniqueness keeps results
// correct either way.
const scanLockKey = "oddsarb:scan"

// Notifier delivers a freshly detected opportunity to an alert channel.
type Notifier interface {
	NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error
}

// Config controls the scan driver.
type Config struct {
	Sports   []string
	Markets  []string // empty means all markets
	Window   time.Duration
	Interval time.Duration
	LockTTL  time.Duration
	AlertTTL time.Duration
}

// Scanner reads the upcoming odds window, runs detection, persists new
// opportunities and forwards only the newly inserted ones.
type Scanner struct {
	cfg      Config
	odds     domain.OddsStore
	opps     domain.OpportunityStore
	engine   *arb.Engine
	locks    domain.LockManager // optional
	bus      domain.SignalBus   // optional
	alerts   domain.AlertCache  // optional
	notifier Notifier           // optional
	logger   *slog.Logger
}

func NewScanner(
	cfg Config,
	odds domain.OddsStore,
	opps domain.OpportunityStore,
	engine *arb.Engine,
	locks domain.LockManager,
	bus domain.SignalBus,
	alerts domain.AlertCache,
	notifier Notifier,
	logger *slog.Logger,
) *Scanner {
	return &Scanner{
		cfg:      cfg,
		odds:     odds,
		opps:     opps,
		engine:   engine,
		locks:    locks,
		bus:      bus,
		alerts:   alerts,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "scanner")),
	}
}

// Run executes a single scan pass over every configured sport.
func (s *Scanner) Run(ctx context.Context) error {
	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, scanLockKey, s.cfg.LockTTL)
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			s.logger.Debug("scan lock held elsewhere, skipping pass")
			return nil
		case err != nil:
			// The lock is an optimization; scan anyway.
			s.logger.Warn("acquiring scan lock", slog.String("error", err.Error()))
		default:
			defer unlock()
		}
	}

	now := time.Now().UTC()
	from, to := now, now.Add(s.cfg.Window)

	totalNew := 0
	for _, sport := range s.cfg.Sports {
		rows, err := s.odds.ReadWindow(ctx, sport, from, to, s.cfg.Markets)
		if err != nil {
			return fmt.Errorf("scan: reading odds window for %s: %w", sport, err)
		}

		groups := arb.Aggregate(rows)
		opps := s.engine.Detect(groups, now)

		for _, opp := range opps {
			inserted, err := s.opps.InsertIfNew(ctx, opp)
			if err != nil {
				// Fail closed: an unpersisted opportunity is never forwarded.
				s.logger.Warn("persisting opportunity",
					slog.String("event", opp.EventFingerprint),
					slog.String("market", opp.MarketLabel),
					slog.String("error", err.Error()))
				continue
			}
			if !inserted {
				continue
			}
			totalNew++
			s.forward(ctx, opp)
		}

		s.logger.Info("scanned sport",
			slog.String("sport", sport),
			slog.Int("window_rows", len(rows)),
			slog.Int("groups", len(groups)),
			slog.Int("detected", len(opps)))
	}

	s.logger.Info("scan pass complete", slog.Int("new_opportunities", totalNew))
	return nil
}

// forward publishes a newly inserted opportunity on the bus and, unless an
// alert for the same leg combination went out recently, notifies.
func (s *Scanner) forward(ctx context.Context, opp domain.Opportunity) {
	payload, err := json.Marshal(opp)
	if err != nil {
		s.logger.Error("encoding opportunity", slog.String("error", err.Error()))
		return
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, opportunitiesChannel, payload); err != nil {
			s.logger.Warn("publishing opportunity", slog.String("error", err.Error()))
		}
	}

	if s.notifier == nil {
		return
	}
	if s.alerts != nil {
		fresh, err := s.alerts.MarkSent(ctx, opp.LegsHash, s.cfg.AlertTTL)
		if err != nil {
			s.logger.Warn("checking alert cache", slog.String("error", err.Error()))
		} else if !fresh {
			s.logger.Debug("alert suppressed, recently sent",
				slog.String("legs_hash", opp.LegsHash))
			return
		}
	}
	if err := s.notifier.NotifyOpportunity(ctx, opp); err != nil {
		s.logger.Warn("sending alert", slog.String("error", err.Error()))
	}
}

// RunLoop runs the scanner on a repeating interval until the context is
// cancelled.
func (s *Scanner) RunLoop(ctx context.Context) error {
	// Run immediately on start.
	if err := s.Run(ctx); err != nil {
		s.logger.Error("scan pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scanner loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.Error("scan pass failed", slog.String("error", err.Error()))
			}
		}
	}
}
