package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// Ingestor writes validated source records into the store: canonical
// resolution, market upsert, then one latest+history write per outcome.
// It holds no mutable state of its own; all cross-worker coordination
// lives in the storage layer, so a single Ingestor may be shared by any
// number of collector goroutines.
type Ingestor struct {
	resolver *Resolver
	odds     domain.OddsStore
	logger   *slog.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(resolver *Resolver, odds domain.OddsStore, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		resolver: resolver,
		odds:     odds,
		logger:   logger.With(slog.String("component", "ingestor")),
	}
}

// Ingest persists one record. Ingesting the identical record N times
// yields one canonical event, one market, one latest row per outcome, and
// N history rows per outcome.
func (i *Ingestor) Ingest(ctx context.Context, rec domain.SourceRecord) error {
	ev, err := i.resolver.Resolve(ctx, rec)
	if err != nil {
		return err
	}

	marketID, err := i.odds.UpsertMarket(ctx, ev.ID, rec.MarketLabel, rec.Line)
	if err != nil {
		return fmt.Errorf("ingest: upsert market %s %s/%s: %w", ev.ID, rec.MarketLabel, rec.Line, err)
	}

	observedAt := rec.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}
	for outcome, price := range rec.Outcomes {
		if err := i.odds.Record(ctx, marketID, rec.SourceID, outcome, price, observedAt); err != nil {
			return fmt.Errorf("ingest: record odds market=%d source=%d outcome=%s: %w",
				marketID, rec.SourceID, outcome, err)
		}
	}
	return nil
}

// IngestBatch parses and persists a batch of raw records. A malformed or
// conflicting record is logged and skipped; it never aborts the rest of
// the batch. The number of successfully ingested records is returned.
func (i *Ingestor) IngestBatch(ctx context.Context, raws []RawRecord) int {
	observedAt := time.Now().UTC()
	ok := 0
	for _, raw := range raws {
		rec, err := ParseRecord(raw, observedAt)
		if err != nil {
			i.logger.WarnContext(ctx, "rejected source record",
				slog.Int64("source_id", raw.SourceID),
				slog.String("source_match_id", raw.SourceMatchID),
				slog.String("market", raw.MarketLabel),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := i.Ingest(ctx, rec); err != nil {
			level := slog.LevelError
			if errors.Is(err, domain.ErrAmbiguousEvent) {
				level = slog.LevelWarn
			}
			i.logger.Log(ctx, level, "ingest failed",
				slog.Int64("source_id", rec.SourceID),
				slog.String("source_match_id", rec.SourceEventID),
				slog.String("market", rec.MarketLabel),
				slog.String("error", err.Error()),
			)
			continue
		}
		ok++
	}
	return ok
}
