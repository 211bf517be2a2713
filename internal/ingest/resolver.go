package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// AliasIndex is an in-memory view of the team alias table. It is built per
// process from the alias store, shared read-mostly across ingestion
// workers, and refreshed explicitly; the database row set remains the
// source of truth.
type AliasIndex struct {
	mu    sync.RWMutex
	byKey map[string]string // CleanTeamName(alias or canonical) -> canonical
}

// NewAliasIndex builds an index from the given aliases. Canonical names
// index themselves so exact spellings resolve without an alias row.
func NewAliasIndex(aliases []domain.TeamAlias) *AliasIndex {
	idx := &AliasIndex{byKey: make(map[string]string, len(aliases)*2)}
	idx.replace(aliases)
	return idx
}

// LoadAliasIndex reads the full alias table and builds an index.
func LoadAliasIndex(ctx context.Context, store domain.AliasStore) (*AliasIndex, error) {
	aliases, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: load aliases: %w", err)
	}
	return NewAliasIndex(aliases), nil
}

// Reload swaps in the current alias table.
func (a *AliasIndex) Reload(ctx context.Context, store domain.AliasStore) error {
	aliases, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("ingest: reload aliases: %w", err)
	}
	a.replace(aliases)
	return nil
}

func (a *AliasIndex) replace(aliases []domain.TeamAlias) {
	byKey := make(map[string]string, len(aliases)*2)
	for _, al := range aliases {
		byKey[CleanTeamName(al.Canonical)] = al.Canonical
		byKey[CleanTeamName(al.Alias)] = al.Canonical
	}
	a.mu.Lock()
	a.byKey = byKey
	a.mu.Unlock()
}

// Canonical resolves a source-reported team name through the alias table.
// Unknown names fall back to their cleaned form, so two sources using the
// same unlisted spelling still converge.
func (a *AliasIndex) Canonical(name string) string {
	key := CleanTeamName(name)
	a.mu.RLock()
	canon, ok := a.byKey[key]
	a.mu.RUnlock()
	if ok {
		return canon
	}
	return key
}

// ResolverConfig carries the identity-match policy knobs.
type ResolverConfig struct {
	// StartTolerance bounds how far a source-reported kickoff may drift
	// from a stored event's kickoff and still identify the same match.
	StartTolerance time.Duration
}

// Resolver maps per-source records onto canonical event identities. It is
// safe for concurrent use: every create path is an atomic insert-if-absent
// in the event store, so concurrent resolution of the same (source, source
// match id) converges to exactly one mapping.
type Resolver struct {
	events  domain.EventStore
	aliases *AliasIndex
	cfg     ResolverConfig
	logger  *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(events domain.EventStore, aliases *AliasIndex, cfg ResolverConfig, logger *slog.Logger) *Resolver {
	if cfg.StartTolerance <= 0 {
		cfg.StartTolerance = 3 * time.Hour
	}
	return &Resolver{
		events:  events,
		aliases: aliases,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "resolver")),
	}
}

// Resolve returns the canonical event for a record, creating the event
// and/or mapping when absent.
//
// Lookup order: existing (source, source match id) mapping; then a unique
// alias-resolved identity match within the kickoff tolerance; then a fresh
// event. Two or more candidates inside the tolerance are a resolution
// conflict (domain.ErrAmbiguousEvent) and are never tie-broken silently --
// the record is rejected for this cycle and the alias table is the fix.
func (r *Resolver) Resolve(ctx context.Context, rec domain.SourceRecord) (domain.CanonicalEvent, error) {
	ev, err := r.events.GetMapped(ctx, rec.SourceID, rec.SourceEventID)
	if err == nil {
		return ev, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.CanonicalEvent{}, fmt.Errorf("resolver: lookup mapping: %w", err)
	}

	home := r.aliases.Canonical(rec.HomeTeam)
	away := r.aliases.Canonical(rec.AwayTeam)
	from := rec.StartTime.Add(-r.cfg.StartTolerance)
	to := rec.StartTime.Add(r.cfg.StartTolerance)

	candidates, err := r.events.FindCandidates(ctx, rec.Sport, home, away, from, to)
	if err != nil {
		return domain.CanonicalEvent{}, fmt.Errorf("resolver: find candidates: %w", err)
	}

	switch len(candidates) {
	case 0:
		created, err := r.events.CreateEvent(ctx, domain.CanonicalEvent{
			ID:          uuid.New(),
			Sport:       rec.Sport,
			HomeTeam:    home,
			AwayTeam:    away,
			StartTime:   rec.StartTime,
			Fingerprint: domain.EventFingerprint(rec.Sport, home, away, rec.StartTime),
		})
		if err != nil {
			return domain.CanonicalEvent{}, fmt.Errorf("resolver: create event: %w", err)
		}
		return r.mapTo(ctx, rec, created.ID)
	case 1:
		return r.mapTo(ctx, rec, candidates[0].ID)
	default:
		r.logger.WarnContext(ctx, "ambiguous canonical event match",
			slog.Int64("source_id", rec.SourceID),
			slog.String("source_match_id", rec.SourceEventID),
			slog.String("sport", rec.Sport),
			slog.String("home", home),
			slog.String("away", away),
			slog.Int("candidates", len(candidates)),
		)
		return domain.CanonicalEvent{}, fmt.Errorf("resolver: %s vs %s at %s: %w",
			home, away, rec.StartTime.Format(time.RFC3339), domain.ErrAmbiguousEvent)
	}
}

// mapTo installs the mapping via the store's insert-if-absent primitive
// and returns whichever event the pair ends up mapped to. A concurrent
// winner's mapping stands; ours is discarded.
func (r *Resolver) mapTo(ctx context.Context, rec domain.SourceRecord, eventID uuid.UUID) (domain.CanonicalEvent, error) {
	ev, err := r.events.MapEvent(ctx, rec.SourceID, rec.SourceEventID, eventID)
	if err != nil {
		return domain.CanonicalEvent{}, fmt.Errorf("resolver: map event: %w", err)
	}
	if ev.ID != eventID {
		r.logger.DebugContext(ctx, "mapping race lost, adopting existing event",
			slog.Int64("source_id", rec.SourceID),
			slog.String("source_match_id", rec.SourceEventID),
			slog.String("event_id", ev.ID.String()),
		)
	}
	return ev, nil
}
