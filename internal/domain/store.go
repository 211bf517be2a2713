package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SourceStore persists odds providers.
type SourceStore interface {
	// Register inserts a source if absent and returns the stored row either
	// way. Names are unique; registration is idempotent.
	Register(ctx context.Context, name, url string) (Source, error)
	GetByName(ctx context.Context, name string) (Source, error)
	List(ctx context.Context) ([]Source, error)
}

// EventStore persists canonical events and their source mappings. The
// insert-if-absent operations are the storage-level primitives that make
// concurrent resolution converge; callers never implement read-then-write
// on top of them.
type EventStore interface {
	// GetMapped returns the canonical event a (source, source event id)
	// pair is already mapped to, or ErrNotFound.
	GetMapped(ctx context.Context, sourceID int64, sourceEventID string) (CanonicalEvent, error)

	// FindCandidates returns events for the sport whose kickoff falls in
	// [from, to] and whose teams match the given canonical names.
	FindCandidates(ctx context.Context, sport, homeTeam, awayTeam string, from, to time.Time) ([]CanonicalEvent, error)

	// MapEvent atomically inserts the (source, source event id) -> event
	// mapping if absent, then returns the event the pair is mapped to. When
	// a concurrent writer won the insert, the winner's event is returned;
	// an existing mapping is never repointed.
	MapEvent(ctx context.Context, sourceID int64, sourceEventID string, eventID uuid.UUID) (CanonicalEvent, error)

	// CreateEvent inserts a canonical event if no event with the same
	// fingerprint exists and returns the stored row either way.
	CreateEvent(ctx context.Context, ev CanonicalEvent) (CanonicalEvent, error)
}

// AliasStore persists the team alias table used for cross-source identity
// matching.
type AliasStore interface {
	Upsert(ctx context.Context, canonical, alias string) error
	List(ctx context.Context) ([]TeamAlias, error)
}

// OddsStore persists latest odds and the append-only observation history,
// and serves the windowed read used by the scan driver.
type OddsStore interface {
	// UpsertMarket inserts the (event, label, line) market if absent and
	// returns its id either way.
	UpsertMarket(ctx context.Context, eventID uuid.UUID, label, line string) (int64, error)

	// Record upserts the latest-odds row for (market, source, outcome) and
	// appends one history row, in a single transaction. Re-recording an
	// identical price still appends history.
	Record(ctx context.Context, marketID, sourceID int64, outcome string, price float64, observedAt time.Time) error

	// ReadWindow returns denormalized latest-odds rows for events of the
	// sport with kickoff in [from, to]. An empty marketLabels slice means
	// all markets.
	ReadWindow(ctx context.Context, sport string, from, to time.Time, marketLabels []string) ([]WindowRow, error)

	// HistoryLen reports the number of history rows for a market. Used by
	// diagnostics and tests.
	HistoryLen(ctx context.Context, marketID int64) (int64, error)

	// ListHistoryBefore returns history rows observed strictly before the
	// cutoff, oldest first, for archival.
	ListHistoryBefore(ctx context.Context, before time.Time, limit int) ([]OddsHistoryRow, error)

	// DeleteHistoryBefore removes archived history rows. Only the archiver
	// calls this; the core itself never deletes.
	DeleteHistoryBefore(ctx context.Context, before time.Time) (int64, error)
}

// OpportunityStore persists detected opportunities with conflict-tolerant
// insert semantics.
type OpportunityStore interface {
	// InsertIfNew inserts the opportunity unless a row with the same
	// identity key already exists. It reports whether the row was newly
	// inserted; an existing row is success, not an error.
	InsertIfNew(ctx context.Context, opp Opportunity) (bool, error)
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
	ListBefore(ctx context.Context, before time.Time) ([]Opportunity, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
