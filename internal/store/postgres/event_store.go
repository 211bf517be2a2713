package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// EventStore implements domain.EventStore using PostgreSQL. The
// insert-if-absent primitives lean on the schema's uniqueness constraints
// so concurrent resolvers converge without application-level locking.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

const eventSelectCols = `id, sport, home_team, away_team, start_time, fingerprint, created_at`

// GetMapped returns the canonical event a (source, source event id) pair is
// mapped to, or domain.ErrNotFound.
func (s *EventStore) GetMapped(ctx context.Context, sourceID int64, sourceEventID string) (domain.CanonicalEvent, error) {
	const query = `
		SELECT e.id, e.sport, e.home_team, e.away_team, e.start_time, e.fingerprint, e.created_at
		FROM source_event_mappings m
		JOIN canonical_events e ON e.id = m.event_id
		WHERE m.source_id = $1 AND m.source_event_id = $2`

	ev, err := scanEvent(s.pool.QueryRow(ctx, query, sourceID, sourceEventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CanonicalEvent{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CanonicalEvent{}, fmt.Errorf("postgres: get mapping %d/%s: %w", sourceID, sourceEventID, err)
	}
	return ev, nil
}

// FindCandidates returns events for the sport whose kickoff falls in
// [from, to] and whose teams match the given canonical names.
func (s *EventStore) FindCandidates(ctx context.Context, sport, homeTeam, awayTeam string, from, to time.Time) ([]domain.CanonicalEvent, error) {
	query := `SELECT ` + eventSelectCols + `
		FROM canonical_events
		WHERE sport = $1
		  AND LOWER(home_team) = LOWER($2)
		  AND LOWER(away_team) = LOWER($3)
		  AND start_time BETWEEN $4 AND $5
		ORDER BY start_time`

	rows, err := s.pool.Query(ctx, query, sport, homeTeam, awayTeam, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: find candidate events: %w", err)
	}
	defer rows.Close()

	var events []domain.CanonicalEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate events: %w", err)
	}
	return events, nil
}

// CreateEvent inserts the event unless one with the same fingerprint
// already exists, and returns the stored row either way. Losing the insert
// race is not an error; the winner's row is the canonical identity.
func (s *EventStore) CreateEvent(ctx context.Context, ev domain.CanonicalEvent) (domain.CanonicalEvent, error) {
	const insert = `
		INSERT INTO canonical_events (id, sport, home_team, away_team, start_time, fingerprint)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fingerprint) DO NOTHING
		RETURNING ` + eventSelectCols

	stored, err := scanEvent(s.pool.QueryRow(ctx, insert,
		ev.ID, ev.Sport, ev.HomeTeam, ev.AwayTeam, ev.StartTime.UTC(), ev.Fingerprint,
	))
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.CanonicalEvent{}, fmt.Errorf("postgres: create event %s: %w", ev.Fingerprint, err)
	}

	return s.getByFingerprint(ctx, ev.Fingerprint)
}

// MapEvent inserts the (source, source event id) -> event mapping if absent
// and returns the event the pair is mapped to afterwards. An existing
// mapping is never repointed.
func (s *EventStore) MapEvent(ctx context.Context, sourceID int64, sourceEventID string, eventID uuid.UUID) (domain.CanonicalEvent, error) {
	const insert = `
		INSERT INTO source_event_mappings (source_id, source_event_id, event_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_id, source_event_id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, insert, sourceID, sourceEventID, eventID); err != nil {
		return domain.CanonicalEvent{}, fmt.Errorf("postgres: map event %d/%s: %w", sourceID, sourceEventID, err)
	}

	// Read back through the mapping: when a concurrent writer won, this
	// returns their event rather than ours.
	return s.GetMapped(ctx, sourceID, sourceEventID)
}

func (s *EventStore) getByFingerprint(ctx context.Context, fingerprint string) (domain.CanonicalEvent, error) {
	query := `SELECT ` + eventSelectCols + ` FROM canonical_events WHERE fingerprint = $1`

	ev, err := scanEvent(s.pool.QueryRow(ctx, query, fingerprint))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CanonicalEvent{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CanonicalEvent{}, fmt.Errorf("postgres: get event by fingerprint: %w", err)
	}
	return ev, nil
}

func scanEvent(row pgx.Row) (domain.CanonicalEvent, error) {
	var ev domain.CanonicalEvent
	err := row.Scan(
		&ev.ID, &ev.Sport, &ev.HomeTeam, &ev.AwayTeam,
		&ev.StartTime, &ev.Fingerprint, &ev.CreatedAt,
	)
	return ev, err
}
