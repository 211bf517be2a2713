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

// OddsStore implements domain.OddsStore using PostgreSQL.
type OddsStore struct {
	pool *pgxpool.Pool
}

// NewOddsStore creates a new OddsStore backed by the given pool.
func NewOddsStore(pool *pgxpool.Pool) *OddsStore {
	return &OddsStore{pool: pool}
}

// UpsertMarket inserts the (event, label, line) market if absent and
// returns its id either way.
func (s *OddsStore) UpsertMarket(ctx context.Context, eventID uuid.UUID, label, line string) (int64, error) {
	const insert = `
		INSERT INTO markets (event_id, label, line)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, label, line) DO NOTHING
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, insert, eventID, label, line).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("postgres: upsert market %s/%s: %w", label, line, err)
	}

	const query = `SELECT id FROM markets WHERE event_id = $1 AND label = $2 AND line = $3`
	if err := s.pool.QueryRow(ctx, query, eventID, label, line).Scan(&id); err != nil {
		return 0, fmt.Errorf("postgres: get market %s/%s: %w", label, line, err)
	}
	return id, nil
}

// Record upserts the latest-odds row and appends one history row in a
// single transaction. Re-recording an identical price still appends
// history; the log is a record of observations, not of changes.
func (s *OddsStore) Record(ctx context.Context, marketID, sourceID int64, outcome string, price float64, observedAt time.Time) error {
	const upsertLatest = `
		INSERT INTO odds_latest (market_id, source_id, outcome, price, observed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (market_id, source_id, outcome)
		DO UPDATE SET price = EXCLUDED.price, observed_at = EXCLUDED.observed_at`

	const appendHistory = `
		INSERT INTO odds_history (market_id, source_id, outcome, price, observed_at)
		VALUES ($1, $2, $3, $4, $5)`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin record tx: %w", err)
	}
	defer tx.Rollback(ctx)

	observedAt = observedAt.UTC()
	if _, err := tx.Exec(ctx, upsertLatest, marketID, sourceID, outcome, price, observedAt); err != nil {
		return fmt.Errorf("postgres: upsert latest odds: %w", err)
	}
	if _, err := tx.Exec(ctx, appendHistory, marketID, sourceID, outcome, price, observedAt); err != nil {
		return fmt.Errorf("postgres: append odds history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit record tx: %w", err)
	}
	return nil
}

// ReadWindow returns denormalized latest-odds rows for events of the sport
// with kickoff in [from, to]. An empty marketLabels slice means all markets.
func (s *OddsStore) ReadWindow(ctx context.Context, sport string, from, to time.Time, marketLabels []string) ([]domain.WindowRow, error) {
	query := `
		SELECT e.id, e.fingerprint, e.sport, e.home_team, e.away_team, e.start_time,
		       m.id, m.label, m.line,
		       s.id, s.name,
		       o.outcome, o.price, o.observed_at
		FROM odds_latest o
		JOIN markets m ON m.id = o.market_id
		JOIN canonical_events e ON e.id = m.event_id
		JOIN sources s ON s.id = o.source_id
		WHERE e.sport = $1 AND e.start_time BETWEEN $2 AND $3`
	args := []any{sport, from, to}

	if len(marketLabels) > 0 {
		query += ` AND m.label = ANY($4)`
		args = append(args, marketLabels)
	}
	query += ` ORDER BY e.start_time, e.id, m.id, o.outcome, s.id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: read odds window: %w", err)
	}
	defer rows.Close()

	var out []domain.WindowRow
	for rows.Next() {
		var r domain.WindowRow
		if err := rows.Scan(
			&r.EventID, &r.EventFingerprint, &r.Sport, &r.HomeTeam, &r.AwayTeam, &r.StartTime,
			&r.MarketID, &r.MarketLabel, &r.Line,
			&r.SourceID, &r.SourceName,
			&r.Outcome, &r.Price, &r.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan window row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate window rows: %w", err)
	}
	return out, nil
}

// HistoryLen reports the number of history rows for a market.
func (s *OddsStore) HistoryLen(ctx context.Context, marketID int64) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM odds_history WHERE market_id = $1`, marketID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count history for market %d: %w", marketID, err)
	}
	return n, nil
}

// ListHistoryBefore returns history rows observed strictly before the
// cutoff, oldest first, up to limit rows.
func (s *OddsStore) ListHistoryBefore(ctx context.Context, before time.Time, limit int) ([]domain.OddsHistoryRow, error) {
	query := `
		SELECT id, market_id, source_id, outcome, price, observed_at
		FROM odds_history
		WHERE observed_at < $1
		ORDER BY observed_at`
	args := []any{before}

	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list odds history: %w", err)
	}
	defer rows.Close()

	var out []domain.OddsHistoryRow
	for rows.Next() {
		var r domain.OddsHistoryRow
		if err := rows.Scan(&r.ID, &r.MarketID, &r.SourceID, &r.Outcome, &r.Price, &r.ObservedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan history row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate history rows: %w", err)
	}
	return out, nil
}

// DeleteHistoryBefore removes history rows observed strictly before the
// cutoff and reports how many were deleted.
func (s *OddsStore) DeleteHistoryBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM odds_history WHERE observed_at < $1`, before,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete odds history: %w", err)
	}
	return tag.RowsAffected(), nil
}
