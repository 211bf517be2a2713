package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
// The identity uniqueness lives in the schema, so InsertIfNew stays a
// single round trip under concurrency.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const oppSelectCols = `id, event_id, event_fingerprint, sport, home_team, away_team,
	market_label, line, start_time, legs, stakes,
	margin, profit, profit_pct, roi, legs_hash, detected_at`

// InsertIfNew inserts the opportunity unless a row with the same
// (event fingerprint, market label, line, legs hash) already exists.
// It reports whether the row was newly inserted.
func (s *OpportunityStore) InsertIfNew(ctx context.Context, opp domain.Opportunity) (bool, error) {
	const query = `
		INSERT INTO opportunities (
			id, event_id, event_fingerprint, sport, home_team, away_team,
			market_label, line, start_time, legs, stakes,
			margin, profit, profit_pct, roi, legs_hash, detected_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17
		)
		ON CONFLICT (event_fingerprint, market_label, line, legs_hash) DO NOTHING`

	legs, err := json.Marshal(opp.Legs)
	if err != nil {
		return false, fmt.Errorf("postgres: encode legs: %w", err)
	}
	stakes, err := json.Marshal(opp.Stakes)
	if err != nil {
		return false, fmt.Errorf("postgres: encode stakes: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query,
		opp.ID, opp.EventID, opp.EventFingerprint, opp.Sport, opp.HomeTeam, opp.AwayTeam,
		opp.MarketLabel, opp.Line, opp.StartTime.UTC(), legs, stakes,
		opp.Margin, opp.Profit, opp.ProfitPct, opp.ROI, opp.LegsHash, opp.DetectedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM opportunities ORDER BY detected_at DESC`
	args := []any{}

	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	return s.list(ctx, query, args...)
}

// ListBefore returns opportunities detected strictly before the cutoff,
// oldest first, for archival.
func (s *OpportunityStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Opportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM opportunities
		WHERE detected_at < $1 ORDER BY detected_at`
	return s.list(ctx, query, before)
}

// DeleteBefore removes opportunities detected strictly before the cutoff
// and reports how many were deleted.
func (s *OpportunityStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM opportunities WHERE detected_at < $1`, before,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete opportunities: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *OpportunityStore) list(ctx context.Context, query string, args ...any) ([]domain.Opportunity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunities: %w", err)
	}
	return opps, nil
}

func scanOpportunity(row pgx.Row) (domain.Opportunity, error) {
	var (
		opp    domain.Opportunity
		legs   []byte
		stakes []byte
	)
	if err := row.Scan(
		&opp.ID, &opp.EventID, &opp.EventFingerprint, &opp.Sport, &opp.HomeTeam, &opp.AwayTeam,
		&opp.MarketLabel, &opp.Line, &opp.StartTime, &legs, &stakes,
		&opp.Margin, &opp.Profit, &opp.ProfitPct, &opp.ROI, &opp.LegsHash, &opp.DetectedAt,
	); err != nil {
		return domain.Opportunity{}, fmt.Errorf("postgres: scan opportunity: %w", err)
	}
	if err := json.Unmarshal(legs, &opp.Legs); err != nil {
		return domain.Opportunity{}, fmt.Errorf("postgres: decode legs: %w", err)
	}
	if err := json.Unmarshal(stakes, &opp.Stakes); err != nil {
		return domain.Opportunity{}, fmt.Errorf("postgres: decode stakes: %w", err)
	}
	return opp, nil
}
