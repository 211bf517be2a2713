package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// AliasStore implements domain.AliasStore using PostgreSQL.
type AliasStore struct {
	pool *pgxpool.Pool
}

// NewAliasStore creates a new AliasStore backed by the given pool.
func NewAliasStore(pool *pgxpool.Pool) *AliasStore {
	return &AliasStore{pool: pool}
}

// Upsert inserts or updates an alias -> canonical mapping.
func (s *AliasStore) Upsert(ctx context.Context, canonical, alias string) error {
	const query = `
		INSERT INTO team_aliases (alias, canonical)
		VALUES ($1, $2)
		ON CONFLICT (alias) DO UPDATE SET canonical = EXCLUDED.canonical`

	if _, err := s.pool.Exec(ctx, query, alias, canonical); err != nil {
		return fmt.Errorf("postgres: upsert alias %s: %w", alias, err)
	}
	return nil
}

// List returns the full alias table ordered by alias.
func (s *AliasStore) List(ctx context.Context) ([]domain.TeamAlias, error) {
	const query = `SELECT canonical, alias FROM team_aliases ORDER BY alias`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []domain.TeamAlias
	for rows.Next() {
		var a domain.TeamAlias
		if err := rows.Scan(&a.Canonical, &a.Alias); err != nil {
			return nil, fmt.Errorf("postgres: scan alias: %w", err)
		}
		aliases = append(aliases, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate aliases: %w", err)
	}
	return aliases, nil
}
