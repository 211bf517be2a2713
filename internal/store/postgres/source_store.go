package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

// SourceStore implements domain.SourceStore using PostgreSQL.
type SourceStore struct {
	pool *pgxpool.Pool
}

// NewSourceStore creates a new SourceStore backed by the given pool.
func NewSourceStore(pool *pgxpool.Pool) *SourceStore {
	return &SourceStore{pool: pool}
}

// Register inserts the source if absent and returns the stored row either
// way. The insert and the fallback read race safely against concurrent
// registrations of the same name.
func (s *SourceStore) Register(ctx context.Context, name, url string) (domain.Source, error) {
	const insert = `
		INSERT INTO sources (name, url)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, url, created_at`

	var src domain.Source
	err := s.pool.QueryRow(ctx, insert, name, url).Scan(
		&src.ID, &src.Name, &src.URL, &src.CreatedAt,
	)
	if err == nil {
		return src, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Source{}, fmt.Errorf("postgres: register source %s: %w", name, err)
	}

	// Conflict: someone registered it first; return their row.
	return s.GetByName(ctx, name)
}

// GetByName returns the source with the given name, or domain.ErrNotFound.
func (s *SourceStore) GetByName(ctx context.Context, name string) (domain.Source, error) {
	const query = `SELECT id, name, url, created_at FROM sources WHERE name = $1`

	var src domain.Source
	err := s.pool.QueryRow(ctx, query, name).Scan(
		&src.ID, &src.Name, &src.URL, &src.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Source{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Source{}, fmt.Errorf("postgres: get source %s: %w", name, err)
	}
	return src, nil
}

// List returns all registered sources ordered by id.
func (s *SourceStore) List(ctx context.Context) ([]domain.Source, error) {
	const query = `SELECT id, name, url, created_at FROM sources ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var src domain.Source
		if err := rows.Scan(&src.ID, &src.Name, &src.URL, &src.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate sources: %w", err)
	}
	return sources, nil
}
