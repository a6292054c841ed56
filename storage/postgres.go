package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"inmo_scrooper/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS search_runs (
			id UUID PRIMARY KEY,
			source TEXT NOT NULL,
			query TEXT,
			path TEXT,
			tier INTEGER DEFAULT 0,
			listings_found INTEGER DEFAULT 0,
			listings_new INTEGER DEFAULT 0,
			started_at TIMESTAMPTZ,
			finished_at TIMESTAMPTZ,
			status TEXT
		);
		CREATE TABLE IF NOT EXISTS seen_listings (
			search TEXT NOT NULL,
			listing_id TEXT NOT NULL,
			first_seen_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (search, listing_id)
		)`)
	return err
}

// =============================================================================
// Search runs
// =============================================================================

func (s *PostgresStore) RecordRun(ctx context.Context, run *models.SearchRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO search_runs (id, source, query, path, tier, listings_found, listings_new, started_at, finished_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			path = EXCLUDED.path,
			tier = EXCLUDED.tier,
			listings_found = EXCLUDED.listings_found,
			listings_new = EXCLUDED.listings_new,
			finished_at = EXCLUDED.finished_at,
			status = EXCLUDED.status`,
		run.ID, run.Source, run.Query, run.Path, run.Tier, run.ListingsFound, run.ListingsNew,
		run.StartedAt, run.FinishedAt, string(run.Status))
	return err
}

func (s *PostgresStore) RecentRuns(ctx context.Context, limit int) ([]models.SearchRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source, COALESCE(query, ''), COALESCE(path, ''), tier, listings_found, listings_new,
			started_at, finished_at, COALESCE(status, '')
		FROM search_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SearchRun, error) {
		var r models.SearchRun
		var status string
		err := row.Scan(&r.ID, &r.Source, &r.Query, &r.Path, &r.Tier, &r.ListingsFound, &r.ListingsNew,
			&r.StartedAt, &r.FinishedAt, &status)
		r.Status = models.RunStatus(status)
		return r, err
	})
}

// =============================================================================
// Seen listings
// =============================================================================

func (s *PostgresStore) MarkSeen(ctx context.Context, search string, ids []string) ([]string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var fresh []string
	for _, id := range ids {
		tag, err := tx.Exec(ctx, `
			INSERT INTO seen_listings (search, listing_id) VALUES ($1, $2)
			ON CONFLICT (search, listing_id) DO NOTHING`, search, id)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() > 0 {
			fresh = append(fresh, id)
		}
	}
	return fresh, tx.Commit(ctx)
}
