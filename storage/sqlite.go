package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"inmo_scrooper/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		query TEXT,
		path TEXT,
		tier INTEGER DEFAULT 0,
		listings_found INTEGER DEFAULT 0,
		listings_new INTEGER DEFAULT 0,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_search_runs_started ON search_runs(started_at);

	CREATE TABLE IF NOT EXISTS seen_listings (
		search TEXT NOT NULL,
		listing_id TEXT NOT NULL,
		first_seen_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (search, listing_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *models.SearchRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_runs (id, source, query, path, tier, listings_found, listings_new, started_at, finished_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			tier = excluded.tier,
			listings_found = excluded.listings_found,
			listings_new = excluded.listings_new,
			finished_at = excluded.finished_at,
			status = excluded.status`,
		run.ID.String(), run.Source, run.Query, run.Path, run.Tier, run.ListingsFound, run.ListingsNew,
		run.StartedAt, run.FinishedAt, run.Status)
	return err
}

func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]models.SearchRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, query, path, tier, listings_found, listings_new, started_at, finished_at, status
		FROM search_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.SearchRun
	for rows.Next() {
		var r models.SearchRun
		var id string
		var query, path sql.NullString
		var finished sql.NullTime
		if err := rows.Scan(&id, &r.Source, &query, &path, &r.Tier, &r.ListingsFound, &r.ListingsNew,
			&r.StartedAt, &finished, &r.Status); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		r.Query = query.String
		r.Path = path.String
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) MarkSeen(ctx context.Context, search string, ids []string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	var fresh []string
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO seen_listings (search, listing_id, first_seen_at) VALUES (?, ?, ?)
			ON CONFLICT(search, listing_id) DO NOTHING`, search, id, now)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			fresh = append(fresh, id)
		}
	}
	return fresh, tx.Commit()
}
