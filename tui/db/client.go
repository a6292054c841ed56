package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Client reads the run log written by the search daemon. It never writes.
type Client struct {
	db *sql.DB
}

type SearchRun struct {
	ID            string
	Source        string
	Query         string
	Path          string
	Tier          int
	ListingsFound int
	ListingsNew   int
	StartedAt     time.Time
	FinishedAt    *time.Time
	Status        string
}

// SourceStats summarises the runs of one source (cli, chat, watcher:<name>).
type SourceStats struct {
	Source       string
	Runs         int
	LastRunAt    *time.Time
	LastStatus   string
	ListingsNew  int
	EmptyRate    float64
	AvgListings  float64
	FallbackRuns int
}

// New opens Postgres when postgresURL is set, the SQLite file otherwise.
func New(postgresURL, sqlitePath string) (*Client, error) {
	var db *sql.DB
	var err error
	if postgresURL != "" {
		db, err = sql.Open("pgx", postgresURL)
	} else {
		db, err = sql.Open("sqlite", sqlitePath+"?mode=ro")
	}
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) GetRecentRuns(limit int) ([]SearchRun, error) {
	rows, err := c.db.Query(fmt.Sprintf(`
		SELECT CAST(id AS TEXT), source, COALESCE(query, ''), COALESCE(path, ''), tier,
			listings_found, listings_new, started_at, finished_at, COALESCE(status, '')
		FROM search_runs ORDER BY started_at DESC LIMIT %d`, limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []SearchRun
	for rows.Next() {
		var r SearchRun
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Source, &r.Query, &r.Path, &r.Tier,
			&r.ListingsFound, &r.ListingsNew, &r.StartedAt, &finished, &r.Status); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetSourceStats aggregates in Go so the same code serves both databases.
func (c *Client) GetSourceStats() ([]SourceStats, error) {
	runs, err := c.GetRecentRuns(1000)
	if err != nil {
		return nil, err
	}

	bySource := make(map[string]*SourceStats)
	var order []string
	empties := make(map[string]int)
	found := make(map[string]int)
	// runs are newest first, so the first one seen per source is the latest
	for _, r := range runs {
		s, ok := bySource[r.Source]
		if !ok {
			started := r.StartedAt
			s = &SourceStats{Source: r.Source, LastRunAt: &started, LastStatus: r.Status}
			bySource[r.Source] = s
			order = append(order, r.Source)
		}
		s.Runs++
		s.ListingsNew += r.ListingsNew
		found[r.Source] += r.ListingsFound
		if r.Status == "empty" {
			empties[r.Source]++
		}
		if r.Tier > 1 {
			s.FallbackRuns++
		}
	}

	stats := make([]SourceStats, 0, len(order))
	for _, src := range order {
		s := bySource[src]
		s.EmptyRate = float64(empties[src]) / float64(s.Runs)
		s.AvgListings = float64(found[src]) / float64(s.Runs)
		stats = append(stats, *s)
	}
	return stats, nil
}

func (c *Client) GetRunCount() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM search_runs`).Scan(&n)
	return n, err
}

func (c *Client) GetSeenCount() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM seen_listings`).Scan(&n)
	return n, err
}
