package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/perfectcircle/pkg/metrics"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// memoryDSN keeps the database in process memory.
const memoryDSN = ":memory:"

// SQLiteStore persists the leaderboard in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	cfg settings

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSQLiteStore opens (or creates) the database at path and migrates it.
// An empty path or ":memory:" keeps the data in memory.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	if path == "" {
		path = memoryDSN
	}
	if path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("repository: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: open database: %w", err)
	}
	// pragmas are per connection and an in-memory database is per connection too
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("repository: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, cfg: cfg, stopChan: make(chan struct{})}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: migration: %w", err)
	}
	metrics.UpdateRepositoryRecordsTotal(s.Count(ctx))
	s.startMetricsUpdater(ctx)
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			score      REAL NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_scores_rank ON scores(score DESC, created_at ASC);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close stops the metrics updater and closes the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("repository: close: %w", err)
	}
	return nil
}

// Insert implements Store.Insert.
func (s *SQLiteStore) Insert(ctx context.Context, rec Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryInsertLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (id, name, score, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		rec.ID, rec.Name, rec.Score, rec.SubmittedAt.UnixNano(),
	)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "insert_failed")
		return fmt.Errorf("repository: insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: insert: %w", err)
	}
	if n == 0 {
		metrics.RecordErrorByComponent("repository", "duplicate")
		return ErrDuplicate
	}
	metrics.RecordLeaderboardUpdate()
	return nil
}

// TopN returns the top N entries ordered by score desc.
func (s *SQLiteStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, score, created_at FROM scores ORDER BY score DESC, created_at ASC, rowid ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("repository: top: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, n)
	for rows.Next() {
		var (
			e  Entry
			at int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &at); err != nil {
			return nil, fmt.Errorf("repository: scan: %w", err)
		}
		e.SubmittedAt = time.Unix(0, at).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: rows: %w", err)
	}
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the number of stored records, 0 when the query fails.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores`).Scan(&n); err != nil {
		metrics.RecordErrorByComponent("repository", "count_failed")
		return 0
	}
	return n
}

func (s *SQLiteStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRepositoryRecordsTotal(s.Count(ctx))
			}
		}
	}()
}
