// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetchcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/catalog-search/pkg/types"
)

// SQLiteStore keeps results in a single SQLite table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the database at path and its schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS results (
			request_key TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			stored_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_expires_at ON results(expires_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get implements Store. Expired rows are deleted on read.
func (s *SQLiteStore) Get(ctx context.Context, key types.RequestKey) (*types.SearchResult, bool, error) {
	var body string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT body, expires_at FROM results WHERE request_key = ?`, string(key),
	).Scan(&body, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying cached result: %w", err)
	}

	if expiresAt > 0 && s.now().UnixNano() >= expiresAt {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE request_key = ?`, string(key)); err != nil {
			return nil, false, fmt.Errorf("deleting expired result: %w", err)
		}
		return nil, false, nil
	}

	var res types.SearchResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, false, fmt.Errorf("decoding cached result: %w", err)
	}
	return &res, true, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(ctx context.Context, key types.RequestKey, res *types.SearchResult, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	now := s.now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO results (request_key, body, stored_at, expires_at) VALUES (?, ?, ?, ?)`,
		string(key), string(data), now.UnixNano(), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("storing result: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key types.RequestKey) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE request_key = ?`, string(key)); err != nil {
		return fmt.Errorf("deleting result: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM results`); err != nil {
		return fmt.Errorf("clearing results: %w", err)
	}
	return nil
}

// Len implements Store.
func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM results WHERE expires_at = 0 OR expires_at > ?`, s.now().UnixNano(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting results: %w", err)
	}
	return n, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
