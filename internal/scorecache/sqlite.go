package scorecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"sift/internal/report"
	"sift/internal/services"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db   *sql.DB
	path string
}

// Entry summarizes one cached result for CLI listings.
type Entry struct {
	Fingerprint    string    `json:"fingerprint"`
	Score          float64   `json:"score"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`
}

// OpenSQLite initializes or connects to the cache database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS score_cache (
        fingerprint TEXT PRIMARY KEY,
        score REAL NOT NULL,
        recommendation TEXT NOT NULL,
        payload TEXT NOT NULL,
        created_at TEXT NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}

	return &SQLite{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLite) Path() string { return s.path }

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, fingerprint string) (*report.Result, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM score_cache WHERE fingerprint = ?`, fingerprint,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, services.Wrap(services.ErrCache, "", "cache get", fingerprint, err)
	}
	var result report.Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, false, services.Wrap(services.ErrCache, "", "cache decode", fingerprint, err)
	}
	return &result, true, nil
}

// Put implements Store.
func (s *SQLite) Put(ctx context.Context, fingerprint string, result *report.Result) error {
	if result == nil {
		return nil
	}
	stored := *result
	stored.FromCache = false
	payload, err := json.Marshal(&stored)
	if err != nil {
		return services.Wrap(services.ErrCache, "", "cache encode", fingerprint, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO score_cache (fingerprint, score, recommendation, payload, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(fingerprint) DO UPDATE SET
            score = excluded.score,
            recommendation = excluded.recommendation,
            payload = excluded.payload,
            created_at = excluded.created_at`,
		fingerprint,
		stored.Score,
		string(stored.Recommendation),
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return services.Wrap(services.ErrCache, "", "cache put", fingerprint, err)
	}
	return nil
}

// List returns cached entries, newest first.
func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint, score, recommendation, created_at FROM score_cache ORDER BY created_at DESC`)
	if err != nil {
		return nil, services.Wrap(services.ErrCache, "", "cache list", "", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var createdAt string
		if err := rows.Scan(&entry.Fingerprint, &entry.Score, &entry.Recommendation, &createdAt); err != nil {
			return nil, services.Wrap(services.ErrCache, "", "cache scan", "", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			entry.CreatedAt = parsed
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes one fingerprint's entry.
func (s *SQLite) Delete(ctx context.Context, fingerprint string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM score_cache WHERE fingerprint = ?`, fingerprint); err != nil {
		return services.Wrap(services.ErrCache, "", "cache delete", fingerprint, err)
	}
	return nil
}

// Clear removes every cached entry.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM score_cache`); err != nil {
		return services.Wrap(services.ErrCache, "", "cache clear", "", err)
	}
	return nil
}
