package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite persists responses in a single table of a SQLite database.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens or creates the database at path and prepares the schema.
func NewSQLite(path string, ttl time.Duration) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	cache := &SQLite{db: db, ttl: ttl, now: time.Now}
	if err := cache.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

func (cache *SQLite) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		value BLOB,
		stored_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_responses_expires ON responses(expires_at);
	`
	if _, err := cache.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}

// Get returns a stored response unless it has expired.
func (cache *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt int64
	err := cache.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM responses WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached response: %w", err)
	}

	if cache.now().UnixNano() > expiresAt {
		if _, err := cache.db.ExecContext(ctx,
			"DELETE FROM responses WHERE key = ? AND expires_at = ?", key, expiresAt,
		); err != nil {
			return nil, false, fmt.Errorf("delete expired response: %w", err)
		}
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores or replaces a response.
func (cache *SQLite) Set(ctx context.Context, key string, value []byte) error {
	now := cache.now()
	_, err := cache.db.ExecContext(ctx,
		`INSERT INTO responses (key, value, stored_at, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, stored_at = excluded.stored_at, expires_at = excluded.expires_at`,
		key, value, now.UnixNano(), now.Add(cache.ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("store response: %w", err)
	}
	return nil
}

// Prune deletes every expired response and returns how many were removed.
func (cache *SQLite) Prune(ctx context.Context) (int64, error) {
	result, err := cache.db.ExecContext(ctx,
		"DELETE FROM responses WHERE expires_at < ?", cache.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune responses: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (cache *SQLite) Close() error {
	return cache.db.Close()
}
