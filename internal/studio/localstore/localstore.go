// Package localstore provides the studio's persistent local cache: a
// string-keyed, string-valued store that survives page reloads within a
// session. The production implementation is backed by libsql; tests and
// ephemeral runs use the in-memory implementation.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

const driverLibsql = "libsql"

// KV is the minimal surface the studio needs from its persistent cache.
// Keys and values are opaque strings; a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// Store is the libsql-backed KV implementation.
type Store struct {
	DB *sql.DB
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS studio_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
}

// Open initializes the local store at path, creating parent directories and
// the schema as needed. The special path ":memory:" opens an ephemeral store.
func Open(ctx context.Context, path string) (*Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverLibsql, dsn)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping local store: %w", err)
	}

	s := &Store{DB: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("local store migration failed: %w", err)
		}
	}
	return nil
}

// Get returns the value for key, reporting presence separately from errors.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.DB == nil {
		return "", false, errors.New("local store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var value string
	row := s.DB.QueryRowContext(ctx, `SELECT value FROM studio_state WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("fetch %s: %w", key, err)
	}

	return value, true, nil
}

// Set stores value under key, replacing any previous entry.
func (s *Store) Set(ctx context.Context, key string, value string) error {
	if s == nil || s.DB == nil {
		return errors.New("local store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO studio_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}

	return nil
}

// Delete removes the entry for key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.DB == nil {
		return errors.New("local store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM studio_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

func buildDSN(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("local store path is required")
	}

	if path == ":memory:" {
		return path, nil
	}

	if strings.HasPrefix(path, "file:") || strings.HasPrefix(path, "libsql:") {
		return path, nil
	}

	if err := ensureStoreDir(path); err != nil {
		return "", err
	}
	return "file:" + filepath.Clean(path), nil
}

func ensureStoreDir(path string) error {
	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." || dir == string(filepath.Separator) {
		return nil
	}

	// #nosec G301 -- data directories use 0755 for multi-user access compatibility
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create local store directory: %w", err)
	}
	return nil
}
