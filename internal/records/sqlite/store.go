// Package sqlite persists visitor-scoped records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"matchlab/internal/records"
	"matchlab/internal/records/sqlite/migrations"
)

// Store provides SQLite-backed key-value storage grouped by scope.
type Store struct {
	sqlDB *sql.DB
}

// Entry is one stored key in a scope.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Open opens and migrates a records SQLite store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Scope returns the KV for one visitor scope.
func (s *Store) Scope(scope string) records.KV {
	return scopedKV{store: s, scope: scope}
}

// Get loads a value by scope and key.
func (s *Store) Get(ctx context.Context, scope, key string) (string, bool, error) {
	if s == nil || s.sqlDB == nil {
		return "", false, records.ErrUnavailable
	}
	var value string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE scope = ? AND key = ?`,
		scope, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get entry: %w", err)
	}
	return value, true, nil
}

// Set upserts a value by scope and key.
func (s *Store) Set(ctx context.Context, scope, key, value string) error {
	if s == nil || s.sqlDB == nil {
		return records.ErrUnavailable
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("entry key is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO kv_entries (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(scope, key) DO UPDATE SET
		    value = excluded.value,
		    updated_at = excluded.updated_at`,
		scope, key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put entry: %w", err)
	}
	return nil
}

// List returns every entry in scope ordered by key.
func (s *Store) List(ctx context.Context, scope string) ([]Entry, error) {
	if s == nil || s.sqlDB == nil {
		return nil, records.ErrUnavailable
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT key, value, updated_at FROM kv_entries WHERE scope = ? ORDER BY key`,
		scope,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var updatedAt int64
		if err := rows.Scan(&entry.Key, &entry.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Delete removes keys from scope and reports how many rows went away. With
// no keys, every best-time key of the scope is removed.
func (s *Store) Delete(ctx context.Context, scope string, keys ...string) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, records.ErrUnavailable
	}
	var (
		res sql.Result
		err error
	)
	if len(keys) == 0 {
		res, err = s.sqlDB.ExecContext(ctx,
			`DELETE FROM kv_entries WHERE scope = ? AND substr(key, 1, length(?)) = ?`,
			scope, records.KeyPrefix, records.KeyPrefix,
		)
	} else {
		args := make([]any, 0, len(keys)+1)
		args = append(args, scope)
		for _, key := range keys {
			args = append(args, key)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
		res, err = s.sqlDB.ExecContext(ctx,
			`DELETE FROM kv_entries WHERE scope = ? AND key IN (`+placeholders+`)`,
			args...,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	return n, nil
}

type scopedKV struct {
	store *Store
	scope string
}

func (kv scopedKV) Get(ctx context.Context, key string) (string, bool, error) {
	return kv.store.Get(ctx, kv.scope, key)
}

func (kv scopedKV) Set(ctx context.Context, key, value string) error {
	return kv.store.Set(ctx, kv.scope, key, value)
}
