// Package sqlite stores the state snapshot in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"messenger/internal/domain"

	_ "modernc.org/sqlite"
)

// DB is a single-row snapshot table in a SQLite file.
type DB struct {
	sql *sql.DB
}

var _ domain.StateRepository = (*DB)(nil)

// Open opens (or creates) the database at path with WAL journaling and
// creates the snapshot table.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	s, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer at a time; the store serializes saves anyway.
	s.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	if _, err := s.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS messenger_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		doc BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{sql: s}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Load reads the snapshot row.
func (d *DB) Load(ctx context.Context) (*domain.State, error) {
	var doc []byte
	err := d.sql.QueryRowContext(ctx, "SELECT doc FROM messenger_state WHERE id = 1").Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: no snapshot: %w", domain.ErrStoreUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return domain.DecodeState(doc)
}

// Save replaces the snapshot row.
func (d *DB) Save(ctx context.Context, s *domain.State) error {
	doc, err := domain.EncodeState(s)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO messenger_state (id, doc, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		doc, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}
