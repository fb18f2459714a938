// Package postgres stores the state snapshot in a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"messenger/internal/domain"

	_ "github.com/lib/pq"
)

// snapshotID is the primary key of the single snapshot row.
const snapshotID = 1

// DB wraps a *sql.DB and implements domain.StateRepository.
type DB struct {
	sql *sql.DB
}

var _ domain.StateRepository = (*DB)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messenger_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Load reads the snapshot row.
func (d *DB) Load(ctx context.Context) (*domain.State, error) {
	var doc []byte
	err := d.sql.QueryRowContext(ctx,
		"SELECT doc FROM messenger_state WHERE id = $1", snapshotID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("postgres: no snapshot: %w", domain.ErrStoreUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
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
		`INSERT INTO messenger_state (id, doc, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		snapshotID, doc, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}
