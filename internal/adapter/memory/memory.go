// Package memory implements an in-memory state repository for development and testing.
package memory

import (
	"context"
	"fmt"
	"sync"

	"messenger/internal/domain"
)

// DB keeps the last saved snapshot in process memory.
type DB struct {
	mu    sync.Mutex
	state *domain.State
}

// New creates an empty in-memory repository. The first Load reports
// ErrStoreUnavailable so the caller seeds it.
func New() *DB {
	return &DB{}
}

// Ensure interfaces are met.
var _ domain.StateRepository = (*DB)(nil)

// Load returns a copy of the last saved snapshot.
func (db *DB) Load(ctx context.Context) (*domain.State, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.state == nil {
		return nil, fmt.Errorf("memory: nothing saved yet: %w", domain.ErrStoreUnavailable)
	}
	return db.state.Clone(), nil
}

// Save replaces the snapshot with a copy of s.
func (db *DB) Save(ctx context.Context, s *domain.State) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.state = s.Clone()
	return nil
}
