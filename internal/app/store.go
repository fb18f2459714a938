// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"messenger/internal/domain"

	"github.com/rs/zerolog"
)

// errNoChange lets an Update callback report that it mutated nothing, so the
// save can be skipped.
var errNoChange = errors.New("no change")

// Initializer builds the state used when the repository holds none.
type Initializer interface {
	Initialize() (*domain.State, error)
}

// Store owns the state graph. Every write runs as one critical section:
// clone the current state, mutate the clone, save it, and only then publish
// it. A failed save leaves the published state untouched.
//
// Published states are never mutated again, so values read inside View stay
// consistent after the lock is released.
type Store struct {
	mu    sync.RWMutex
	repo  domain.StateRepository
	state *domain.State
	now   func() time.Time
	log   zerolog.Logger
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now as the source of server-assigned timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// OpenStore loads the state from repo. When the repository reports
// ErrStoreUnavailable the state is built by init and persisted immediately.
func OpenStore(ctx context.Context, repo domain.StateRepository, init Initializer, log zerolog.Logger, opts ...StoreOption) (*Store, error) {
	s := &Store{repo: repo, now: time.Now, log: log}
	for _, opt := range opts {
		opt(s)
	}

	state, err := repo.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Warn().Err(err).Msg("no usable stored state, initializing seed state")
		state, err = init.Initialize()
		if err != nil {
			return nil, fmt.Errorf("initialize state: %w", err)
		}
		if err := repo.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("persist seed state: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("load state: %w", err)
	}
	state.Normalize()

	s.state = state
	log.Info().
		Int("users", len(state.Users)).
		Int("histories", len(state.Histories)).
		Int("sessions", len(state.Sessions)).
		Msg("store ready")
	return s, nil
}

// View runs fn with shared access to the current state. fn must not mutate it.
func (s *Store) View(fn func(*domain.State) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// Update runs fn with exclusive access to a copy of the current state and
// persists the result. Any error from fn, or from the save, discards the copy.
func (s *Store) Update(ctx context.Context, fn func(*domain.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}

	if err := s.repo.Save(ctx, next); err != nil {
		s.log.Error().Stack().Err(err).Msg("persist state")
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		return err
	}
	s.state = next
	return nil
}

// Now returns the store clock's current time in UTC.
func (s *Store) Now() time.Time {
	return s.now().UTC()
}
