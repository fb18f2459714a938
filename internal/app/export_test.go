package app

import "messenger/internal/domain"

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}
