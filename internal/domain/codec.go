package domain

import (
	"encoding/json"
	"fmt"
)

// EncodeState serializes s as the persisted document.
func EncodeState(s *State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %v: %w", err, ErrStoreUnavailable)
	}
	return data, nil
}

// DecodeState parses a persisted document. Empty or malformed input is
// reported as ErrStoreUnavailable so the caller can fall back to seeding.
func DecodeState(data []byte) (*State, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode state: empty document: %w", ErrStoreUnavailable)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode state: %v: %w", err, ErrStoreUnavailable)
	}
	if s.Users == nil {
		return nil, fmt.Errorf("decode state: no users: %w", ErrStoreUnavailable)
	}
	s.Normalize()
	return &s, nil
}
