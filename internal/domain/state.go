package domain

import (
	"context"
	"fmt"
	"time"
)

// State is the whole persisted aggregate. It is always loaded and saved as
// one document.
type State struct {
	Users         map[string]*User    `json:"users"`
	Histories     map[string]*History `json:"histories"`
	Sessions      map[string]*Session `json:"sessions"`
	InitializedAt time.Time           `json:"initializedAt"`
}

// NewState returns an empty state with all maps allocated.
func NewState() *State {
	return &State{
		Users:     make(map[string]*User),
		Histories: make(map[string]*History),
		Sessions:  make(map[string]*Session),
	}
}

// StateRepository is the port for whole-snapshot persistence.
// Load fails with ErrStoreUnavailable only when no snapshot exists yet or the
// document is corrupt. Any other read failure is returned as is, so callers
// never mistake an unreachable backend for an empty one. Save fails with
// ErrStoreUnavailable on write errors.
type StateRepository interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}

// Normalize allocates nil maps, as found in documents written by hand or by
// older versions.
func (s *State) Normalize() {
	if s.Users == nil {
		s.Users = make(map[string]*User)
	}
	if s.Histories == nil {
		s.Histories = make(map[string]*History)
	}
	if s.Sessions == nil {
		s.Sessions = make(map[string]*Session)
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := &State{
		Users:         make(map[string]*User, len(s.Users)),
		Histories:     make(map[string]*History, len(s.Histories)),
		Sessions:      make(map[string]*Session, len(s.Sessions)),
		InitializedAt: s.InitializedAt,
	}
	for id, u := range s.Users {
		cu := *u
		cu.Contacts = append([]ContactLink(nil), u.Contacts...)
		c.Users[id] = &cu
	}
	for id, h := range s.Histories {
		ch := *h
		ch.Messages = make([]Message, len(h.Messages))
		for i, m := range h.Messages {
			if m.ReadAt != nil {
				readAt := *m.ReadAt
				m.ReadAt = &readAt
			}
			ch.Messages[i] = m
		}
		c.Histories[id] = &ch
	}
	for tok, sess := range s.Sessions {
		cs := *sess
		c.Sessions[tok] = &cs
	}
	return c
}

// UserByUsername finds a user by exact username.
func (s *State) UserByUsername(username string) (*User, bool) {
	for _, u := range s.Users {
		if u.Username == username {
			return u, true
		}
	}
	return nil, false
}

// Conversation resolves the counterpart and the shared history of owner's
// link to contactUserID. It fails with ErrContactNotFound when the two users
// are not linked.
func (s *State) Conversation(owner *User, contactUserID string) (*User, *History, error) {
	link, ok := owner.Link(contactUserID)
	if !ok {
		return nil, nil, ErrContactNotFound
	}
	contact, ok := s.Users[link.ContactUserID]
	if !ok {
		return nil, nil, fmt.Errorf("user %s: dangling contact %s: %w", owner.ID, link.ContactUserID, ErrContactNotFound)
	}
	h, ok := s.Histories[link.HistoryID]
	if !ok {
		return nil, nil, fmt.Errorf("user %s: dangling history %s: %w", owner.ID, link.HistoryID, ErrContactNotFound)
	}
	return contact, h, nil
}

// Connect makes a and b contacts of each other through h.
func (s *State) Connect(a, b *User, h *History) {
	h.Participants = [2]string{a.ID, b.ID}
	s.Histories[h.ID] = h
	a.Contacts = append(a.Contacts, ContactLink{ContactUserID: b.ID, HistoryID: h.ID})
	b.Contacts = append(b.Contacts, ContactLink{ContactUserID: a.ID, HistoryID: h.ID})
}

// CheckLinks verifies the structural invariants of the graph: every link has
// a matching reverse link sharing the same history, every history is shared
// by exactly its two linked participants, and every message respects the
// sender and timestamp rules. It returns every violation found.
func (s *State) CheckLinks() []error {
	var errs []error
	used := make(map[string]int, len(s.Histories))

	for _, u := range s.Users {
		seen := make(map[string]bool, len(u.Contacts))
		for _, l := range u.Contacts {
			if seen[l.ContactUserID] {
				errs = append(errs, fmt.Errorf("user %s: duplicate link to %s", u.ID, l.ContactUserID))
			}
			seen[l.ContactUserID] = true

			if l.ContactUserID == u.ID {
				errs = append(errs, fmt.Errorf("user %s: linked to itself", u.ID))
				continue
			}
			other, ok := s.Users[l.ContactUserID]
			if !ok {
				errs = append(errs, fmt.Errorf("user %s: link to unknown user %s", u.ID, l.ContactUserID))
				continue
			}
			h, ok := s.Histories[l.HistoryID]
			if !ok {
				errs = append(errs, fmt.Errorf("user %s: link to unknown history %s", u.ID, l.HistoryID))
				continue
			}
			used[h.ID]++
			if !h.HasParticipant(u.ID) || !h.HasParticipant(other.ID) {
				errs = append(errs, fmt.Errorf("history %s: participants %v do not match link %s->%s", h.ID, h.Participants, u.ID, other.ID))
			}
			back, ok := other.Link(u.ID)
			if !ok {
				errs = append(errs, fmt.Errorf("user %s: missing reverse link from %s", u.ID, other.ID))
			} else if back.HistoryID != l.HistoryID {
				errs = append(errs, fmt.Errorf("users %s/%s: reverse link points at history %s, want %s", u.ID, other.ID, back.HistoryID, l.HistoryID))
			}
		}
	}

	for id, h := range s.Histories {
		if used[id] != 2 {
			errs = append(errs, fmt.Errorf("history %s: referenced by %d links, want 2", id, used[id]))
		}
		for i := range h.Messages {
			m := &h.Messages[i]
			if !h.HasParticipant(m.SenderID) {
				errs = append(errs, fmt.Errorf("history %s: message %s sent by non-participant %s", id, m.ID, m.SenderID))
			}
			if m.ReadAt != nil && m.ReadAt.Before(m.SentAt) {
				errs = append(errs, fmt.Errorf("history %s: message %s read before it was sent", id, m.ID))
			}
			if i > 0 && m.SentAt.Before(h.Messages[i-1].SentAt) {
				errs = append(errs, fmt.Errorf("history %s: message %s out of order", id, m.ID))
			}
		}
	}

	for tok, sess := range s.Sessions {
		if _, ok := s.Users[sess.UserID]; !ok {
			errs = append(errs, fmt.Errorf("session %.8s…: unknown user %s", tok, sess.UserID))
		}
	}
	return errs
}
