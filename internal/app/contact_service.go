package app

import (
	"context"
	"strings"

	"messenger/internal/domain"
)

// ContactService resolves a user's contacts and their shared histories.
type ContactService struct {
	store *Store
}

// NewContactService creates a ContactService backed by the given store.
func NewContactService(store *Store) *ContactService {
	return &ContactService{store: store}
}

// ListContacts returns the user's contacts in link order. A non-empty filter
// keeps only contacts whose name, surname or username contains it, ignoring case.
func (s *ContactService) ListContacts(user *domain.User, filter string) ([]domain.ContactSummary, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))

	var out []domain.ContactSummary
	err := s.store.View(func(st *domain.State) error {
		owner, ok := st.Users[user.ID]
		if !ok {
			return domain.ErrNotAuthenticated
		}
		out = make([]domain.ContactSummary, 0, len(owner.Contacts))
		for _, link := range owner.Contacts {
			contact, h, err := st.Conversation(owner, link.ContactUserID)
			if err != nil {
				return err
			}
			if filter != "" && !matches(contact, filter) {
				continue
			}
			out = append(out, summarize(owner, contact, h))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetContact returns one contact of the user.
func (s *ContactService) GetContact(user *domain.User, contactID string) (*domain.ContactSummary, error) {
	var out domain.ContactSummary
	err := s.store.View(func(st *domain.State) error {
		owner, ok := st.Users[user.ID]
		if !ok {
			return domain.ErrNotAuthenticated
		}
		contact, h, err := st.Conversation(owner, contactID)
		if err != nil {
			return err
		}
		out = summarize(owner, contact, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHistory returns the history shared with contactID. Viewing it marks
// every message the user has not read yet as read.
func (s *ContactService) GetHistory(ctx context.Context, user *domain.User, contactID string) (*domain.HistoryView, error) {
	var view domain.HistoryView
	err := s.store.Update(ctx, func(st *domain.State) error {
		owner, ok := st.Users[user.ID]
		if !ok {
			return domain.ErrNotAuthenticated
		}
		contact, h, err := st.Conversation(owner, contactID)
		if err != nil {
			return err
		}

		changed := h.MarkRead(owner.ID, s.store.Now())
		view = domain.HistoryView{
			ContactID:   contact.ID,
			Messages:    append([]domain.Message(nil), h.Messages...),
			UnreadCount: h.UnreadCount(owner.ID),
		}
		if changed == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if view.Messages == nil {
		view.Messages = []domain.Message{}
	}
	return &view, nil
}

func summarize(owner, contact *domain.User, h *domain.History) domain.ContactSummary {
	return domain.ContactSummary{
		PublicUser:  domain.ToPublicUser(contact),
		UnreadCount: h.UnreadCount(owner.ID),
	}
}

func matches(u *domain.User, lowered string) bool {
	return strings.Contains(strings.ToLower(u.Name), lowered) ||
		strings.Contains(strings.ToLower(u.Surname), lowered) ||
		strings.Contains(strings.ToLower(u.Username), lowered)
}
