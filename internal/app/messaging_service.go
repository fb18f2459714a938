package app

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"messenger/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxMessageLength is the longest accepted message text, in characters.
const MaxMessageLength = 4096

// MessagingService appends messages to histories and announces them.
type MessagingService struct {
	store    *Store
	notifier domain.Notifier
	log      zerolog.Logger
}

// NewMessagingService creates a MessagingService. notifier may be nil.
func NewMessagingService(store *Store, notifier domain.Notifier, log zerolog.Logger) *MessagingService {
	return &MessagingService{store: store, notifier: notifier, log: log}
}

// Send stores a message from sender to recipientID and then notifies both
// parties. A notification failure never fails the send.
func (s *MessagingService) Send(ctx context.Context, sender *domain.User, recipientID string, in domain.OutgoingMessage) (*domain.Message, error) {
	if err := validateOutgoing(in); err != nil {
		return nil, err
	}

	var msg domain.Message
	err := s.store.Update(ctx, func(st *domain.State) error {
		owner, ok := st.Users[sender.ID]
		if !ok {
			return domain.ErrNotAuthenticated
		}
		_, h, err := st.Conversation(owner, recipientID)
		if err != nil {
			return err
		}
		msg = domain.Message{
			ID:       uuid.NewString(),
			SenderID: owner.ID,
			Text:     in.Text,
			SentAt:   h.NextSentAt(s.store.Now()),
		}
		h.Messages = append(h.Messages, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, domain.Event{
		Type:        domain.EventMessage,
		SenderID:    msg.SenderID,
		RecipientID: recipientID,
		MessageID:   msg.ID,
		SentAt:      msg.SentAt,
	})
	return &msg, nil
}

func (s *MessagingService) notify(ctx context.Context, evt domain.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, evt); err != nil {
		s.log.Warn().Err(err).
			Str("sender_id", evt.SenderID).
			Str("recipient_id", evt.RecipientID).
			Msg("notification dropped")
	}
}

func validateOutgoing(in domain.OutgoingMessage) error {
	if in.ID != "" || in.SenderID != "" || in.SentAt != nil || in.ReadAt != nil {
		return fmt.Errorf("%w: id, senderId, sentAt and readAt are assigned by the server", domain.ErrInvalidMessage)
	}
	if strings.TrimSpace(in.Text) == "" {
		return fmt.Errorf("%w: text is required", domain.ErrInvalidMessage)
	}
	if utf8.RuneCountInString(in.Text) > MaxMessageLength {
		return fmt.Errorf("%w: text exceeds %d characters", domain.ErrInvalidMessage, MaxMessageLength)
	}
	return nil
}
