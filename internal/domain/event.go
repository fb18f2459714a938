package domain

import (
	"context"
	"time"
)

// EventMessage is emitted after a message has been stored.
const EventMessage = "message"

// Event is a real-time notification payload. Only identifiers are carried;
// clients fetch the content through the regular read operations.
type Event struct {
	Type        string    `json:"event"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	MessageID   string    `json:"messageId,omitempty"`
	SentAt      time.Time `json:"sentAt"`
}

// Notifier is the port for best-effort event fan-out.
type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// Digest turns a secret into a comparable one-way fingerprint.
type Digest interface {
	Sum(secret string) (string, error)
	Matches(digest, secret string) bool
}
