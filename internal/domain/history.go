package domain

import (
	"time"
)

// Message is a single text sent inside a History.
type Message struct {
	ID       string     `json:"id"`
	SenderID string     `json:"senderId"`
	Text     string     `json:"text"`
	SentAt   time.Time  `json:"sentAt"`
	ReadAt   *time.Time `json:"readAt"`
}

// UnreadFor reports whether m is unread with respect to userID: not yet read
// and sent by the other participant.
func (m *Message) UnreadFor(userID string) bool {
	return m.ReadAt == nil && m.SenderID != userID
}

// History is the ordered thread shared by exactly two users. Messages are
// kept in insertion order, which is also chronological.
type History struct {
	ID           string    `json:"id"`
	Participants [2]string `json:"participants"`
	Messages     []Message `json:"messages"`
}

// HasParticipant reports whether userID is one of the two participants.
func (h *History) HasParticipant(userID string) bool {
	return h.Participants[0] == userID || h.Participants[1] == userID
}

// UnreadCount returns the number of messages unread with respect to userID.
func (h *History) UnreadCount(userID string) int {
	n := 0
	for i := range h.Messages {
		if h.Messages[i].UnreadFor(userID) {
			n++
		}
	}
	return n
}

// MarkRead sets ReadAt on every message unread with respect to userID and
// returns how many were changed. ReadAt is never earlier than SentAt.
func (h *History) MarkRead(userID string, at time.Time) int {
	n := 0
	for i := range h.Messages {
		m := &h.Messages[i]
		if !m.UnreadFor(userID) {
			continue
		}
		readAt := at
		if readAt.Before(m.SentAt) {
			readAt = m.SentAt
		}
		m.ReadAt = &readAt
		n++
	}
	return n
}

// NextSentAt returns the timestamp to assign to a message appended at now.
// A clock step backwards is clamped to the last message so SentAt never
// decreases within a history.
func (h *History) NextSentAt(now time.Time) time.Time {
	if len(h.Messages) == 0 {
		return now
	}
	last := h.Messages[len(h.Messages)-1].SentAt
	if now.Before(last) {
		return last
	}
	return now
}

// HistoryView is what a participant sees when opening a history.
type HistoryView struct {
	ContactID   string    `json:"contactId"`
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unreadCount"`
}

// ContactSummary is a sanitized counterpart with its unread counter.
type ContactSummary struct {
	PublicUser
	UnreadCount int `json:"unreadCount"`
}

// OutgoingMessage is the client payload of a send request. Only Text may be
// set; the remaining fields are server-assigned and present here so that a
// forged value can be detected and rejected.
type OutgoingMessage struct {
	Text     string     `json:"text"`
	ID       string     `json:"id,omitempty"`
	SenderID string     `json:"senderId,omitempty"`
	SentAt   *time.Time `json:"sentAt,omitempty"`
	ReadAt   *time.Time `json:"readAt,omitempty"`
}
