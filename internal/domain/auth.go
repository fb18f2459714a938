// Package domain contains the core business entities and interfaces.
package domain

import (
	"time"
)

// User represents an account that can log in and exchange messages with its contacts.
type User struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Surname        string        `json:"surname"`
	Username       string        `json:"username"`
	Email          string        `json:"email"`
	PasswordDigest string        `json:"passwordDigest"`
	Avatar         string        `json:"avatar"`
	Contacts       []ContactLink `json:"contacts"`
}

// ContactLink is a directed edge from its owner to a counterpart, pointing at
// the history both of them share.
type ContactLink struct {
	ContactUserID string `json:"contactUserId"`
	HistoryID     string `json:"historyId"`
}

// PublicUser is the projection of a User that may leave the service.
// It has no field able to hold the password digest or the contact edges.
type PublicUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// ToPublicUser strips credentials and contact edges from u.
func ToPublicUser(u *User) PublicUser {
	return PublicUser{
		ID:       u.ID,
		Name:     u.Name,
		Surname:  u.Surname,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}

// Link returns the contact link from u to contactUserID.
func (u *User) Link(contactUserID string) (ContactLink, bool) {
	for _, l := range u.Contacts {
		if l.ContactUserID == contactUserID {
			return l, true
		}
	}
	return ContactLink{}, false
}

// Session represents an active user session.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	// ExpiresAt is zero for sessions that never expire.
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
