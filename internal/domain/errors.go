package domain

import "errors"

var (
	// ErrInvalidCredentials indicates that the username or secret was incorrect.
	// It never distinguishes between the two.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotAuthenticated indicates a missing, unknown, expired or revoked session token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrContactNotFound indicates that the id is not among the caller's contacts.
	ErrContactNotFound = errors.New("contact not found")
	// ErrInvalidMessage indicates a malformed message or a client-forged server-assigned field.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrStoreUnavailable indicates a persistence failure. The operation was
	// aborted without persisting anything and may be retried.
	ErrStoreUnavailable = errors.New("store unavailable")
)
