package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"messenger/internal/domain"

	"github.com/rs/zerolog"
)

// tokenBytes is the session token entropy: 256 bits.
const tokenBytes = 32

// IdentityService handles authentication and session management.
type IdentityService struct {
	store  *Store
	digest domain.Digest
	ttl    time.Duration
	log    zerolog.Logger

	// decoy is compared against when the username is unknown, so both
	// failure paths spend the same digest work.
	decoy string
}

// NewIdentityService creates a new identity service. A ttl of zero issues
// sessions that never expire.
func NewIdentityService(store *Store, digest domain.Digest, ttl time.Duration, log zerolog.Logger) *IdentityService {
	decoy, _ := digest.Sum("decoy-secret")
	return &IdentityService{
		store:  store,
		digest: digest,
		ttl:    ttl,
		log:    log,
		decoy:  decoy,
	}
}

// Authenticate checks the credentials and opens a session for the user.
func (s *IdentityService) Authenticate(ctx context.Context, username, secret string) (string, *domain.PublicUser, error) {
	var userID, digest string
	_ = s.store.View(func(st *domain.State) error {
		if u, ok := st.UserByUsername(username); ok {
			userID, digest = u.ID, u.PasswordDigest
		}
		return nil
	})

	// The digest comparison runs outside the store lock.
	if userID == "" {
		s.digest.Matches(s.decoy, secret)
		return "", nil, domain.ErrInvalidCredentials
	}
	if !s.digest.Matches(digest, secret) {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, user, err := s.openSession(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	s.log.Info().Str("user_id", userID).Msg("login")
	return token, user, nil
}

// AuthenticateExternal opens a session for an existing user whose identity
// was already verified elsewhere, such as an OpenID Connect provider.
func (s *IdentityService) AuthenticateExternal(ctx context.Context, username string) (string, *domain.PublicUser, error) {
	var userID string
	_ = s.store.View(func(st *domain.State) error {
		if u, ok := st.UserByUsername(username); ok {
			userID = u.ID
		}
		return nil
	})
	if userID == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, user, err := s.openSession(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	s.log.Info().Str("user_id", userID).Msg("external login")
	return token, user, nil
}

func (s *IdentityService) openSession(ctx context.Context, userID string) (string, *domain.PublicUser, error) {
	token, err := generateToken()
	if err != nil {
		return "", nil, err
	}

	var pub domain.PublicUser
	err = s.store.Update(ctx, func(st *domain.State) error {
		u, ok := st.Users[userID]
		if !ok {
			return domain.ErrInvalidCredentials
		}
		now := s.store.Now()
		for tok, sess := range st.Sessions {
			if sess.Expired(now) {
				delete(st.Sessions, tok)
			}
		}
		sess := &domain.Session{Token: token, UserID: u.ID, CreatedAt: now}
		if s.ttl > 0 {
			sess.ExpiresAt = now.Add(s.ttl)
		}
		st.Sessions[token] = sess
		pub = domain.ToPublicUser(u)
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return token, &pub, nil
}

// Revoke ends the session identified by token. An expired session is
// treated as absent.
func (s *IdentityService) Revoke(ctx context.Context, token string) error {
	var userID string
	err := s.store.Update(ctx, func(st *domain.State) error {
		sess, ok := st.Sessions[token]
		if !ok || sess.Expired(s.store.Now()) {
			return domain.ErrNotAuthenticated
		}
		userID = sess.UserID
		delete(st.Sessions, token)
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Msg("logout")
	return nil
}

// ResolveUser returns the user owning token in st.
func (s *IdentityService) ResolveUser(token string, st *domain.State) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	sess, ok := st.Sessions[token]
	if !ok || sess.Expired(s.store.Now()) {
		return nil, domain.ErrNotAuthenticated
	}
	u, ok := st.Users[sess.UserID]
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	return u, nil
}

// CurrentUser resolves token against the current state.
func (s *IdentityService) CurrentUser(token string) (*domain.User, error) {
	var user *domain.User
	err := s.store.View(func(st *domain.State) error {
		u, err := s.ResolveUser(token, st)
		user = u
		return err
	})
	return user, err
}

// ForwardedUser resolves the username asserted by a trusted reverse proxy.
// Unknown usernames are not provisioned.
func (s *IdentityService) ForwardedUser(username string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrNotAuthenticated
	}
	var user *domain.User
	err := s.store.View(func(st *domain.State) error {
		u, ok := st.UserByUsername(username)
		if !ok {
			return domain.ErrNotAuthenticated
		}
		user = u
		return nil
	})
	return user, err
}

// Sanitize projects u for external exposure.
func (s *IdentityService) Sanitize(u *domain.User) domain.PublicUser {
	return domain.ToPublicUser(u)
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
