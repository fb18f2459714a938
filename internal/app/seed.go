package app

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"messenger/internal/domain"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// seedNamespace scopes the name-based UUIDs of seeded users and histories.
var seedNamespace = uuid.MustParse("5f0c3a36-9a43-4b8e-a1a4-2f7d8c1e6b90")

type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Surname  string `yaml:"surname"`
	Email    string `yaml:"email"`
	Secret   string `yaml:"secret"`
	Avatar   string `yaml:"avatar"`
}

// Seeder builds the initial closed social graph: every pair of seed users is
// linked through one shared history holding two example messages.
type Seeder struct {
	digest  domain.Digest
	fixture []byte
	now     func() time.Time
}

// NewSeeder returns a seeder for fixture, a YAML document with a "users"
// list. A nil fixture selects the built-in users.
func NewSeeder(digest domain.Digest, fixture []byte, now func() time.Time) *Seeder {
	if fixture == nil {
		fixture = defaultSeed
	}
	if now == nil {
		now = time.Now
	}
	return &Seeder{digest: digest, fixture: fixture, now: now}
}

// Initialize builds a fresh state. User and history ids are derived from the
// usernames, so the same fixture always yields the same graph.
func (s *Seeder) Initialize() (*domain.State, error) {
	var f seedFile
	if err := yaml.Unmarshal(s.fixture, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if len(f.Users) < 2 {
		return nil, errors.New("seed: at least two users are required")
	}

	st := domain.NewState()
	st.InitializedAt = s.now().UTC()

	users := make([]*domain.User, 0, len(f.Users))
	seen := make(map[string]bool, len(f.Users))
	for _, su := range f.Users {
		if su.Username == "" || su.Secret == "" {
			return nil, errors.New("seed: username and secret are required")
		}
		if seen[su.Username] {
			return nil, fmt.Errorf("seed: duplicate username %q", su.Username)
		}
		seen[su.Username] = true

		digest, err := s.digest.Sum(su.Secret)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", su.Username, err)
		}
		u := &domain.User{
			ID:             uuid.NewSHA1(seedNamespace, []byte("user:"+su.Username)).String(),
			Name:           su.Name,
			Surname:        su.Surname,
			Username:       su.Username,
			Email:          su.Email,
			PasswordDigest: digest,
			Avatar:         su.Avatar,
		}
		st.Users[u.ID] = u
		users = append(users, u)
	}

	for i, a := range users {
		for _, b := range users[i+1:] {
			h := &domain.History{
				ID:       uuid.NewSHA1(seedNamespace, []byte("history:"+a.Username+":"+b.Username)).String(),
				Messages: greetings(a, b, st.InitializedAt),
			}
			st.Connect(a, b, h)
		}
	}
	return st, nil
}

// greetings returns b greeting a two hours before at, still unread, followed
// by a's reply one hour before at, read as soon as it was sent.
func greetings(a, b *domain.User, at time.Time) []domain.Message {
	replied := at.Add(-time.Hour)
	return []domain.Message{
		{
			ID:       uuid.NewString(),
			SenderID: b.ID,
			Text:     "Ciao " + a.Name,
			SentAt:   at.Add(-2 * time.Hour),
		},
		{
			ID:       uuid.NewString(),
			SenderID: a.ID,
			Text:     "Ciao " + b.Name,
			SentAt:   replied,
			ReadAt:   &replied,
		},
	}
}
