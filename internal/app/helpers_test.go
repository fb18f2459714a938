package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"messenger/internal/adapter/memory"
	"messenger/internal/app"
	"messenger/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockStateRepo struct {
	loadFn func(ctx context.Context) (*domain.State, error)
	saveFn func(ctx context.Context, s *domain.State) error
}

func (m *mockStateRepo) Load(ctx context.Context) (*domain.State, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return nil, domain.ErrStoreUnavailable
}

func (m *mockStateRepo) Save(ctx context.Context, s *domain.State) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, s)
	}
	return nil
}

// countingRepo is the in-memory repository with a save counter.
type countingRepo struct {
	*memory.DB
	mu    sync.Mutex
	saves int
}

func newCountingRepo() *countingRepo {
	return &countingRepo{DB: memory.New()}
}

func (r *countingRepo) Save(ctx context.Context, s *domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	return r.DB.Save(ctx, s)
}

func (r *countingRepo) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, evt domain.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return n.err
}

func (n *recordingNotifier) Events() []domain.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Event(nil), n.events...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	repo      *countingRepo
	store     *app.Store
	identity  *app.IdentityService
	contacts  *app.ContactService
	messaging *app.MessagingService
	notifier  *recordingNotifier
	clock     *fakeClock
}

var testDigest = app.NewBcryptDigest(bcrypt.MinCost)

type fixtureOpts struct {
	repo domain.StateRepository
	ttl  time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, fixtureOpts{})
}

func newFixtureWith(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	mem := newCountingRepo()
	repo := opts.repo
	if repo == nil {
		repo = mem
	}

	log := zerolog.Nop()
	store, err := app.OpenStore(context.Background(), repo, app.NewSeeder(testDigest, nil, clock.Now), log, app.WithClock(clock.Now))
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	return &fixture{
		repo:      mem,
		store:     store,
		identity:  app.NewIdentityService(store, testDigest, opts.ttl, log),
		contacts:  app.NewContactService(store),
		messaging: app.NewMessagingService(store, notifier, log),
		notifier:  notifier,
		clock:     clock,
	}
}

// login authenticates username with its seed secret and resolves the session.
func (f *fixture) login(t *testing.T, username string) (string, *domain.User) {
	t.Helper()
	token, _, err := f.identity.Authenticate(context.Background(), username, username+".secret")
	require.NoError(t, err)
	u, err := f.identity.CurrentUser(token)
	require.NoError(t, err)
	return token, u
}

func (f *fixture) user(t *testing.T, username string) *domain.User {
	t.Helper()
	var out *domain.User
	require.NoError(t, f.store.View(func(st *domain.State) error {
		u, ok := st.UserByUsername(username)
		if !ok {
			return errors.New("no such user: " + username)
		}
		out = u
		return nil
	}))
	return out
}
