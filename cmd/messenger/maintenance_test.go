package main

import (
	"bytes"
	"context"
	"testing"

	"messenger/internal/adapter/memory"
	"messenger/internal/app"
	"messenger/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type countingRepo struct {
	*memory.DB
	saves int
}

func (r *countingRepo) Save(ctx context.Context, s *domain.State) error {
	r.saves++
	return r.DB.Save(ctx, s)
}

func newTestSeeder() *app.Seeder {
	return app.NewSeeder(app.NewBcryptDigest(bcrypt.MinCost), nil, nil)
}

func TestRunSeed(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{DB: memory.New()}

	require.NoError(t, runSeed(ctx, repo, newTestSeeder(), false))
	assert.Equal(t, 1, repo.saves)

	assert.ErrorIs(t, runSeed(ctx, repo, newTestSeeder(), false), errSeeded)
	assert.Equal(t, 1, repo.saves)

	require.NoError(t, runSeed(ctx, repo, newTestSeeder(), true))
	assert.Equal(t, 2, repo.saves)
}

func TestRunCheck(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	var out bytes.Buffer
	assert.ErrorIs(t, runCheck(ctx, repo, &out), domain.ErrStoreUnavailable)

	require.NoError(t, runSeed(ctx, repo, newTestSeeder(), false))
	out.Reset()
	require.NoError(t, runCheck(ctx, repo, &out))
	assert.Contains(t, out.String(), "ok: 3 users, 3 histories")

	// Drop one side of a link.
	st, err := repo.Load(ctx)
	require.NoError(t, err)
	for _, u := range st.Users {
		u.Contacts = u.Contacts[1:]
		break
	}
	require.NoError(t, repo.Save(ctx, st))

	out.Reset()
	assert.ErrorIs(t, runCheck(ctx, repo, &out), errInconsistent)
	assert.NotEmpty(t, out.String())
}
