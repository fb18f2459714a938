package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"messenger/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_LoadMissingIsUnavailable(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "store.json"))
	_, err := r.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestRepo_LoadCorruptIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"empty.json":   "",
		"garbage.json": "{not json",
		"array.json":   "[]",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		_, err := New(path).Load(context.Background())
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable, name)
	}
}

func TestRepo_LoadReadErrorIsNotUnavailable(t *testing.T) {
	// A directory in place of the document cannot be read.
	_, err := New(t.TempDir()).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestRepo_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	r := New(path)

	sent := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s := domain.NewState()
	a := &domain.User{ID: "a", Username: "alice"}
	b := &domain.User{ID: "b", Username: "bob"}
	s.Users[a.ID], s.Users[b.ID] = a, b
	s.Connect(a, b, &domain.History{ID: "h", Messages: []domain.Message{{ID: "m", SenderID: "a", Text: "hi", SentAt: sent}}})
	s.Sessions["tok"] = &domain.Session{Token: "tok", UserID: "a", CreatedAt: sent}

	require.NoError(t, r.Save(ctx, s))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Users, got.Users)
	assert.Equal(t, "hi", got.Histories["h"].Messages[0].Text)
	assert.True(t, sent.Equal(got.Histories["h"].Messages[0].SentAt))
	assert.Nil(t, got.Histories["h"].Messages[0].ReadAt)
	assert.Equal(t, "a", got.Sessions["tok"].UserID)
	assert.Empty(t, got.CheckLinks())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestRepo_SaveFailureIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	// The parent "directory" is a regular file, so nothing can be written.
	r := New(filepath.Join(blocker, "store.json"))
	err := r.Save(context.Background(), domain.NewState())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
